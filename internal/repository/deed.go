package repository

import (
	"context"
	"time"

	"deedapi/internal/model"
)

// DeedRepository defines data access for mortgage deeds using SQL queries only.
// No business logic here — strictly persistence operations.
type DeedRepository interface {
	// Create inserts a new deed row and returns the stored record.
	Create(ctx context.Context, deed *model.Deed) (*model.Deed, error)

	// FindByID returns a deed by its ID.
	FindByID(ctx context.Context, id string) (*model.Deed, error)

	// List returns a paginated, filtered list of deeds and the total row count.
	List(ctx context.Context, f DeedFilter, pq PageQuery) (*PageResult[model.Deed], error)

	// AdvanceStatus conditionally moves a deed from one of the given statuses
	// to the target status in a single statement. It returns true if the row
	// was updated and false if the deed was already past the guard.
	AdvanceStatus(ctx context.Context, deedID string, from []model.DeedStatus, to model.DeedStatus) (bool, error)

	// Stats returns aggregate counts for the statistics endpoints.
	Stats(ctx context.Context) (*DeedStats, error)
}

// DeedFilter holds the optional list filters. Nil/zero fields are ignored.
type DeedFilter struct {
	Status               *model.DeedStatus
	HousingCooperativeID *string
	BankID               *int64
	CreatedAfter         *time.Time
	CreatedBefore        *time.Time
	CreditNumbers        []string
	BorrowerPersonNumber string
}

// DeedStats holds the aggregate numbers behind /statistics/summary.
type DeedStats struct {
	TotalDeeds              int
	TotalCooperatives       int
	StatusDistribution      map[model.DeedStatus]int
	AverageBorrowersPerDeed float64
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}

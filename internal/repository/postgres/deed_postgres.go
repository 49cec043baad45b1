package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"deedapi/internal/model"
	"deedapi/internal/repository"
)

// DeedPostgres is a PostgreSQL implementation of repository.DeedRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DeedPostgres struct {
	db *sql.DB
}

// NewDeedPostgres creates a new DeedPostgres repository.
func NewDeedPostgres(db *sql.DB) *DeedPostgres {
	return &DeedPostgres{db: db}
}

var _ repository.DeedRepository = (*DeedPostgres)(nil)

const deedColumns = `id, credit_number, status, bank_id, housing_cooperative_id,
	apartment_address, apartment_postal_code, apartment_city, apartment_number,
	created_by, created_by_email, created_at`

func scanDeed(row interface{ Scan(...any) error }) (*model.Deed, error) {
	var d model.Deed
	var coopID sql.NullString
	if err := row.Scan(
		&d.ID,
		&d.CreditNumber,
		&d.Status,
		&d.BankID,
		&coopID,
		&d.ApartmentAddress,
		&d.ApartmentPostalCode,
		&d.ApartmentCity,
		&d.ApartmentNumber,
		&d.CreatedBy,
		&d.CreatedByEmail,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	if coopID.Valid {
		d.HousingCooperativeID = &coopID.String
	}
	return &d, nil
}

// Create inserts a new deed row and returns the stored record.
func (r *DeedPostgres) Create(ctx context.Context, deed *model.Deed) (*model.Deed, error) {
	q := `
		INSERT INTO mortgage_deeds (id, credit_number, status, bank_id, housing_cooperative_id,
			apartment_address, apartment_postal_code, apartment_city, apartment_number,
			created_by, created_by_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + deedColumns
	var coopID any
	if deed.HousingCooperativeID != nil {
		coopID = *deed.HousingCooperativeID
	}
	row := r.db.QueryRowContext(ctx, q,
		deed.ID,
		deed.CreditNumber,
		deed.Status,
		deed.BankID,
		coopID,
		deed.ApartmentAddress,
		deed.ApartmentPostalCode,
		deed.ApartmentCity,
		deed.ApartmentNumber,
		deed.CreatedBy,
		deed.CreatedByEmail,
		deed.CreatedAt,
	)
	return scanDeed(row)
}

// FindByID fetches a single deed by its ID.
func (r *DeedPostgres) FindByID(ctx context.Context, id string) (*model.Deed, error) {
	q := `SELECT ` + deedColumns + ` FROM mortgage_deeds WHERE id = $1`
	return scanDeed(r.db.QueryRowContext(ctx, q, id))
}

// buildFilter renders the WHERE clause for f starting at placeholder index
// len(args)+1 and appends the corresponding arguments.
func buildFilter(f repository.DeedFilter, args []any) (string, []any) {
	var conds []string
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.HousingCooperativeID != nil {
		add("housing_cooperative_id = $%d", *f.HousingCooperativeID)
	}
	if f.BankID != nil {
		add("bank_id = $%d", *f.BankID)
	}
	if f.CreatedAfter != nil {
		add("created_at >= $%d", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		add("created_at <= $%d", *f.CreatedBefore)
	}
	if len(f.CreditNumbers) > 0 {
		ph := make([]string, 0, len(f.CreditNumbers))
		for _, cn := range f.CreditNumbers {
			args = append(args, cn)
			ph = append(ph, fmt.Sprintf("$%d", len(args)))
		}
		conds = append(conds, "credit_number IN ("+strings.Join(ph, ", ")+")")
	}
	if f.BorrowerPersonNumber != "" {
		add("EXISTS (SELECT 1 FROM borrowers b WHERE b.deed_id = mortgage_deeds.id AND b.person_number = $%d)", f.BorrowerPersonNumber)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns deeds using LIMIT/OFFSET pagination and a total count.
func (r *DeedPostgres) List(ctx context.Context, f repository.DeedFilter, pq repository.PageQuery) (*repository.PageResult[model.Deed], error) {
	where, args := buildFilter(f, nil)

	// Count total rows under the same filter
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM mortgage_deeds"+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	args = append(args, pq.Limit, pq.Offset)
	qList := fmt.Sprintf("SELECT "+deedColumns+" FROM mortgage_deeds"+where+
		" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Deed, 0)
	for rows.Next() {
		d, err := scanDeed(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Deed]{
		Items: items,
		Total: total,
	}, nil
}

// AdvanceStatus moves a deed to the target status only when its current
// status is one of the allowed source statuses. The guard and the write are
// one statement, so concurrent callers racing on the same transition cannot
// move the deed backwards.
func (r *DeedPostgres) AdvanceStatus(ctx context.Context, deedID string, from []model.DeedStatus, to model.DeedStatus) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("advance status: empty source status set")
	}
	args := []any{to, deedID}
	ph := make([]string, 0, len(from))
	for _, s := range from {
		args = append(args, s)
		ph = append(ph, fmt.Sprintf("$%d", len(args)))
	}
	q := "UPDATE mortgage_deeds SET status = $1 WHERE id = $2 AND status IN (" + strings.Join(ph, ", ") + ")"

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Stats returns aggregate counts across deeds, cooperatives and borrowers.
func (r *DeedPostgres) Stats(ctx context.Context) (*repository.DeedStats, error) {
	stats := &repository.DeedStats{
		StatusDistribution: make(map[model.DeedStatus]int),
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mortgage_deeds`).Scan(&stats.TotalDeeds); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM housing_cooperatives`).Scan(&stats.TotalCooperatives); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM mortgage_deeds GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.DeedStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		stats.StatusDistribution[s] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var totalBorrowers int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM borrowers`).Scan(&totalBorrowers); err != nil {
		return nil, err
	}
	if stats.TotalDeeds > 0 {
		stats.AverageBorrowersPerDeed = float64(totalBorrowers) / float64(stats.TotalDeeds)
	}

	return stats, nil
}

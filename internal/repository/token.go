package repository

import (
	"context"
	"time"

	"deedapi/internal/model"
)

// TokenRepository defines data access for signing tokens. The secret column
// carries a uniqueness constraint and is the only lookup key.
type TokenRepository interface {
	// Create inserts a new token row with exactly one signer reference set.
	Create(ctx context.Context, token *model.SigningToken) (*model.SigningToken, error)

	// FindBySecret returns the token for the given secret.
	FindBySecret(ctx context.Context, secret string) (*model.SigningToken, error)

	// MarkUsed sets used_at through a compare-and-set guarded update. It
	// returns false when the token was already used — callers must never
	// fall back to a separate read-then-write.
	MarkUsed(ctx context.Context, secret string, at time.Time) (bool, error)
}

// CooperativeRepository defines data access for housing cooperatives.
type CooperativeRepository interface {
	// Create inserts a new cooperative row.
	Create(ctx context.Context, coop *model.HousingCooperative) (*model.HousingCooperative, error)

	// FindByID returns a cooperative by its ID.
	FindByID(ctx context.Context, id string) (*model.HousingCooperative, error)

	// UpdateAdministrator mirrors a signer's identity onto the cooperative's
	// administrator contact fields.
	UpdateAdministrator(ctx context.Context, id, name, personNumber, email string) error

	// UpdateAccountingFirm mirrors the accounting-firm contact onto the cooperative.
	UpdateAccountingFirm(ctx context.Context, id, firmName, firmEmail string) error
}

// AuditLogRepository records audit events. Writes are best-effort from the
// caller's perspective; failures degrade, they never abort.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
}

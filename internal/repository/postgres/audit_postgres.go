package postgres

import (
	"context"
	"database/sql"

	"deedapi/internal/model"
	"deedapi/internal/repository"
)

// AuditLogPostgres is a PostgreSQL implementation of repository.AuditLogRepository.
type AuditLogPostgres struct {
	db *sql.DB
}

// NewAuditLogPostgres creates a new AuditLogPostgres repository.
func NewAuditLogPostgres(db *sql.DB) *AuditLogPostgres {
	return &AuditLogPostgres{db: db}
}

var _ repository.AuditLogRepository = (*AuditLogPostgres)(nil)

// Create inserts a single audit event row.
func (r *AuditLogPostgres) Create(ctx context.Context, entry *model.AuditLog) error {
	const q = `
		INSERT INTO audit_logs (id, deed_id, action_type, actor, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var deedID any
	if entry.DeedID != nil {
		deedID = *entry.DeedID
	}
	_, err := r.db.ExecContext(ctx, q, entry.ID, deedID, entry.ActionType, entry.Actor, entry.Description, entry.CreatedAt)
	return err
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"deedapi/internal/model"
	"deedapi/internal/repository"
)

// SignerPostgres is a PostgreSQL implementation of repository.SignerRepository.
type SignerPostgres struct {
	db *sql.DB
}

// NewSignerPostgres creates a new SignerPostgres repository.
func NewSignerPostgres(db *sql.DB) *SignerPostgres {
	return &SignerPostgres{db: db}
}

var _ repository.SignerRepository = (*SignerPostgres)(nil)

const borrowerColumns = `id, deed_id, name, person_number, email, ownership_share, signed_at, created_at`

func scanBorrower(row interface{ Scan(...any) error }) (*model.Borrower, error) {
	var b model.Borrower
	var signedAt sql.NullTime
	if err := row.Scan(
		&b.ID,
		&b.DeedID,
		&b.Name,
		&b.PersonNumber,
		&b.Email,
		&b.OwnershipShare,
		&signedAt,
		&b.CreatedAt,
	); err != nil {
		return nil, err
	}
	if signedAt.Valid {
		b.SignedAt = &signedAt.Time
	}
	return &b, nil
}

const cooperativeSignerColumns = `id, deed_id, administrator_name, administrator_person_number, administrator_email, signed_at, created_at`

func scanCooperativeSigner(row interface{ Scan(...any) error }) (*model.CooperativeSigner, error) {
	var s model.CooperativeSigner
	var signedAt sql.NullTime
	if err := row.Scan(
		&s.ID,
		&s.DeedID,
		&s.AdministratorName,
		&s.AdministratorPersonNumber,
		&s.AdministratorEmail,
		&signedAt,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	if signedAt.Valid {
		s.SignedAt = &signedAt.Time
	}
	return &s, nil
}

// CreateBorrowers inserts the borrower list in one multi-row statement.
func (r *SignerPostgres) CreateBorrowers(ctx context.Context, borrowers []model.Borrower) ([]model.Borrower, error) {
	if len(borrowers) == 0 {
		return nil, fmt.Errorf("create borrowers: empty batch")
	}
	var args []any
	values := make([]string, 0, len(borrowers))
	for _, b := range borrowers {
		args = append(args, b.ID, b.DeedID, b.Name, b.PersonNumber, b.Email, b.OwnershipShare, b.CreatedAt)
		n := len(args)
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)", n-6, n-5, n-4, n-3, n-2, n-1, n))
	}
	q := `INSERT INTO borrowers (id, deed_id, name, person_number, email, ownership_share, created_at) VALUES ` +
		strings.Join(values, ", ") + ` RETURNING ` + borrowerColumns

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Borrower, 0, len(borrowers))
	for rows.Next() {
		b, err := scanBorrower(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CreateCooperativeSigners inserts the cooperative signer list in one multi-row statement.
func (r *SignerPostgres) CreateCooperativeSigners(ctx context.Context, signers []model.CooperativeSigner) ([]model.CooperativeSigner, error) {
	if len(signers) == 0 {
		return nil, fmt.Errorf("create cooperative signers: empty batch")
	}
	var args []any
	values := make([]string, 0, len(signers))
	for _, s := range signers {
		args = append(args, s.ID, s.DeedID, s.AdministratorName, s.AdministratorPersonNumber, s.AdministratorEmail, s.CreatedAt)
		n := len(args)
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)", n-5, n-4, n-3, n-2, n-1, n))
	}
	q := `INSERT INTO cooperative_signers (id, deed_id, administrator_name, administrator_person_number, administrator_email, created_at) VALUES ` +
		strings.Join(values, ", ") + ` RETURNING ` + cooperativeSignerColumns

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.CooperativeSigner, 0, len(signers))
	for rows.Next() {
		s, err := scanCooperativeSigner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// CreateAccountingFirmContact inserts the optional accounting-firm contact row.
func (r *SignerPostgres) CreateAccountingFirmContact(ctx context.Context, contact *model.AccountingFirmContact) (*model.AccountingFirmContact, error) {
	const q = `
		INSERT INTO accounting_firm_contacts (id, deed_id, firm_name, firm_email, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, deed_id, firm_name, firm_email, created_at
	`
	row := r.db.QueryRowContext(ctx, q, contact.ID, contact.DeedID, contact.FirmName, contact.FirmEmail, contact.CreatedAt)
	var out model.AccountingFirmContact
	if err := row.Scan(&out.ID, &out.DeedID, &out.FirmName, &out.FirmEmail, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindBorrowerByID fetches a single borrower by its ID.
func (r *SignerPostgres) FindBorrowerByID(ctx context.Context, id string) (*model.Borrower, error) {
	q := `SELECT ` + borrowerColumns + ` FROM borrowers WHERE id = $1`
	return scanBorrower(r.db.QueryRowContext(ctx, q, id))
}

// FindCooperativeSignerByID fetches a single cooperative signer by its ID.
func (r *SignerPostgres) FindCooperativeSignerByID(ctx context.Context, id string) (*model.CooperativeSigner, error) {
	q := `SELECT ` + cooperativeSignerColumns + ` FROM cooperative_signers WHERE id = $1`
	return scanCooperativeSigner(r.db.QueryRowContext(ctx, q, id))
}

// BorrowersByDeed returns all borrowers of a deed ordered by creation.
func (r *SignerPostgres) BorrowersByDeed(ctx context.Context, deedID string) ([]model.Borrower, error) {
	q := `SELECT ` + borrowerColumns + ` FROM borrowers WHERE deed_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, deedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Borrower
	for rows.Next() {
		b, err := scanBorrower(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CooperativeSignersByDeed returns all cooperative signers of a deed ordered by creation.
func (r *SignerPostgres) CooperativeSignersByDeed(ctx context.Context, deedID string) ([]model.CooperativeSigner, error) {
	q := `SELECT ` + cooperativeSignerColumns + ` FROM cooperative_signers WHERE deed_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, deedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CooperativeSigner
	for rows.Next() {
		s, err := scanCooperativeSigner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// AccountingFirmContactByDeed returns the deed's accounting-firm contact, or
// nil when the deed has none.
func (r *SignerPostgres) AccountingFirmContactByDeed(ctx context.Context, deedID string) (*model.AccountingFirmContact, error) {
	const q = `SELECT id, deed_id, firm_name, firm_email, created_at FROM accounting_firm_contacts WHERE deed_id = $1`
	row := r.db.QueryRowContext(ctx, q, deedID)
	var out model.AccountingFirmContact
	if err := row.Scan(&out.ID, &out.DeedID, &out.FirmName, &out.FirmEmail, &out.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// signerTables maps a signer kind to its table name.
func signerTable(kind model.SignerKind) (string, error) {
	switch kind {
	case model.SignerKindBorrower:
		return "borrowers", nil
	case model.SignerKindCooperativeSigner:
		return "cooperative_signers", nil
	}
	return "", fmt.Errorf("unknown signer kind %q", kind)
}

// MarkSigned sets signed_at on the referenced signer and counts the roster
// completion in the same transaction, so the returned progress reflects the
// write that was just made.
func (r *SignerPostgres) MarkSigned(ctx context.Context, ref model.SignerRef, at time.Time) (*repository.SigningProgress, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	table, err := signerTable(ref.Kind)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	qUpdate := `UPDATE ` + table + ` SET signed_at = $1 WHERE id = $2 AND signed_at IS NULL`
	if _, err := tx.ExecContext(ctx, qUpdate, at, ref.ID); err != nil {
		return nil, err
	}

	qCount := `
		SELECT COUNT(*) FILTER (WHERE signed_at IS NOT NULL), COUNT(*)
		FROM ` + table + `
		WHERE deed_id = (SELECT deed_id FROM ` + table + ` WHERE id = $1)
	`
	var p repository.SigningProgress
	if err := tx.QueryRowContext(ctx, qCount, ref.ID).Scan(&p.Signed, &p.Total); err != nil {
		return nil, err
	}
	if p.Total == 0 {
		return nil, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &p, nil
}

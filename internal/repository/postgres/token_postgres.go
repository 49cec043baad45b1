package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"deedapi/internal/model"
	"deedapi/internal/repository"
)

// TokenPostgres is a PostgreSQL implementation of repository.TokenRepository.
type TokenPostgres struct {
	db *sql.DB
}

// NewTokenPostgres creates a new TokenPostgres repository.
func NewTokenPostgres(db *sql.DB) *TokenPostgres {
	return &TokenPostgres{db: db}
}

var _ repository.TokenRepository = (*TokenPostgres)(nil)

const tokenColumns = `id, deed_id, borrower_id, cooperative_signer_id, signer_kind, secret, email, expires_at, used_at, created_at`

func scanToken(row interface{ Scan(...any) error }) (*model.SigningToken, error) {
	var t model.SigningToken
	var borrowerID, signerID sql.NullString
	var kind string
	var usedAt sql.NullTime
	if err := row.Scan(
		&t.ID,
		&t.DeedID,
		&borrowerID,
		&signerID,
		&kind,
		&t.Secret,
		&t.Email,
		&t.ExpiresAt,
		&usedAt,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}
	switch model.SignerKind(kind) {
	case model.SignerKindBorrower:
		t.Signer = model.BorrowerRef(borrowerID.String)
	case model.SignerKindCooperativeSigner:
		t.Signer = model.CooperativeSignerRef(signerID.String)
	default:
		return nil, fmt.Errorf("token %s has unknown signer kind %q", t.ID, kind)
	}
	if usedAt.Valid {
		t.UsedAt = &usedAt.Time
	}
	return &t, nil
}

// Create inserts a token row. The tagged SignerRef is split over the two
// nullable reference columns; the schema CHECK keeps them mutually exclusive.
func (r *TokenPostgres) Create(ctx context.Context, token *model.SigningToken) (*model.SigningToken, error) {
	if err := token.Signer.Validate(); err != nil {
		return nil, err
	}
	var borrowerID, signerID any
	switch token.Signer.Kind {
	case model.SignerKindBorrower:
		borrowerID = token.Signer.ID
	case model.SignerKindCooperativeSigner:
		signerID = token.Signer.ID
	}

	q := `
		INSERT INTO signing_tokens (id, deed_id, borrower_id, cooperative_signer_id, signer_kind, secret, email, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + tokenColumns
	row := r.db.QueryRowContext(ctx, q,
		token.ID,
		token.DeedID,
		borrowerID,
		signerID,
		token.Signer.Kind,
		token.Secret,
		token.Email,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return scanToken(row)
}

// FindBySecret fetches a token by its secret lookup key.
func (r *TokenPostgres) FindBySecret(ctx context.Context, secret string) (*model.SigningToken, error) {
	q := `SELECT ` + tokenColumns + ` FROM signing_tokens WHERE secret = $1`
	return scanToken(r.db.QueryRowContext(ctx, q, secret))
}

// MarkUsed sets used_at only when it is still NULL. The guard lives in the
// statement itself; zero rows affected means another consumption won the race.
func (r *TokenPostgres) MarkUsed(ctx context.Context, secret string, at time.Time) (bool, error) {
	const q = `UPDATE signing_tokens SET used_at = $1 WHERE secret = $2 AND used_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, at, secret)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

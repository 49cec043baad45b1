package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"deedapi/internal/metrics"
	"deedapi/internal/model"
	"deedapi/internal/repository"
)

var (
	ErrSecretRequired = errors.New("token secret is required")
	ErrTokenNotFound  = errors.New("signing token not found")
	ErrTokenExpired   = errors.New("signing token has expired")
	ErrTokenUsed      = errors.New("signing token has already been used")
	ErrSignerNotFound = errors.New("signer not found")
)

// TokenVerification is the read-only snapshot returned before a signer
// commits, so a signing UI can render deed details without consuming the
// token.
type TokenVerification struct {
	Deed        *model.Deed      `json:"deed"`
	SignerKind  model.SignerKind `json:"signer_kind"`
	SignerName  string           `json:"signer_name"`
	SignerEmail string           `json:"signer_email"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

// SigningOutcome summarizes a successful token consumption.
type SigningOutcome struct {
	DeedID        string           `json:"deed_id"`
	SignerName    string           `json:"signer_name"`
	SigningStatus string           `json:"signing_status"`
	AllSigned     bool             `json:"all_signed"`
	DeedStatus    model.DeedStatus `json:"deed_status"`
}

// TokenService covers the signing token lifecycle: minting, read-only
// verification, and single-use consumption that drives the deed status
// machine.
type TokenService interface {
	// Issue mints a single-use token bound to one signer of a deed.
	Issue(ctx context.Context, deedID string, ref model.SignerRef, email string) (*model.SigningToken, error)

	// Verify validates a secret and returns a snapshot without mutating state.
	Verify(ctx context.Context, secret string) (*TokenVerification, error)

	// Consume marks the token used, records the signer's signature and runs
	// the status transition for that signer's roster.
	Consume(ctx context.Context, secret string) (*SigningOutcome, error)
}

// tokenService is a concrete implementation of TokenService.
type tokenService struct {
	tokens  repository.TokenRepository
	signers repository.SignerRepository
	audit   repository.AuditLogRepository
	status  statusEngine
	metrics *metrics.SigningMetrics
	ttl     time.Duration
}

// NewTokenService constructs a new TokenService. ttl is the validity window
// applied to every issued token.
func NewTokenService(
	tokens repository.TokenRepository,
	signers repository.SignerRepository,
	deeds repository.DeedRepository,
	audit repository.AuditLogRepository,
	m *metrics.SigningMetrics,
	ttl time.Duration,
) TokenService {
	return &tokenService{
		tokens:  tokens,
		signers: signers,
		audit:   audit,
		status:  statusEngine{deeds: deeds},
		metrics: m,
		ttl:     ttl,
	}
}

// generateSecret returns a 256-bit URL-safe random secret.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *tokenService) Issue(ctx context.Context, deedID string, ref model.SignerRef, email string) (*model.SigningToken, error) {
	if deedID == "" {
		return nil, fmt.Errorf("%w: deed id is required", ErrValidation)
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	token := &model.SigningToken{
		ID:        uuid.New().String(),
		DeedID:    deedID,
		Signer:    ref,
		Secret:    secret,
		Email:     email,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	stored, err := s.tokens.Create(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("persist signing token: %w", err)
	}
	if s.metrics != nil {
		s.metrics.TokensIssued.WithLabelValues(string(ref.Kind)).Inc()
	}
	return stored, nil
}

// resolve fetches the token by secret and applies the validation order shared
// by Verify and Consume: not found, expired, already used.
func (s *tokenService) resolve(ctx context.Context, secret string) (*model.SigningToken, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	token, err := s.tokens.FindBySecret(ctx, secret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if token.Expired(time.Now().UTC()) {
		return nil, ErrTokenExpired
	}
	if token.Used() {
		return nil, ErrTokenUsed
	}
	return token, nil
}

// signerSnapshot returns the display name and email of the referenced signer.
func (s *tokenService) signerSnapshot(ctx context.Context, ref model.SignerRef) (name, email string, err error) {
	switch ref.Kind {
	case model.SignerKindBorrower:
		b, err := s.signers.FindBorrowerByID(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", "", ErrSignerNotFound
			}
			return "", "", err
		}
		return b.Name, b.Email, nil
	case model.SignerKindCooperativeSigner:
		cs, err := s.signers.FindCooperativeSignerByID(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", "", ErrSignerNotFound
			}
			return "", "", err
		}
		return cs.AdministratorName, cs.AdministratorEmail, nil
	}
	return "", "", model.ErrInvalidSignerRef
}

func (s *tokenService) Verify(ctx context.Context, secret string) (*TokenVerification, error) {
	token, err := s.resolve(ctx, secret)
	if err != nil {
		return nil, err
	}

	deed, err := s.status.deeds.FindByID(ctx, token.DeedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeedNotFound
		}
		return nil, err
	}

	name, email, err := s.signerSnapshot(ctx, token.Signer)
	if err != nil {
		return nil, err
	}

	return &TokenVerification{
		Deed:        deed,
		SignerKind:  token.Signer.Kind,
		SignerName:  name,
		SignerEmail: email,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

func (s *tokenService) Consume(ctx context.Context, secret string) (*SigningOutcome, error) {
	token, err := s.resolve(ctx, secret)
	if err != nil {
		return nil, err
	}

	name, _, err := s.signerSnapshot(ctx, token.Signer)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// Mark the token used first. The guarded update is the double-spend
	// backstop: a concurrent consumption of the same secret loses here.
	ok, err := s.tokens.MarkUsed(ctx, secret, now)
	if err != nil {
		return nil, fmt.Errorf("mark token used: %w", err)
	}
	if !ok {
		return nil, ErrTokenUsed
	}

	progress, err := s.signers.MarkSigned(ctx, token.Signer, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSignerNotFound
		}
		return nil, fmt.Errorf("mark signer signed: %w", err)
	}

	status, err := s.status.advance(ctx, token.DeedID, token.Signer.Kind, *progress)
	if err != nil {
		return nil, fmt.Errorf("advance deed status: %w", err)
	}

	// Best-effort audit; a failed write degrades nothing.
	deedID := token.DeedID
	_ = s.audit.Create(ctx, &model.AuditLog{
		ID:          uuid.New().String(),
		DeedID:      &deedID,
		ActionType:  "DEED_SIGNED",
		Actor:       name,
		Description: fmt.Sprintf("Deed %s signed by %s (%s)", token.DeedID, name, token.Signer.Kind),
		CreatedAt:   now,
	})

	if s.metrics != nil {
		s.metrics.TokensConsumed.WithLabelValues(string(token.Signer.Kind)).Inc()
	}

	return &SigningOutcome{
		DeedID:        token.DeedID,
		SignerName:    name,
		SigningStatus: fmt.Sprintf("%d/%d %s signed", progress.Signed, progress.Total, kindNoun(token.Signer.Kind)),
		AllSigned:     progress.AllSigned(),
		DeedStatus:    status,
	}, nil
}

func kindNoun(kind model.SignerKind) string {
	if kind == model.SignerKindCooperativeSigner {
		return "cooperative signers"
	}
	return "borrowers"
}

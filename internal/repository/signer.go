package repository

import (
	"context"
	"time"

	"deedapi/internal/model"
)

// SigningProgress is the roster completion count returned together with a
// signature write so callers never recompute it from a separate read.
type SigningProgress struct {
	Signed int
	Total  int
}

// AllSigned reports whether every signer of the roster has signed.
func (p SigningProgress) AllSigned() bool {
	return p.Total > 0 && p.Signed == p.Total
}

// SignerRepository defines data access for the signer roster of a deed:
// borrowers, cooperative signers and the informational accounting-firm
// contact.
type SignerRepository interface {
	// CreateBorrowers inserts the full borrower list of a deed in one batch.
	CreateBorrowers(ctx context.Context, borrowers []model.Borrower) ([]model.Borrower, error)

	// CreateCooperativeSigners inserts the cooperative signer list in one batch.
	CreateCooperativeSigners(ctx context.Context, signers []model.CooperativeSigner) ([]model.CooperativeSigner, error)

	// CreateAccountingFirmContact inserts the optional accounting-firm contact.
	CreateAccountingFirmContact(ctx context.Context, contact *model.AccountingFirmContact) (*model.AccountingFirmContact, error)

	// FindBorrowerByID returns a single borrower row.
	FindBorrowerByID(ctx context.Context, id string) (*model.Borrower, error)

	// FindCooperativeSignerByID returns a single cooperative signer row.
	FindCooperativeSignerByID(ctx context.Context, id string) (*model.CooperativeSigner, error)

	// BorrowersByDeed returns all borrowers of a deed.
	BorrowersByDeed(ctx context.Context, deedID string) ([]model.Borrower, error)

	// CooperativeSignersByDeed returns all cooperative signers of a deed.
	CooperativeSignersByDeed(ctx context.Context, deedID string) ([]model.CooperativeSigner, error)

	// AccountingFirmContactByDeed returns the contact or nil when none exists.
	AccountingFirmContactByDeed(ctx context.Context, deedID string) (*model.AccountingFirmContact, error)

	// MarkSigned sets signed_at on the referenced signer and returns the
	// updated completion count of that signer's roster. The write and the
	// count run in one transaction; a signer whose signed_at is already set
	// is not overwritten.
	MarkSigned(ctx context.Context, ref model.SignerRef, at time.Time) (*SigningProgress, error)
}

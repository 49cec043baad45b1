package model

import (
	"errors"
	"time"
)

// SignerKind tags which roster a signing token belongs to.
type SignerKind string

const (
	SignerKindBorrower          SignerKind = "borrower"
	SignerKindCooperativeSigner SignerKind = "cooperative_signer"
)

// ErrInvalidSignerRef is returned when a SignerRef was not built through one
// of the constructors below.
var ErrInvalidSignerRef = errors.New("signer ref must reference exactly one signer")

// SignerRef is a tagged reference to exactly one signer. The zero value is
// invalid; use BorrowerRef or CooperativeSignerRef so the "both set" state of
// the underlying two-column schema stays unrepresentable in the domain.
type SignerRef struct {
	Kind SignerKind `json:"kind"`
	ID   string     `json:"id"`
}

// BorrowerRef returns a SignerRef pointing at a borrower row.
func BorrowerRef(id string) SignerRef {
	return SignerRef{Kind: SignerKindBorrower, ID: id}
}

// CooperativeSignerRef returns a SignerRef pointing at a cooperative signer row.
func CooperativeSignerRef(id string) SignerRef {
	return SignerRef{Kind: SignerKindCooperativeSigner, ID: id}
}

// Validate checks the ref carries a known kind and a non-empty signer ID.
func (r SignerRef) Validate() error {
	if r.ID == "" {
		return ErrInvalidSignerRef
	}
	switch r.Kind {
	case SignerKindBorrower, SignerKindCooperativeSigner:
		return nil
	}
	return ErrInvalidSignerRef
}

// SigningToken grants one signer permission to sign one deed. Secret is an
// opaque URL-safe string used as the lookup key. A token with UsedAt set is
// permanently inert.
type SigningToken struct {
	ID        string     `json:"id"`
	DeedID    string     `json:"deed_id"`
	Signer    SignerRef  `json:"signer"`
	Secret    string     `json:"-"`
	Email     string     `json:"email"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *SigningToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Used reports whether the token has already been consumed.
func (t *SigningToken) Used() bool {
	return t.UsedAt != nil
}

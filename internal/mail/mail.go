package mail

import "context"

// Package mail contains the notification boundary of the signing workflow.
// Implementations make exactly one delivery attempt per call; retry and
// reconciliation of failed sends happen outside this process.

// DeedSummary carries the deed fields rendered into notification templates.
type DeedSummary struct {
	ReferenceNumber  string
	ApartmentNumber  string
	ApartmentAddress string
	CooperativeName  string
	CreatedDate      string
}

// BorrowerInvite is the signing-link notification sent to one borrower.
type BorrowerInvite struct {
	RecipientEmail string
	BorrowerName   string
	Deed           DeedSummary
	SigningURL     string
}

// CooperativeInvite is the signing-link notification sent to one housing
// cooperative signer.
type CooperativeInvite struct {
	RecipientEmail string
	AdminName      string
	Deed           DeedSummary
	SigningURL     string
}

// CooperativeSummary is the supplementary notification sent to the
// cooperative's administrator contact after deed creation. It carries no
// signing link.
type CooperativeSummary struct {
	RecipientEmail string
	AdminName      string
	Deed           DeedSummary
	BorrowerNames  []string
}

// Mailer sends the three notification kinds of the deed creation saga.
// Every method performs a single send attempt and returns the transport
// error unmodified; callers decide whether a failure degrades or aborts.
type Mailer interface {
	SendBorrowerInvite(ctx context.Context, invite BorrowerInvite) error
	SendCooperativeInvite(ctx context.Context, invite CooperativeInvite) error
	SendCooperativeSummary(ctx context.Context, summary CooperativeSummary) error
}

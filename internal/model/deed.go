package model

import "time"

// DeedStatus is the lifecycle status of a mortgage deed. Transitions are
// monotonic forward only and driven by signing events.
type DeedStatus string

const (
	StatusCreated                      DeedStatus = "CREATED"
	StatusPendingBorrowerSignature     DeedStatus = "PENDING_BORROWER_SIGNATURE"
	StatusPendingCooperativeSignature  DeedStatus = "PENDING_HOUSING_COOPERATIVE_SIGNATURE"
	StatusCompleted                    DeedStatus = "COMPLETED"
)

// Valid reports whether s is one of the known lifecycle statuses.
func (s DeedStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusPendingBorrowerSignature, StatusPendingCooperativeSignature, StatusCompleted:
		return true
	}
	return false
}

// Deed is the mortgage-deed aggregate root. Creation metadata is immutable;
// only Status changes after creation.
type Deed struct {
	ID                   string     `json:"id"`
	CreditNumber         string     `json:"credit_number"`
	Status               DeedStatus `json:"status"`
	BankID               int64      `json:"bank_id"`
	HousingCooperativeID *string    `json:"housing_cooperative_id,omitempty"`
	ApartmentAddress     string     `json:"apartment_address"`
	ApartmentPostalCode  string     `json:"apartment_postal_code"`
	ApartmentCity        string     `json:"apartment_city"`
	ApartmentNumber      string     `json:"apartment_number"`
	CreatedBy            string     `json:"created_by"`
	CreatedByEmail       string     `json:"created_by_email"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Borrower is a deed party that must sign. SignedAt is set exactly once by
// token consumption.
type Borrower struct {
	ID             string     `json:"id"`
	DeedID         string     `json:"deed_id"`
	Name           string     `json:"name"`
	PersonNumber   string     `json:"person_number"`
	Email          string     `json:"email"`
	OwnershipShare float64    `json:"ownership_share"`
	SignedAt       *time.Time `json:"signed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CooperativeSigner is a housing-cooperative administrator that must sign
// after all borrowers have signed.
type CooperativeSigner struct {
	ID                        string     `json:"id"`
	DeedID                    string     `json:"deed_id"`
	AdministratorName         string     `json:"administrator_name"`
	AdministratorPersonNumber string     `json:"administrator_person_number"`
	AdministratorEmail        string     `json:"administrator_email"`
	SignedAt                  *time.Time `json:"signed_at,omitempty"`
	CreatedAt                 time.Time  `json:"created_at"`
}

// AccountingFirmContact is an informational deed contact. It never signs and
// never gates a status transition.
type AccountingFirmContact struct {
	ID        string    `json:"id"`
	DeedID    string    `json:"deed_id"`
	FirmName  string    `json:"firm_name"`
	FirmEmail string    `json:"firm_email"`
	CreatedAt time.Time `json:"created_at"`
}

// HousingCooperative holds the cooperative a deed belongs to, plus its
// administrator contact fields, which are mirrored from the first cooperative
// signer at deed creation unless an accounting firm represents the
// cooperative.
type HousingCooperative struct {
	ID                        string    `json:"id"`
	Name                      string    `json:"name"`
	OrganisationNumber        string    `json:"organisation_number"`
	Address                   string    `json:"address"`
	PostalCode                string    `json:"postal_code"`
	City                      string    `json:"city"`
	AdministratorName         string    `json:"administrator_name"`
	AdministratorPersonNumber string    `json:"administrator_person_number"`
	AdministratorEmail        string    `json:"administrator_email"`
	AccountingFirmName        string    `json:"accounting_firm_name,omitempty"`
	AccountingFirmEmail       string    `json:"accounting_firm_email,omitempty"`
	CreatedBy                 string    `json:"created_by"`
	CreatedAt                 time.Time `json:"created_at"`
}

// AuditLog is a single recorded audit event for a deed.
type AuditLog struct {
	ID          string    `json:"id"`
	DeedID      *string   `json:"deed_id,omitempty"`
	ActionType  string    `json:"action_type"`
	Actor       string    `json:"actor"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"deedapi/internal/mail"
	"deedapi/internal/metrics"
	"deedapi/internal/model"
	"deedapi/internal/repository"
)

var (
	ErrValidation   = errors.New("validation failure")
	ErrDeedNotFound = errors.New("mortgage deed not found")
)

// Actor identifies the bank user performing a write, taken from the request
// headers by the handler layer.
type Actor struct {
	ID     string
	BankID int64
	Email  string
}

// NewCooperative carries the fields for creating a housing cooperative inline
// with a deed.
type NewCooperative struct {
	Name               string `json:"name"`
	OrganisationNumber string `json:"organisation_number"`
	Address            string `json:"address"`
	PostalCode         string `json:"postal_code"`
	City               string `json:"city"`
}

// BorrowerInput is one borrower of a deed creation request.
type BorrowerInput struct {
	Name           string  `json:"name"`
	PersonNumber   string  `json:"person_number"`
	Email          string  `json:"email"`
	OwnershipShare float64 `json:"ownership_percentage"`
}

// CooperativeSignerInput is one cooperative signer of a deed creation request.
type CooperativeSignerInput struct {
	AdministratorName         string `json:"administrator_name"`
	AdministratorPersonNumber string `json:"administrator_person_number"`
	AdministratorEmail        string `json:"administrator_email"`
}

// AccountingFirmInput is the optional accounting-firm contact of a deed.
type AccountingFirmInput struct {
	FirmName  string `json:"firm_name"`
	FirmEmail string `json:"firm_email"`
}

// CreateDeedRequest is the full deed creation payload. Exactly one of
// HousingCooperativeID and NewCooperative may be set; both may be empty for a
// deed without a cooperative.
type CreateDeedRequest struct {
	CreditNumber         string                   `json:"credit_number"`
	ApartmentAddress     string                   `json:"apartment_address"`
	ApartmentPostalCode  string                   `json:"apartment_postal_code"`
	ApartmentCity        string                   `json:"apartment_city"`
	ApartmentNumber      string                   `json:"apartment_number"`
	HousingCooperativeID *string                  `json:"housing_cooperative_id,omitempty"`
	NewCooperative       *NewCooperative          `json:"housing_cooperative,omitempty"`
	Borrowers            []BorrowerInput          `json:"borrowers"`
	CooperativeSigners   []CooperativeSignerInput `json:"cooperative_signers,omitempty"`
	AccountingFirm       *AccountingFirmInput     `json:"accounting_firm,omitempty"`
}

// CreateDeedResult reports the saga outcome: the deed always exists when this
// is returned, while notification and mirroring problems surface as warnings.
type CreateDeedResult struct {
	DeedID            string   `json:"deed_id"`
	NotificationsSent bool     `json:"notifications_sent"`
	Warnings          []string `json:"warnings,omitempty"`
}

// DeedDetails is a deed with its full relation set.
type DeedDetails struct {
	Deed               model.Deed                   `json:"deed"`
	Cooperative        *model.HousingCooperative    `json:"housing_cooperative,omitempty"`
	Borrowers          []model.Borrower             `json:"borrowers"`
	CooperativeSigners []model.CooperativeSigner    `json:"cooperative_signers"`
	AccountingFirm     *model.AccountingFirmContact `json:"accounting_firm,omitempty"`
}

// DeedFilter mirrors the repository filter so handlers never import the
// repository package.
type DeedFilter struct {
	Status               *model.DeedStatus
	HousingCooperativeID *string
	BankID               *int64
	CreatedAfter         *time.Time
	CreatedBefore        *time.Time
	CreditNumbers        []string
	BorrowerPersonNumber string
}

// DeedListResult is a page of deeds plus the unpaginated total.
type DeedListResult struct {
	Items []model.Deed `json:"items"`
	Total int          `json:"total"`
}

// StatsSummary is the payload of the statistics endpoint.
type StatsSummary struct {
	TotalDeeds              int            `json:"total_deeds"`
	TotalCooperatives       int            `json:"total_cooperatives"`
	StatusDistribution      map[string]int `json:"status_distribution"`
	AverageBorrowersPerDeed float64        `json:"average_borrowers_per_deed"`
}

// DeedService covers deed creation, retrieval and aggregate statistics.
type DeedService interface {
	// Create runs the deed creation saga and returns the created deed id with
	// a warning list for every degraded step.
	Create(ctx context.Context, req CreateDeedRequest, actor Actor) (*CreateDeedResult, error)

	// Get returns a deed with all relations loaded.
	Get(ctx context.Context, id string) (*DeedDetails, error)

	// List returns a filtered, paginated deed page.
	List(ctx context.Context, f DeedFilter, limit, offset int) (*DeedListResult, error)

	// Summary returns aggregate deed statistics.
	Summary(ctx context.Context) (*StatsSummary, error)
}

// deedService is a concrete implementation of DeedService.
type deedService struct {
	deeds   repository.DeedRepository
	signers repository.SignerRepository
	coops   repository.CooperativeRepository
	audit   repository.AuditLogRepository
	tokens  TokenService
	mailer  mail.Mailer
	metrics *metrics.SigningMetrics
	baseURL string
}

// NewDeedService constructs a new DeedService. baseURL is the external
// address signing links are built against.
func NewDeedService(
	deeds repository.DeedRepository,
	signers repository.SignerRepository,
	coops repository.CooperativeRepository,
	audit repository.AuditLogRepository,
	tokens TokenService,
	mailer mail.Mailer,
	m *metrics.SigningMetrics,
	baseURL string,
) DeedService {
	return &deedService{
		deeds:   deeds,
		signers: signers,
		coops:   coops,
		audit:   audit,
		tokens:  tokens,
		mailer:  mailer,
		metrics: m,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func validateCreate(req CreateDeedRequest) error {
	if strings.TrimSpace(req.CreditNumber) == "" {
		return fmt.Errorf("%w: credit number is required", ErrValidation)
	}
	if len(req.Borrowers) == 0 {
		return fmt.Errorf("%w: at least one borrower is required", ErrValidation)
	}
	if req.HousingCooperativeID != nil && req.NewCooperative != nil {
		return fmt.Errorf("%w: housing_cooperative_id and housing_cooperative are mutually exclusive", ErrValidation)
	}
	for i, b := range req.Borrowers {
		if strings.TrimSpace(b.Name) == "" || strings.TrimSpace(b.PersonNumber) == "" || strings.TrimSpace(b.Email) == "" {
			return fmt.Errorf("%w: borrower %d is missing name, person number or email", ErrValidation, i)
		}
		if b.OwnershipShare <= 0 || b.OwnershipShare > 100 {
			return fmt.Errorf("%w: borrower %d ownership percentage must be in (0, 100]", ErrValidation, i)
		}
	}
	for i, cs := range req.CooperativeSigners {
		if strings.TrimSpace(cs.AdministratorName) == "" || strings.TrimSpace(cs.AdministratorEmail) == "" {
			return fmt.Errorf("%w: cooperative signer %d is missing name or email", ErrValidation, i)
		}
	}
	return nil
}

func (s *deedService) signingURL(secret string) string {
	return s.baseURL + "/sign/" + secret
}

func (s *deedService) Create(ctx context.Context, req CreateDeedRequest, actor Actor) (*CreateDeedResult, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var warnings []string
	warn := func(step string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s: %v", step, err))
	}

	// Steps 1-3 are the hard-fail prefix: without the cooperative, the deed
	// row and the borrower roster there is nothing to degrade to.
	coopID := req.HousingCooperativeID
	if req.NewCooperative != nil {
		coop, err := s.coops.Create(ctx, &model.HousingCooperative{
			ID:                 uuid.New().String(),
			Name:               req.NewCooperative.Name,
			OrganisationNumber: req.NewCooperative.OrganisationNumber,
			Address:            req.NewCooperative.Address,
			PostalCode:         req.NewCooperative.PostalCode,
			City:               req.NewCooperative.City,
			CreatedBy:          actor.ID,
			CreatedAt:          now,
		})
		if err != nil {
			return nil, fmt.Errorf("create housing cooperative: %w", err)
		}
		coopID = &coop.ID
	}

	deed, err := s.deeds.Create(ctx, &model.Deed{
		ID:                   uuid.New().String(),
		CreditNumber:         req.CreditNumber,
		Status:               model.StatusCreated,
		BankID:               actor.BankID,
		HousingCooperativeID: coopID,
		ApartmentAddress:     req.ApartmentAddress,
		ApartmentPostalCode:  req.ApartmentPostalCode,
		ApartmentCity:        req.ApartmentCity,
		ApartmentNumber:      req.ApartmentNumber,
		CreatedBy:            actor.ID,
		CreatedByEmail:       actor.Email,
		CreatedAt:            now,
	})
	if err != nil {
		return nil, fmt.Errorf("create mortgage deed: %w", err)
	}

	borrowers := make([]model.Borrower, 0, len(req.Borrowers))
	for _, b := range req.Borrowers {
		borrowers = append(borrowers, model.Borrower{
			ID:             uuid.New().String(),
			DeedID:         deed.ID,
			Name:           b.Name,
			PersonNumber:   b.PersonNumber,
			Email:          b.Email,
			OwnershipShare: b.OwnershipShare,
			CreatedAt:      now,
		})
	}
	storedBorrowers, err := s.signers.CreateBorrowers(ctx, borrowers)
	if err != nil {
		return nil, fmt.Errorf("create borrowers: %w", err)
	}

	// Step 4: cooperative signers, with the administrator mirror.
	var storedSigners []model.CooperativeSigner
	if len(req.CooperativeSigners) > 0 {
		signers := make([]model.CooperativeSigner, 0, len(req.CooperativeSigners))
		for _, cs := range req.CooperativeSigners {
			signers = append(signers, model.CooperativeSigner{
				ID:                        uuid.New().String(),
				DeedID:                    deed.ID,
				AdministratorName:         cs.AdministratorName,
				AdministratorPersonNumber: cs.AdministratorPersonNumber,
				AdministratorEmail:        cs.AdministratorEmail,
				CreatedAt:                 now,
			})
		}
		storedSigners, err = s.signers.CreateCooperativeSigners(ctx, signers)
		if err != nil {
			warn("create cooperative signers", err)
			storedSigners = nil
		} else if len(storedSigners) > 0 && coopID != nil && req.AccountingFirm == nil {
			first := storedSigners[0]
			if err := s.coops.UpdateAdministrator(ctx, *coopID,
				first.AdministratorName, first.AdministratorPersonNumber, first.AdministratorEmail); err != nil {
				warn("mirror administrator onto cooperative", err)
			}
		}
	}

	// Step 5: accounting-firm contact.
	if req.AccountingFirm != nil {
		contact := &model.AccountingFirmContact{
			ID:        uuid.New().String(),
			DeedID:    deed.ID,
			FirmName:  req.AccountingFirm.FirmName,
			FirmEmail: req.AccountingFirm.FirmEmail,
			CreatedAt: now,
		}
		if _, err := s.signers.CreateAccountingFirmContact(ctx, contact); err != nil {
			warn("create accounting firm contact", err)
		}
		if coopID != nil {
			if err := s.coops.UpdateAccountingFirm(ctx, *coopID, req.AccountingFirm.FirmName, req.AccountingFirm.FirmEmail); err != nil {
				warn("mirror accounting firm onto cooperative", err)
			}
		}
	}

	// The cooperative is fetched after the mirror writes so the summary mail
	// sees the mirrored administrator contact.
	var coop *model.HousingCooperative
	if coopID != nil {
		coop, err = s.coops.FindByID(ctx, *coopID)
		if err != nil {
			warn("load housing cooperative", err)
			coop = nil
		}
	}

	summary := mail.DeedSummary{
		ReferenceNumber:  deed.CreditNumber,
		ApartmentNumber:  deed.ApartmentNumber,
		ApartmentAddress: deed.ApartmentAddress,
		CreatedDate:      now.Format("2006-01-02"),
	}
	if coop != nil {
		summary.CooperativeName = coop.Name
	}

	// Steps 6-7: one token and one invite per signer. A failure skips that
	// signer only and flags the aggregate notification health.
	notificationsSent := true
	for _, b := range storedBorrowers {
		token, err := s.tokens.Issue(ctx, deed.ID, model.BorrowerRef(b.ID), b.Email)
		if err != nil {
			warn(fmt.Sprintf("issue signing token for borrower %s", b.Email), err)
			notificationsSent = false
			continue
		}
		invite := mail.BorrowerInvite{
			RecipientEmail: b.Email,
			BorrowerName:   b.Name,
			Deed:           summary,
			SigningURL:     s.signingURL(token.Secret),
		}
		if err := s.mailer.SendBorrowerInvite(ctx, invite); err != nil {
			warn(fmt.Sprintf("notify borrower %s", b.Email), err)
			notificationsSent = false
			if s.metrics != nil {
				s.metrics.NotificationsFailed.Inc()
			}
		}
	}
	for _, cs := range storedSigners {
		token, err := s.tokens.Issue(ctx, deed.ID, model.CooperativeSignerRef(cs.ID), cs.AdministratorEmail)
		if err != nil {
			warn(fmt.Sprintf("issue signing token for cooperative signer %s", cs.AdministratorEmail), err)
			notificationsSent = false
			continue
		}
		invite := mail.CooperativeInvite{
			RecipientEmail: cs.AdministratorEmail,
			AdminName:      cs.AdministratorName,
			Deed:           summary,
			SigningURL:     s.signingURL(token.Secret),
		}
		if err := s.mailer.SendCooperativeInvite(ctx, invite); err != nil {
			warn(fmt.Sprintf("notify cooperative signer %s", cs.AdministratorEmail), err)
			notificationsSent = false
			if s.metrics != nil {
				s.metrics.NotificationsFailed.Inc()
			}
		}
	}

	// Step 8: link-free summary to the cooperative's administrator contact.
	if coop != nil && coop.AdministratorEmail != "" {
		names := make([]string, 0, len(storedBorrowers))
		for _, b := range storedBorrowers {
			names = append(names, b.Name)
		}
		sum := mail.CooperativeSummary{
			RecipientEmail: coop.AdministratorEmail,
			AdminName:      coop.AdministratorName,
			Deed:           summary,
			BorrowerNames:  names,
		}
		if err := s.mailer.SendCooperativeSummary(ctx, sum); err != nil {
			warn(fmt.Sprintf("notify cooperative administrator %s", coop.AdministratorEmail), err)
			notificationsSent = false
			if s.metrics != nil {
				s.metrics.NotificationsFailed.Inc()
			}
		}
	}

	// Step 9: best-effort audit trail.
	deedID := deed.ID
	_ = s.audit.Create(ctx, &model.AuditLog{
		ID:          uuid.New().String(),
		DeedID:      &deedID,
		ActionType:  "DEED_CREATED",
		Actor:       actor.Email,
		Description: fmt.Sprintf("Mortgage deed %s created with credit number %s", deed.ID, deed.CreditNumber),
		CreatedAt:   now,
	})
	if notificationsSent {
		_ = s.audit.Create(ctx, &model.AuditLog{
			ID:          uuid.New().String(),
			DeedID:      &deedID,
			ActionType:  "NOTIFICATIONS_SENT",
			Actor:       actor.Email,
			Description: "All signing notifications sent",
			CreatedAt:   now,
		})
	} else {
		_ = s.audit.Create(ctx, &model.AuditLog{
			ID:          uuid.New().String(),
			DeedID:      &deedID,
			ActionType:  "NOTIFICATION_FAILURE",
			Actor:       actor.Email,
			Description: strings.Join(warnings, "; "),
			CreatedAt:   now,
		})
	}

	if s.metrics != nil {
		s.metrics.DeedsCreated.Inc()
	}

	return &CreateDeedResult{
		DeedID:            deed.ID,
		NotificationsSent: notificationsSent,
		Warnings:          warnings,
	}, nil
}

func (s *deedService) Get(ctx context.Context, id string) (*DeedDetails, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: deed id is required", ErrValidation)
	}

	deed, err := s.deeds.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeedNotFound
		}
		return nil, err
	}

	borrowers, err := s.signers.BorrowersByDeed(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load borrowers: %w", err)
	}
	signers, err := s.signers.CooperativeSignersByDeed(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load cooperative signers: %w", err)
	}
	firm, err := s.signers.AccountingFirmContactByDeed(ctx, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load accounting firm contact: %w", err)
	}

	var coop *model.HousingCooperative
	if deed.HousingCooperativeID != nil {
		coop, err = s.coops.FindByID(ctx, *deed.HousingCooperativeID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load housing cooperative: %w", err)
		}
	}

	return &DeedDetails{
		Deed:               *deed,
		Cooperative:        coop,
		Borrowers:          borrowers,
		CooperativeSigners: signers,
		AccountingFirm:     firm,
	}, nil
}

func (s *deedService) List(ctx context.Context, f DeedFilter, limit, offset int) (*DeedListResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	page, err := s.deeds.List(ctx, repository.DeedFilter{
		Status:               f.Status,
		HousingCooperativeID: f.HousingCooperativeID,
		BankID:               f.BankID,
		CreatedAfter:         f.CreatedAfter,
		CreatedBefore:        f.CreatedBefore,
		CreditNumbers:        f.CreditNumbers,
		BorrowerPersonNumber: f.BorrowerPersonNumber,
	}, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list mortgage deeds: %w", err)
	}

	return &DeedListResult{Items: page.Items, Total: page.Total}, nil
}

func (s *deedService) Summary(ctx context.Context) (*StatsSummary, error) {
	stats, err := s.deeds.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load deed statistics: %w", err)
	}

	dist := make(map[string]int, len(stats.StatusDistribution))
	for status, n := range stats.StatusDistribution {
		dist[string(status)] = n
	}

	return &StatsSummary{
		TotalDeeds:              stats.TotalDeeds,
		TotalCooperatives:       stats.TotalCooperatives,
		StatusDistribution:      dist,
		AverageBorrowersPerDeed: stats.AverageBorrowersPerDeed,
	}, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"deedapi/internal/mail"
	mailmocks "deedapi/internal/mail/mocks"
	"deedapi/internal/model"
	"deedapi/internal/repository"
	"deedapi/internal/repository/mocks"
)

type deedServiceFixture struct {
	deeds   *mocks.MockDeedRepository
	signers *mocks.MockSignerRepository
	coops   *mocks.MockCooperativeRepository
	audit   *mocks.MockAuditLogRepository
	tokens  *mocks.MockTokenRepository
	mailer  *mailmocks.MockMailer
	svc     DeedService
}

func newDeedServiceFixture() *deedServiceFixture {
	f := &deedServiceFixture{
		deeds:   new(mocks.MockDeedRepository),
		signers: new(mocks.MockSignerRepository),
		coops:   new(mocks.MockCooperativeRepository),
		audit:   new(mocks.MockAuditLogRepository),
		tokens:  new(mocks.MockTokenRepository),
		mailer:  new(mailmocks.MockMailer),
	}
	tokenSvc := NewTokenService(f.tokens, f.signers, f.deeds, f.audit, nil, 7*24*time.Hour)
	f.svc = NewDeedService(f.deeds, f.signers, f.coops, f.audit, tokenSvc, f.mailer, nil, "https://deeds.example.com/")
	return f
}

func validCreateRequest() CreateDeedRequest {
	return CreateDeedRequest{
		CreditNumber:        "KR-2024-001",
		ApartmentAddress:    "Storgatan 1",
		ApartmentPostalCode: "11122",
		ApartmentCity:       "Stockholm",
		ApartmentNumber:     "1203",
		NewCooperative: &NewCooperative{
			Name:               "Brf Eken",
			OrganisationNumber: "769600-1234",
		},
		Borrowers: []BorrowerInput{
			{Name: "Anna Andersson", PersonNumber: "198001011234", Email: "anna@example.com", OwnershipShare: 60},
			{Name: "Bodil Ek", PersonNumber: "198505052345", Email: "bodil@example.com", OwnershipShare: 40},
		},
		CooperativeSigners: []CooperativeSignerInput{
			{AdministratorName: "Bengt Berg", AdministratorPersonNumber: "196504041111", AdministratorEmail: "bengt@brf.se"},
		},
	}
}

var testActor = Actor{ID: "user-1", BankID: 42, Email: "handler@bank.se"}

func TestDeedService_Create_Validation(t *testing.T) {
	coopID := "coop-1"

	tests := []struct {
		name   string
		mutate func(req *CreateDeedRequest)
	}{
		{"missing credit number", func(req *CreateDeedRequest) { req.CreditNumber = " " }},
		{"no borrowers", func(req *CreateDeedRequest) { req.Borrowers = nil }},
		{"both cooperative references", func(req *CreateDeedRequest) { req.HousingCooperativeID = &coopID }},
		{"borrower without email", func(req *CreateDeedRequest) { req.Borrowers[0].Email = "" }},
		{"ownership out of range", func(req *CreateDeedRequest) { req.Borrowers[0].OwnershipShare = 120 }},
		{"signer without name", func(req *CreateDeedRequest) { req.CooperativeSigners[0].AdministratorName = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDeedServiceFixture()
			req := validCreateRequest()
			tt.mutate(&req)

			_, err := f.svc.Create(context.Background(), req, testActor)

			assert.ErrorIs(t, err, ErrValidation)
			f.deeds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestDeedService_Create_FullSaga(t *testing.T) {
	f := newDeedServiceFixture()
	req := validCreateRequest()

	f.coops.On("Create", mock.Anything, mock.MatchedBy(func(c *model.HousingCooperative) bool {
		return c.Name == "Brf Eken" && c.CreatedBy == "user-1"
	})).Return(&model.HousingCooperative{ID: "coop-1", Name: "Brf Eken"}, nil)

	f.deeds.On("Create", mock.Anything, mock.MatchedBy(func(d *model.Deed) bool {
		return d.Status == model.StatusCreated &&
			d.BankID == 42 &&
			d.HousingCooperativeID != nil && *d.HousingCooperativeID == "coop-1"
	})).Return(&model.Deed{ID: "deed-1", CreditNumber: "KR-2024-001", ApartmentNumber: "1203", ApartmentAddress: "Storgatan 1"}, nil)

	f.signers.On("CreateBorrowers", mock.Anything, mock.Anything).Return([]model.Borrower{
		{ID: "b-1", Name: "Anna Andersson", Email: "anna@example.com"},
		{ID: "b-2", Name: "Bodil Ek", Email: "bodil@example.com"},
	}, nil)
	f.signers.On("CreateCooperativeSigners", mock.Anything, mock.Anything).Return([]model.CooperativeSigner{
		{ID: "cs-1", AdministratorName: "Bengt Berg", AdministratorPersonNumber: "196504041111", AdministratorEmail: "bengt@brf.se"},
	}, nil)

	// No accounting firm, so the first signer is mirrored.
	f.coops.On("UpdateAdministrator", mock.Anything, "coop-1", "Bengt Berg", "196504041111", "bengt@brf.se").Return(nil)
	f.coops.On("FindByID", mock.Anything, "coop-1").Return(&model.HousingCooperative{
		ID: "coop-1", Name: "Brf Eken",
		AdministratorName: "Bengt Berg", AdministratorEmail: "bengt@brf.se",
	}, nil)

	f.tokens.On("Create", mock.Anything, mock.Anything).Return(&model.SigningToken{Secret: "shared-secret"}, nil)

	f.mailer.On("SendBorrowerInvite", mock.Anything, mock.MatchedBy(func(inv mail.BorrowerInvite) bool {
		return strings.HasPrefix(inv.SigningURL, "https://deeds.example.com/sign/") && inv.Deed.CooperativeName == "Brf Eken"
	})).Return(nil).Twice()
	f.mailer.On("SendCooperativeInvite", mock.Anything, mock.Anything).Return(nil).Once()
	f.mailer.On("SendCooperativeSummary", mock.Anything, mock.MatchedBy(func(s mail.CooperativeSummary) bool {
		return s.RecipientEmail == "bengt@brf.se" && len(s.BorrowerNames) == 2
	})).Return(nil).Once()

	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(e *model.AuditLog) bool {
		return e.ActionType == "DEED_CREATED"
	})).Return(nil).Once()
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(e *model.AuditLog) bool {
		return e.ActionType == "NOTIFICATIONS_SENT"
	})).Return(nil).Once()

	got, err := f.svc.Create(context.Background(), req, testActor)

	require.NoError(t, err)
	assert.Equal(t, "deed-1", got.DeedID)
	assert.True(t, got.NotificationsSent)
	assert.Empty(t, got.Warnings)
	f.coops.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

func TestDeedService_Create_HardFailures(t *testing.T) {
	t.Run("cooperative insert fails", func(t *testing.T) {
		f := newDeedServiceFixture()
		f.coops.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("duplicate organisation number"))

		_, err := f.svc.Create(context.Background(), validCreateRequest(), testActor)

		require.Error(t, err)
		f.deeds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("deed insert fails", func(t *testing.T) {
		f := newDeedServiceFixture()
		f.coops.On("Create", mock.Anything, mock.Anything).Return(&model.HousingCooperative{ID: "coop-1"}, nil)
		f.deeds.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

		_, err := f.svc.Create(context.Background(), validCreateRequest(), testActor)

		require.Error(t, err)
		f.signers.AssertNotCalled(t, "CreateBorrowers", mock.Anything, mock.Anything)
	})

	t.Run("borrower insert fails", func(t *testing.T) {
		f := newDeedServiceFixture()
		f.coops.On("Create", mock.Anything, mock.Anything).Return(&model.HousingCooperative{ID: "coop-1"}, nil)
		f.deeds.On("Create", mock.Anything, mock.Anything).Return(&model.Deed{ID: "deed-1"}, nil)
		f.signers.On("CreateBorrowers", mock.Anything, mock.Anything).Return(nil, errors.New("constraint violation"))

		_, err := f.svc.Create(context.Background(), validCreateRequest(), testActor)

		require.Error(t, err)
	})
}

func TestDeedService_Create_MailFailureDegrades(t *testing.T) {
	f := newDeedServiceFixture()
	req := validCreateRequest()
	req.CooperativeSigners = nil
	req.NewCooperative = nil

	f.deeds.On("Create", mock.Anything, mock.Anything).Return(&model.Deed{ID: "deed-1", CreditNumber: "KR-2024-001"}, nil)
	f.signers.On("CreateBorrowers", mock.Anything, mock.Anything).Return([]model.Borrower{
		{ID: "b-1", Name: "Anna Andersson", Email: "anna@example.com"},
		{ID: "b-2", Name: "Bodil Ek", Email: "bodil@example.com"},
	}, nil)
	f.tokens.On("Create", mock.Anything, mock.Anything).Return(&model.SigningToken{Secret: "s"}, nil)

	f.mailer.On("SendBorrowerInvite", mock.Anything, mock.MatchedBy(func(inv mail.BorrowerInvite) bool {
		return inv.RecipientEmail == "anna@example.com"
	})).Return(errors.New("mailgun unavailable"))
	f.mailer.On("SendBorrowerInvite", mock.Anything, mock.MatchedBy(func(inv mail.BorrowerInvite) bool {
		return inv.RecipientEmail == "bodil@example.com"
	})).Return(nil)

	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(e *model.AuditLog) bool {
		return e.ActionType == "DEED_CREATED"
	})).Return(nil).Once()
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(e *model.AuditLog) bool {
		return e.ActionType == "NOTIFICATION_FAILURE"
	})).Return(nil).Once()

	got, err := f.svc.Create(context.Background(), req, testActor)

	require.NoError(t, err)
	assert.Equal(t, "deed-1", got.DeedID)
	assert.False(t, got.NotificationsSent)
	require.Len(t, got.Warnings, 1)
	assert.Contains(t, got.Warnings[0], "anna@example.com")
	f.mailer.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

func TestDeedService_Create_TokenFailureDegrades(t *testing.T) {
	f := newDeedServiceFixture()
	req := validCreateRequest()
	req.CooperativeSigners = nil
	req.NewCooperative = nil

	f.deeds.On("Create", mock.Anything, mock.Anything).Return(&model.Deed{ID: "deed-1", CreditNumber: "KR-2024-001"}, nil)
	f.signers.On("CreateBorrowers", mock.Anything, mock.Anything).Return([]model.Borrower{
		{ID: "b-1", Name: "Anna Andersson", Email: "anna@example.com"},
		{ID: "b-2", Name: "Bodil Ek", Email: "bodil@example.com"},
	}, nil)

	// The first borrower's token insert fails; the second one goes through.
	f.tokens.On("Create", mock.Anything, mock.MatchedBy(func(tok *model.SigningToken) bool {
		return tok.Email == "anna@example.com"
	})).Return(nil, errors.New("insert failed"))
	f.tokens.On("Create", mock.Anything, mock.MatchedBy(func(tok *model.SigningToken) bool {
		return tok.Email == "bodil@example.com"
	})).Return(&model.SigningToken{Secret: "s"}, nil)

	f.mailer.On("SendBorrowerInvite", mock.Anything, mock.MatchedBy(func(inv mail.BorrowerInvite) bool {
		return inv.RecipientEmail == "bodil@example.com"
	})).Return(nil).Once()

	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(e *model.AuditLog) bool {
		return e.ActionType == "DEED_CREATED"
	})).Return(nil).Once()
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(e *model.AuditLog) bool {
		return e.ActionType == "NOTIFICATION_FAILURE"
	})).Return(nil).Once()

	got, err := f.svc.Create(context.Background(), req, testActor)

	require.NoError(t, err)
	assert.Equal(t, "deed-1", got.DeedID)
	assert.False(t, got.NotificationsSent)
	require.Len(t, got.Warnings, 1)
	assert.Contains(t, got.Warnings[0], "issue signing token")
	assert.Contains(t, got.Warnings[0], "anna@example.com")
	// Only the failed borrower is skipped.
	f.mailer.AssertNumberOfCalls(t, "SendBorrowerInvite", 1)
	f.mailer.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

func TestDeedService_Create_EmptySignerBatch(t *testing.T) {
	f := newDeedServiceFixture()
	req := validCreateRequest()

	f.coops.On("Create", mock.Anything, mock.Anything).Return(&model.HousingCooperative{ID: "coop-1", Name: "Brf Eken"}, nil)
	f.deeds.On("Create", mock.Anything, mock.Anything).Return(&model.Deed{ID: "deed-1"}, nil)
	f.signers.On("CreateBorrowers", mock.Anything, mock.Anything).Return([]model.Borrower{
		{ID: "b-1", Name: "Anna Andersson", Email: "anna@example.com"},
	}, nil)
	f.signers.On("CreateCooperativeSigners", mock.Anything, mock.Anything).Return([]model.CooperativeSigner{}, nil)
	f.coops.On("FindByID", mock.Anything, "coop-1").Return(&model.HousingCooperative{ID: "coop-1", Name: "Brf Eken"}, nil)

	f.tokens.On("Create", mock.Anything, mock.Anything).Return(&model.SigningToken{Secret: "s"}, nil)
	f.mailer.On("SendBorrowerInvite", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Create(context.Background(), req, testActor)

	require.NoError(t, err)
	assert.True(t, got.NotificationsSent)
	f.coops.AssertNotCalled(t, "UpdateAdministrator", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeedService_Create_AccountingFirmSkipsMirror(t *testing.T) {
	f := newDeedServiceFixture()
	req := validCreateRequest()
	req.AccountingFirm = &AccountingFirmInput{FirmName: "Räkna AB", FirmEmail: "info@rakna.se"}

	f.coops.On("Create", mock.Anything, mock.Anything).Return(&model.HousingCooperative{ID: "coop-1", Name: "Brf Eken"}, nil)
	f.deeds.On("Create", mock.Anything, mock.Anything).Return(&model.Deed{ID: "deed-1"}, nil)
	f.signers.On("CreateBorrowers", mock.Anything, mock.Anything).Return([]model.Borrower{
		{ID: "b-1", Name: "Anna Andersson", Email: "anna@example.com"},
	}, nil)
	f.signers.On("CreateCooperativeSigners", mock.Anything, mock.Anything).Return([]model.CooperativeSigner{
		{ID: "cs-1", AdministratorName: "Bengt Berg", AdministratorEmail: "bengt@brf.se"},
	}, nil)
	f.signers.On("CreateAccountingFirmContact", mock.Anything, mock.MatchedBy(func(c *model.AccountingFirmContact) bool {
		return c.FirmName == "Räkna AB" && c.DeedID == "deed-1"
	})).Return(&model.AccountingFirmContact{ID: "af-1"}, nil)
	f.coops.On("UpdateAccountingFirm", mock.Anything, "coop-1", "Räkna AB", "info@rakna.se").Return(nil)
	f.coops.On("FindByID", mock.Anything, "coop-1").Return(&model.HousingCooperative{ID: "coop-1", Name: "Brf Eken"}, nil)

	f.tokens.On("Create", mock.Anything, mock.Anything).Return(&model.SigningToken{Secret: "s"}, nil)
	f.mailer.On("SendBorrowerInvite", mock.Anything, mock.Anything).Return(nil)
	f.mailer.On("SendCooperativeInvite", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Create(context.Background(), req, testActor)

	require.NoError(t, err)
	assert.True(t, got.NotificationsSent)
	f.coops.AssertNotCalled(t, "UpdateAdministrator", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	// Cooperative has no administrator email, so no summary is sent.
	f.mailer.AssertNotCalled(t, "SendCooperativeSummary", mock.Anything, mock.Anything)
}

func TestDeedService_Get(t *testing.T) {
	coopID := "coop-1"

	t.Run("with relations", func(t *testing.T) {
		f := newDeedServiceFixture()
		f.deeds.On("FindByID", mock.Anything, "deed-1").Return(&model.Deed{ID: "deed-1", HousingCooperativeID: &coopID}, nil)
		f.signers.On("BorrowersByDeed", mock.Anything, "deed-1").Return([]model.Borrower{{ID: "b-1"}}, nil)
		f.signers.On("CooperativeSignersByDeed", mock.Anything, "deed-1").Return([]model.CooperativeSigner{{ID: "cs-1"}}, nil)
		f.signers.On("AccountingFirmContactByDeed", mock.Anything, "deed-1").Return(nil, sql.ErrNoRows)
		f.coops.On("FindByID", mock.Anything, "coop-1").Return(&model.HousingCooperative{ID: "coop-1"}, nil)

		got, err := f.svc.Get(context.Background(), "deed-1")

		require.NoError(t, err)
		assert.Equal(t, "deed-1", got.Deed.ID)
		assert.Len(t, got.Borrowers, 1)
		assert.Len(t, got.CooperativeSigners, 1)
		assert.Nil(t, got.AccountingFirm)
		require.NotNil(t, got.Cooperative)
	})

	t.Run("not found", func(t *testing.T) {
		f := newDeedServiceFixture()
		f.deeds.On("FindByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

		_, err := f.svc.Get(context.Background(), "missing")

		assert.ErrorIs(t, err, ErrDeedNotFound)
	})
}

func TestDeedService_List(t *testing.T) {
	f := newDeedServiceFixture()
	status := model.StatusCompleted

	f.deeds.On("List", mock.Anything, mock.MatchedBy(func(rf repository.DeedFilter) bool {
		return rf.Status != nil && *rf.Status == model.StatusCompleted
	}), repository.PageQuery{Limit: 20, Offset: 0}).Return(&repository.PageResult[model.Deed]{
		Items: []model.Deed{{ID: "deed-1"}},
		Total: 1,
	}, nil)

	// Limit 0 falls back to the default page size.
	got, err := f.svc.List(context.Background(), DeedFilter{Status: &status}, 0, -5)

	require.NoError(t, err)
	assert.Equal(t, 1, got.Total)
	require.Len(t, got.Items, 1)
	f.deeds.AssertExpectations(t)
}

func TestDeedService_Summary(t *testing.T) {
	f := newDeedServiceFixture()
	f.deeds.On("Stats", mock.Anything).Return(&repository.DeedStats{
		TotalDeeds:        10,
		TotalCooperatives: 4,
		StatusDistribution: map[model.DeedStatus]int{
			model.StatusCreated:   3,
			model.StatusCompleted: 7,
		},
		AverageBorrowersPerDeed: 1.8,
	}, nil)

	got, err := f.svc.Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalDeeds)
	assert.Equal(t, 3, got.StatusDistribution["CREATED"])
	assert.Equal(t, 7, got.StatusDistribution["COMPLETED"])
	assert.InDelta(t, 1.8, got.AverageBorrowersPerDeed, 0.001)
}

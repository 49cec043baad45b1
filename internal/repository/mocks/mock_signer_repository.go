package mocks

import (
	"context"
	"time"

	"deedapi/internal/model"
	"deedapi/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockSignerRepository struct {
	mock.Mock
}

func (m *MockSignerRepository) CreateBorrowers(ctx context.Context, borrowers []model.Borrower) ([]model.Borrower, error) {
	args := m.Called(ctx, borrowers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Borrower), args.Error(1)
}

func (m *MockSignerRepository) CreateCooperativeSigners(ctx context.Context, signers []model.CooperativeSigner) ([]model.CooperativeSigner, error) {
	args := m.Called(ctx, signers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CooperativeSigner), args.Error(1)
}

func (m *MockSignerRepository) CreateAccountingFirmContact(ctx context.Context, contact *model.AccountingFirmContact) (*model.AccountingFirmContact, error) {
	args := m.Called(ctx, contact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccountingFirmContact), args.Error(1)
}

func (m *MockSignerRepository) FindBorrowerByID(ctx context.Context, id string) (*model.Borrower, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Borrower), args.Error(1)
}

func (m *MockSignerRepository) FindCooperativeSignerByID(ctx context.Context, id string) (*model.CooperativeSigner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CooperativeSigner), args.Error(1)
}

func (m *MockSignerRepository) BorrowersByDeed(ctx context.Context, deedID string) ([]model.Borrower, error) {
	args := m.Called(ctx, deedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Borrower), args.Error(1)
}

func (m *MockSignerRepository) CooperativeSignersByDeed(ctx context.Context, deedID string) ([]model.CooperativeSigner, error) {
	args := m.Called(ctx, deedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CooperativeSigner), args.Error(1)
}

func (m *MockSignerRepository) AccountingFirmContactByDeed(ctx context.Context, deedID string) (*model.AccountingFirmContact, error) {
	args := m.Called(ctx, deedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccountingFirmContact), args.Error(1)
}

func (m *MockSignerRepository) MarkSigned(ctx context.Context, ref model.SignerRef, at time.Time) (*repository.SigningProgress, error) {
	args := m.Called(ctx, ref, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SigningProgress), args.Error(1)
}

package mocks

import (
	"context"

	"deedapi/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockCooperativeRepository struct {
	mock.Mock
}

func (m *MockCooperativeRepository) Create(ctx context.Context, coop *model.HousingCooperative) (*model.HousingCooperative, error) {
	args := m.Called(ctx, coop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HousingCooperative), args.Error(1)
}

func (m *MockCooperativeRepository) FindByID(ctx context.Context, id string) (*model.HousingCooperative, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HousingCooperative), args.Error(1)
}

func (m *MockCooperativeRepository) UpdateAdministrator(ctx context.Context, id, name, personNumber, email string) error {
	args := m.Called(ctx, id, name, personNumber, email)
	return args.Error(0)
}

func (m *MockCooperativeRepository) UpdateAccountingFirm(ctx context.Context, id, firmName, firmEmail string) error {
	args := m.Called(ctx, id, firmName, firmEmail)
	return args.Error(0)
}

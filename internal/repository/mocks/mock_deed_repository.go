package mocks

import (
	"context"

	"deedapi/internal/model"
	"deedapi/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockDeedRepository struct {
	mock.Mock
}

func (m *MockDeedRepository) Create(ctx context.Context, deed *model.Deed) (*model.Deed, error) {
	args := m.Called(ctx, deed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deed), args.Error(1)
}

func (m *MockDeedRepository) FindByID(ctx context.Context, id string) (*model.Deed, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deed), args.Error(1)
}

func (m *MockDeedRepository) List(ctx context.Context, f repository.DeedFilter, pq repository.PageQuery) (*repository.PageResult[model.Deed], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Deed]), args.Error(1)
}

func (m *MockDeedRepository) AdvanceStatus(ctx context.Context, deedID string, from []model.DeedStatus, to model.DeedStatus) (bool, error) {
	args := m.Called(ctx, deedID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeedRepository) Stats(ctx context.Context) (*repository.DeedStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.DeedStats), args.Error(1)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"deedapi/internal/service"
)

// MockDeedService is a testify mock of service.DeedService.
type MockDeedService struct {
	mock.Mock
}

func (m *MockDeedService) Create(ctx context.Context, req service.CreateDeedRequest, actor service.Actor) (*service.CreateDeedResult, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreateDeedResult), args.Error(1)
}

func (m *MockDeedService) Get(ctx context.Context, id string) (*service.DeedDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DeedDetails), args.Error(1)
}

func (m *MockDeedService) List(ctx context.Context, f service.DeedFilter, limit, offset int) (*service.DeedListResult, error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DeedListResult), args.Error(1)
}

func (m *MockDeedService) Summary(ctx context.Context) (*service.StatsSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StatsSummary), args.Error(1)
}

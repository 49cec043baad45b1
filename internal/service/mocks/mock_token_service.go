package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"deedapi/internal/model"
	"deedapi/internal/service"
)

// MockTokenService is a testify mock of service.TokenService.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Issue(ctx context.Context, deedID string, ref model.SignerRef, email string) (*model.SigningToken, error) {
	args := m.Called(ctx, deedID, ref, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SigningToken), args.Error(1)
}

func (m *MockTokenService) Verify(ctx context.Context, secret string) (*service.TokenVerification, error) {
	args := m.Called(ctx, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenVerification), args.Error(1)
}

func (m *MockTokenService) Consume(ctx context.Context, secret string) (*service.SigningOutcome, error) {
	args := m.Called(ctx, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SigningOutcome), args.Error(1)
}

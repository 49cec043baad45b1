package mocks

import (
	"context"
	"time"

	"deedapi/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token *model.SigningToken) (*model.SigningToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SigningToken), args.Error(1)
}

func (m *MockTokenRepository) FindBySecret(ctx context.Context, secret string) (*model.SigningToken, error) {
	args := m.Called(ctx, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SigningToken), args.Error(1)
}

func (m *MockTokenRepository) MarkUsed(ctx context.Context, secret string, at time.Time) (bool, error) {
	args := m.Called(ctx, secret, at)
	return args.Bool(0), args.Error(1)
}

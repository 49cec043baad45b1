package mocks

import (
	"context"

	"deedapi/internal/mail"
	"github.com/stretchr/testify/mock"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendBorrowerInvite(ctx context.Context, invite mail.BorrowerInvite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func (m *MockMailer) SendCooperativeInvite(ctx context.Context, invite mail.CooperativeInvite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func (m *MockMailer) SendCooperativeSummary(ctx context.Context, summary mail.CooperativeSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

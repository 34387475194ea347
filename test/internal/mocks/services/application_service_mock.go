package services

import (
	"context"

	"github.com/rktclgh/fairplay-banner/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type ApplicationServiceMock struct {
	mock.Mock
}

func NewApplicationServiceMock() *ApplicationServiceMock {
	return &ApplicationServiceMock{}
}

func (m *ApplicationServiceMock) Submit(ctx context.Context, req model.SubmitApplicationRequest) (*model.Application, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *ApplicationServiceMock) List(ctx context.Context) ([]*model.Application, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Application), args.Error(1)
}

func (m *ApplicationServiceMock) ListByUserID(ctx context.Context, userID int) ([]*model.Application, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Application), args.Error(1)
}

func (m *ApplicationServiceMock) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.Application, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *ApplicationServiceMock) Approve(ctx context.Context, applicationID uuid.UUID, adminID int, comment string) (*model.Application, error) {
	args := m.Called(ctx, applicationID, adminID, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *ApplicationServiceMock) Reject(ctx context.Context, applicationID uuid.UUID, adminID int, comment string) (*model.Application, error) {
	args := m.Called(ctx, applicationID, adminID, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *ApplicationServiceMock) HandlePaymentCallback(ctx context.Context, req model.PaymentCallbackRequest) (*model.PaymentCallbackResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentCallbackResponse), args.Error(1)
}

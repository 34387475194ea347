package services

import (
	"context"

	"github.com/rktclgh/fairplay-banner/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type BannerTypeServiceMock struct {
	mock.Mock
}

func NewBannerTypeServiceMock() *BannerTypeServiceMock {
	return &BannerTypeServiceMock{}
}

func (m *BannerTypeServiceMock) List(ctx context.Context) ([]*model.BannerType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.BannerType), args.Error(1)
}

func (m *BannerTypeServiceMock) GetByBannerTypeID(ctx context.Context, bannerTypeID uuid.UUID) (*model.BannerType, error) {
	args := m.Called(ctx, bannerTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BannerType), args.Error(1)
}

func (m *BannerTypeServiceMock) Create(ctx context.Context, bannerType *model.BannerType) (*model.BannerType, error) {
	args := m.Called(ctx, bannerType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BannerType), args.Error(1)
}

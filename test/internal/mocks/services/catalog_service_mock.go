package services

import (
	"context"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/service"

	"github.com/stretchr/testify/mock"
)

type CatalogServiceMock struct {
	mock.Mock
}

func NewCatalogServiceMock() *CatalogServiceMock {
	return &CatalogServiceMock{}
}

func (m *CatalogServiceMock) GenerateSlots(ctx context.Context, params service.GenerateSlotsParams) ([]*model.Slot, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Slot), args.Error(1)
}

func (m *CatalogServiceMock) ListAvailableSlots(ctx context.Context, bannerTypeID int, from, to time.Time) ([]*model.Slot, error) {
	args := m.Called(ctx, bannerTypeID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Slot), args.Error(1)
}

func (m *CatalogServiceMock) ListSoldSlots(ctx context.Context, bannerTypeID int, date time.Time) ([]*model.SoldSlotResponse, error) {
	args := m.Called(ctx, bannerTypeID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SoldSlotResponse), args.Error(1)
}

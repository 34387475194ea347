package service

import (
	"context"
	"testing"

	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/repository"
	"github.com/rktclgh/fairplay-banner/internal/service"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogService() service.CatalogService {
	db := getTestDB()
	return service.NewCatalogService(
		repository.NewSlotRepository(db),
		repository.NewBannerTypeRepository(db),
		nil,
	)
}

func TestCatalogService_GenerateSlots(t *testing.T) {
	ctx := context.Background()
	catalog := newCatalogService()

	t.Run("Success - date x priority grid", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		bannerTypeID := createTestBannerType(t, "Homepage Top")

		slots, err := catalog.GenerateSlots(ctx, service.GenerateSlotsParams{
			BannerTypeID: bannerTypeID,
			From:         mustDate(t, "2026-09-01"),
			To:           mustDate(t, "2026-09-03"),
			Priorities:   []int{1, 2},
			Price:        500,
		})

		require.NoError(t, err)
		assert.Len(t, slots, 6)
		for _, slot := range slots {
			assert.Equal(t, model.SlotStatusAvailable, slot.Status)
			assert.Equal(t, 500.0, slot.Price)
		}
	})

	t.Run("Failed - overlapping grid is rejected as a whole", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		bannerTypeID := createTestBannerType(t, "Homepage Top")
		createTestSlot(t, bannerTypeID, "2026-09-02", 1, 500)

		_, err := catalog.GenerateSlots(ctx, service.GenerateSlotsParams{
			BannerTypeID: bannerTypeID,
			From:         mustDate(t, "2026-09-01"),
			To:           mustDate(t, "2026-09-03"),
			Priorities:   []int{1},
			Price:        500,
		})

		assert.ErrorIs(t, err, apperrors.ErrSlotAlreadyExists)

		// 整批被拒絕，沒撞到的日期也不會被建立
		slots, err := catalog.ListAvailableSlots(ctx, bannerTypeID, mustDate(t, "2026-09-01"), mustDate(t, "2026-09-03"))
		require.NoError(t, err)
		assert.Len(t, slots, 1)
	})

	t.Run("Failed - invalid params", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		bannerTypeID := createTestBannerType(t, "Homepage Top")

		cases := []service.GenerateSlotsParams{
			{BannerTypeID: bannerTypeID, From: mustDate(t, "2026-09-03"), To: mustDate(t, "2026-09-01"), Priorities: []int{1}, Price: 500},
			{BannerTypeID: bannerTypeID, From: mustDate(t, "2026-09-01"), To: mustDate(t, "2026-09-03"), Priorities: nil, Price: 500},
			{BannerTypeID: bannerTypeID, From: mustDate(t, "2026-09-01"), To: mustDate(t, "2026-09-03"), Priorities: []int{1, 1}, Price: 500},
			{BannerTypeID: bannerTypeID, From: mustDate(t, "2026-09-01"), To: mustDate(t, "2026-09-03"), Priorities: []int{0}, Price: 500},
			{BannerTypeID: bannerTypeID, From: mustDate(t, "2026-09-01"), To: mustDate(t, "2026-09-03"), Priorities: []int{1}, Price: 0},
		}

		for _, params := range cases {
			_, err := catalog.GenerateSlots(ctx, params)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		}
	})

	t.Run("Failed - unknown banner type", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		_, err := catalog.GenerateSlots(ctx, service.GenerateSlotsParams{
			BannerTypeID: 999999,
			From:         mustDate(t, "2026-09-01"),
			To:           mustDate(t, "2026-09-01"),
			Priorities:   []int{1},
			Price:        500,
		})

		assert.ErrorIs(t, err, apperrors.ErrBannerTypeNotFound)
	})
}

func TestCatalogService_ListSoldSlots(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	catalog := newCatalogService()
	applicationService := newTestApplicationService()

	bannerTypeID := createTestBannerType(t, "Homepage Top")
	createTestSlot(t, bannerTypeID, "2026-09-01", 1, 500)
	createTestSlot(t, bannerTypeID, "2026-09-01", 2, 300)

	// 走完整個售出流程，讓第一個版位掛上 banner
	application, err := applicationService.Submit(ctx, submitRequest(bannerTypeID, 1, []model.SlotRequest{
		{SlotDate: "2026-09-01", Priority: 1, ExpectedPrice: 500},
	}))
	require.NoError(t, err)
	_, err = applicationService.Approve(ctx, application.ApplicationID, 9, "")
	require.NoError(t, err)
	result, err := applicationService.HandlePaymentCallback(ctx, model.PaymentCallbackRequest{
		ApplicationID: application.ApplicationID,
		Outcome:       model.PaymentOutcomeSuccess,
		Amount:        500,
	})
	require.NoError(t, err)
	require.True(t, result.Accepted)

	placements, err := catalog.ListSoldSlots(ctx, bannerTypeID, mustDate(t, "2026-09-01"))

	require.NoError(t, err)
	require.Len(t, placements, 1)
	assert.Equal(t, 1, placements[0].Priority)
	require.NotNil(t, placements[0].Banner)
	assert.Equal(t, application.Title, placements[0].Banner.Title)
}

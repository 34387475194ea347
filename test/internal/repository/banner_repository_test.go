package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/repository"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBannerRepository_Create(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	repo := repository.NewBannerRepository(getTestDB())
	bannerTypeID := createTestBannerType(t, "Homepage Top")
	applicationID := createTestApplication(t, bannerTypeID, 1)

	tx, txCleanup := setupTestWithTransaction(t)
	defer txCleanup()

	linkURL := "https://shop.test/autumn"
	banner := &model.Banner{
		BannerID:      uuid.New(),
		ApplicationID: applicationID,
		BannerTypeID:  bannerTypeID,
		Title:         "Autumn Sale",
		ImageURL:      "https://cdn.test/autumn.png",
		LinkURL:       &linkURL,
		ActiveFrom:    time.Now().UTC(),
		ActiveUntil:   time.Now().UTC().Add(72 * time.Hour),
	}

	created, err := repo.Create(ctx, tx, banner)

	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, applicationID, created.ApplicationID)
	require.NotNil(t, created.LinkURL)
	assert.Equal(t, linkURL, *created.LinkURL)
}

func TestBannerRepository_FindByApplicationID(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	repo := repository.NewBannerRepository(getTestDB())
	bannerTypeID := createTestBannerType(t, "Homepage Top")
	applicationID := createTestApplication(t, bannerTypeID, 1)
	bannerID := createTestBanner(t, applicationID, bannerTypeID)

	t.Run("Success", func(t *testing.T) {
		banner, err := repo.FindByApplicationID(ctx, applicationID)
		require.NoError(t, err)
		assert.Equal(t, bannerID, banner.ID)
	})

	t.Run("Failed - not found", func(t *testing.T) {
		_, err := repo.FindByApplicationID(ctx, 999999)
		assert.ErrorIs(t, err, apperrors.ErrBannerNotFound)
	})
}

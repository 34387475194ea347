package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/repository"
	"github.com/rktclgh/fairplay-banner/internal/service"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReservationService() service.ReservationService {
	return service.NewReservationService(getTestDB(), repository.NewSlotRepository(getTestDB()))
}

func beginTx(t *testing.T) (pgx.Tx, func()) {
	t.Helper()
	tx, err := getTestDB().Begin(context.Background())
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	return tx, func() {
		if err := tx.Rollback(context.Background()); err != nil && err != pgx.ErrTxClosed {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}
}

func TestReservationService_LockSlots(t *testing.T) {
	ctx := context.Background()
	reservation := newReservationService()
	holdFor := 15 * time.Minute

	t.Run("Locks the whole group", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		bannerTypeID := createTestBannerType(t, "Homepage Top")
		createTestSlot(t, bannerTypeID, "2026-09-01", 1, 500)
		createTestSlot(t, bannerTypeID, "2026-09-02", 1, 500)

		tx, txCleanup := beginTx(t)
		defer txCleanup()

		keys := []model.SlotKey{
			{SlotDate: mustDate(t, "2026-09-01"), Priority: 1},
			{SlotDate: mustDate(t, "2026-09-02"), Priority: 1},
		}

		slots, err := reservation.LockSlots(ctx, tx, bannerTypeID, keys, 7, holdFor)

		require.NoError(t, err)
		require.Len(t, slots, 2)
		for _, slot := range slots {
			assert.Equal(t, model.SlotStatusLocked, slot.Status)
			require.NotNil(t, slot.LockedBy)
			assert.Equal(t, 7, *slot.LockedBy)
			require.NotNil(t, slot.LockedUntil)
			assert.True(t, slot.LockedUntil.After(time.Now().UTC()))
		}
	})

	t.Run("All or nothing - one conflicting slot fails the whole group", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		bannerTypeID := createTestBannerType(t, "Homepage Top")
		freeSlotID := createTestSlot(t, bannerTypeID, "2026-09-01", 1, 500)
		createTestLockedSlot(t, bannerTypeID, "2026-09-02", 1, 99, time.Now().UTC().Add(10*time.Minute))

		tx, txCleanup := beginTx(t)
		defer txCleanup()

		keys := []model.SlotKey{
			{SlotDate: mustDate(t, "2026-09-01"), Priority: 1},
			{SlotDate: mustDate(t, "2026-09-02"), Priority: 1},
		}

		_, err := reservation.LockSlots(ctx, tx, bannerTypeID, keys, 7, holdFor)

		require.Error(t, err)
		var conflict *apperrors.SlotConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, []string{"2026-09-02#p1"}, conflict.Keys)
		assert.ErrorIs(t, err, apperrors.ErrSlotUnavailable)

		// 失敗時連可用的那格也不該被鎖
		require.NoError(t, tx.Rollback(ctx))
		assert.Equal(t, model.SlotStatusAvailable, getSlotStatus(t, freeSlotID))
	})

	t.Run("Idempotent relock by same holder extends the hold", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		bannerTypeID := createTestBannerType(t, "Homepage Top")
		createTestLockedSlot(t, bannerTypeID, "2026-09-01", 1, 7, time.Now().UTC().Add(5*time.Minute))

		tx, txCleanup := beginTx(t)
		defer txCleanup()

		keys := []model.SlotKey{{SlotDate: mustDate(t, "2026-09-01"), Priority: 1}}

		slots, err := reservation.LockSlots(ctx, tx, bannerTypeID, keys, 7, holdFor)

		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.True(t, slots[0].LockedUntil.After(time.Now().UTC().Add(10*time.Minute)))
	})

	t.Run("Reclaims expired hold inline", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		bannerTypeID := createTestBannerType(t, "Homepage Top")
		createTestLockedSlot(t, bannerTypeID, "2026-09-01", 1, 99, time.Now().UTC().Add(-time.Minute))

		tx, txCleanup := beginTx(t)
		defer txCleanup()

		keys := []model.SlotKey{{SlotDate: mustDate(t, "2026-09-01"), Priority: 1}}

		slots, err := reservation.LockSlots(ctx, tx, bannerTypeID, keys, 7, holdFor)

		require.NoError(t, err)
		require.Len(t, slots, 1)
		require.NotNil(t, slots[0].LockedBy)
		assert.Equal(t, 7, *slots[0].LockedBy)
	})

	t.Run("Failed - unknown slot", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		bannerTypeID := createTestBannerType(t, "Homepage Top")
		createTestSlot(t, bannerTypeID, "2026-09-01", 1, 500)

		tx, txCleanup := beginTx(t)
		defer txCleanup()

		keys := []model.SlotKey{
			{SlotDate: mustDate(t, "2026-09-01"), Priority: 1},
			{SlotDate: mustDate(t, "2026-12-24"), Priority: 1},
		}

		_, err := reservation.LockSlots(ctx, tx, bannerTypeID, keys, 7, holdFor)
		assert.ErrorIs(t, err, apperrors.ErrSlotNotFound)
	})
}

func TestReservationService_ConfirmSale(t *testing.T) {
	ctx := context.Background()
	reservation := newReservationService()

	t.Run("Success", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		bannerTypeID := createTestBannerType(t, "Homepage Top")
		slotID := createTestLockedSlot(t, bannerTypeID, "2026-09-01", 1, 7, time.Now().UTC().Add(10*time.Minute))

		tx, txCleanup := beginTx(t)
		defer txCleanup()

		err := reservation.ConfirmSale(ctx, tx, []int{slotID}, 7, 42)
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		assert.Equal(t, model.SlotStatusSold, getSlotStatus(t, slotID))
	})

	t.Run("Idempotent - already sold to the same banner", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		bannerTypeID := createTestBannerType(t, "Homepage Top")
		slotID := createTestLockedSlot(t, bannerTypeID, "2026-09-01", 1, 7, time.Now().UTC().Add(10*time.Minute))

		tx, txCleanup := beginTx(t)
		defer txCleanup()

		require.NoError(t, reservation.ConfirmSale(ctx, tx, []int{slotID}, 7, 42))
		require.NoError(t, tx.Commit(ctx))

		tx2, tx2Cleanup := beginTx(t)
		defer tx2Cleanup()

		err := reservation.ConfirmSale(ctx, tx2, []int{slotID}, 7, 42)
		assert.NoError(t, err)
	})

	t.Run("Failed - hold expired", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		bannerTypeID := createTestBannerType(t, "Homepage Top")
		slotID := createTestLockedSlot(t, bannerTypeID, "2026-09-01", 1, 7, time.Now().UTC().Add(-time.Minute))

		tx, txCleanup := beginTx(t)
		defer txCleanup()

		err := reservation.ConfirmSale(ctx, tx, []int{slotID}, 7, 42)

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrConfirmMismatch)
		var conflict *apperrors.SlotConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, []string{"2026-09-01#p1"}, conflict.Keys)
	})

	t.Run("Failed - sold to a different banner", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		bannerTypeID := createTestBannerType(t, "Homepage Top")
		slotID := createTestLockedSlot(t, bannerTypeID, "2026-09-01", 1, 7, time.Now().UTC().Add(10*time.Minute))

		tx, txCleanup := beginTx(t)
		defer txCleanup()

		require.NoError(t, reservation.ConfirmSale(ctx, tx, []int{slotID}, 7, 42))
		require.NoError(t, tx.Commit(ctx))

		tx2, tx2Cleanup := beginTx(t)
		defer tx2Cleanup()

		err := reservation.ConfirmSale(ctx, tx2, []int{slotID}, 7, 43)
		assert.ErrorIs(t, err, apperrors.ErrConfirmMismatch)
	})
}

func TestReservationService_ReleaseSlots(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	reservation := newReservationService()

	bannerTypeID := createTestBannerType(t, "Homepage Top")
	heldSlotID := createTestLockedSlot(t, bannerTypeID, "2026-09-01", 1, 7, time.Now().UTC().Add(10*time.Minute))
	reclaimedSlotID := createTestSlot(t, bannerTypeID, "2026-09-02", 1, 500)

	tx, txCleanup := beginTx(t)
	defer txCleanup()

	// 已被回收的版位不在名下，釋放應該容忍而不是報錯
	err := reservation.ReleaseSlots(ctx, tx, []int{heldSlotID, reclaimedSlotID}, 7)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, model.SlotStatusAvailable, getSlotStatus(t, heldSlotID))
	assert.Equal(t, model.SlotStatusAvailable, getSlotStatus(t, reclaimedSlotID))
}

func TestReservationService_ReleaseExpired(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	reservation := newReservationService()

	bannerTypeID := createTestBannerType(t, "Homepage Top")
	expiredSlotID := createTestLockedSlot(t, bannerTypeID, "2026-09-01", 1, 7, time.Now().UTC().Add(-time.Minute))
	activeSlotID := createTestLockedSlot(t, bannerTypeID, "2026-09-02", 1, 7, time.Now().UTC().Add(10*time.Minute))

	count, err := reservation.ReleaseExpired(ctx, time.Now().UTC())

	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, model.SlotStatusAvailable, getSlotStatus(t, expiredSlotID))
	assert.Equal(t, model.SlotStatusLocked, getSlotStatus(t, activeSlotID))
}

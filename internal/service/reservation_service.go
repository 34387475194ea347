package service

import (
	"context"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/metrics"
	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/repository"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"
	"github.com/rktclgh/fairplay-banner/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ReservationService 預約引擎：版位狀態只能經過這裡轉換。
// 所有多列轉換都在呼叫端的交易內完成，部分成功的結果不會留下來。
type ReservationService interface {
	// 鎖定整組版位，全拿或全不拿；同一 holder 的未過期鎖定視為已取得，
	// 過期鎖定（不限 holder）就地回收
	LockSlots(ctx context.Context, tx pgx.Tx, bannerTypeID int, keys []model.SlotKey, holderID int, holdFor time.Duration) ([]*model.Slot, error)
	// 把 holder 持有的鎖定版位轉成售出並掛上 banner；重複呼叫是冪等的成功
	ConfirmSale(ctx context.Context, tx pgx.Tx, slotIDs []int, holderID int, bannerID int) error
	// 釋放 holder 持有的鎖定版位；已售出或已被回收的版位不受影響
	ReleaseSlots(ctx context.Context, tx pgx.Tx, slotIDs []int, holderID int) error
	// 無條件回收所有過期鎖定，由排程定期呼叫
	ReleaseExpired(ctx context.Context, now time.Time) (int64, error)
}

type ReservationServiceImpl struct {
	pool     *pgxpool.Pool
	slotRepo repository.SlotRepository
}

func NewReservationService(pool *pgxpool.Pool, slotRepo repository.SlotRepository) ReservationService {
	return &ReservationServiceImpl{
		pool:     pool,
		slotRepo: slotRepo,
	}
}

func (s *ReservationServiceImpl) LockSlots(ctx context.Context, tx pgx.Tx, bannerTypeID int, keys []model.SlotKey, holderID int, holdFor time.Duration) ([]*model.Slot, error) {
	if len(keys) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	start := time.Now()
	defer func() {
		metrics.LockDuration.Observe(time.Since(start).Seconds())
	}()

	// FOR UPDATE 讀取，排序固定為 (slot_date, priority)，避免重疊鎖定時互相死鎖
	slots, err := s.slotRepo.FindByKeysForUpdate(ctx, tx, bannerTypeID, keys)
	if err != nil {
		metrics.LockAttempts.WithLabelValues("error").Inc()
		return nil, err
	}

	if len(slots) != len(keys) {
		metrics.LockAttempts.WithLabelValues("error").Inc()
		return nil, apperrors.ErrSlotNotFound
	}

	now := time.Now().UTC()
	conflicts := []string{}
	reclaimed := 0

	for _, slot := range slots {
		if !slot.AcquirableBy(holderID, now) {
			conflicts = append(conflicts, slot.Key().String())
			continue
		}
		if slot.HoldExpired(now) && (slot.LockedBy == nil || *slot.LockedBy != holderID) {
			reclaimed++
		}
	}

	if len(conflicts) > 0 {
		metrics.LockAttempts.WithLabelValues("conflict").Inc()
		return nil, &apperrors.SlotConflictError{Op: "lock", Keys: conflicts}
	}

	ids := make([]int, 0, len(slots))
	for _, slot := range slots {
		ids = append(ids, slot.ID)
	}

	until := now.Add(holdFor)
	affected, err := s.slotRepo.Lock(ctx, tx, ids, holderID, until)
	if err != nil {
		metrics.LockAttempts.WithLabelValues("error").Inc()
		return nil, err
	}

	// 讀取時已持有 row lock，條件更新不該少列；少了代表狀態被繞過引擎改動
	if affected != int64(len(ids)) {
		metrics.LockAttempts.WithLabelValues("error").Inc()
		logger.WithComponent("reservation").Error("lock affected fewer rows than expected",
			zap.Int("expected", len(ids)), zap.Int64("affected", affected))
		return nil, apperrors.ErrInternalServerError
	}

	if reclaimed > 0 {
		metrics.SlotsReclaimed.WithLabelValues("inline").Add(float64(reclaimed))
	}
	metrics.LockAttempts.WithLabelValues("success").Inc()

	for _, slot := range slots {
		slot.Status = model.SlotStatusLocked
		holder := holderID
		slot.LockedBy = &holder
		lockedUntil := until
		slot.LockedUntil = &lockedUntil
	}

	return slots, nil
}

func (s *ReservationServiceImpl) ConfirmSale(ctx context.Context, tx pgx.Tx, slotIDs []int, holderID int, bannerID int) error {
	if len(slotIDs) == 0 {
		return apperrors.ErrInvalidInput
	}

	now := time.Now().UTC()
	affected, err := s.slotRepo.MarkSold(ctx, tx, slotIDs, holderID, bannerID, now)
	if err != nil {
		metrics.ConfirmResults.WithLabelValues("error").Inc()
		return err
	}

	if affected == int64(len(slotIDs)) {
		metrics.ConfirmResults.WithLabelValues("success").Inc()
		return nil
	}

	// 有列沒被改到：可能是重送的回調（已售給同一個 banner，冪等成功），
	// 也可能是鎖定已過期被回收、甚至已轉售，這些要回報而不是默默跳過
	slots, err := s.slotRepo.FindByIDs(ctx, tx, slotIDs)
	if err != nil {
		metrics.ConfirmResults.WithLabelValues("error").Inc()
		return err
	}

	mismatched := []string{}
	for _, slot := range slots {
		if slot.Status == model.SlotStatusSold && slot.SoldBannerID != nil && *slot.SoldBannerID == bannerID {
			continue
		}
		mismatched = append(mismatched, slot.Key().String())
	}

	if len(mismatched) > 0 {
		metrics.ConfirmResults.WithLabelValues("mismatch").Inc()
		return &apperrors.SlotConflictError{Op: "confirm", Keys: mismatched}
	}

	metrics.ConfirmResults.WithLabelValues("idempotent").Inc()
	return nil
}

func (s *ReservationServiceImpl) ReleaseSlots(ctx context.Context, tx pgx.Tx, slotIDs []int, holderID int) error {
	if len(slotIDs) == 0 {
		return nil
	}

	affected, err := s.slotRepo.Release(ctx, tx, slotIDs, holderID)
	if err != nil {
		return err
	}

	// 少掉的列是已被排程回收或已售出的版位，釋放本來就不該碰它們
	if affected != int64(len(slotIDs)) {
		logger.WithComponent("reservation").Info("release skipped slots no longer held",
			zap.Int("requested", len(slotIDs)), zap.Int64("released", affected))
	}

	return nil
}

func (s *ReservationServiceImpl) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.slotRepo.ReleaseExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		metrics.SlotsReclaimed.WithLabelValues("reaper").Add(float64(count))
	}

	return count, nil
}

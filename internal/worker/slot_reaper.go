package worker

import (
	"context"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/service"
	"github.com/rktclgh/fairplay-banner/pkg/logger"

	"go.uber.org/zap"
)

// SlotReaper 定期回收過期鎖定的排程。
// 操作本身是冪等的條件更新，多個節點同時跑也沒關係。
type SlotReaper interface {
	Start(ctx context.Context)
}

type SlotReaperImpl struct {
	reservation service.ReservationService
	interval    time.Duration
}

func NewSlotReaper(reservation service.ReservationService, interval time.Duration) SlotReaper {
	return &SlotReaperImpl{
		reservation: reservation,
		interval:    interval,
	}
}

func (w *SlotReaperImpl) Start(ctx context.Context) {
	// 啟動先掃一次，把停機期間累積的過期鎖定清掉
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("reaper").Info("slot reaper stopped")
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
}

func (w *SlotReaperImpl) sweep(ctx context.Context) {
	count, err := w.reservation.ReleaseExpired(ctx, time.Now().UTC())
	if err != nil {
		logger.WithComponent("reaper").Error("release expired failed", zap.Error(err))
		return
	}
	if count > 0 {
		logger.WithComponent("reaper").Info("expired holds released", zap.Int64("count", count))
	}
}

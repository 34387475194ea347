package service

import (
	"context"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/cache"
	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/repository"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"
	"github.com/rktclgh/fairplay-banner/pkg/logger"

	"go.uber.org/zap"
)

// 批次產生版位最多一年份，超過視為輸入錯誤
const maxGenerateDays = 366

// GenerateSlotsParams 批次產生版位的參數：日期範圍 x 優先序，價格為建立當下的快照
type GenerateSlotsParams struct {
	BannerTypeID int
	From         time.Time
	To           time.Time
	Priorities   []int
	Price        float64
}

type CatalogService interface {
	// 批次產生版位；撞到既有的 (版型, 日期, 優先序) 會整批拒絕
	GenerateSlots(ctx context.Context, params GenerateSlotsParams) ([]*model.Slot, error)
	// 行事曆查詢：依日期、優先序排序，走顯示快取
	ListAvailableSlots(ctx context.Context, bannerTypeID int, from, to time.Time) ([]*model.Slot, error)
	// 上架牆查詢：某版型某天所有售出版位與其 banner
	ListSoldSlots(ctx context.Context, bannerTypeID int, date time.Time) ([]*model.SoldSlotResponse, error)
}

type CatalogServiceImpl struct {
	slotRepo       repository.SlotRepository
	bannerTypeRepo repository.BannerTypeRepository
	calendarCache  cache.CalendarCache
}

func NewCatalogService(
	slotRepo repository.SlotRepository,
	bannerTypeRepo repository.BannerTypeRepository,
	calendarCache cache.CalendarCache,
) CatalogService {
	return &CatalogServiceImpl{
		slotRepo:       slotRepo,
		bannerTypeRepo: bannerTypeRepo,
		calendarCache:  calendarCache,
	}
}

func (s *CatalogServiceImpl) GenerateSlots(ctx context.Context, params GenerateSlotsParams) ([]*model.Slot, error) {
	if err := validateGenerateParams(params); err != nil {
		return nil, err
	}

	if _, err := s.bannerTypeRepo.FindByID(ctx, params.BannerTypeID); err != nil {
		return nil, err
	}

	slots := make([]*model.Slot, 0)
	for date := params.From; !date.After(params.To); date = date.AddDate(0, 0, 1) {
		for _, priority := range params.Priorities {
			slots = append(slots, &model.Slot{
				BannerTypeID: params.BannerTypeID,
				SlotDate:     date,
				Priority:     priority,
				Quota:        1,
				Price:        params.Price,
			})
		}
	}

	created, err := s.slotRepo.BulkCreate(ctx, slots)
	if err != nil {
		return nil, err
	}

	logger.WithComponent("catalog").Info("slots generated",
		zap.Int("banner_type_id", params.BannerTypeID), zap.Int("count", len(created)))

	return created, nil
}

func validateGenerateParams(params GenerateSlotsParams) error {
	if params.To.Before(params.From) {
		return apperrors.ErrInvalidInput
	}
	if params.To.Sub(params.From) > maxGenerateDays*24*time.Hour {
		return apperrors.ErrInvalidInput
	}
	if len(params.Priorities) == 0 || params.Price <= 0 {
		return apperrors.ErrInvalidInput
	}
	seen := map[int]bool{}
	for _, priority := range params.Priorities {
		if priority < 1 || seen[priority] {
			return apperrors.ErrInvalidInput
		}
		seen[priority] = true
	}
	return nil
}

func (s *CatalogServiceImpl) ListAvailableSlots(ctx context.Context, bannerTypeID int, from, to time.Time) ([]*model.Slot, error) {
	if to.Before(from) {
		return nil, apperrors.ErrInvalidInput
	}

	if s.calendarCache != nil {
		slots, ok, err := s.calendarCache.GetAvailability(ctx, bannerTypeID, from, to)
		if err != nil {
			// 快取壞掉就直接查資料庫
			logger.WithComponent("catalog").Warn("calendar cache read failed", zap.Error(err))
		} else if ok {
			return slots, nil
		}
	}

	slots, err := s.slotRepo.ListByTypeAndDateRange(ctx, bannerTypeID, from, to)
	if err != nil {
		return nil, err
	}

	if s.calendarCache != nil {
		if err := s.calendarCache.SetAvailability(ctx, bannerTypeID, from, to, slots); err != nil {
			logger.WithComponent("catalog").Warn("calendar cache write failed", zap.Error(err))
		}
	}

	return slots, nil
}

func (s *CatalogServiceImpl) ListSoldSlots(ctx context.Context, bannerTypeID int, date time.Time) ([]*model.SoldSlotResponse, error) {
	return s.slotRepo.ListSoldByTypeAndDate(ctx, bannerTypeID, date)
}

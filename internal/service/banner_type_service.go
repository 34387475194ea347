package service

import (
	"context"

	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/repository"

	"github.com/google/uuid"
)

type BannerTypeService interface {
	List(ctx context.Context) ([]*model.BannerType, error)
	GetByBannerTypeID(ctx context.Context, bannerTypeID uuid.UUID) (*model.BannerType, error)
	Create(ctx context.Context, bannerType *model.BannerType) (*model.BannerType, error)
}

type BannerTypeServiceImpl struct {
	repo repository.BannerTypeRepository
}

func NewBannerTypeService(repo repository.BannerTypeRepository) BannerTypeService {
	return &BannerTypeServiceImpl{repo: repo}
}

func (s *BannerTypeServiceImpl) List(ctx context.Context) ([]*model.BannerType, error) {
	return s.repo.List(ctx)
}

func (s *BannerTypeServiceImpl) GetByBannerTypeID(ctx context.Context, bannerTypeID uuid.UUID) (*model.BannerType, error) {
	return s.repo.FindByBannerTypeID(ctx, bannerTypeID)
}

func (s *BannerTypeServiceImpl) Create(ctx context.Context, bannerType *model.BannerType) (*model.BannerType, error) {
	if bannerType.BannerTypeID == uuid.Nil {
		bannerType.BannerTypeID = uuid.New()
	}
	return s.repo.Create(ctx, bannerType)
}

package repository

import (
	"context"

	"github.com/rktclgh/fairplay-banner/internal/model"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BannerRepository interface {
	FindByID(ctx context.Context, id int) (*model.Banner, error)
	FindByApplicationID(ctx context.Context, applicationID int) (*model.Banner, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, banner *model.Banner) (*model.Banner, error)
}

type BannerRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBannerRepository(pool *pgxpool.Pool) BannerRepository {
	return &BannerRepositoryImpl{
		pool: pool,
	}
}

func (r *BannerRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, banner *model.Banner) (*model.Banner, error) {
	query := `
		INSERT INTO banners (banner_id, application_id, banner_type_id, title, image_url, link_url, active_from, active_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, banner_id, application_id, banner_type_id, title, image_url, link_url,
		          active_from, active_until, created_at
	`

	err := tx.QueryRow(ctx, query,
		banner.BannerID, banner.ApplicationID, banner.BannerTypeID,
		banner.Title, banner.ImageURL, banner.LinkURL,
		banner.ActiveFrom, banner.ActiveUntil,
	).Scan(
		&banner.ID,
		&banner.BannerID,
		&banner.ApplicationID,
		&banner.BannerTypeID,
		&banner.Title,
		&banner.ImageURL,
		&banner.LinkURL,
		&banner.ActiveFrom,
		&banner.ActiveUntil,
		&banner.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return banner, nil
}

func (r *BannerRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Banner, error) {
	query := `
		SELECT id, banner_id, application_id, banner_type_id, title, image_url, link_url,
		       active_from, active_until, created_at
		FROM banners
		WHERE id = $1
	`

	var banner model.Banner
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&banner.ID,
		&banner.BannerID,
		&banner.ApplicationID,
		&banner.BannerTypeID,
		&banner.Title,
		&banner.ImageURL,
		&banner.LinkURL,
		&banner.ActiveFrom,
		&banner.ActiveUntil,
		&banner.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBannerNotFound
		}
		return nil, err
	}

	return &banner, nil
}

func (r *BannerRepositoryImpl) FindByApplicationID(ctx context.Context, applicationID int) (*model.Banner, error) {
	query := `
		SELECT id, banner_id, application_id, banner_type_id, title, image_url, link_url,
		       active_from, active_until, created_at
		FROM banners
		WHERE application_id = $1
	`

	var banner model.Banner
	err := r.pool.QueryRow(ctx, query, applicationID).Scan(
		&banner.ID,
		&banner.BannerID,
		&banner.ApplicationID,
		&banner.BannerTypeID,
		&banner.Title,
		&banner.ImageURL,
		&banner.LinkURL,
		&banner.ActiveFrom,
		&banner.ActiveUntil,
		&banner.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBannerNotFound
		}
		return nil, err
	}

	return &banner, nil
}

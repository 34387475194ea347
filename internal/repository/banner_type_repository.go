package repository

import (
	"context"

	"github.com/rktclgh/fairplay-banner/internal/model"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BannerTypeRepository interface {
	Create(ctx context.Context, bannerType *model.BannerType) (*model.BannerType, error)
	List(ctx context.Context) ([]*model.BannerType, error)
	FindByID(ctx context.Context, id int) (*model.BannerType, error)
	FindByBannerTypeID(ctx context.Context, bannerTypeID uuid.UUID) (*model.BannerType, error)
}

type BannerTypeRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBannerTypeRepository(pool *pgxpool.Pool) BannerTypeRepository {
	return &BannerTypeRepositoryImpl{
		pool: pool,
	}
}

func (r *BannerTypeRepositoryImpl) Create(ctx context.Context, bannerType *model.BannerType) (*model.BannerType, error) {
	query := `
		INSERT INTO banner_types (banner_type_id, name, description, width, height)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, banner_type_id, name, description, width, height, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		bannerType.BannerTypeID, bannerType.Name, bannerType.Description,
		bannerType.Width, bannerType.Height,
	).Scan(
		&bannerType.ID,
		&bannerType.BannerTypeID,
		&bannerType.Name,
		&bannerType.Description,
		&bannerType.Width,
		&bannerType.Height,
		&bannerType.CreatedAt,
		&bannerType.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return bannerType, nil
}

func (r *BannerTypeRepositoryImpl) List(ctx context.Context) ([]*model.BannerType, error) {
	query := `
		SELECT id, banner_type_id, name, description, width, height, created_at, updated_at
		FROM banner_types
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bannerTypes := make([]*model.BannerType, 0)
	for rows.Next() {
		var bannerType model.BannerType
		err := rows.Scan(
			&bannerType.ID,
			&bannerType.BannerTypeID,
			&bannerType.Name,
			&bannerType.Description,
			&bannerType.Width,
			&bannerType.Height,
			&bannerType.CreatedAt,
			&bannerType.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		bannerTypes = append(bannerTypes, &bannerType)
	}
	return bannerTypes, nil
}

func (r *BannerTypeRepositoryImpl) FindByID(ctx context.Context, id int) (*model.BannerType, error) {
	query := `
		SELECT id, banner_type_id, name, description, width, height, created_at, updated_at
		FROM banner_types
		WHERE id = $1
	`

	var bannerType model.BannerType
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&bannerType.ID,
		&bannerType.BannerTypeID,
		&bannerType.Name,
		&bannerType.Description,
		&bannerType.Width,
		&bannerType.Height,
		&bannerType.CreatedAt,
		&bannerType.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBannerTypeNotFound
		}
		return nil, err
	}

	return &bannerType, nil
}

func (r *BannerTypeRepositoryImpl) FindByBannerTypeID(ctx context.Context, bannerTypeID uuid.UUID) (*model.BannerType, error) {
	query := `
		SELECT id, banner_type_id, name, description, width, height, created_at, updated_at
		FROM banner_types
		WHERE banner_type_id = $1
	`

	var bannerType model.BannerType
	err := r.pool.QueryRow(ctx, query, bannerTypeID).Scan(
		&bannerType.ID,
		&bannerType.BannerTypeID,
		&bannerType.Name,
		&bannerType.Description,
		&bannerType.Width,
		&bannerType.Height,
		&bannerType.CreatedAt,
		&bannerType.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBannerTypeNotFound
		}
		return nil, err
	}

	return &bannerType, nil
}

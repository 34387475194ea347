package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/model"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

type SlotRepository interface {
	BulkCreate(ctx context.Context, slots []*model.Slot) ([]*model.Slot, error)
	ListByTypeAndDateRange(ctx context.Context, bannerTypeID int, from, to time.Time) ([]*model.Slot, error)
	ListSoldByTypeAndDate(ctx context.Context, bannerTypeID int, date time.Time) ([]*model.SoldSlotResponse, error)
	FindByID(ctx context.Context, id int) (*model.Slot, error)
	ReleaseExpired(ctx context.Context, now time.Time) (int64, error)

	// Transaction methods
	FindByKeysForUpdate(ctx context.Context, tx pgx.Tx, bannerTypeID int, keys []model.SlotKey) ([]*model.Slot, error)
	FindByIDs(ctx context.Context, tx pgx.Tx, ids []int) ([]*model.Slot, error)
	Lock(ctx context.Context, tx pgx.Tx, ids []int, holderID int, until time.Time) (int64, error)
	MarkSold(ctx context.Context, tx pgx.Tx, ids []int, holderID int, bannerID int, now time.Time) (int64, error)
	Release(ctx context.Context, tx pgx.Tx, ids []int, holderID int) (int64, error)
}

type SlotRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) SlotRepository {
	return &SlotRepositoryImpl{
		pool: pool,
	}
}

func (r *SlotRepositoryImpl) BulkCreate(ctx context.Context, slots []*model.Slot) ([]*model.Slot, error) {
	if len(slots) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	values := []string{}
	args := []interface{}{}
	argPos := 1

	for _, slot := range slots {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			argPos, argPos+1, argPos+2, argPos+3, argPos+4))
		args = append(args, slot.BannerTypeID, slot.SlotDate, slot.Priority, slot.Quota, slot.Price)
		argPos += 5
	}

	query := fmt.Sprintf(`
		INSERT INTO slots (banner_type_id, slot_date, priority, quota, price)
		VALUES %s
		RETURNING id, banner_type_id, slot_date, priority, quota, price, status,
		          locked_by, locked_until, sold_banner_id, created_at, updated_at
	`, strings.Join(values, ", "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapSlotInsertError(err)
	}
	defer rows.Close()

	created, err := scanSlots(rows)
	if err != nil {
		return nil, mapSlotInsertError(err)
	}

	return created, nil
}

// mapSlotInsertError maps a unique violation on (banner_type_id, slot_date, priority)
// to the domain error
func mapSlotInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return apperrors.ErrSlotAlreadyExists
	}
	return err
}

func (r *SlotRepositoryImpl) ListByTypeAndDateRange(ctx context.Context, bannerTypeID int, from, to time.Time) ([]*model.Slot, error) {
	query := `
		SELECT id, banner_type_id, slot_date, priority, quota, price, status,
		       locked_by, locked_until, sold_banner_id, created_at, updated_at
		FROM slots
		WHERE banner_type_id = $1 AND slot_date >= $2 AND slot_date <= $3
		ORDER BY slot_date, priority
	`

	rows, err := r.pool.Query(ctx, query, bannerTypeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSlots(rows)
}

func (r *SlotRepositoryImpl) ListSoldByTypeAndDate(ctx context.Context, bannerTypeID int, date time.Time) ([]*model.SoldSlotResponse, error) {
	query := `
		SELECT s.id, s.slot_date, s.priority, s.price,
		       b.id, b.banner_id, b.application_id, b.banner_type_id, b.title,
		       b.image_url, b.link_url, b.active_from, b.active_until, b.created_at
		FROM slots s
		JOIN banners b ON b.id = s.sold_banner_id
		WHERE s.banner_type_id = $1 AND s.slot_date = $2 AND s.status = $3
		ORDER BY s.priority
	`

	rows, err := r.pool.Query(ctx, query, bannerTypeID, date, model.SlotStatusSold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	placements := make([]*model.SoldSlotResponse, 0)

	for rows.Next() {
		var placement model.SoldSlotResponse
		var banner model.Banner
		err := rows.Scan(
			&placement.SlotID,
			&placement.SlotDate,
			&placement.Priority,
			&placement.Price,
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
		placement.Banner = &banner
		placements = append(placements, &placement)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return placements, nil
}

func (r *SlotRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Slot, error) {
	query := `
		SELECT id, banner_type_id, slot_date, priority, quota, price, status,
		       locked_by, locked_until, sold_banner_id, created_at, updated_at
		FROM slots
		WHERE id = $1
	`

	var slot model.Slot
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&slot.ID,
		&slot.BannerTypeID,
		&slot.SlotDate,
		&slot.Priority,
		&slot.Quota,
		&slot.Price,
		&slot.Status,
		&slot.LockedBy,
		&slot.LockedUntil,
		&slot.SoldBannerID,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrSlotNotFound
		}
		return nil, err
	}

	return &slot, nil
}

// FindByKeysForUpdate reads the requested slots with row-level exclusive locks.
// Rows are ordered by (slot_date, priority) so that two callers locking
// overlapping sets acquire them in the same order and cannot deadlock.
func (r *SlotRepositoryImpl) FindByKeysForUpdate(ctx context.Context, tx pgx.Tx, bannerTypeID int, keys []model.SlotKey) ([]*model.Slot, error) {
	if len(keys) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	pairs := []string{}
	args := []interface{}{bannerTypeID}
	argPos := 2

	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("($%d::date, $%d::int)", argPos, argPos+1))
		args = append(args, key.SlotDate, key.Priority)
		argPos += 2
	}

	query := fmt.Sprintf(`
		SELECT id, banner_type_id, slot_date, priority, quota, price, status,
		       locked_by, locked_until, sold_banner_id, created_at, updated_at
		FROM slots
		WHERE banner_type_id = $1 AND (slot_date, priority) IN (%s)
		ORDER BY slot_date, priority
		FOR UPDATE
	`, strings.Join(pairs, ", "))

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSlots(rows)
}

func (r *SlotRepositoryImpl) FindByIDs(ctx context.Context, tx pgx.Tx, ids []int) ([]*model.Slot, error) {
	query := `
		SELECT id, banner_type_id, slot_date, priority, quota, price, status,
		       locked_by, locked_until, sold_banner_id, created_at, updated_at
		FROM slots
		WHERE id = ANY($1)
		ORDER BY slot_date, priority
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSlots(rows)
}

func (r *SlotRepositoryImpl) Lock(ctx context.Context, tx pgx.Tx, ids []int, holderID int, until time.Time) (int64, error) {
	query := `
		UPDATE slots
		SET status = $1, locked_by = $2, locked_until = $3, updated_at = $4
		WHERE id = ANY($5)
		  AND (status = $6
		       OR (status = $1 AND (locked_by = $2 OR locked_until < $4)))
	`

	result, err := tx.Exec(ctx, query,
		model.SlotStatusLocked, holderID, until, time.Now().UTC(), ids, model.SlotStatusAvailable)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

func (r *SlotRepositoryImpl) MarkSold(ctx context.Context, tx pgx.Tx, ids []int, holderID int, bannerID int, now time.Time) (int64, error) {
	query := `
		UPDATE slots
		SET status = $1, sold_banner_id = $2, locked_by = NULL, locked_until = NULL, updated_at = $3
		WHERE id = ANY($4)
		  AND status = $5 AND locked_by = $6 AND locked_until >= $3
	`

	result, err := tx.Exec(ctx, query,
		model.SlotStatusSold, bannerID, now, ids, model.SlotStatusLocked, holderID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

func (r *SlotRepositoryImpl) Release(ctx context.Context, tx pgx.Tx, ids []int, holderID int) (int64, error) {
	query := `
		UPDATE slots
		SET status = $1, locked_by = NULL, locked_until = NULL, updated_at = $2
		WHERE id = ANY($3)
		  AND status = $4 AND locked_by = $5
	`

	result, err := tx.Exec(ctx, query,
		model.SlotStatusAvailable, time.Now().UTC(), ids, model.SlotStatusLocked, holderID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

// ReleaseExpired sweeps every expired hold regardless of holder. A single
// conditional statement keeps it safe against concurrent locks and confirms.
func (r *SlotRepositoryImpl) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE slots
		SET status = $1, locked_by = NULL, locked_until = NULL, updated_at = $2
		WHERE status = $3 AND locked_until < $2
	`

	result, err := r.pool.Exec(ctx, query, model.SlotStatusAvailable, now, model.SlotStatusLocked)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

func scanSlots(rows pgx.Rows) ([]*model.Slot, error) {
	slots := make([]*model.Slot, 0)

	for rows.Next() {
		var slot model.Slot
		err := rows.Scan(
			&slot.ID,
			&slot.BannerTypeID,
			&slot.SlotDate,
			&slot.Priority,
			&slot.Quota,
			&slot.Price,
			&slot.Status,
			&slot.LockedBy,
			&slot.LockedUntil,
			&slot.SoldBannerID,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		slots = append(slots, &slot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

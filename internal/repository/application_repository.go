package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/model"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationColumns = `
	id, application_id, user_id, event_id, banner_type_id, title, image_url, link_url,
	total_amount, approval_status, payment_status, admin_comment, approved_at, paid_at,
	created_at, updated_at`

type ApplicationRepository interface {
	List(ctx context.Context) ([]*model.Application, error)
	ListByUserID(ctx context.Context, userID int) ([]*model.Application, error)
	FindByID(ctx context.Context, id int) (*model.Application, error)
	FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.Application, error)
	ListSlots(ctx context.Context, applicationID int) ([]*model.ApplicationSlot, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, application *model.Application) (*model.Application, error)
	CreateSlots(ctx context.Context, tx pgx.Tx, slots []*model.ApplicationSlot) error
	UpdateTotalAmount(ctx context.Context, tx pgx.Tx, id int, amount float64) error
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Application, error)
	UpdateApprovalStatus(ctx context.Context, tx pgx.Tx, id int, status model.ApprovalStatus, comment *string) (*model.Application, error)
	UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, id int, status model.PaymentStatus) (*model.Application, error)
	SlotIDs(ctx context.Context, tx pgx.Tx, applicationID int) ([]int, error)
}

type ApplicationRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewApplicationRepository(pool *pgxpool.Pool) ApplicationRepository {
	return &ApplicationRepositoryImpl{
		pool: pool,
	}
}

func (r *ApplicationRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, application *model.Application) (*model.Application, error) {
	query := fmt.Sprintf(`
		INSERT INTO applications (
			application_id, user_id, event_id, banner_type_id, title, image_url, link_url,
			total_amount, approval_status, payment_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING %s
	`, applicationColumns)

	row := tx.QueryRow(ctx, query,
		application.ApplicationID, application.UserID, application.EventID,
		application.BannerTypeID, application.Title, application.ImageURL, application.LinkURL,
		application.TotalAmount, application.ApprovalStatus, application.PaymentStatus,
	)

	created, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return created, nil
}

func (r *ApplicationRepositoryImpl) CreateSlots(ctx context.Context, tx pgx.Tx, slots []*model.ApplicationSlot) error {
	if len(slots) == 0 {
		return apperrors.ErrInvalidInput
	}

	values := []string{}
	args := []interface{}{}
	argPos := 1

	for _, slot := range slots {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			argPos, argPos+1, argPos+2, argPos+3, argPos+4))
		args = append(args, slot.ApplicationID, slot.SlotID, slot.SlotDate, slot.Priority, slot.Price)
		argPos += 5
	}

	query := fmt.Sprintf(`
		INSERT INTO application_slots (application_id, slot_id, slot_date, priority, price)
		VALUES %s
	`, strings.Join(values, ", "))

	_, err := tx.Exec(ctx, query, args...)
	return err
}

func (r *ApplicationRepositoryImpl) UpdateTotalAmount(ctx context.Context, tx pgx.Tx, id int, amount float64) error {
	query := `
		UPDATE applications
		SET total_amount = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := tx.Exec(ctx, query, amount, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrApplicationNotFound
	}

	return nil
}

func (r *ApplicationRepositoryImpl) List(ctx context.Context) ([]*model.Application, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM applications
		ORDER BY created_at DESC
	`, applicationColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanApplications(rows)
}

func (r *ApplicationRepositoryImpl) ListByUserID(ctx context.Context, userID int) ([]*model.Application, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM applications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, applicationColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanApplications(rows)
}

func (r *ApplicationRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Application, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM applications
		WHERE id = $1
	`, applicationColumns)

	application, err := scanApplication(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, err
	}

	return application, nil
}

func (r *ApplicationRepositoryImpl) FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.Application, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM applications
		WHERE application_id = $1
	`, applicationColumns)

	application, err := scanApplication(r.pool.QueryRow(ctx, query, applicationID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, err
	}

	return application, nil
}

func (r *ApplicationRepositoryImpl) ListSlots(ctx context.Context, applicationID int) ([]*model.ApplicationSlot, error) {
	query := `
		SELECT id, application_id, slot_id, slot_date, priority, price, created_at
		FROM application_slots
		WHERE application_id = $1
		ORDER BY slot_date, priority
	`

	rows, err := r.pool.Query(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]*model.ApplicationSlot, 0)
	for rows.Next() {
		var slot model.ApplicationSlot
		err := rows.Scan(
			&slot.ID,
			&slot.ApplicationID,
			&slot.SlotID,
			&slot.SlotDate,
			&slot.Priority,
			&slot.Price,
			&slot.CreatedAt,
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

// FindByIDForUpdate reads the application with a row lock so that concurrent
// approve/reject/payment callbacks for the same application are serialized.
func (r *ApplicationRepositoryImpl) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Application, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM applications
		WHERE id = $1
		FOR UPDATE
	`, applicationColumns)

	application, err := scanApplication(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, err
	}

	return application, nil
}

func (r *ApplicationRepositoryImpl) UpdateApprovalStatus(ctx context.Context, tx pgx.Tx, id int, status model.ApprovalStatus, comment *string) (*model.Application, error) {
	query := fmt.Sprintf(`
		UPDATE applications
		SET approval_status = $1, admin_comment = $2, approved_at = $3, updated_at = $4
		WHERE id = $5
		RETURNING %s
	`, applicationColumns)

	var approvedAt *time.Time
	now := time.Now().UTC()
	if status == model.ApprovalStatusApproved {
		approvedAt = &now
	}

	application, err := scanApplication(tx.QueryRow(ctx, query, status, comment, approvedAt, now, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to update approval status: %w", err)
	}

	return application, nil
}

func (r *ApplicationRepositoryImpl) UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, id int, status model.PaymentStatus) (*model.Application, error) {
	query := fmt.Sprintf(`
		UPDATE applications
		SET payment_status = $1, paid_at = $2, updated_at = $3
		WHERE id = $4
		RETURNING %s
	`, applicationColumns)

	var paidAt *time.Time
	now := time.Now().UTC()
	if status == model.PaymentStatusPaid {
		paidAt = &now
	}

	application, err := scanApplication(tx.QueryRow(ctx, query, status, paidAt, now, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	return application, nil
}

func (r *ApplicationRepositoryImpl) SlotIDs(ctx context.Context, tx pgx.Tx, applicationID int) ([]int, error) {
	query := `
		SELECT slot_id
		FROM application_slots
		WHERE application_id = $1
		ORDER BY slot_date, priority
	`

	rows, err := tx.Query(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func scanApplication(row pgx.Row) (*model.Application, error) {
	var application model.Application
	err := row.Scan(
		&application.ID,
		&application.ApplicationID,
		&application.UserID,
		&application.EventID,
		&application.BannerTypeID,
		&application.Title,
		&application.ImageURL,
		&application.LinkURL,
		&application.TotalAmount,
		&application.ApprovalStatus,
		&application.PaymentStatus,
		&application.AdminComment,
		&application.ApprovedAt,
		&application.PaidAt,
		&application.CreatedAt,
		&application.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func scanApplications(rows pgx.Rows) ([]*model.Application, error) {
	applications := make([]*model.Application, 0)

	for rows.Next() {
		application, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		applications = append(applications, application)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return applications, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/cache"
	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/queue"
	"github.com/rktclgh/fairplay-banner/internal/repository"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"
	"github.com/rktclgh/fairplay-banner/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slotDateLayout = "2006-01-02"

type ApplicationService interface {
	// 提交申請並原子鎖定整組版位；鎖不到就不會留下申請
	Submit(ctx context.Context, req model.SubmitApplicationRequest) (*model.Application, error)
	List(ctx context.Context) ([]*model.Application, error)
	ListByUserID(ctx context.Context, userID int) ([]*model.Application, error)
	GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.Application, error)
	// 審核通過：版位維持鎖定，開放付款
	Approve(ctx context.Context, applicationID uuid.UUID, adminID int, comment string) (*model.Application, error)
	// 駁回：釋放版位並記錄審核意見
	Reject(ctx context.Context, applicationID uuid.UUID, adminID int, comment string) (*model.Application, error)
	// 金流回調：成功則售出並產生 banner，遲到的成功回調觸發退款而不是復活鎖定
	HandlePaymentCallback(ctx context.Context, req model.PaymentCallbackRequest) (*model.PaymentCallbackResponse, error)
}

type ApplicationServiceImpl struct {
	pool           *pgxpool.Pool
	repository     repository.ApplicationRepository
	bannerRepo     repository.BannerRepository
	bannerTypeRepo repository.BannerTypeRepository
	reservation    ReservationService
	notifications  queue.NotificationQueue
	calendarCache  cache.CalendarCache
	holdDuration   time.Duration
}

func NewApplicationService(
	pool *pgxpool.Pool,
	applicationRepo repository.ApplicationRepository,
	bannerRepo repository.BannerRepository,
	bannerTypeRepo repository.BannerTypeRepository,
	reservation ReservationService,
	notifications queue.NotificationQueue,
	calendarCache cache.CalendarCache,
	holdDuration time.Duration,
) ApplicationService {
	return &ApplicationServiceImpl{
		pool:           pool,
		repository:     applicationRepo,
		bannerRepo:     bannerRepo,
		bannerTypeRepo: bannerTypeRepo,
		reservation:    reservation,
		notifications:  notifications,
		calendarCache:  calendarCache,
		holdDuration:   holdDuration,
	}
}

func (s *ApplicationServiceImpl) Submit(ctx context.Context, req model.SubmitApplicationRequest) (*model.Application, error) {
	bannerType, err := s.bannerTypeRepo.FindByID(ctx, req.BannerTypeID)
	if err != nil {
		return nil, err
	}

	keys, expected, err := parseSlotRequests(req.Slots)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	application := &model.Application{
		ApplicationID:  uuid.New(),
		UserID:         req.UserID,
		EventID:        req.EventID,
		BannerTypeID:   bannerType.ID,
		Title:          req.Title,
		ImageURL:       req.ImageURL,
		LinkURL:        req.LinkURL,
		ApprovalStatus: model.ApprovalStatusPending,
		PaymentStatus:  model.PaymentStatusPending,
	}

	application, err = s.repository.Create(ctx, tx, application)
	if err != nil {
		return nil, err
	}

	// 鎖定失敗整個交易回滾，申請不會被建立
	slots, err := s.reservation.LockSlots(ctx, tx, bannerType.ID, keys, application.ID, s.holdDuration)
	if err != nil {
		return nil, err
	}

	// 價格一律以目錄為準；客戶端帶來的價格只用來驗證
	applicationSlots := make([]*model.ApplicationSlot, 0, len(slots))
	total := 0.0
	for _, slot := range slots {
		if price, ok := expected[slot.Key().String()]; ok && price != slot.Price {
			return nil, apperrors.ErrPriceMismatch
		}
		applicationSlots = append(applicationSlots, &model.ApplicationSlot{
			ApplicationID: application.ID,
			SlotID:        slot.ID,
			SlotDate:      slot.SlotDate,
			Priority:      slot.Priority,
			Price:         slot.Price,
		})
		total += slot.Price
	}

	if err := s.repository.CreateSlots(ctx, tx, applicationSlots); err != nil {
		return nil, err
	}

	if err := s.repository.UpdateTotalAmount(ctx, tx, application.ID, total); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	application.TotalAmount = total
	application.Slots = applicationSlots

	s.invalidateCalendar(ctx, bannerType.ID)

	return application, nil
}

func parseSlotRequests(requests []model.SlotRequest) ([]model.SlotKey, map[string]float64, error) {
	keys := make([]model.SlotKey, 0, len(requests))
	expected := make(map[string]float64, len(requests))

	for _, request := range requests {
		date, err := time.Parse(slotDateLayout, request.SlotDate)
		if err != nil {
			return nil, nil, apperrors.ErrInvalidInput
		}
		key := model.SlotKey{SlotDate: date, Priority: request.Priority}
		if _, ok := expected[key.String()]; ok {
			// 同一版位出現兩次
			return nil, nil, apperrors.ErrInvalidInput
		}
		expected[key.String()] = request.ExpectedPrice
		keys = append(keys, key)
	}

	return keys, expected, nil
}

func (s *ApplicationServiceImpl) List(ctx context.Context) ([]*model.Application, error) {
	return s.repository.List(ctx)
}

func (s *ApplicationServiceImpl) ListByUserID(ctx context.Context, userID int) ([]*model.Application, error) {
	return s.repository.ListByUserID(ctx, userID)
}

func (s *ApplicationServiceImpl) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.Application, error) {
	application, err := s.repository.FindByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	slots, err := s.repository.ListSlots(ctx, application.ID)
	if err != nil {
		return nil, err
	}
	application.Slots = slots

	return application, nil
}

func (s *ApplicationServiceImpl) Approve(ctx context.Context, applicationID uuid.UUID, adminID int, comment string) (*model.Application, error) {
	found, err := s.repository.FindByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	application, err := s.repository.FindByIDForUpdate(ctx, tx, found.ID)
	if err != nil {
		return nil, err
	}

	if !application.ApprovalStatus.CanTransitionTo(model.ApprovalStatusApproved) {
		return nil, apperrors.ErrInvalidStatus
	}

	// 審核通過不動版位，鎖定一直保持到付款或過期
	application, err = s.repository.UpdateApprovalStatus(ctx, tx, application.ID, model.ApprovalStatusApproved, commentPtr(comment))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.WithComponent("application").Info("application approved",
		zap.Int("application_id", application.ID), zap.Int("admin_id", adminID))

	return application, nil
}

func (s *ApplicationServiceImpl) Reject(ctx context.Context, applicationID uuid.UUID, adminID int, comment string) (*model.Application, error) {
	found, err := s.repository.FindByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	application, err := s.repository.FindByIDForUpdate(ctx, tx, found.ID)
	if err != nil {
		return nil, err
	}

	if !application.ApprovalStatus.CanTransitionTo(model.ApprovalStatusRejected) {
		return nil, apperrors.ErrInvalidStatus
	}

	application, err = s.repository.UpdateApprovalStatus(ctx, tx, application.ID, model.ApprovalStatusRejected, commentPtr(comment))
	if err != nil {
		return nil, err
	}

	slotIDs, err := s.repository.SlotIDs(ctx, tx, application.ID)
	if err != nil {
		return nil, err
	}

	if err := s.reservation.ReleaseSlots(ctx, tx, slotIDs, application.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.WithComponent("application").Info("application rejected",
		zap.Int("application_id", application.ID), zap.Int("admin_id", adminID))

	s.invalidateCalendar(ctx, application.BannerTypeID)
	s.notify(application, model.NotificationRejected, "申請未通過審核，版位已釋出")

	return application, nil
}

func (s *ApplicationServiceImpl) HandlePaymentCallback(ctx context.Context, req model.PaymentCallbackRequest) (*model.PaymentCallbackResponse, error) {
	found, err := s.repository.FindByApplicationID(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}

	if req.Outcome == model.PaymentOutcomeFailure {
		return s.handlePaymentFailure(ctx, found.ID, req)
	}

	return s.handlePaymentSuccess(ctx, found.ID, req)
}

func (s *ApplicationServiceImpl) handlePaymentFailure(ctx context.Context, id int, req model.PaymentCallbackRequest) (*model.PaymentCallbackResponse, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	application, err := s.repository.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	// 重送的失敗回調：已取消就不再動任何東西
	if application.PaymentStatus == model.PaymentStatusCancelled {
		return &model.PaymentCallbackResponse{ApplicationID: req.ApplicationID, Accepted: true}, nil
	}

	if !application.PaymentStatus.CanTransitionTo(model.PaymentStatusCancelled) {
		return &model.PaymentCallbackResponse{
			ApplicationID: req.ApplicationID,
			Accepted:      false,
			Reason:        "payment already completed",
		}, nil
	}

	application, err = s.repository.UpdatePaymentStatus(ctx, tx, application.ID, model.PaymentStatusCancelled)
	if err != nil {
		return nil, err
	}

	slotIDs, err := s.repository.SlotIDs(ctx, tx, application.ID)
	if err != nil {
		return nil, err
	}

	if err := s.reservation.ReleaseSlots(ctx, tx, slotIDs, application.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.invalidateCalendar(ctx, application.BannerTypeID)
	s.notify(application, model.NotificationCancelled, "付款未完成，版位已釋出")

	return &model.PaymentCallbackResponse{ApplicationID: req.ApplicationID, Accepted: true}, nil
}

func (s *ApplicationServiceImpl) handlePaymentSuccess(ctx context.Context, id int, req model.PaymentCallbackRequest) (*model.PaymentCallbackResponse, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	application, err := s.repository.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	// 重送的成功回調：冪等成功
	if application.PaymentStatus == model.PaymentStatusPaid {
		return &model.PaymentCallbackResponse{ApplicationID: req.ApplicationID, Accepted: true}, nil
	}

	// 未通過審核（或已取消）的申請收到成功付款，只能退款
	if application.ApprovalStatus != model.ApprovalStatusApproved ||
		application.PaymentStatus != model.PaymentStatusPending {
		return &model.PaymentCallbackResponse{
			ApplicationID:  req.ApplicationID,
			Accepted:       false,
			RefundRequired: true,
			Reason:         "application is not payable",
		}, nil
	}

	if req.Amount != application.TotalAmount {
		return nil, apperrors.ErrAmountMismatch
	}

	applicationSlots, err := s.repository.ListSlots(ctx, application.ID)
	if err != nil {
		return nil, err
	}

	banner, err := s.bannerRepo.Create(ctx, tx, newBannerFromApplication(application, applicationSlots))
	if err != nil {
		return nil, err
	}

	slotIDs := make([]int, 0, len(applicationSlots))
	for _, slot := range applicationSlots {
		slotIDs = append(slotIDs, slot.SlotID)
	}

	err = s.reservation.ConfirmSale(ctx, tx, slotIDs, application.ID, banner.ID)
	if err != nil {
		tx.Rollback(ctx)
		if errors.Is(err, apperrors.ErrConfirmMismatch) {
			// 鎖定已過期被回收（甚至轉售），付款與庫存在這裡對帳：取消申請並要求退款
			return s.reconcileExpiredPayment(ctx, id, req, err)
		}
		return nil, err
	}

	application, err = s.repository.UpdatePaymentStatus(ctx, tx, application.ID, model.PaymentStatusPaid)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.invalidateCalendar(ctx, application.BannerTypeID)
	s.notify(application, model.NotificationPaid, "付款完成，廣告已排定上架")

	return &model.PaymentCallbackResponse{ApplicationID: req.ApplicationID, Accepted: true}, nil
}

// reconcileExpiredPayment 在確認售出失敗後把申請收斂到取消狀態。
// 版位不會被搶回來：它可能已經屬於別人。
func (s *ApplicationServiceImpl) reconcileExpiredPayment(ctx context.Context, id int, req model.PaymentCallbackRequest, cause error) (*model.PaymentCallbackResponse, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	application, err := s.repository.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if application.PaymentStatus.CanTransitionTo(model.PaymentStatusCancelled) {
		application, err = s.repository.UpdatePaymentStatus(ctx, tx, application.ID, model.PaymentStatusCancelled)
		if err != nil {
			return nil, err
		}
	}

	slotIDs, err := s.repository.SlotIDs(ctx, tx, application.ID)
	if err != nil {
		return nil, err
	}

	// 還留在自己名下的鎖定一併釋放；已回收或已轉售的列不受影響
	if err := s.reservation.ReleaseSlots(ctx, tx, slotIDs, application.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.WithComponent("application").Warn("late payment reconciled, refund required",
		zap.Int("application_id", application.ID), zap.Error(cause))

	s.notify(application, model.NotificationCancelled, "付款完成前保留已逾期，款項將自動退回")

	return &model.PaymentCallbackResponse{
		ApplicationID:  req.ApplicationID,
		Accepted:       false,
		RefundRequired: true,
		Reason:         cause.Error(),
	}, nil
}

func newBannerFromApplication(application *model.Application, slots []*model.ApplicationSlot) *model.Banner {
	activeFrom := slots[0].SlotDate
	activeUntil := slots[0].SlotDate
	for _, slot := range slots {
		if slot.SlotDate.Before(activeFrom) {
			activeFrom = slot.SlotDate
		}
		if slot.SlotDate.After(activeUntil) {
			activeUntil = slot.SlotDate
		}
	}

	return &model.Banner{
		BannerID:      uuid.New(),
		ApplicationID: application.ID,
		BannerTypeID:  application.BannerTypeID,
		Title:         application.Title,
		ImageURL:      application.ImageURL,
		LinkURL:       application.LinkURL,
		ActiveFrom:    activeFrom,
		ActiveUntil:   activeUntil.Add(24 * time.Hour),
	}
}

// notify 把轉換結果丟進通知隊列；投遞失敗只記 log，絕不回滾版位狀態
func (s *ApplicationServiceImpl) notify(application *model.Application, notificationType model.NotificationType, message string) {
	if s.notifications == nil {
		return
	}

	notification := &model.Notification{
		Type:          notificationType,
		ApplicationID: application.ID,
		UserID:        application.UserID,
		Message:       message,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.notifications.Publish(context.Background(), notification); err != nil {
		logger.WithComponent("application").Warn("failed to publish notification",
			zap.Int("application_id", application.ID),
			zap.String("type", string(notificationType)), zap.Error(err))
	}
}

// invalidateCalendar 清掉顯示用的行事曆快取；失敗無所謂，TTL 到了自然過期
func (s *ApplicationServiceImpl) invalidateCalendar(ctx context.Context, bannerTypeID int) {
	if s.calendarCache == nil {
		return
	}
	if err := s.calendarCache.InvalidateType(ctx, bannerTypeID); err != nil {
		logger.WithComponent("application").Warn("failed to invalidate calendar cache",
			zap.Int("banner_type_id", bannerTypeID), zap.Error(err))
	}
}

func commentPtr(comment string) *string {
	if comment == "" {
		return nil
	}
	return &comment
}

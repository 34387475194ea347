package handler

import (
	"errors"
	"net/http"

	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/service"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"
	"github.com/rktclgh/fairplay-banner/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler 金流子系統回調入口。
// 回調可能重送，處理結果一律用 200 + body 回報，避免閘道無謂重試。
type PaymentHandler struct {
	service service.ApplicationService
}

func NewPaymentHandler(service service.ApplicationService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("payments/callback", h.PaymentCallback)
	}
}

func (h *PaymentHandler) PaymentCallback(c *gin.Context) {
	var req model.PaymentCallbackRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.service.HandlePaymentCallback(c, req)
	if err != nil {
		h.handleError(c, err, "PaymentCallback")
		return
	}

	if result.RefundRequired {
		logger.WithComponent("handler").Warn("payment callback requires refund",
			zap.String("application_id", req.ApplicationID.String()),
			zap.String("reason", result.Reason))
	}

	c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrApplicationNotFound):
		log.Warn("Application not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Application not found",
		})
	case errors.Is(err, apperrors.ErrAmountMismatch):
		log.Warn("Amount mismatch")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Callback amount does not match application total",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

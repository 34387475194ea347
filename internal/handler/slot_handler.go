package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/service"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"
	"github.com/rktclgh/fairplay-banner/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type SlotHandler struct {
	service service.CatalogService
}

func NewSlotHandler(service service.CatalogService) *SlotHandler {
	return &SlotHandler{service: service}
}

func (h *SlotHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("slots", h.ListSlots)
		router.GET("slots/sold", h.ListSoldSlots)
		router.POST("slots/generate", h.GenerateSlots)
	}
}

// GenerateSlotsRequest 批次產生版位請求
type GenerateSlotsRequest struct {
	BannerTypeID int     `json:"banner_type_id" binding:"required"`
	StartDate    string  `json:"start_date" binding:"required"`
	EndDate      string  `json:"end_date" binding:"required"`
	Priorities   []int   `json:"priorities" binding:"required,min=1"`
	Price        float64 `json:"price" binding:"required"`
}

// ListSlotsQuery 行事曆查詢參數
type ListSlotsQuery struct {
	BannerTypeID int    `form:"banner_type_id" binding:"required"`
	From         string `form:"from" binding:"required"`
	To           string `form:"to" binding:"required"`
}

// ListSoldSlotsQuery 上架牆查詢參數
type ListSoldSlotsQuery struct {
	BannerTypeID int    `form:"banner_type_id" binding:"required"`
	Date         string `form:"date" binding:"required"`
}

func (h *SlotHandler) GenerateSlots(c *gin.Context) {
	var req GenerateSlotsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	from, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start date"})
		return
	}
	to, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end date"})
		return
	}

	slots, err := h.service.GenerateSlots(c, service.GenerateSlotsParams{
		BannerTypeID: req.BannerTypeID,
		From:         from,
		To:           to,
		Priorities:   req.Priorities,
		Price:        req.Price,
	})
	if err != nil {
		h.handleError(c, err, "GenerateSlots")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"created": len(slots), "slots": slots})
}

func (h *SlotHandler) ListSlots(c *gin.Context) {
	var query ListSlotsQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	from, err := time.Parse(dateLayout, query.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date"})
		return
	}
	to, err := time.Parse(dateLayout, query.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date"})
		return
	}

	slots, err := h.service.ListAvailableSlots(c, query.BannerTypeID, from, to)
	if err != nil {
		h.handleError(c, err, "ListSlots")
		return
	}

	c.JSON(http.StatusOK, slots)
}

func (h *SlotHandler) ListSoldSlots(c *gin.Context) {
	var query ListSoldSlotsQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	date, err := time.Parse(dateLayout, query.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date"})
		return
	}

	placements, err := h.service.ListSoldSlots(c, query.BannerTypeID, date)
	if err != nil {
		h.handleError(c, err, "ListSoldSlots")
		return
	}

	c.JSON(http.StatusOK, placements)
}

func (h *SlotHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrSlotAlreadyExists):
		log.Warn("Slot already exists")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Slot already exists",
		})
	case errors.Is(err, apperrors.ErrBannerTypeNotFound):
		log.Warn("Banner type not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Banner type not found",
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid input",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

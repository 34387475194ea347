package handler

import (
	"errors"
	"net/http"

	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/service"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"
	"github.com/rktclgh/fairplay-banner/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BannerTypeHandler struct {
	service service.BannerTypeService
}

func NewBannerTypeHandler(service service.BannerTypeService) *BannerTypeHandler {
	return &BannerTypeHandler{service: service}
}

func (h *BannerTypeHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("banner-types", h.List)
		router.GET("banner-types/:uuid", h.GetByBannerTypeID)
		router.POST("banner-types", h.Create)
	}
}

// CreateBannerTypeRequest 建立版型請求
type CreateBannerTypeRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Width       int     `json:"width" binding:"required,min=1"`
	Height      int     `json:"height" binding:"required,min=1"`
}

func (h *BannerTypeHandler) List(c *gin.Context) {
	bannerTypes, err := h.service.List(c)
	if err != nil {
		h.handleError(c, err, "List")
		return
	}
	c.JSON(http.StatusOK, bannerTypes)
}

func (h *BannerTypeHandler) GetByBannerTypeID(c *gin.Context) {
	uuidStr := c.Param("uuid")
	bannerTypeID, err := uuid.Parse(uuidStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid banner type id"})
		return
	}

	bannerType, err := h.service.GetByBannerTypeID(c, bannerTypeID)
	if err != nil {
		h.handleError(c, err, "GetByBannerTypeID")
		return
	}
	c.JSON(http.StatusOK, bannerType)
}

func (h *BannerTypeHandler) Create(c *gin.Context) {
	var req CreateBannerTypeRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	bannerType := &model.BannerType{
		Name:        req.Name,
		Description: req.Description,
		Width:       req.Width,
		Height:      req.Height,
	}

	created, err := h.service.Create(c, bannerType)
	if err != nil {
		h.handleError(c, err, "Create")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *BannerTypeHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
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

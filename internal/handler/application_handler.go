package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/service"
	apperrors "github.com/rktclgh/fairplay-banner/pkg/app_errors"
	"github.com/rktclgh/fairplay-banner/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ApplicationHandler struct {
	service service.ApplicationService
}

func NewApplicationHandler(service service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

func (h *ApplicationHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("applications", h.ListApplications)
		router.GET("applications/:uuid", h.GetApplication)
		router.POST("applications", h.SubmitApplication)
		router.PUT("applications/:uuid/approve", h.ApproveApplication)
		router.PUT("applications/:uuid/reject", h.RejectApplication)
	}
}

func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	var req model.SubmitApplicationRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.Submit(c, req)
	if err != nil {
		h.handleApplicationError(c, err, "SubmitApplication")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	applicationID, ok := h.parseUUID(c)
	if !ok {
		return
	}

	application, err := h.service.GetByApplicationID(c, applicationID)
	if err != nil {
		h.handleApplicationError(c, err, "GetApplication")
		return
	}

	c.JSON(http.StatusOK, application)
}

func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		userID, err := strconv.Atoi(userIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		applications, err := h.service.ListByUserID(c, userID)
		if err != nil {
			h.handleApplicationError(c, err, "ListApplications")
			return
		}
		c.JSON(http.StatusOK, applications)
		return
	}

	applications, err := h.service.List(c)
	if err != nil {
		h.handleApplicationError(c, err, "ListApplications")
		return
	}

	c.JSON(http.StatusOK, applications)
}

func (h *ApplicationHandler) ApproveApplication(c *gin.Context) {
	applicationID, ok := h.parseUUID(c)
	if !ok {
		return
	}

	var req model.DecideApplicationRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	application, err := h.service.Approve(c, applicationID, req.AdminID, req.Comment)
	if err != nil {
		h.handleApplicationError(c, err, "ApproveApplication")
		return
	}

	c.JSON(http.StatusOK, application)
}

func (h *ApplicationHandler) RejectApplication(c *gin.Context) {
	applicationID, ok := h.parseUUID(c)
	if !ok {
		return
	}

	var req model.DecideApplicationRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	application, err := h.service.Reject(c, applicationID, req.AdminID, req.Comment)
	if err != nil {
		h.handleApplicationError(c, err, "RejectApplication")
		return
	}

	c.JSON(http.StatusOK, application)
}

func (h *ApplicationHandler) parseUUID(c *gin.Context) (uuid.UUID, bool) {
	applicationID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application id"})
		return uuid.Nil, false
	}
	return applicationID, true
}

// Helper functions

func (h *ApplicationHandler) handleApplicationError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	var conflict *apperrors.SlotConflictError
	if errors.As(err, &conflict) {
		log.Warn("Slot conflict")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Slot no longer available",
			"slots": conflict.Keys,
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrSlotUnavailable):
		log.Warn("Slot unavailable")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Slot no longer available",
		})
	case errors.Is(err, apperrors.ErrSlotNotFound):
		log.Warn("Slot not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Slot not found",
		})
	case errors.Is(err, apperrors.ErrApplicationNotFound):
		log.Warn("Application not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Application not found",
		})
	case errors.Is(err, apperrors.ErrBannerTypeNotFound):
		log.Warn("Banner type not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Banner type not found",
		})
	case errors.Is(err, apperrors.ErrPriceMismatch):
		log.Warn("Price mismatch")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Slot price has changed",
		})
	case errors.Is(err, apperrors.ErrInvalidStatus):
		log.Warn("Invalid status transition")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Application already decided",
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

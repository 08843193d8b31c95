package handler

import (
	"net/http"
	"strconv"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"
	"github.com/AscentXR/AscentXR-Business-sub002/internal/service"
	"github.com/AscentXR/AscentXR-Business-sub002/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HealthHandler handles customer health HTTP requests
type HealthHandler struct {
	healthService *service.HealthService
	logger        *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(healthService *service.HealthService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
		logger:        logger,
	}
}

// GetHealthRecords handles retrieving all customer health records
// GET /api/v1/customer-health
func (h *HealthHandler) GetHealthRecords(c *gin.Context) {
	records, err := h.healthService.GetHealthRecords(c.Request.Context(), c.Query("risk_level"))
	if err != nil {
		h.logger.Error("Failed to get health records", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to fetch health records")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

// GetHealthRecordByID handles retrieving a single health record
// GET /api/v1/customer-health/{id}
func (h *HealthHandler) GetHealthRecordByID(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid health record ID")
		return
	}

	record, err := h.healthService.GetHealthRecordByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get health record", zap.Error(err), zap.String("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to fetch health record")
		return
	}
	if record == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Health record not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

// CreateHealthRecord handles creating a health record; the overall score and
// risk level are derived from the submitted sub-scores
// POST /api/v1/customer-health
func (h *HealthHandler) CreateHealthRecord(c *gin.Context) {
	var request model.CustomerHealthCreate
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.healthService.CreateHealthRecord(c.Request.Context(), request)
	if err != nil {
		h.logger.Error("Failed to create health record", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to create health record")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": record})
}

// UpdateHealthRecord handles patching a health record
// PUT /api/v1/customer-health/{id}
func (h *HealthHandler) UpdateHealthRecord(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid health record ID")
		return
	}

	var patch model.CustomerHealthUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.healthService.UpdateHealthRecord(c.Request.Context(), id, patch)
	if err != nil {
		h.logger.Error("Failed to update health record", zap.Error(err), zap.String("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to update health record")
		return
	}
	if record == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Health record not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

// RecalculateHealth handles recomputing a record's overall score
// POST /api/v1/customer-health/{id}/recalculate
func (h *HealthHandler) RecalculateHealth(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid health record ID")
		return
	}

	record, err := h.healthService.RecalculateHealth(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to recalculate health", zap.Error(err), zap.String("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to recalculate health")
		return
	}
	if record == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Health record not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

// DeleteHealthRecord handles deleting a health record
// DELETE /api/v1/customer-health/{id}
func (h *HealthHandler) DeleteHealthRecord(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid health record ID")
		return
	}

	deleted, err := h.healthService.DeleteHealthRecord(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete health record", zap.Error(err), zap.String("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to delete health record")
		return
	}
	if !deleted {
		utils.SendErrorResponse(c, http.StatusNotFound, "Health record not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// GetUpcomingRenewals handles listing customers renewing soon
// GET /api/v1/customer-health/renewals
func (h *HealthHandler) GetUpcomingRenewals(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "90"))
	if err != nil || days < 1 {
		days = 90
	}

	records, err := h.healthService.GetUpcomingRenewals(c.Request.Context(), days)
	if err != nil {
		h.logger.Error("Failed to get upcoming renewals", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to fetch upcoming renewals")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

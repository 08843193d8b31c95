package handler

import (
	"net/http"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"
	"github.com/AscentXR/AscentXR-Business-sub002/internal/service"
	"github.com/AscentXR/AscentXR-Business-sub002/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationService *service.NotificationService
	alertService        *service.AlertService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(
	notificationService *service.NotificationService,
	alertService *service.AlertService,
	logger *zap.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		alertService:        alertService,
		logger:              logger,
	}
}

// GetNotifications handles retrieving notifications with filters
// GET /api/v1/notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	params := utils.ParsePaginationParams(c, 50, 200)

	filter := model.NotificationFilter{
		Section:  c.Query("section"),
		Severity: c.Query("severity"),
		Page:     params.Page,
		Limit:    params.Limit,
	}
	if isRead := c.Query("is_read"); isRead != "" {
		value := isRead == "true"
		filter.IsRead = &value
	}

	response, err := h.notificationService.GetNotifications(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to get notifications", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetNotificationByID handles retrieving a single notification
// GET /api/v1/notifications/{id}
func (h *NotificationHandler) GetNotificationByID(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	notification, err := h.notificationService.GetNotificationByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get notification", zap.Error(err), zap.String("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to fetch notification")
		return
	}
	if notification == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Notification not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notification})
}

// CreateNotification handles creating a manual notification
// POST /api/v1/notifications
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var request model.NotificationCreate
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	notification, err := h.notificationService.CreateNotification(c.Request.Context(), request)
	if err != nil {
		h.logger.Error("Failed to create notification", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to create notification")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": notification})
}

// MarkAsRead handles marking a notification as read
// PUT /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	notification, err := h.notificationService.MarkAsRead(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to mark notification as read", zap.Error(err), zap.String("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to mark notification as read")
		return
	}
	if notification == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Notification not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notification})
}

// MarkAllAsRead handles marking all unread notifications as read
// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	section := c.Query("section")

	marked, err := h.notificationService.MarkAllAsRead(c.Request.Context(), section)
	if err != nil {
		h.logger.Error("Failed to mark all notifications as read", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to mark notifications as read")
		return
	}

	c.JSON(http.StatusOK, model.NotificationMarkResponse{Success: true, MarkedCount: marked})
}

// DeleteNotification handles deleting a notification
// DELETE /api/v1/notifications/{id}
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	deleted, err := h.notificationService.DeleteNotification(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete notification", zap.Error(err), zap.String("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to delete notification")
		return
	}
	if !deleted {
		utils.SendErrorResponse(c, http.StatusNotFound, "Notification not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// GetUnreadCount handles retrieving the unread notification count
// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.notificationService.GetUnreadCount(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get unread count", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to fetch unread count")
		return
	}

	c.JSON(http.StatusOK, model.NotificationCountResponse{Count: count})
}

// CheckAlerts handles running the alert engine on demand
// POST /api/v1/notifications/check-alerts
func (h *NotificationHandler) CheckAlerts(c *gin.Context) {
	alerts, err := h.alertService.CheckAlerts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to run alert check", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to run alert check")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": alerts, "count": len(alerts)})
}

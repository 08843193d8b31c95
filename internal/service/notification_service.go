package service

import (
	"context"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"

	"go.uber.org/zap"
)

// NotificationStore abstracts the notification persistence layer
type NotificationStore interface {
	List(ctx context.Context, filter model.NotificationFilter) ([]model.Notification, int, error)
	GetByID(ctx context.Context, id string) (*model.Notification, error)
	Create(ctx context.Context, create model.NotificationCreate) (*model.Notification, error)
	MarkAsRead(ctx context.Context, id string) (*model.Notification, error)
	MarkAllAsRead(ctx context.Context, section string) (int64, error)
	Delete(ctx context.Context, id string) (bool, error)
	UnreadCount(ctx context.Context) (int, error)
}

// Broadcaster fans an event out to connected dashboard clients
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// NotificationService handles notification operations
type NotificationService struct {
	store       NotificationStore
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewNotificationService creates a new notification service. The broadcaster
// may be nil.
func NewNotificationService(store NotificationStore, broadcaster Broadcaster, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:       store,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// GetNotifications retrieves notifications matching the filter with a total count
func (s *NotificationService) GetNotifications(ctx context.Context, filter model.NotificationFilter) (*model.NotificationListResponse, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	notifications, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		Total:         total,
	}, nil
}

// GetNotificationByID retrieves a single notification; nil when not found
func (s *NotificationService) GetNotificationByID(ctx context.Context, id string) (*model.Notification, error) {
	return s.store.GetByID(ctx, id)
}

// CreateNotification inserts a manual notice and pushes it to connected clients
func (s *NotificationService) CreateNotification(ctx context.Context, create model.NotificationCreate) (*model.Notification, error) {
	notification, err := s.store.Create(ctx, create)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast("notification", notification)
	}

	return notification, nil
}

// MarkAsRead flips a notification to read; nil when the id is unknown
func (s *NotificationService) MarkAsRead(ctx context.Context, id string) (*model.Notification, error) {
	return s.store.MarkAsRead(ctx, id)
}

// MarkAllAsRead flips every unread notification, optionally within a section,
// and returns the number marked
func (s *NotificationService) MarkAllAsRead(ctx context.Context, section string) (int64, error) {
	return s.store.MarkAllAsRead(ctx, section)
}

// DeleteNotification removes a notification, reporting whether it existed
func (s *NotificationService) DeleteNotification(ctx context.Context, id string) (bool, error) {
	return s.store.Delete(ctx, id)
}

// GetUnreadCount retrieves the count of unread notifications
func (s *NotificationService) GetUnreadCount(ctx context.Context) (int, error) {
	return s.store.UnreadCount(ctx)
}

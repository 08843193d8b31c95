package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"
	"github.com/AscentXR/AscentXR-Business-sub002/internal/utils"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlx.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// List retrieves notifications matching the filter, newest first, with a total count
func (r *NotificationRepository) List(ctx context.Context, filter model.NotificationFilter) ([]model.Notification, int, error) {
	conditions := []string{}
	params := []interface{}{}

	if filter.Section != "" {
		params = append(params, filter.Section)
		conditions = append(conditions, fmt.Sprintf("section = $%d", len(params)))
	}
	if filter.Severity != "" {
		params = append(params, filter.Severity)
		conditions = append(conditions, fmt.Sprintf("severity = $%d", len(params)))
	}
	if filter.IsRead != nil {
		params = append(params, *filter.IsRead)
		conditions = append(conditions, fmt.Sprintf("is_read = $%d", len(params)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notifications"+where, params...)
	if err != nil {
		r.logger.Error("Failed to count notifications", zap.Error(err))
		return nil, 0, err
	}

	offset := utils.CalculateOffset(filter.Page, filter.Limit)
	query := fmt.Sprintf(
		"SELECT * FROM notifications%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(params)+1, len(params)+2,
	)
	params = append(params, filter.Limit, offset)

	notifications := []model.Notification{}
	err = r.db.SelectContext(ctx, &notifications, query, params...)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err))
		return nil, 0, err
	}

	return notifications, total, nil
}

// GetByID retrieves a single notification, or nil when it does not exist
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	query := `SELECT * FROM notifications WHERE id = $1`

	var notification model.Notification
	err := r.db.GetContext(ctx, &notification, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get notification", zap.Error(err), zap.String("id", id))
		return nil, err
	}

	return &notification, nil
}

// Create inserts a notification and returns the stored row
func (r *NotificationRepository) Create(ctx context.Context, create model.NotificationCreate) (*model.Notification, error) {
	query := `
		INSERT INTO notifications (type, severity, title, message, section, action_url, entity_id, entity_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`

	severity := create.Severity
	if severity == "" {
		severity = model.SeverityMedium
	}

	var notification model.Notification
	err := r.db.GetContext(ctx, &notification, query,
		create.Type,
		severity,
		create.Title,
		create.Message,
		create.Section,
		create.ActionURL,
		create.EntityID,
		create.EntityType,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Error(err), zap.String("type", create.Type))
		return nil, err
	}

	return &notification, nil
}

// MarkAsRead marks a notification as read and returns the updated row,
// or nil when the id is unknown
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id string) (*model.Notification, error) {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE id = $1
		RETURNING *
	`

	var notification model.Notification
	err := r.db.GetContext(ctx, &notification, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to mark notification as read", zap.Error(err), zap.String("id", id))
		return nil, err
	}

	return &notification, nil
}

// MarkAllAsRead marks every unread notification as read, optionally limited to a
// section, and returns the number of rows updated
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, section string) (int64, error) {
	query := `UPDATE notifications SET is_read = true, read_at = NOW() WHERE is_read = false`
	params := []interface{}{}

	if section != "" {
		query += " AND section = $1"
		params = append(params, section)
	}

	result, err := r.db.ExecContext(ctx, query, params...)
	if err != nil {
		r.logger.Error("Failed to mark all notifications as read", zap.Error(err))
		return 0, err
	}

	return result.RowsAffected()
}

// Delete removes a notification, reporting whether a row existed
func (r *NotificationRepository) Delete(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM notifications WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete notification", zap.Error(err), zap.String("id", id))
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// UnreadCount retrieves the count of unread notifications
func (r *NotificationRepository) UnreadCount(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE is_read = false`

	var count int
	err := r.db.GetContext(ctx, &count, query)
	if err != nil {
		r.logger.Error("Failed to get unread notification count", zap.Error(err))
		return 0, err
	}

	return count, nil
}

package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"grownet-api/models"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// HasRecentDuplicate reports whether the same notification was already stored
// after since.
func (r *NotificationRepository) HasRecentDuplicate(ctx context.Context, params models.CreateNotificationParams, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("type = ? AND actor_user_id = ? AND target_user_id = ? AND related_id = ? AND created_at > ?",
			params.Type, params.ActorUserID, params.TargetUserID, params.RelatedID, since).
		Count(&count).Error
	return count > 0, err
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// List returns a page of the user's notifications, newest first, with the total
// count for the same filter.
func (r *NotificationRepository) List(ctx context.Context, userID string, notificationType models.NotificationType, offset, limit int) ([]models.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("target_user_id = ?", userID)
	if notificationType != "" {
		query = query.Where("type = ?", notificationType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := query.Preload("ActorUser").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

func (r *NotificationRepository) Stats(ctx context.Context, userID string) (models.NotificationStats, error) {
	var unread, total int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("target_user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return models.NotificationStats{}, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("target_user_id = ?", userID).
		Count(&total).Error; err != nil {
		return models.NotificationStats{}, err
	}
	return models.NotificationStats{UnreadCount: int(unread), TotalCount: int(total)}, nil
}

// MarkAsRead reports whether a notification owned by userID was found.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, userID, id string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND target_user_id = ?", id, userID).
		Update("is_read", true)
	return result.RowsAffected > 0, result.Error
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("target_user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// Delete reports whether a notification owned by userID was removed.
func (r *NotificationRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND target_user_id = ?", id, userID).
		Delete(&models.Notification{})
	return result.RowsAffected > 0, result.Error
}

// DeleteReadBefore removes read notifications created before cutoff.
func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

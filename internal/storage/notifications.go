package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"projecthub/internal/models"
)

// notify is the only way notifications are written. It always runs inside
// the transaction of the operation that triggered it.
func (s *Store) notify(tx *gorm.DB, n models.Notification) error {
	n.ID = 0
	n.Read = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if n.SenderID != nil && *n.SenderID == 0 {
		n.SenderID = nil
	}
	if err := tx.Omit("Sender", "Project").Create(&n).Error; err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns the notifications of a user, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	list := []models.Notification{}
	err := s.db.WithContext(ctx).
		Preload("Project").
		Preload("Sender").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	for i := range list {
		list[i].Flatten()
	}
	return list, nil
}

// GetNotification fetches a single notification by id.
func (s *Store) GetNotification(ctx context.Context, id int64) (models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return models.Notification{}, lookupErr(err, "notification")
	}
	return n, nil
}

// MarkNotificationRead flags a notification as read. Marking an already read
// notification again is not an error. Only the recipient may do it.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		var n models.Notification
		if err := tx.First(&n, id).Error; err != nil {
			return lookupErr(err, "notification")
		}
		if n.UserID != userID {
			return models.ErrForbidden
		}
		if n.Read {
			return nil
		}
		if err := tx.Model(&n).Update("read", true).Error; err != nil {
			return fmt.Errorf("mark notification read: %w", err)
		}
		return nil
	})
}

// MarkAllNotificationsRead flags every unread notification of the user as
// read and returns how many changed.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UnreadNotifications counts the unread notifications of a user.
func (s *Store) UnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}

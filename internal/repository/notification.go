package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
)

// NotificationRepository - хранилище in-app уведомлений
type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{
		db: db,
	}
}

// Push сохраняет in-app уведомление получателя
func (r *NotificationRepository) Push(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, title, body, target_id, target_type)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at;
	`
	err := r.db.QueryRow(ctx, query,
		n.ID,
		n.RecipientID,
		n.Title,
		n.Body,
		n.TargetID,
		n.TargetType,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	return nil
}

// ListByRecipient возвращает уведомления получателя, новые первыми
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*models.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	query := `
		SELECT id, recipient_id, title, body, target_id, target_type, read_at, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		n := &models.Notification{}
		err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Body, &n.TargetID, &n.TargetType, &n.ReadAt, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error notifications iteration: %w", err)
	}
	return notifications, nil
}

// MarkRead отмечает уведомление получателя как прочитанное
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	query := `
		UPDATE notifications SET
			read_at = NOW()
		WHERE id = $1 AND recipient_id = $2 AND read_at IS NULL;
	`
	cmdTag, err := r.db.Exec(ctx, query, notificationID, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("unread notification %s of recipient %s not found", notificationID, recipientID)
	}
	return nil
}

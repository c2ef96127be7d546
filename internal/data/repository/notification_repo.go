package repository

import (
	"context"
	"fmt"

	"roadside-assist/internal/data/entity"
	"roadside-assist/pkg/database"

	"go.uber.org/zap"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
}

type notificationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewNotificationRepository(db database.Querier, log *zap.Logger) NotificationRepository {
	return &notificationRepository{
		db:  db,
		log: log.With(zap.String("repository", "notification")),
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, type, title, message, link, metadata, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		n.ID,
		n.RecipientID,
		n.Type,
		n.Title,
		n.Message,
		n.Link,
		n.Metadata,
		n.IsRead,
		n.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create notification",
			zap.Error(err),
			zap.String("recipient_id", n.RecipientID.String()),
		)
		return fmt.Errorf("create notification for %s: %w", n.RecipientID.String(), err)
	}

	return nil
}

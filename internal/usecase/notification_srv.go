package usecase

import (
	"context"
	"time"

	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/data/repository"
	"roadside-assist/pkg/rabbitmq"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const notificationRoutingKey = "notification.created"

// Notifier delivers notifications on a best-effort basis. Failures are
// logged and never returned, so callers invoke it only after their state
// is committed.
type Notifier interface {
	Notify(ctx context.Context, notes ...*entity.Notification)
}

type notifier struct {
	repo      repository.NotificationRepository
	publisher rabbitmq.Publisher
	log       *zap.Logger
}

func NewNotifier(repo repository.NotificationRepository, publisher rabbitmq.Publisher, log *zap.Logger) Notifier {
	if publisher == nil {
		publisher = rabbitmq.NoopPublisher{}
	}
	return &notifier{
		repo:      repo,
		publisher: publisher,
		log:       log.With(zap.String("service", "notification")),
	}
}

// notificationEvent is the message published for push and email fan-out.
type notificationEvent struct {
	NotificationID string         `json:"notification_id"`
	RecipientID    string         `json:"recipient_id"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Link           string         `json:"link,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (n *notifier) Notify(ctx context.Context, notes ...*entity.Notification) {
	for _, note := range notes {
		if note == nil {
			continue
		}

		if err := n.repo.Create(ctx, note); err != nil {
			n.log.Warn("Failed to store notification",
				zap.Error(err),
				zap.String("recipient_id", note.RecipientID.String()),
				zap.String("title", note.Title),
			)
			continue
		}

		event := notificationEvent{
			NotificationID: note.ID.String(),
			RecipientID:    note.RecipientID.String(),
			Type:           string(note.Type),
			Title:          note.Title,
			Message:        note.Message,
			Metadata:       note.Metadata,
			CreatedAt:      note.CreatedAt,
		}
		if note.Link != nil {
			event.Link = *note.Link
		}

		if err := n.publisher.Publish(ctx, notificationRoutingKey, event); err != nil {
			n.log.Warn("Failed to publish notification event",
				zap.Error(err),
				zap.String("notification_id", note.ID.String()),
			)
		}
	}
}

func newNotification(recipient uuid.UUID, kind entity.NotificationType, title, message, link string, now time.Time) *entity.Notification {
	note := &entity.Notification{
		BaseSimple:  entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
		RecipientID: recipient,
		Type:        kind,
		Title:       title,
		Message:     message,
	}
	if link != "" {
		note.Link = &link
	}
	return note
}

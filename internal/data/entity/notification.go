package entity

import "github.com/google/uuid"

type NotificationType string

const (
	NotificationPayment      NotificationType = "payment"
	NotificationSubscription NotificationType = "subscription"
	NotificationBooking      NotificationType = "booking"
)

type Notification struct {
	BaseSimple
	RecipientID uuid.UUID        `db:"recipient_id"`
	Type        NotificationType `db:"type"`
	Title       string           `db:"title"`
	Message     string           `db:"message"`
	Link        *string          `db:"link"`
	Metadata    map[string]any   `db:"metadata"`
	IsRead      bool             `db:"is_read"`
}

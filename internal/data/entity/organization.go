package entity

import (
	"time"

	"github.com/google/uuid"
)

type Organization struct {
	BaseNoDelete
	Name           string     `db:"name"`
	OwnerID        uuid.UUID  `db:"owner_id"`
	SubscriptionID *uuid.UUID `db:"subscription_id"`
}

type TeamMember struct {
	ID             uuid.UUID `db:"id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	UserID         uuid.UUID `db:"user_id"`
	Role           string    `db:"role"`
	IsActive       bool      `db:"is_active"`
	JoinedAt       time.Time `db:"joined_at"`
}

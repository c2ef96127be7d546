package entity

import (
	"time"

	"roadside-assist/internal/billing"

	"github.com/google/uuid"
)

type Garage struct {
	BaseNoDelete
	OwnerID          uuid.UUID    `db:"owner_id"`
	Name             string       `db:"name"`
	MembershipTier   billing.Tier `db:"membership_tier"`
	MembershipExpiry *time.Time   `db:"membership_expiry"`
	IsFeatured       bool         `db:"is_featured"`
	Latitude         float64      `db:"latitude"`
	Longitude        float64      `db:"longitude"`
}

type Service struct {
	BaseNoDelete
	Name      string  `db:"name"`
	BasePrice float64 `db:"base_price"`
	IsActive  bool    `db:"is_active"`
}

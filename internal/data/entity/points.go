package entity

import (
	"roadside-assist/internal/billing"

	"github.com/google/uuid"
)

type PointsType string

const (
	PointsEarn   PointsType = "earn"
	PointsRedeem PointsType = "redeem"
)

type PointsMetadata struct {
	BookingID  uuid.UUID    `json:"booking_id"`
	Cost       float64      `json:"cost"`
	Tier       billing.Tier `json:"tier"`
	Multiplier int          `json:"multiplier"`
}

// PointsRecord is one entry in a customer's reward points ledger.
type PointsRecord struct {
	BaseSimple
	UserID   uuid.UUID      `db:"user_id"`
	Points   int            `db:"points"`
	Type     PointsType     `db:"type"`
	Reason   string         `db:"reason"`
	Metadata PointsMetadata `db:"metadata"`
}

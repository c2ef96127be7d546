package entity

import (
	"time"

	"roadside-assist/internal/billing"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// PaymentInfo is the payment summary stored on a paid booking.
type PaymentInfo struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	Method        string    `json:"method"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Amount        float64   `json:"amount"`
	PaidAt        time.Time `json:"paid_at"`

	// RefundedAt is set when the payment behind this summary was refunded.
	RefundedAt *time.Time `json:"refunded_at,omitempty"`
}

type Booking struct {
	BaseNoDelete
	BookingNumber  string                  `db:"booking_number"`
	UserID         uuid.UUID               `db:"user_id"`
	GarageID       *uuid.UUID              `db:"garage_id"`
	ServiceID      *uuid.UUID              `db:"service_id"`
	MechanicID     *uuid.UUID              `db:"assigned_mechanic_id"`
	Status         BookingStatus           `db:"status"`
	EstimatedCost  float64                 `db:"estimated_cost"`
	ActualCost     *float64                `db:"actual_cost"`
	ScheduledAt    *time.Time              `db:"scheduled_at"`
	IsPaid         bool                    `db:"is_paid"`
	PaymentInfo    *PaymentInfo            `db:"payment_info"`
	PriceBreakdown *billing.PriceBreakdown `db:"price_breakdown"`
	CompletedAt    *time.Time              `db:"completed_at"`
}

// AssignedTo reports whether mechanicID is the mechanic on this job.
func (b *Booking) AssignedTo(mechanicID uuid.UUID) bool {
	return b.MechanicID != nil && *b.MechanicID == mechanicID
}

// PayableAmount picks the amount to charge: an explicit positive amount,
// then the actual cost, then the estimate.
func (b *Booking) PayableAmount(requested float64) float64 {
	if requested > 0 {
		return requested
	}
	if b.ActualCost != nil && *b.ActualCost > 0 {
		return *b.ActualCost
	}
	return b.EstimatedCost
}

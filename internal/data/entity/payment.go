package entity

import (
	"time"

	"roadside-assist/internal/billing"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusSuccess: {PaymentStatusRefunded},
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Re-applying the current status is not a transition.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the payment left pending.
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentStatusPending
}

type PaymentType string

const (
	PaymentTypeServiceFee   PaymentType = "service_fee"
	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypePayout       PaymentType = "payout"
	PaymentTypeRefund       PaymentType = "refund"
)

// SubjectType says what the payment pays for.
type SubjectType string

const (
	SubjectSubscription SubjectType = "subscription"
	SubjectBooking      SubjectType = "booking"
)

const (
	PaymentMethodGateway = "sslcommerz"
	PaymentMethodWallet  = "wallet"
	PaymentMethodCash    = "cash"
)

// IsReservedPaymentMethod reports methods that only the system may record.
func IsReservedPaymentMethod(method string) bool {
	return method == PaymentMethodGateway || method == PaymentMethodWallet
}

// PaymentMetadata is frozen at creation. The commission split is captured
// here so later tier changes never rewrite historical payouts.
type PaymentMetadata struct {
	Description string `json:"description,omitempty"`
	InitiatedBy string `json:"initiated_by,omitempty"`
	*billing.CommissionSplit
	PriceBreakdown    *billing.PriceBreakdown `json:"price_breakdown,omitempty"`
	BillingCycle      BillingCycle            `json:"billing_cycle,omitempty"`
	PlanName          string                  `json:"plan_name,omitempty"`
	GatewayStatus     string                  `json:"gateway_status,omitempty"`
	OriginalPaymentID *uuid.UUID              `json:"original_payment_id,omitempty"`
	ReceivedBy        *uuid.UUID              `json:"received_by,omitempty"`
}

// RefundInfo records a refund against a settled payment.
type RefundInfo struct {
	Amount           float64   `json:"amount"`
	Percentage       int       `json:"percentage"`
	ProcessingFee    float64   `json:"processing_fee"`
	Reason           string    `json:"reason"`
	RefundedBy       uuid.UUID `json:"refunded_by"`
	RefundedAt       time.Time `json:"refunded_at"`
	RefundPaymentRef string    `json:"refund_payment_ref"`
}

type Payment struct {
	BaseNoDelete
	UserID         uuid.UUID       `db:"user_id"`
	SubjectType    SubjectType     `db:"subject_type"`
	SubscriptionID *uuid.UUID      `db:"subscription_id"`
	BookingID      *uuid.UUID      `db:"booking_id"`
	Type           PaymentType     `db:"type"`
	Amount         float64         `db:"amount"`
	Currency       string          `db:"currency"`
	Status         PaymentStatus   `db:"status"`
	PaymentMethod  string          `db:"payment_method"`
	TransactionID  *string         `db:"transaction_id"`
	ValidationID   *string         `db:"validation_id"`
	SessionKey     *string         `db:"session_key"`
	PaidAt         *time.Time      `db:"paid_at"`
	Metadata       PaymentMetadata `db:"metadata"`
	ErrorMessage   *string         `db:"error_message"`
	Refund         *RefundInfo     `db:"refund"`
}

// SettlesManually reports whether a garage or admin may verify the payment.
// Gateway payments settle only through the signed gateway notification, and
// wallet or refund records are written already settled.
func (p *Payment) SettlesManually() bool {
	return p.Type != PaymentTypeRefund && !IsReservedPaymentMethod(p.PaymentMethod)
}

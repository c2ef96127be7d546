package response

import (
	"time"

	"roadside-assist/internal/data/entity"
)

type CheckoutResponse struct {
	PaymentID      string  `json:"payment_id"`
	SubscriptionID string  `json:"subscription_id,omitempty"`
	BookingID      string  `json:"booking_id,omitempty"`
	TransactionID  string  `json:"transaction_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	GatewayURL     string  `json:"gateway_url"`
}

// IPNResult says what a gateway notification did. Applied is false for
// redeliveries and ignored replays.
type IPNResult struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Applied   bool   `json:"applied"`
}

type PaymentResponse struct {
	ID             string                 `json:"id"`
	SubjectType    string                 `json:"subject_type"`
	SubscriptionID *string                `json:"subscription_id,omitempty"`
	BookingID      *string                `json:"booking_id,omitempty"`
	Type           string                 `json:"type"`
	Amount         float64                `json:"amount"`
	Currency       string                 `json:"currency"`
	Status         string                 `json:"status"`
	PaymentMethod  string                 `json:"payment_method"`
	TransactionID  *string                `json:"transaction_id,omitempty"`
	PaidAt         *time.Time             `json:"paid_at,omitempty"`
	Metadata       entity.PaymentMetadata `json:"metadata"`
	Refund         *entity.RefundInfo     `json:"refund,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

func NewPaymentResponse(p *entity.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:            p.ID.String(),
		SubjectType:   string(p.SubjectType),
		Type:          string(p.Type),
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        string(p.Status),
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
		PaidAt:        p.PaidAt,
		Metadata:      p.Metadata,
		Refund:        p.Refund,
		CreatedAt:     p.CreatedAt,
	}
	if p.SubscriptionID != nil {
		id := p.SubscriptionID.String()
		resp.SubscriptionID = &id
	}
	if p.BookingID != nil {
		id := p.BookingID.String()
		resp.BookingID = &id
	}
	return resp
}

type RefundResponse struct {
	Payment         PaymentResponse `json:"payment"`
	RefundPaymentID string          `json:"refund_payment_id"`
	RefundAmount    float64         `json:"refund_amount"`
	Percentage      int             `json:"percentage"`
	ProcessingFee   float64         `json:"processing_fee"`

	// EntitlementRevoked is true when the subscription was cancelled or the
	// booking was marked unpaid.
	EntitlementRevoked bool `json:"entitlement_revoked"`
}

type JobCompletionResponse struct {
	BookingID    string           `json:"booking_id"`
	Status       string           `json:"status"`
	IsPaid       bool             `json:"is_paid"`
	Payment      *PaymentResponse `json:"payment,omitempty"`
	PointsEarned int              `json:"points_earned"`
	Multiplier   int              `json:"multiplier"`
	Tier         string           `json:"tier"`
}

package request

// BillingInfo is the customer block sent to the gateway. Empty fields fall
// back to the payer's profile.
type BillingInfo struct {
	Name    string `json:"name" validate:"omitempty,max=120"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	Address string `json:"address" validate:"omitempty,max=255"`
	City    string `json:"city" validate:"omitempty,max=80"`
	Country string `json:"country" validate:"omitempty,max=80"`
}

type InitSubscriptionPaymentRequest struct {
	PlanID       string      `json:"plan_id" validate:"required,uuid"`
	BillingCycle string      `json:"billing_cycle" validate:"required,oneof=monthly yearly"`
	BillingInfo  BillingInfo `json:"billing_info"`
}

type InitBookingPaymentRequest struct {
	BillingInfo BillingInfo `json:"billing_info"`
}

// IPNRequest is the gateway's server-to-server form post.
type IPNRequest struct {
	TranID     string
	ValID      string
	Status     string
	Amount     string
	CardType   string
	BankTranID string
	ValueA     string // payment id
	ValueB     string // subscription or booking id
	ValueC     string
	VerifySign string
	VerifyKey  string
}

type ManualPaymentRequest struct {
	PaymentMethod string  `json:"payment_method" validate:"required,max=40"`
	TransactionID string  `json:"transaction_id" validate:"omitempty,max=120"`
	Amount        float64 `json:"amount" validate:"gte=0"`
}

type VerifyPaymentRequest struct {
	PaymentID string `json:"payment_id" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,oneof=success failed"`
}

type RefundRequest struct {
	Amount *float64 `json:"amount" validate:"omitempty,gt=0"`
	Reason string   `json:"reason" validate:"required,min=3,max=500"`
}

// ConfirmJobPaymentRequest is sent by the assigned mechanic when a job is
// finished. Cash means the mechanic collected the money on site.
type ConfirmJobPaymentRequest struct {
	Method string `json:"method" validate:"required,oneof=cash online"`
}

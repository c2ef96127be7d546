package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessingFeeRate is kept by the platform on every refund.
var ProcessingFeeRate = decimal.RequireFromString("0.02")

// RefundQuote is the outcome of the cancellation refund policy.
type RefundQuote struct {
	PaidAmount        float64 `json:"paid_amount"`
	RefundPercentage  int     `json:"refund_percentage"`
	RefundAmount      float64 `json:"refund_amount"`
	ProcessingFee     float64 `json:"processing_fee"`
	FinalRefund       float64 `json:"final_refund"`
	HoursUntilService float64 `json:"hours_until_service"`
}

func refundPercentage(hoursUntil float64) int {
	switch {
	case hoursUntil >= 24:
		return 100
	case hoursUntil >= 12:
		return 75
	case hoursUntil >= 6:
		return 50
	case hoursUntil > 0:
		return 25
	default:
		return 0
	}
}

// CancellationRefund computes how much of paidAmount goes back when a booking
// scheduled at scheduledAt is cancelled at cancelledAt.
func CancellationRefund(paidAmount float64, scheduledAt, cancelledAt time.Time) RefundQuote {
	hours := scheduledAt.Sub(cancelledAt).Hours()
	quote := RefundAtPercentage(paidAmount, refundPercentage(hours))
	quote.HoursUntilService = decimal.NewFromFloat(hours).Round(1).InexactFloat64()
	return quote
}

// RefundAtPercentage refunds pct percent of paidAmount minus the processing
// fee, floored at zero.
func RefundAtPercentage(paidAmount float64, pct int) RefundQuote {
	paid := decimal.NewFromFloat(paidAmount)
	refund := paid.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100))
	fee := paid.Mul(ProcessingFeeRate)
	final := decimal.Max(decimal.Zero, refund.Sub(fee))

	return RefundQuote{
		PaidAmount:       paidAmount,
		RefundPercentage: pct,
		RefundAmount:     money(refund),
		ProcessingFee:    money(fee),
		FinalRefund:      money(final),
	}
}

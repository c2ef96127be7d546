package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	StandardCommissionRate = decimal.RequireFromString("0.15")
	ReducedCommissionRate  = decimal.RequireFromString("0.05")
)

// CommissionSplit is the platform's cut of a service payment. Rate is frozen
// into the payment at creation time.
type CommissionSplit struct {
	Rate        float64 `json:"commission_rate"`
	PlatformFee float64 `json:"platform_fee"`
	NetEarnings float64 `json:"net_garage_earnings"`
}

// SplitCommission charges 5% to premium and enterprise garages and 15% to
// everyone else. The fee is rounded to whole currency units.
func SplitCommission(amount float64, garageTier Tier) CommissionSplit {
	rate := StandardCommissionRate
	if garageTier.IsPaidGarageTier() {
		rate = ReducedCommissionRate
	}

	total := decimal.NewFromFloat(amount)
	fee := total.Mul(rate).Round(0)

	return CommissionSplit{
		Rate:        rate.InexactFloat64(),
		PlatformFee: fee.InexactFloat64(),
		NetEarnings: total.Sub(fee).InexactFloat64(),
	}
}

// SplitCommissionAt applies expiry before splitting, so a lapsed premium
// garage pays the standard rate.
func SplitCommissionAt(amount float64, garageTier Tier, expiry *time.Time, now time.Time) CommissionSplit {
	return SplitCommission(amount, ActiveTier(garageTier, expiry, now))
}

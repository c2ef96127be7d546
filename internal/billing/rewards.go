package billing

import "github.com/shopspring/decimal"

// RewardMultiplier is how many points a customer earns per 100 spent.
func RewardMultiplier(t Tier) int {
	switch t {
	case TierPremium, TierEnterprise:
		return 10
	case TierStandard:
		return 5
	default:
		return 1
	}
}

// RewardPoints returns floor(cost / 100 * multiplier) for the customer's
// tier. Non-positive costs earn nothing.
func RewardPoints(cost float64, t Tier) int {
	if cost <= 0 {
		return 0
	}
	return int(decimal.NewFromFloat(cost).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(int64(RewardMultiplier(t)))).
		Floor().
		IntPart())
}

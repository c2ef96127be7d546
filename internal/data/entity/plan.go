package entity

import "roadside-assist/internal/billing"

type Plan struct {
	BaseNoDelete
	Name         string       `db:"name"`
	Tier         billing.Tier `db:"tier"`
	PriceMonthly float64      `db:"price_monthly"`
	PriceYearly  float64      `db:"price_yearly"`
	IsFeatured   bool         `db:"is_featured"`
	IsActive     bool         `db:"is_active"`
}

// PriceFor returns the plan price for the billing cycle.
func (p *Plan) PriceFor(cycle BillingCycle) float64 {
	if cycle == BillingYearly {
		return p.PriceYearly
	}
	return p.PriceMonthly
}

package billing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// PricingConfig holds the rate card for service calls.
type PricingConfig struct {
	PerKmRate          decimal.Decimal
	FreeKm             decimal.Decimal
	NightMultiplier    decimal.Decimal
	NightStartHour     int
	NightEndHour       int
	WeekendMultiplier  decimal.Decimal
	EmergencyCharge    decimal.Decimal
	UrgentMultiplier   decimal.Decimal
	VehicleMultipliers map[string]decimal.Decimal
	TowingBase         decimal.Decimal
	TowingPerKm        decimal.Decimal
	VATRate            decimal.Decimal
	ServiceFeeRate     decimal.Decimal
}

// DefaultPricing is the BDT rate card.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		PerKmRate:         decimal.NewFromInt(15),
		FreeKm:            decimal.NewFromInt(5),
		NightMultiplier:   decimal.RequireFromString("1.5"),
		NightStartHour:    22,
		NightEndHour:      6,
		WeekendMultiplier: decimal.RequireFromString("1.2"),
		EmergencyCharge:   decimal.NewFromInt(200),
		UrgentMultiplier:  decimal.RequireFromString("1.3"),
		VehicleMultipliers: map[string]decimal.Decimal{
			"motorcycle": decimal.RequireFromString("1.0"),
			"cng":        decimal.RequireFromString("1.1"),
			"car":        decimal.RequireFromString("1.2"),
			"rickshaw":   decimal.RequireFromString("0.8"),
			"bus":        decimal.RequireFromString("1.8"),
			"truck":      decimal.RequireFromString("2.0"),
			"other":      decimal.RequireFromString("1.0"),
		},
		TowingBase:     decimal.NewFromInt(500),
		TowingPerKm:    decimal.NewFromInt(30),
		VATRate:        decimal.RequireFromString("0.05"),
		ServiceFeeRate: decimal.RequireFromString("0.03"),
	}
}

// PriceInput describes one service call to quote. ScheduledAt must already be
// in the business time zone.
type PriceInput struct {
	BasePrice       float64
	DistanceKm      float64
	VehicleType     string
	IsEmergency     bool
	IsUrgent        bool
	TowingRequested bool
	ScheduledAt     time.Time
}

// PriceBreakdown is the itemized quote. Line items are rounded to 2 decimals,
// Total to whole currency units.
type PriceBreakdown struct {
	BasePrice         float64 `json:"base_price"`
	DistanceKm        float64 `json:"distance_km"`
	DistanceCharge    float64 `json:"distance_charge"`
	VehicleMultiplier float64 `json:"vehicle_multiplier"`
	VehicleAdjusted   float64 `json:"vehicle_adjusted"`
	NightCharge       float64 `json:"night_charge"`
	WeekendCharge     float64 `json:"weekend_charge"`
	EmergencyCharge   float64 `json:"emergency_charge"`
	UrgentCharge      float64 `json:"urgent_charge"`
	TowingCharge      float64 `json:"towing_charge"`
	Subtotal          float64 `json:"subtotal"`
	VAT               float64 `json:"vat"`
	ServiceFee        float64 `json:"service_fee"`
	Total             float64 `json:"total"`
}

// PriceEstimate is the condensed view shown before booking.
type PriceEstimate struct {
	EstimatedTotal    float64 `json:"estimated_total"`
	BasePrice         float64 `json:"base_price"`
	DistanceCharge    float64 `json:"distance_charge"`
	AdditionalCharges float64 `json:"additional_charges"`
	TowingCharge      float64 `json:"towing_charge"`
	TaxesAndFees      float64 `json:"taxes_and_fees"`
	DistanceKm        float64 `json:"distance_km"`
	IsNightTime       bool    `json:"is_night_time"`
	IsWeekend         bool    `json:"is_weekend"`
}

// IsNightTime reports whether t falls in the night window, which wraps midnight.
func (c PricingConfig) IsNightTime(t time.Time) bool {
	h := t.Hour()
	return h >= c.NightStartHour || h < c.NightEndHour
}

// IsWeekend reports Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	d := t.Weekday()
	return d == time.Saturday || d == time.Sunday
}

// Calculate quotes a service call. Night, weekend and urgent surcharges are
// each a share of the same vehicle-adjusted amount; they never compound.
func (c PricingConfig) Calculate(in PriceInput) PriceBreakdown {
	one := decimal.NewFromInt(1)

	base := decimal.NewFromFloat(math.Max(0, in.BasePrice))
	distance := decimal.NewFromFloat(math.Max(0, in.DistanceKm))

	chargeableKm := decimal.Max(decimal.Zero, distance.Sub(c.FreeKm))
	distanceCharge := chargeableKm.Mul(c.PerKmRate)

	multiplier, ok := c.VehicleMultipliers[in.VehicleType]
	if !ok {
		multiplier = one
	}
	vehicleAdjusted := base.Add(distanceCharge).Mul(multiplier)

	nightCharge := decimal.Zero
	if c.IsNightTime(in.ScheduledAt) {
		nightCharge = vehicleAdjusted.Mul(c.NightMultiplier.Sub(one))
	}

	weekendCharge := decimal.Zero
	if IsWeekend(in.ScheduledAt) {
		weekendCharge = vehicleAdjusted.Mul(c.WeekendMultiplier.Sub(one))
	}

	emergencyCharge := decimal.Zero
	if in.IsEmergency {
		emergencyCharge = c.EmergencyCharge
	}

	urgentCharge := decimal.Zero
	if in.IsUrgent {
		urgentCharge = vehicleAdjusted.Mul(c.UrgentMultiplier.Sub(one))
	}

	towingCharge := decimal.Zero
	if in.TowingRequested {
		towingCharge = c.TowingBase.Add(distance.Mul(c.TowingPerKm))
	}

	subtotal := vehicleAdjusted.
		Add(nightCharge).
		Add(weekendCharge).
		Add(emergencyCharge).
		Add(urgentCharge).
		Add(towingCharge)

	vat := subtotal.Mul(c.VATRate)
	serviceFee := subtotal.Mul(c.ServiceFeeRate)
	total := subtotal.Add(vat).Add(serviceFee).Round(0)

	return PriceBreakdown{
		BasePrice:         money(base),
		DistanceKm:        money(distance),
		DistanceCharge:    money(distanceCharge),
		VehicleMultiplier: money(multiplier),
		VehicleAdjusted:   money(vehicleAdjusted),
		NightCharge:       money(nightCharge),
		WeekendCharge:     money(weekendCharge),
		EmergencyCharge:   money(emergencyCharge),
		UrgentCharge:      money(urgentCharge),
		TowingCharge:      money(towingCharge),
		Subtotal:          money(subtotal),
		VAT:               money(vat),
		ServiceFee:        money(serviceFee),
		Total:             total.InexactFloat64(),
	}
}

// Estimate condenses a quote for display.
func (c PricingConfig) Estimate(in PriceInput) PriceEstimate {
	b := c.Calculate(in)
	additional := decimal.NewFromFloat(b.NightCharge).
		Add(decimal.NewFromFloat(b.WeekendCharge)).
		Add(decimal.NewFromFloat(b.EmergencyCharge)).
		Add(decimal.NewFromFloat(b.UrgentCharge))
	taxes := decimal.NewFromFloat(b.VAT).Add(decimal.NewFromFloat(b.ServiceFee))

	return PriceEstimate{
		EstimatedTotal:    b.Total,
		BasePrice:         b.BasePrice,
		DistanceCharge:    b.DistanceCharge,
		AdditionalCharges: money(additional),
		TowingCharge:      b.TowingCharge,
		TaxesAndFees:      money(taxes),
		DistanceKm:        b.DistanceKm,
		IsNightTime:       c.IsNightTime(in.ScheduledAt),
		IsWeekend:         IsWeekend(in.ScheduledAt),
	}
}

const earthRadiusKm = 6371.0

// Distance returns the haversine distance in km between two points, rounded
// to 2 decimals.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return money(decimal.NewFromFloat(earthRadiusKm * c))
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

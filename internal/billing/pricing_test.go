package billing

import (
	"math"
	"testing"
	"time"
)

var (
	weekdayNoon    = time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	weekdayNight   = time.Date(2024, time.January, 10, 23, 0, 0, 0, time.UTC)
	weekdayDawn    = time.Date(2024, time.January, 10, 5, 59, 0, 0, time.UTC)
	weekdayMorning = time.Date(2024, time.January, 10, 6, 0, 0, 0, time.UTC)
	saturdayNoon   = time.Date(2024, time.January, 13, 12, 0, 0, 0, time.UTC)
)

func TestCalculate_CarWeekdayNoon(t *testing.T) {
	got := DefaultPricing().Calculate(PriceInput{
		BasePrice:   1000,
		DistanceKm:  0,
		VehicleType: "car",
		ScheduledAt: weekdayNoon,
	})

	want := PriceBreakdown{
		BasePrice:         1000,
		VehicleMultiplier: 1.2,
		VehicleAdjusted:   1200,
		Subtotal:          1200,
		VAT:               60,
		ServiceFee:        36,
		Total:             1296,
	}
	if got != want {
		t.Fatalf("unexpected breakdown:\n got  %+v\n want %+v", got, want)
	}
}

func TestCalculate_Surcharges(t *testing.T) {
	pricing := DefaultPricing()

	tests := []struct {
		name  string
		input PriceInput
		check func(t *testing.T, b PriceBreakdown)
	}{
		{
			name:  "night surcharge",
			input: PriceInput{BasePrice: 1000, VehicleType: "car", ScheduledAt: weekdayNight},
			check: func(t *testing.T, b PriceBreakdown) {
				if b.NightCharge != 600 || b.WeekendCharge != 0 {
					t.Fatalf("expected night 600 only, got %+v", b)
				}
			},
		},
		{
			name:  "weekend surcharge",
			input: PriceInput{BasePrice: 1000, VehicleType: "car", ScheduledAt: saturdayNoon},
			check: func(t *testing.T, b PriceBreakdown) {
				if b.WeekendCharge != 240 || b.NightCharge != 0 {
					t.Fatalf("expected weekend 240 only, got %+v", b)
				}
			},
		},
		{
			name:  "emergency and urgent are independent of each other",
			input: PriceInput{BasePrice: 1000, VehicleType: "car", IsEmergency: true, IsUrgent: true, ScheduledAt: weekdayNoon},
			check: func(t *testing.T, b PriceBreakdown) {
				if b.EmergencyCharge != 200 || b.UrgentCharge != 360 {
					t.Fatalf("unexpected emergency/urgent: %+v", b)
				}
				if b.Subtotal != 1760 {
					t.Fatalf("expected subtotal 1760, got %v", b.Subtotal)
				}
			},
		},
		{
			name:  "distance and towing",
			input: PriceInput{BasePrice: 1000, DistanceKm: 10, VehicleType: "car", TowingRequested: true, ScheduledAt: weekdayNoon},
			check: func(t *testing.T, b PriceBreakdown) {
				if b.DistanceCharge != 75 || b.VehicleAdjusted != 1290 || b.TowingCharge != 800 {
					t.Fatalf("unexpected distance/towing: %+v", b)
				}
			},
		},
		{
			name:  "unknown vehicle defaults to 1.0",
			input: PriceInput{BasePrice: 500, VehicleType: "hovercraft", ScheduledAt: weekdayNoon},
			check: func(t *testing.T, b PriceBreakdown) {
				if b.VehicleMultiplier != 1 || b.VehicleAdjusted != 500 {
					t.Fatalf("unexpected multiplier: %+v", b)
				}
			},
		},
		{
			name:  "negative distance is not chargeable",
			input: PriceInput{BasePrice: 500, DistanceKm: -12, VehicleType: "motorcycle", TowingRequested: true, ScheduledAt: weekdayNoon},
			check: func(t *testing.T, b PriceBreakdown) {
				if b.DistanceCharge != 0 || b.TowingCharge != 500 {
					t.Fatalf("unexpected clamp: %+v", b)
				}
			},
		},
		{
			name:  "total rounds to whole units",
			input: PriceInput{BasePrice: 333, VehicleType: "motorcycle", ScheduledAt: weekdayNoon},
			check: func(t *testing.T, b PriceBreakdown) {
				if b.VAT != 16.65 || b.ServiceFee != 9.99 || b.Total != 360 {
					t.Fatalf("unexpected rounding: %+v", b)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, pricing.Calculate(tt.input))
		})
	}
}

func TestIsNightTimeWrapsMidnight(t *testing.T) {
	pricing := DefaultPricing()
	if !pricing.IsNightTime(weekdayNight) || !pricing.IsNightTime(weekdayDawn) {
		t.Fatal("expected 23:00 and 05:59 to be night")
	}
	if pricing.IsNightTime(weekdayMorning) || pricing.IsNightTime(weekdayNoon) {
		t.Fatal("expected 06:00 and 12:00 to be day")
	}
}

func TestCalculate_MonotonicInDistanceAndBase(t *testing.T) {
	pricing := DefaultPricing()
	times := []time.Time{weekdayNoon, weekdayNight, saturdayNoon}

	for _, at := range times {
		prev := -math.MaxFloat64
		for d := -5.0; d <= 60; d += 0.5 {
			total := pricing.Calculate(PriceInput{BasePrice: 800, DistanceKm: d, VehicleType: "truck", TowingRequested: true, ScheduledAt: at}).Total
			if total < prev {
				t.Fatalf("total decreased at distance %.1f (%v < %v)", d, total, prev)
			}
			prev = total
		}

		prev = -math.MaxFloat64
		for base := 0.0; base <= 5000; base += 37 {
			total := pricing.Calculate(PriceInput{BasePrice: base, DistanceKm: 7, VehicleType: "cng", ScheduledAt: at}).Total
			if total < prev {
				t.Fatalf("total decreased at base %.0f", base)
			}
			prev = total
		}
	}
}

func TestCalculate_FlagsNeverLowerTotal(t *testing.T) {
	pricing := DefaultPricing()
	base := PriceInput{BasePrice: 1200, DistanceKm: 8, VehicleType: "bus", ScheduledAt: weekdayNoon}
	plain := pricing.Calculate(base).Total

	flags := []func(PriceInput) PriceInput{
		func(in PriceInput) PriceInput { in.IsEmergency = true; return in },
		func(in PriceInput) PriceInput { in.IsUrgent = true; return in },
		func(in PriceInput) PriceInput { in.TowingRequested = true; return in },
	}
	for i, set := range flags {
		if got := pricing.Calculate(set(base)).Total; got < plain {
			t.Fatalf("flag %d lowered total: %v < %v", i, got, plain)
		}
	}
}

func TestEstimate(t *testing.T) {
	est := DefaultPricing().Estimate(PriceInput{BasePrice: 1000, VehicleType: "car", IsEmergency: true, ScheduledAt: saturdayNoon})
	if est.AdditionalCharges != 440 {
		t.Fatalf("expected additional charges 440, got %v", est.AdditionalCharges)
	}
	if !est.IsWeekend || est.IsNightTime {
		t.Fatalf("unexpected time flags: %+v", est)
	}
}

func TestDistance(t *testing.T) {
	if got := Distance(23.8103, 90.4125, 23.8103, 90.4125); got != 0 {
		t.Fatalf("expected zero distance, got %v", got)
	}
	// Dhaka to Chattogram is roughly 213 km as the crow flies.
	got := Distance(23.8103, 90.4125, 22.3569, 91.7832)
	if got < 200 || got > 225 {
		t.Fatalf("unexpected distance %v", got)
	}
}

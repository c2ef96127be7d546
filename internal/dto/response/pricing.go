package response

import "roadside-assist/internal/billing"

type QuotedService struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	BasePrice float64 `json:"base_price"`
}

type QuotedGarage struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PriceQuoteResponse struct {
	Service        QuotedService          `json:"service"`
	Garage         *QuotedGarage          `json:"garage"`
	DistanceKm     float64                `json:"distance_km"`
	PriceBreakdown billing.PriceBreakdown `json:"price_breakdown"`
	Estimate       billing.PriceEstimate  `json:"estimate"`
}

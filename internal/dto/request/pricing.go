package request

import "time"

type Location struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

type PriceQuoteRequest struct {
	ServiceID        string     `json:"service_id" validate:"required,uuid"`
	GarageID         string     `json:"garage_id" validate:"omitempty,uuid"`
	CustomerLocation *Location  `json:"customer_location" validate:"required"`
	VehicleType      string     `json:"vehicle_type" validate:"omitempty,oneof=motorcycle cng car rickshaw bus truck other"`
	IsEmergency      bool       `json:"is_emergency"`
	IsUrgent         bool       `json:"is_urgent"`
	TowingRequested  bool       `json:"towing_requested"`
	ScheduledAt      *time.Time `json:"scheduled_at"`
}

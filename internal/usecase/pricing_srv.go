package usecase

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"roadside-assist/internal/billing"
	"roadside-assist/internal/data/repository"
	"roadside-assist/internal/dto/request"
	"roadside-assist/internal/dto/response"
	"roadside-assist/pkg/metrics"
	"roadside-assist/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultVehicleType = "car"

type PricingService interface {
	Quote(ctx context.Context, req *request.PriceQuoteRequest) (*response.PriceQuoteResponse, error)
}

type pricingService struct {
	repo     *repository.Repository
	pricing  billing.PricingConfig
	location *time.Location
	metrics  metrics.Recorder
	now      func() time.Time
	log      *zap.Logger
}

func NewPricingService(repo *repository.Repository, recorder metrics.Recorder, config *utils.Config, log *zap.Logger) PricingService {
	log = log.With(zap.String("service", "pricing"))

	loc, err := time.LoadLocation(config.App.Timezone)
	if err != nil {
		log.Warn("Unknown business timezone, quoting in UTC",
			zap.Error(err),
			zap.String("timezone", config.App.Timezone),
		)
		loc = time.UTC
	}

	return &pricingService{
		repo:     repo,
		pricing:  billing.DefaultPricing(),
		location: loc,
		metrics:  recorder,
		now:      time.Now,
		log:      log,
	}
}

func (s *pricingService) Quote(ctx context.Context, req *request.PriceQuoteRequest) (*response.PriceQuoteResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid service ID", ErrValidation)
	}

	service, err := s.repo.Service.FindByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	if service == nil {
		return nil, fmt.Errorf("%w: service %s", ErrNotFound, req.ServiceID)
	}

	resp := &response.PriceQuoteResponse{
		Service: response.QuotedService{
			ID:        service.ID.String(),
			Name:      service.Name,
			BasePrice: service.BasePrice,
		},
	}

	var distance float64
	if req.GarageID != "" {
		garageID, err := uuid.Parse(req.GarageID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid garage ID", ErrValidation)
		}
		garage, err := s.repo.Garage.FindByID(ctx, garageID)
		if err != nil {
			return nil, fmt.Errorf("load garage: %w", err)
		}
		if garage == nil {
			return nil, fmt.Errorf("%w: garage %s", ErrNotFound, req.GarageID)
		}

		distance = billing.Distance(req.CustomerLocation.Lat, req.CustomerLocation.Lng, garage.Latitude, garage.Longitude)
		resp.Garage = &response.QuotedGarage{
			ID:  garage.ID.String(),
			Lat: garage.Latitude,
			Lng: garage.Longitude,
		}
	}

	scheduledAt := s.now()
	if req.ScheduledAt != nil {
		scheduledAt = *req.ScheduledAt
	}

	vehicle := req.VehicleType
	if vehicle == "" {
		vehicle = defaultVehicleType
	}

	in := billing.PriceInput{
		BasePrice:       service.BasePrice,
		DistanceKm:      distance,
		VehicleType:     vehicle,
		IsEmergency:     req.IsEmergency,
		IsUrgent:        req.IsUrgent,
		TowingRequested: req.TowingRequested,
		ScheduledAt:     scheduledAt.In(s.location),
	}

	resp.DistanceKm = distance
	resp.PriceBreakdown = s.pricing.Calculate(in)
	resp.Estimate = s.pricing.Estimate(in)

	s.metrics.PriceQuote(vehicle)
	s.log.Debug("Price quoted",
		zap.String("service_id", service.ID.String()),
		zap.String("vehicle_type", vehicle),
		zap.Float64("distance_km", distance),
		zap.Float64("total", resp.PriceBreakdown.Total),
	)

	return resp, nil
}

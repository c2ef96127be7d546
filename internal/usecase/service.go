package usecase

import (
	"roadside-assist/internal/data/repository"
	"roadside-assist/pkg/metrics"
	"roadside-assist/pkg/rabbitmq"
	"roadside-assist/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth           AuthService
	Payment        PaymentService
	BookingPayment BookingPaymentService
	Membership     MembershipService
	Pricing        PricingService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	gateway PaymentGateway,
	publisher rabbitmq.Publisher,
	recorder metrics.Recorder,
	log *zap.Logger,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	notifier := NewNotifier(repo.Notification, publisher, log)

	return &Service{
		Auth:           NewAuthService(repo, log),
		Payment:        NewPaymentService(repo, gateway, notifier, recorder, config, log),
		BookingPayment: NewBookingPaymentService(repo, notifier, recorder, config, log),
		Membership:     NewMembershipService(repo, log),
		Pricing:        NewPricingService(repo, recorder, config, log),
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roadside-assist/internal/billing"
	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/data/repository"
	"roadside-assist/internal/dto/request"
	"roadside-assist/internal/dto/response"
	"roadside-assist/pkg/metrics"
	"roadside-assist/pkg/sslcommerz"
	"roadside-assist/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentGateway is the hosted checkout provider.
type PaymentGateway interface {
	InitSession(ctx context.Context, req sslcommerz.InitRequest) (*sslcommerz.InitResponse, error)
	VerifySignature(valID, verifySign string) error
	IsLive() bool
}

type PaymentService interface {
	// Checkout
	InitSubscriptionPayment(ctx context.Context, actor Actor, req *request.InitSubscriptionPaymentRequest) (*response.CheckoutResponse, error)
	InitBookingPayment(ctx context.Context, actor Actor, bookingID string, req *request.InitBookingPaymentRequest) (*response.CheckoutResponse, error)

	// Settlement
	HandleIPN(ctx context.Context, req *request.IPNRequest) (*response.IPNResult, error)
	RefundPayment(ctx context.Context, actor Actor, paymentID string, req *request.RefundRequest) (*response.RefundResponse, error)

	GetUserPayments(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.PaymentResponse], error)
}

type paymentService struct {
	repo     *repository.Repository
	gateway  PaymentGateway
	notifier Notifier
	metrics  metrics.Recorder
	config   *utils.Config
	now      func() time.Time
	log      *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	gateway PaymentGateway,
	notifier Notifier,
	recorder metrics.Recorder,
	config *utils.Config,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		metrics:  recorder,
		config:   config,
		now:      time.Now,
		log:      log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) callbackURLs(area string) (success, fail, cancel, ipn string) {
	base := s.config.App.BaseURL
	return base + "/api/" + area + "/success",
		base + "/api/" + area + "/fail",
		base + "/api/" + area + "/cancel",
		base + "/api/payments/ipn"
}

func customerFor(user *entity.User, info request.BillingInfo) sslcommerz.Customer {
	c := sslcommerz.Customer{
		Name:    info.Name,
		Email:   info.Email,
		Phone:   info.Phone,
		Address: info.Address,
		City:    info.City,
		Country: info.Country,
	}
	if c.Name == "" {
		c.Name = user.Name
	}
	if c.Email == "" {
		c.Email = user.Email
	}
	if c.Phone == "" && user.Phone != nil {
		c.Phone = *user.Phone
	}
	if c.Address == "" {
		c.Address = "Dhaka"
	}
	if c.City == "" {
		c.City = "Dhaka"
	}
	if c.Country == "" {
		c.Country = "Bangladesh"
	}
	return c
}

func (s *paymentService) InitSubscriptionPayment(ctx context.Context, actor Actor, req *request.InitSubscriptionPaymentRequest) (*response.CheckoutResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid plan ID", ErrValidation)
	}

	plan, err := s.repo.Plan.FindByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: plan %s", ErrNotFound, req.PlanID)
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("%w: plan %s is not available", ErrValidation, plan.Name)
	}

	user, err := s.repo.User.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
	}

	cycle := entity.BillingCycle(req.BillingCycle)
	amount := plan.PriceFor(cycle)
	if amount <= 0 {
		return nil, fmt.Errorf("%w: plan %s has no %s price", ErrValidation, plan.Name, cycle)
	}

	now := s.now()
	currency := s.config.Gateway.Currency
	planName := plan.Name

	sub := &entity.Subscription{
		BaseNoDelete: entity.NewBaseNoDelete(now),
		UserID:       user.ID,
		PlanID:       &plan.ID,
		PlanName:     &planName,
		Status:       entity.SubscriptionStatusPending,
		BillingCycle: cycle,
		StartDate:    now,
		EndDate:      now.Add(cycle.Period()),
		Amount:       amount,
		Currency:     currency,
	}

	txnID := utils.GenerateTransactionID("TXN", user.ID, now)
	payment := &entity.Payment{
		BaseNoDelete:   entity.NewBaseNoDelete(now),
		UserID:         user.ID,
		SubjectType:    entity.SubjectSubscription,
		SubscriptionID: &sub.ID,
		Type:           entity.PaymentTypeSubscription,
		Amount:         amount,
		Currency:       currency,
		Status:         entity.PaymentStatusPending,
		PaymentMethod:  entity.PaymentMethodGateway,
		TransactionID:  &txnID,
		Metadata: entity.PaymentMetadata{
			Description:  fmt.Sprintf("%s subscription (%s)", plan.Name, cycle),
			InitiatedBy:  string(actor.Role),
			BillingCycle: cycle,
			PlanName:     plan.Name,
		},
	}

	err = s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Subscription.Create(ctx, sub); err != nil {
			return err
		}
		return tx.Payment.Create(ctx, payment)
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout records: %w", err)
	}

	successURL, failURL, cancelURL, ipnURL := s.callbackURLs("payments")
	session, err := s.gateway.InitSession(ctx, sslcommerz.InitRequest{
		Amount:          amount,
		Currency:        currency,
		TransactionID:   txnID,
		SuccessURL:      successURL,
		FailURL:         failURL,
		CancelURL:       cancelURL,
		IPNURL:          ipnURL,
		ProductName:     plan.Name + " Subscription",
		ProductCategory: "Subscription",
		ProductProfile:  "non-physical-goods",
		Customer:        customerFor(user, req.BillingInfo),
		ValueA:          payment.ID.String(),
		ValueB:          sub.ID.String(),
		ValueC:          string(cycle),
	})
	if err != nil {
		return nil, s.abortCheckout(ctx, payment, sub, err)
	}

	if err := s.repo.Payment.SetSessionKey(ctx, payment.ID, session.SessionKey); err != nil {
		s.log.Warn("Failed to store gateway session key",
			zap.Error(err),
			zap.String("payment_id", payment.ID.String()),
		)
	}

	s.log.Info("Subscription checkout started",
		zap.String("payment_id", payment.ID.String()),
		zap.String("subscription_id", sub.ID.String()),
		zap.String("transaction_id", txnID),
		zap.Float64("amount", amount),
	)

	return &response.CheckoutResponse{
		PaymentID:      payment.ID.String(),
		SubscriptionID: sub.ID.String(),
		TransactionID:  txnID,
		Amount:         amount,
		Currency:       currency,
		GatewayURL:     session.GatewayPageURL,
	}, nil
}

func (s *paymentService) InitBookingPayment(ctx context.Context, actor Actor, bookingID string, req *request.InitBookingPaymentRequest) (*response.CheckoutResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID", ErrValidation)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
	}
	if booking.UserID != actor.UserID && actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
	}
	if booking.IsPaid {
		return nil, fmt.Errorf("%w: booking is already paid", ErrConflict)
	}

	amount := booking.PayableAmount(0)
	if amount <= 0 {
		return nil, fmt.Errorf("%w: booking has no payable amount", ErrValidation)
	}

	payer, err := s.repo.User.FindByID(ctx, booking.UserID)
	if err != nil {
		return nil, fmt.Errorf("load payer: %w", err)
	}
	if payer == nil {
		return nil, fmt.Errorf("%w: booking owner", ErrNotFound)
	}

	now := s.now()
	split, err := commissionFor(ctx, s.repo, booking, amount, now)
	if err != nil {
		return nil, err
	}

	currency := s.config.Gateway.Currency
	txnID := utils.GenerateTransactionID("TXN-B", booking.ID, now)
	payment := &entity.Payment{
		BaseNoDelete:  entity.NewBaseNoDelete(now),
		UserID:        booking.UserID,
		SubjectType:   entity.SubjectBooking,
		BookingID:     &booking.ID,
		Type:          entity.PaymentTypeServiceFee,
		Amount:        amount,
		Currency:      currency,
		Status:        entity.PaymentStatusPending,
		PaymentMethod: entity.PaymentMethodGateway,
		TransactionID: &txnID,
		Metadata: entity.PaymentMetadata{
			Description:     "Service Payment - Booking #" + booking.BookingNumber,
			InitiatedBy:     string(actor.Role),
			CommissionSplit: &split,
			PriceBreakdown:  booking.PriceBreakdown,
		},
	}

	if err := s.repo.Payment.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create booking payment: %w", err)
	}

	successURL, failURL, cancelURL, ipnURL := s.callbackURLs("bookings/payment")
	session, err := s.gateway.InitSession(ctx, sslcommerz.InitRequest{
		Amount:          amount,
		Currency:        currency,
		TransactionID:   txnID,
		SuccessURL:      successURL,
		FailURL:         failURL,
		CancelURL:       cancelURL,
		IPNURL:          ipnURL,
		ProductName:     "Booking Service #" + booking.BookingNumber,
		ProductCategory: "Service",
		ProductProfile:  "general",
		Customer:        customerFor(payer, req.BillingInfo),
		ValueA:          payment.ID.String(),
		ValueB:          booking.ID.String(),
	})
	if err != nil {
		return nil, s.abortCheckout(ctx, payment, nil, err)
	}

	if err := s.repo.Payment.SetSessionKey(ctx, payment.ID, session.SessionKey); err != nil {
		s.log.Warn("Failed to store gateway session key",
			zap.Error(err),
			zap.String("payment_id", payment.ID.String()),
		)
	}

	return &response.CheckoutResponse{
		PaymentID:     payment.ID.String(),
		BookingID:     booking.ID.String(),
		TransactionID: txnID,
		Amount:        amount,
		Currency:      currency,
		GatewayURL:    session.GatewayPageURL,
	}, nil
}

// abortCheckout records a rejected gateway init: the payment fails with the
// gateway's reason and the subscription, if any, is cancelled.
func (s *paymentService) abortCheckout(ctx context.Context, payment *entity.Payment, sub *entity.Subscription, cause error) error {
	reason := cause.Error()
	var initErr *sslcommerz.InitError
	if errors.As(cause, &initErr) && initErr.Reason != "" {
		reason = initErr.Reason
	}

	s.log.Error("Gateway session init failed",
		zap.Error(cause),
		zap.String("payment_id", payment.ID.String()),
		zap.String("reason", reason),
	)

	err := s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Payment.TransitionStatus(ctx, payment.ID, repository.PaymentTransition{
			From:         entity.PaymentStatusPending,
			To:           entity.PaymentStatusFailed,
			ErrorMessage: &reason,
		}); err != nil {
			return err
		}
		if sub == nil {
			return nil
		}
		_, err := tx.Subscription.TransitionStatus(ctx, sub.ID, entity.SubscriptionStatusPending, entity.SubscriptionStatusCancelled)
		return err
	})
	if err != nil {
		s.log.Error("Failed to record aborted checkout",
			zap.Error(err),
			zap.String("payment_id", payment.ID.String()),
		)
	}

	s.metrics.Settlement("init", string(entity.PaymentStatusFailed))
	return fmt.Errorf("%w: payment gateway rejected the session: %s", ErrUpstreamFailure, reason)
}

func (s *paymentService) GetUserPayments(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.PaymentResponse], error) {
	limit := req.Limit()
	offset := req.Offset()

	payments, err := s.repo.Payment.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	total, err := s.repo.Payment.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}

	items := make([]response.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, response.NewPaymentResponse(p))
	}

	return response.NewPaginatedResponse(items, req.Page, limit, total), nil
}

// commissionFor splits amount using the booking garage's tier as of now.
// Bookings without a garage pay the standard rate.
func commissionFor(ctx context.Context, repo *repository.Repository, booking *entity.Booking, amount float64, now time.Time) (billing.CommissionSplit, error) {
	if booking.GarageID == nil {
		return billing.SplitCommission(amount, billing.TierFree), nil
	}

	garage, err := repo.Garage.FindByID(ctx, *booking.GarageID)
	if err != nil {
		return billing.CommissionSplit{}, fmt.Errorf("load garage: %w", err)
	}
	if garage == nil {
		return billing.SplitCommission(amount, billing.TierFree), nil
	}

	tier, _ := billing.ParseTier(string(garage.MembershipTier))
	return billing.SplitCommissionAt(amount, tier, garage.MembershipExpiry, now), nil
}

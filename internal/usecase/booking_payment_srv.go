package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/data/repository"
	"roadside-assist/internal/dto/request"
	"roadside-assist/internal/dto/response"
	"roadside-assist/pkg/metrics"
	"roadside-assist/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingPaymentService settles cash and bank-transfer payments for bookings.
// A garage or admin submitting a payment confirms it; a user submitting one
// only claims it, and the garage verifies the claim later. The assigned
// mechanic closes the job and may collect cash.
type BookingPaymentService interface {
	SubmitPayment(ctx context.Context, actor Actor, bookingID string, req *request.ManualPaymentRequest) (*response.PaymentResponse, error)
	VerifyPayment(ctx context.Context, actor Actor, bookingID string, req *request.VerifyPaymentRequest) (*response.PaymentResponse, error)
	ConfirmJobPayment(ctx context.Context, actor Actor, bookingID string, req *request.ConfirmJobPaymentRequest) (*response.JobCompletionResponse, error)
}

type bookingPaymentService struct {
	repo     *repository.Repository
	notifier Notifier
	metrics  metrics.Recorder
	config   *utils.Config
	now      func() time.Time
	log      *zap.Logger
}

func NewBookingPaymentService(repo *repository.Repository, notifier Notifier, recorder metrics.Recorder, config *utils.Config, log *zap.Logger) BookingPaymentService {
	return &bookingPaymentService{
		repo:     repo,
		notifier: notifier,
		metrics:  recorder,
		config:   config,
		now:      time.Now,
		log:      log.With(zap.String("service", "booking_payment")),
	}
}

// authorizeBookingAccess checks that actor may act on the booking's payment.
// Users act on their own bookings, garages on bookings they serve.
func authorizeBookingAccess(ctx context.Context, repo *repository.Repository, actor Actor, booking *entity.Booking) (*entity.Garage, error) {
	var garage *entity.Garage
	if booking.GarageID != nil {
		g, err := repo.Garage.FindByID(ctx, *booking.GarageID)
		if err != nil {
			return nil, fmt.Errorf("load garage: %w", err)
		}
		garage = g
	}

	switch actor.Role {
	case entity.RoleAdmin:
		return garage, nil
	case entity.RoleGarage:
		if garage == nil || garage.OwnerID != actor.UserID {
			return nil, fmt.Errorf("%w: booking is not served by your garage", ErrForbidden)
		}
		return garage, nil
	case entity.RoleUser:
		if booking.UserID != actor.UserID {
			return nil, fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
		}
		return garage, nil
	default:
		return nil, fmt.Errorf("%w: role %s cannot pay for bookings", ErrForbidden, actor.Role)
	}
}

func (s *bookingPaymentService) SubmitPayment(ctx context.Context, actor Actor, bookingID string, req *request.ManualPaymentRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	if entity.IsReservedPaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod))) {
		return nil, fmt.Errorf("%w: %s payments cannot be recorded manually", ErrValidation, req.PaymentMethod)
	}

	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID", ErrValidation)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
	}

	garage, err := authorizeBookingAccess(ctx, s.repo, actor, booking)
	if err != nil {
		return nil, err
	}
	if booking.IsPaid {
		return nil, fmt.Errorf("%w: booking is already paid", ErrConflict)
	}

	amount := booking.PayableAmount(req.Amount)
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	var txnID *string
	if req.TransactionID != "" {
		existing, err := s.repo.Payment.FindByTransactionID(ctx, req.TransactionID)
		if err != nil {
			return nil, fmt.Errorf("check transaction id: %w", err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: transaction id already used", ErrConflict)
		}
		txn := req.TransactionID
		txnID = &txn
	}

	now := s.now()
	split, err := commissionFor(ctx, s.repo, booking, amount, now)
	if err != nil {
		return nil, err
	}

	confirming := actor.Role.CanConfirmPayments()
	payment := &entity.Payment{
		BaseNoDelete:  entity.NewBaseNoDelete(now),
		UserID:        booking.UserID,
		SubjectType:   entity.SubjectBooking,
		BookingID:     &booking.ID,
		Type:          entity.PaymentTypeServiceFee,
		Amount:        amount,
		Currency:      s.config.Gateway.Currency,
		Status:        entity.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
		TransactionID: txnID,
		Metadata: entity.PaymentMetadata{
			Description:     "Payment for Booking #" + booking.BookingNumber,
			InitiatedBy:     string(actor.Role),
			CommissionSplit: &split,
			PriceBreakdown:  booking.PriceBreakdown,
		},
	}
	if confirming {
		payment.Status = entity.PaymentStatusSuccess
		payment.PaidAt = &now
	}

	err = s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		locked, err := tx.Booking.FindByIDForUpdate(ctx, booking.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		if locked.IsPaid {
			return fmt.Errorf("%w: booking is already paid", ErrConflict)
		}

		if err := tx.Payment.Create(ctx, payment); err != nil {
			return err
		}
		if !confirming {
			return nil
		}

		paid, err := tx.Booking.MarkPaid(ctx, booking.ID, paymentInfo(payment, now), nil)
		if err != nil {
			return err
		}
		if !paid {
			return fmt.Errorf("%w: booking is already paid", ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Settlement("manual", string(payment.Status))
	s.log.Info("Manual payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.String("status", string(payment.Status)),
		zap.String("initiated_by", string(actor.Role)),
		zap.Float64("amount", amount),
		zap.Float64("platform_fee", split.PlatformFee),
	)

	if confirming {
		s.notifier.Notify(ctx, newNotification(booking.UserID, entity.NotificationPayment,
			"Payment Received",
			fmt.Sprintf("Your payment of ৳%.2f for Booking #%s has been received.", amount, booking.BookingNumber),
			"/user/dashboard/bookings/"+booking.ID.String(), now))
	} else if garage != nil {
		s.notifier.Notify(ctx, newNotification(garage.OwnerID, entity.NotificationPayment,
			"Payment Submitted",
			fmt.Sprintf("A payment of ৳%.2f for Booking #%s is waiting for your verification.", amount, booking.BookingNumber),
			"/garage/dashboard/bookings/"+booking.ID.String(), now))
	}

	resp := response.NewPaymentResponse(payment)
	return &resp, nil
}

func (s *bookingPaymentService) VerifyPayment(ctx context.Context, actor Actor, bookingID string, req *request.VerifyPaymentRequest) (*response.PaymentResponse, error) {
	if !actor.Role.CanConfirmPayments() {
		return nil, fmt.Errorf("%w: only the garage or an admin can verify payments", ErrForbidden)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	bID, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID", ErrValidation)
	}
	pID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payment ID", ErrValidation)
	}

	target := entity.PaymentStatus(req.Status)
	now := s.now()

	var (
		payment *entity.Payment
		booking *entity.Booking
		applied bool
	)
	err = s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		booking, err = tx.Booking.FindByIDForUpdate(ctx, bID)
		if err != nil {
			return err
		}
		if booking == nil {
			return fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		if _, err := authorizeBookingAccess(ctx, tx, actor, booking); err != nil {
			return err
		}

		payment, err = tx.Payment.FindByIDForUpdate(ctx, pID)
		if err != nil {
			return err
		}
		if payment == nil || payment.BookingID == nil || *payment.BookingID != booking.ID {
			return fmt.Errorf("%w: payment %s for this booking", ErrNotFound, req.PaymentID)
		}
		// Gateway payments settle only through IPN or validation.
		if !payment.SettlesManually() {
			return fmt.Errorf("%w: %s payments cannot be verified manually", ErrConflict, payment.PaymentMethod)
		}

		if payment.Status == target {
			return nil
		}
		if payment.Status != entity.PaymentStatusPending {
			return fmt.Errorf("%w: payment is already %s", ErrConflict, payment.Status)
		}

		t := repository.PaymentTransition{From: entity.PaymentStatusPending, To: target}
		if target == entity.PaymentStatusSuccess {
			t.PaidAt = &now
		} else {
			msg := "Rejected by " + string(actor.Role)
			t.ErrorMessage = &msg
		}

		moved, err := tx.Payment.TransitionStatus(ctx, payment.ID, t)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("%w: payment changed while verifying", ErrConflict)
		}

		payment.Status = target
		if target == entity.PaymentStatusSuccess {
			payment.PaidAt = &now
			paid, err := tx.Booking.MarkPaid(ctx, booking.ID, paymentInfo(payment, now), nil)
			if err != nil {
				return err
			}
			if !paid {
				return fmt.Errorf("%w: booking is already paid", ErrConflict)
			}
		}

		applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.metrics.Settlement("manual_verify", string(target))
		s.log.Info("Manual payment verified",
			zap.String("payment_id", payment.ID.String()),
			zap.String("booking_id", booking.ID.String()),
			zap.String("status", string(target)),
			zap.String("verified_by", actor.UserID.String()),
		)

		link := "/user/dashboard/bookings/" + booking.ID.String()
		if target == entity.PaymentStatusSuccess {
			s.notifier.Notify(ctx, newNotification(booking.UserID, entity.NotificationPayment,
				"Payment Verified",
				fmt.Sprintf("Your payment of ৳%.2f for Booking #%s has been verified.", payment.Amount, booking.BookingNumber),
				link, now))
		} else {
			s.notifier.Notify(ctx, newNotification(booking.UserID, entity.NotificationPayment,
				"Payment Rejected",
				fmt.Sprintf("Your payment for Booking #%s could not be verified. Please contact the garage.", booking.BookingNumber),
				link, now))
		}
	}

	resp := response.NewPaymentResponse(payment)
	return &resp, nil
}

func paymentInfo(p *entity.Payment, paidAt time.Time) entity.PaymentInfo {
	info := entity.PaymentInfo{
		PaymentID: p.ID,
		Method:    p.PaymentMethod,
		Amount:    p.Amount,
		PaidAt:    paidAt,
	}
	if p.TransactionID != nil {
		info.TransactionID = *p.TransactionID
	}
	return info
}

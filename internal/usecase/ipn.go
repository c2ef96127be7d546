package usecase

import (
	"context"
	"fmt"
	"strings"

	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/data/repository"
	"roadside-assist/internal/dto/request"
	"roadside-assist/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// gatewayOutcome maps the gateway's status field to the payment status it
// settles to.
func gatewayOutcome(status string) (entity.PaymentStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "VALID", "VALIDATED":
		return entity.PaymentStatusSuccess, true
	case "FAILED":
		return entity.PaymentStatusFailed, true
	case "CANCELLED":
		return entity.PaymentStatusCancelled, true
	default:
		return "", false
	}
}

func (s *paymentService) verifyIPNSignature(req *request.IPNRequest) error {
	err := s.gateway.VerifySignature(req.ValID, req.VerifySign)
	if err == nil {
		return nil
	}

	if s.gateway.IsLive() {
		s.metrics.SignatureFailure("live")
		s.log.Error("Rejected gateway notification with invalid signature",
			zap.Bool("security_incident", true),
			zap.Error(err),
			zap.String("tran_id", req.TranID),
			zap.String("payment_id", req.ValueA),
		)
		return fmt.Errorf("%w: invalid gateway signature", ErrSecurityViolation)
	}

	s.metrics.SignatureFailure("sandbox")
	s.log.Warn("Gateway signature did not verify, continuing in sandbox mode",
		zap.Error(err),
		zap.String("tran_id", req.TranID),
	)
	return nil
}

// settlement collects what a committed transition must announce.
type settlement struct {
	applied bool
	notes   []*entity.Notification
}

// HandleIPN settles the payment named by a gateway notification. The payment
// row is locked for the whole transaction and every status change is a
// compare-and-swap, so redelivered notifications apply their effects once.
func (s *paymentService) HandleIPN(ctx context.Context, req *request.IPNRequest) (*response.IPNResult, error) {
	if req.TranID == "" || req.Status == "" || req.ValueA == "" {
		return nil, fmt.Errorf("%w: tran_id, status and value_a are required", ErrValidation)
	}

	if err := s.verifyIPNSignature(req); err != nil {
		return nil, err
	}

	paymentID, err := uuid.Parse(req.ValueA)
	if err != nil {
		return nil, fmt.Errorf("%w: value_a is not a payment id", ErrValidation)
	}

	target, ok := gatewayOutcome(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported gateway status %q", ErrValidation, req.Status)
	}

	var (
		result  settlement
		current entity.PaymentStatus
	)
	err = s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		payment, err := tx.Payment.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
		}
		if payment.TransactionID == nil || *payment.TransactionID != req.TranID {
			return fmt.Errorf("%w: tran_id does not match payment", ErrValidation)
		}

		current = payment.Status
		if payment.Status == target {
			return nil
		}
		if payment.Status != entity.PaymentStatusPending {
			s.log.Warn("Ignoring gateway notification for settled payment",
				zap.String("payment_id", payment.ID.String()),
				zap.String("current_status", string(payment.Status)),
				zap.String("reported_status", req.Status),
			)
			return nil
		}

		switch payment.SubjectType {
		case entity.SubjectSubscription:
			result, err = s.settleSubscription(ctx, tx, payment, req, target)
		case entity.SubjectBooking:
			result, err = s.settleBooking(ctx, tx, payment, req, target)
		default:
			err = fmt.Errorf("payment %s has unknown subject %q", payment.ID, payment.SubjectType)
		}
		if err != nil {
			return err
		}
		if result.applied {
			current = target
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.applied {
		s.metrics.Settlement("ipn", string(target))
		s.log.Info("Payment settled by gateway",
			zap.String("payment_id", paymentID.String()),
			zap.String("status", string(target)),
			zap.String("tran_id", req.TranID),
		)
		s.notifier.Notify(ctx, result.notes...)
	} else {
		s.metrics.Settlement("ipn", "replay")
	}

	return &response.IPNResult{
		PaymentID: paymentID.String(),
		Status:    string(current),
		Applied:   result.applied,
	}, nil
}

func (s *paymentService) transitionFromGateway(ctx context.Context, tx *repository.Repository, payment *entity.Payment, req *request.IPNRequest, target entity.PaymentStatus) (bool, error) {
	t := repository.PaymentTransition{From: entity.PaymentStatusPending, To: target}
	now := s.now()

	switch target {
	case entity.PaymentStatusSuccess:
		t.PaidAt = &now
		if req.ValID != "" {
			valID := req.ValID
			t.ValidationID = &valID
		}
	default:
		msg := "Gateway reported " + strings.ToUpper(req.Status)
		t.ErrorMessage = &msg
	}

	return tx.Payment.TransitionStatus(ctx, payment.ID, t)
}

func (s *paymentService) settleSubscription(ctx context.Context, tx *repository.Repository, payment *entity.Payment, req *request.IPNRequest, target entity.PaymentStatus) (settlement, error) {
	subID := payment.SubscriptionID
	if req.ValueB != "" {
		parsed, err := uuid.Parse(req.ValueB)
		if err != nil {
			return settlement{}, fmt.Errorf("%w: value_b is not a subscription id", ErrValidation)
		}
		if subID != nil && *subID != parsed {
			return settlement{}, fmt.Errorf("%w: value_b does not match payment", ErrValidation)
		}
		subID = &parsed
	}
	if subID == nil {
		return settlement{}, fmt.Errorf("%w: subscription for payment %s", ErrNotFound, payment.ID)
	}

	sub, err := tx.Subscription.FindByID(ctx, *subID)
	if err != nil {
		return settlement{}, err
	}
	if sub == nil {
		return settlement{}, fmt.Errorf("%w: subscription %s", ErrNotFound, subID)
	}

	var plan *entity.Plan
	if target == entity.PaymentStatusSuccess {
		if sub.PlanID != nil {
			if plan, err = tx.Plan.FindByID(ctx, *sub.PlanID); err != nil {
				return settlement{}, err
			}
		}
		if plan == nil {
			return settlement{}, fmt.Errorf("%w: plan for subscription %s", ErrNotFound, sub.ID)
		}
	}

	moved, err := s.transitionFromGateway(ctx, tx, payment, req, target)
	if err != nil || !moved {
		return settlement{}, err
	}

	subTarget := entity.SubscriptionStatusCancelled
	if target == entity.PaymentStatusSuccess {
		subTarget = entity.SubscriptionStatusActive
	}
	activated, err := tx.Subscription.TransitionStatus(ctx, sub.ID, entity.SubscriptionStatusPending, subTarget)
	if err != nil {
		return settlement{}, err
	}

	now := s.now()
	out := settlement{applied: true}

	if target != entity.PaymentStatusSuccess {
		out.notes = append(out.notes, newNotification(payment.UserID, entity.NotificationPayment,
			"Payment Unsuccessful",
			fmt.Sprintf("Your subscription payment %s was not completed.", req.TranID),
			"/user/dashboard/subscription", now))
		return out, nil
	}

	if !activated {
		s.log.Error("Subscription was not pending when its payment succeeded; entitlement not applied",
			zap.String("payment_id", payment.ID.String()),
			zap.String("subscription_id", sub.ID.String()),
			zap.String("subscription_status", string(sub.Status)),
		)
		return out, nil
	}

	if err := applyEntitlement(ctx, tx, sub, plan, s.log); err != nil {
		return settlement{}, err
	}

	out.notes = append(out.notes, newNotification(payment.UserID, entity.NotificationSubscription,
		"Subscription Activated",
		fmt.Sprintf("Your %s plan is active until %s.", plan.Name, sub.EndDate.Format("02 Jan 2006")),
		"/user/dashboard/subscription", now))
	return out, nil
}

func (s *paymentService) settleBooking(ctx context.Context, tx *repository.Repository, payment *entity.Payment, req *request.IPNRequest, target entity.PaymentStatus) (settlement, error) {
	if payment.BookingID == nil {
		return settlement{}, fmt.Errorf("%w: booking for payment %s", ErrNotFound, payment.ID)
	}
	if req.ValueB != "" && req.ValueB != payment.BookingID.String() {
		return settlement{}, fmt.Errorf("%w: value_b does not match payment", ErrValidation)
	}

	booking, err := tx.Booking.FindByIDForUpdate(ctx, *payment.BookingID)
	if err != nil {
		return settlement{}, err
	}
	if booking == nil {
		return settlement{}, fmt.Errorf("%w: booking %s", ErrNotFound, payment.BookingID)
	}

	moved, err := s.transitionFromGateway(ctx, tx, payment, req, target)
	if err != nil || !moved {
		return settlement{}, err
	}

	now := s.now()
	out := settlement{applied: true}
	link := "/user/dashboard/bookings/" + booking.ID.String()

	if target != entity.PaymentStatusSuccess {
		out.notes = append(out.notes, newNotification(booking.UserID, entity.NotificationPayment,
			"Payment Unsuccessful",
			fmt.Sprintf("Your payment for Booking #%s was not completed.", booking.BookingNumber),
			link, now))
		return out, nil
	}

	completed := entity.BookingStatusCompleted
	paid, err := tx.Booking.MarkPaid(ctx, booking.ID, entity.PaymentInfo{
		PaymentID:     payment.ID,
		Method:        payment.PaymentMethod,
		TransactionID: req.TranID,
		Amount:        payment.Amount,
		PaidAt:        now,
	}, &completed)
	if err != nil {
		return settlement{}, err
	}
	if !paid {
		s.log.Warn("Booking was already paid by another payment",
			zap.String("booking_id", booking.ID.String()),
			zap.String("payment_id", payment.ID.String()),
		)
	}

	out.notes = append(out.notes, newNotification(booking.UserID, entity.NotificationPayment,
		"Payment Successful",
		fmt.Sprintf("Your payment of ৳%.2f has been confirmed for Booking #%s.", payment.Amount, booking.BookingNumber),
		link, now))

	if owner, err := garageOwner(ctx, tx, booking); err != nil {
		s.log.Warn("Failed to resolve garage owner for notification", zap.Error(err))
	} else if owner != uuid.Nil {
		out.notes = append(out.notes, newNotification(owner, entity.NotificationPayment,
			"Payment Received",
			fmt.Sprintf("Payment of ৳%.2f confirmed for Booking #%s.", payment.Amount, booking.BookingNumber),
			"/garage/dashboard/bookings/"+booking.ID.String(), now))
	}

	return out, nil
}

// garageOwner returns uuid.Nil when the booking has no garage.
func garageOwner(ctx context.Context, repo *repository.Repository, booking *entity.Booking) (uuid.UUID, error) {
	if booking.GarageID == nil {
		return uuid.Nil, nil
	}
	garage, err := repo.Garage.FindByID(ctx, *booking.GarageID)
	if err != nil {
		return uuid.Nil, err
	}
	if garage == nil {
		return uuid.Nil, nil
	}
	return garage.OwnerID, nil
}

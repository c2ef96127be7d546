package usecase

import (
	"context"
	"fmt"

	"roadside-assist/internal/billing"
	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/data/repository"
	"roadside-assist/internal/dto/request"
	"roadside-assist/internal/dto/response"
	"roadside-assist/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	jobPaymentCash   = "cash"
	jobPaymentOnline = "online"
)

// ConfirmJobPayment closes a job for the mechanic assigned to it. Cash jobs
// record a settled cash payment on the spot; online jobs must already be paid
// through the gateway. Either way the booking is completed and the customer
// earns reward points at their tier's multiplier.
func (s *bookingPaymentService) ConfirmJobPayment(ctx context.Context, actor Actor, bookingID string, req *request.ConfirmJobPaymentRequest) (*response.JobCompletionResponse, error) {
	if actor.Role != entity.RoleMechanic {
		return nil, fmt.Errorf("%w: only mechanics can confirm job payments", ErrForbidden)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID", ErrValidation)
	}

	now := s.now()
	var (
		booking *entity.Booking
		payment *entity.Payment
		tier    billing.Tier
		points  int
		cost    float64
	)

	err = s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		booking, err = tx.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		// Bookings assigned to someone else are reported as missing.
		if booking == nil || !booking.AssignedTo(actor.UserID) {
			return fmt.Errorf("%w: booking %s not assigned to you", ErrNotFound, bookingID)
		}
		if booking.Status == entity.BookingStatusCompleted || booking.Status == entity.BookingStatusCancelled {
			return fmt.Errorf("%w: booking is already %s", ErrConflict, booking.Status)
		}

		cost = booking.PayableAmount(0)

		switch req.Method {
		case jobPaymentCash:
			if booking.IsPaid {
				return fmt.Errorf("%w: booking is already paid", ErrConflict)
			}
			payment, err = s.recordCashPayment(ctx, tx, actor, booking, cost)
			if err != nil {
				return err
			}
			booking.IsPaid = true
		case jobPaymentOnline:
			if !booking.IsPaid {
				return fmt.Errorf("%w: online payment not yet verified by system", ErrValidation)
			}
		}

		completed, err := tx.Booking.CompleteJob(ctx, booking.ID, now)
		if err != nil {
			return err
		}
		if !completed {
			return fmt.Errorf("%w: booking changed while completing", ErrConflict)
		}
		booking.Status = entity.BookingStatusCompleted
		booking.CompletedAt = &now

		tier, err = s.customerTier(ctx, tx, booking.UserID)
		if err != nil {
			return err
		}
		points = billing.RewardPoints(cost, tier)

		if err := tx.User.AwardPoints(ctx, booking.UserID, points, cost); err != nil {
			return err
		}
		if points == 0 {
			return nil
		}

		mult := billing.RewardMultiplier(tier)
		return tx.Points.Create(ctx, &entity.PointsRecord{
			BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
			UserID:     booking.UserID,
			Points:     points,
			Type:       entity.PointsEarn,
			Reason:     fmt.Sprintf("Completed Service: %s (%dx Tier Bonus)", booking.BookingNumber, mult),
			Metadata: entity.PointsMetadata{
				BookingID:  booking.ID,
				Cost:       cost,
				Tier:       tier,
				Multiplier: mult,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Settlement("mechanic", req.Method)
	s.log.Info("Job payment confirmed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("mechanic_id", actor.UserID.String()),
		zap.String("method", req.Method),
		zap.Float64("cost", cost),
		zap.Int("points", points),
		zap.String("tier", tier.String()),
	)

	link := "/user/dashboard/bookings/" + booking.ID.String()
	if payment != nil {
		s.notifier.Notify(ctx, newNotification(booking.UserID, entity.NotificationPayment,
			"Payment Received", "Mechanic confirmed cash payment. Thank you!", link, now))
	} else {
		s.notifier.Notify(ctx, newNotification(booking.UserID, entity.NotificationBooking,
			"Service Completed",
			fmt.Sprintf("Booking #%s is complete. You earned %d reward points.", booking.BookingNumber, points),
			link, now))
	}

	resp := &response.JobCompletionResponse{
		BookingID:    booking.ID.String(),
		Status:       string(booking.Status),
		IsPaid:       booking.IsPaid,
		PointsEarned: points,
		Multiplier:   billing.RewardMultiplier(tier),
		Tier:         tier.String(),
	}
	if payment != nil {
		p := response.NewPaymentResponse(payment)
		resp.Payment = &p
	}
	return resp, nil
}

// recordCashPayment writes the settled cash payment collected by the mechanic
// and marks the booking paid.
func (s *bookingPaymentService) recordCashPayment(ctx context.Context, tx *repository.Repository, actor Actor, booking *entity.Booking, amount float64) (*entity.Payment, error) {
	now := s.now()
	split, err := commissionFor(ctx, tx, booking, amount, now)
	if err != nil {
		return nil, err
	}

	payment := &entity.Payment{
		BaseNoDelete:  entity.NewBaseNoDelete(now),
		UserID:        booking.UserID,
		SubjectType:   entity.SubjectBooking,
		BookingID:     &booking.ID,
		Type:          entity.PaymentTypeServiceFee,
		Amount:        amount,
		Currency:      s.config.Gateway.Currency,
		Status:        entity.PaymentStatusSuccess,
		PaymentMethod: entity.PaymentMethodCash,
		PaidAt:        &now,
		Metadata: entity.PaymentMetadata{
			Description:     "Cash collected by mechanic",
			InitiatedBy:     string(actor.Role),
			ReceivedBy:      &actor.UserID,
			CommissionSplit: &split,
			PriceBreakdown:  booking.PriceBreakdown,
		},
	}
	if err := tx.Payment.Create(ctx, payment); err != nil {
		return nil, err
	}

	paid, err := tx.Booking.MarkPaid(ctx, booking.ID, paymentInfo(payment, now), nil)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, fmt.Errorf("%w: booking is already paid", ErrConflict)
	}
	return payment, nil
}

// customerTier resolves the tier that sets the points multiplier. Team
// memberships count; a failed membership lookup falls back to the personal
// tier.
func (s *bookingPaymentService) customerTier(ctx context.Context, tx *repository.Repository, userID uuid.UUID) (billing.Tier, error) {
	user, err := tx.User.FindByID(ctx, userID)
	if err != nil {
		return billing.TierFree, fmt.Errorf("load customer: %w", err)
	}
	if user == nil {
		return billing.TierFree, fmt.Errorf("%w: customer %s", ErrNotFound, userID)
	}

	memberships, err := tx.Membership.ListActiveByUser(ctx, userID)
	if err != nil {
		s.log.Warn("Failed to load organization memberships, using personal tier",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		memberships = nil
	}

	return billing.ResolveEffectiveTier(user.MembershipTier, user.MembershipExpiry, memberships, s.now()), nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"roadside-assist/internal/billing"
	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/data/repository"
	"roadside-assist/internal/dto/request"
	"roadside-assist/internal/dto/response"
	"roadside-assist/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// refundQuote prices a refund. An explicit amount overrides the
// cancellation policy; booking payments with a schedule follow the policy;
// everything else is refunded in full minus the processing fee.
func refundQuote(payment *entity.Payment, booking *entity.Booking, requested *float64, now time.Time) (billing.RefundQuote, error) {
	if requested != nil {
		if *requested > payment.Amount {
			return billing.RefundQuote{}, fmt.Errorf("%w: refund exceeds the paid amount", ErrValidation)
		}
		pct := decimal.NewFromFloat(*requested).
			Div(decimal.NewFromFloat(payment.Amount)).
			Mul(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
		return billing.RefundQuote{
			PaidAmount:       payment.Amount,
			RefundPercentage: int(pct),
			RefundAmount:     *requested,
			FinalRefund:      *requested,
		}, nil
	}
	if booking != nil && booking.ScheduledAt != nil {
		return billing.CancellationRefund(payment.Amount, *booking.ScheduledAt, now), nil
	}
	return billing.RefundAtPercentage(payment.Amount, 100), nil
}

// RefundPayment refunds a settled payment to the payer's wallet. The payment
// moves success -> refunded and a refund record is written in the same
// transaction. Whatever the payment bought is taken back there too: a
// subscription is cancelled and its membership reset, a booking loses its
// paid flag.
func (s *paymentService) RefundPayment(ctx context.Context, actor Actor, paymentID string, req *request.RefundRequest) (*response.RefundResponse, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins can refund payments", ErrForbidden)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payment ID", ErrValidation)
	}

	now := s.now()
	var (
		refunded *entity.Payment
		record   *entity.Payment
		quote    billing.RefundQuote
		revoked  bool
	)

	err = s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		payment, err := tx.Payment.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
		}
		if payment.Type == entity.PaymentTypeRefund {
			return fmt.Errorf("%w: refund records cannot be refunded", ErrValidation)
		}
		if payment.Status != entity.PaymentStatusSuccess {
			return fmt.Errorf("%w: payment is %s, only successful payments can be refunded", ErrConflict, payment.Status)
		}

		var booking *entity.Booking
		if payment.BookingID != nil {
			if booking, err = tx.Booking.FindByID(ctx, *payment.BookingID); err != nil {
				return err
			}
		}

		quote, err = refundQuote(payment, booking, req.Amount, now)
		if err != nil {
			return err
		}
		if quote.FinalRefund <= 0 {
			return fmt.Errorf("%w: nothing is refundable for this payment", ErrValidation)
		}

		refundRef := utils.GenerateRefundID(now)
		record = &entity.Payment{
			BaseNoDelete:   entity.NewBaseNoDelete(now),
			UserID:         payment.UserID,
			SubjectType:    payment.SubjectType,
			SubscriptionID: payment.SubscriptionID,
			BookingID:      payment.BookingID,
			Type:           entity.PaymentTypeRefund,
			Amount:         quote.FinalRefund,
			Currency:       payment.Currency,
			Status:         entity.PaymentStatusSuccess,
			PaymentMethod:  entity.PaymentMethodWallet,
			TransactionID:  &refundRef,
			PaidAt:         &now,
			Metadata: entity.PaymentMetadata{
				Description:       "Refund: " + req.Reason,
				InitiatedBy:       string(actor.Role),
				OriginalPaymentID: &payment.ID,
			},
		}
		if err := tx.Payment.Create(ctx, record); err != nil {
			return err
		}

		if err := tx.User.CreditWallet(ctx, payment.UserID, quote.FinalRefund); err != nil {
			return err
		}

		info := &entity.RefundInfo{
			Amount:           quote.FinalRefund,
			Percentage:       quote.RefundPercentage,
			ProcessingFee:    quote.ProcessingFee,
			Reason:           req.Reason,
			RefundedBy:       actor.UserID,
			RefundedAt:       now,
			RefundPaymentRef: refundRef,
		}
		moved, err := tx.Payment.TransitionStatus(ctx, payment.ID, repository.PaymentTransition{
			From:   entity.PaymentStatusSuccess,
			To:     entity.PaymentStatusRefunded,
			Refund: info,
		})
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("%w: payment changed while refunding", ErrConflict)
		}

		switch {
		case payment.SubscriptionID != nil:
			if revoked, err = revokeEntitlement(ctx, tx, *payment.SubscriptionID, s.log); err != nil {
				return err
			}
		case payment.BookingID != nil:
			if revoked, err = tx.Booking.MarkRefunded(ctx, *payment.BookingID, payment.ID, now); err != nil {
				return err
			}
		}

		payment.Status = entity.PaymentStatusRefunded
		payment.Refund = info
		refunded = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Settlement("refund", string(entity.PaymentStatusRefunded))
	s.log.Info("Payment refunded",
		zap.String("payment_id", refunded.ID.String()),
		zap.String("refund_payment_id", record.ID.String()),
		zap.Float64("amount", quote.FinalRefund),
		zap.String("admin_id", actor.UserID.String()),
		zap.Bool("entitlement_revoked", revoked),
	)

	s.notifier.Notify(ctx, newNotification(refunded.UserID, entity.NotificationPayment,
		"Refund Processed",
		fmt.Sprintf("৳%.2f has been credited to your wallet.", quote.FinalRefund),
		"/user/dashboard/wallet", now))

	return &response.RefundResponse{
		Payment:            response.NewPaymentResponse(refunded),
		RefundPaymentID:    record.ID.String(),
		RefundAmount:       quote.FinalRefund,
		Percentage:         quote.RefundPercentage,
		ProcessingFee:      quote.ProcessingFee,
		EntitlementRevoked: revoked,
	}, nil
}

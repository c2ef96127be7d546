package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roadside-assist/internal/data/entity"
	"roadside-assist/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)

	// MarkPaid flips is_paid once. It reports false when the booking was
	// already paid.
	MarkPaid(ctx context.Context, id uuid.UUID, info entity.PaymentInfo, status *entity.BookingStatus) (bool, error)

	// MarkRefunded clears is_paid and stamps refunded_at, but only while the
	// booking is still paid by paymentID.
	MarkRefunded(ctx context.Context, id, paymentID uuid.UUID, refundedAt time.Time) (bool, error)

	// CompleteJob moves an open booking to completed. It reports false when
	// the booking was already completed or cancelled.
	CompleteJob(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error)
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingSelect = `
	SELECT id, booking_number, user_id, garage_id, service_id,
	       assigned_mechanic_id, status, estimated_cost, actual_cost,
	       scheduled_at, is_paid, payment_info, price_breakdown,
	       created_at, updated_at, completed_at
	FROM bookings
	WHERE id = $1
`

func (r *bookingRepository) find(ctx context.Context, query string, id uuid.UUID) (*entity.Booking, error) {
	var booking entity.Booking
	err := r.db.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.BookingNumber,
		&booking.UserID,
		&booking.GarageID,
		&booking.ServiceID,
		&booking.MechanicID,
		&booking.Status,
		&booking.EstimatedCost,
		&booking.ActualCost,
		&booking.ScheduledAt,
		&booking.IsPaid,
		&booking.PaymentInfo,
		&booking.PriceBreakdown,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.CompletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return &booking, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.find(ctx, bookingSelect, id)
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.find(ctx, bookingSelect+` FOR UPDATE`, id)
}

func (r *bookingRepository) MarkPaid(ctx context.Context, id uuid.UUID, info entity.PaymentInfo, status *entity.BookingStatus) (bool, error) {
	query := `
		UPDATE bookings
		SET is_paid = TRUE, payment_info = $2, status = COALESCE($3, status), updated_at = NOW()
		WHERE id = $1 AND is_paid = FALSE
	`

	result, err := r.db.Exec(ctx, query, id, info, status)
	if err != nil {
		r.log.Error("Failed to mark booking paid",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("payment_id", info.PaymentID.String()),
		)
		return false, fmt.Errorf("mark booking %s paid: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) MarkRefunded(ctx context.Context, id, paymentID uuid.UUID, refundedAt time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET is_paid = FALSE,
		    payment_info = jsonb_set(payment_info, '{refunded_at}', to_jsonb($3::timestamptz)),
		    updated_at = NOW()
		WHERE id = $1 AND is_paid = TRUE AND payment_info->>'payment_id' = $2
	`

	result, err := r.db.Exec(ctx, query, id, paymentID.String(), refundedAt)
	if err != nil {
		r.log.Error("Failed to mark booking refunded",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("payment_id", paymentID.String()),
		)
		return false, fmt.Errorf("mark booking %s refunded: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) CompleteJob(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', completed_at = $2, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'cancelled')
	`

	result, err := r.db.Exec(ctx, query, id, completedAt)
	if err != nil {
		r.log.Error("Failed to complete booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("complete booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

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

// PaymentTransition describes one status move plus the fields it stamps.
// Nil fields keep their stored value.
type PaymentTransition struct {
	From         entity.PaymentStatus
	To           entity.PaymentStatus
	PaidAt       *time.Time
	ValidationID *string
	ErrorMessage *string
	Refund       *entity.RefundInfo
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payment, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	SetSessionKey(ctx context.Context, id uuid.UUID, sessionKey string) error

	// Business queries

	// TransitionStatus is a compare-and-swap on status. It reports false
	// when the payment was no longer in t.From.
	TransitionStatus(ctx context.Context, id uuid.UUID, t PaymentTransition) (bool, error)
}

type paymentRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentRepository(db database.Querier, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `
	id, user_id, subject_type, subscription_id, booking_id, type, amount, currency,
	status, payment_method, transaction_id, validation_id, session_key, paid_at,
	metadata, error_message, refund, created_at, updated_at
`

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.SubjectType,
		&p.SubscriptionID,
		&p.BookingID,
		&p.Type,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.PaymentMethod,
		&p.TransactionID,
		&p.ValidationID,
		&p.SessionKey,
		&p.PaidAt,
		&p.Metadata,
		&p.ErrorMessage,
		&p.Refund,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, subject_type, subscription_id, booking_id, type,
		                      amount, currency, status, payment_method, transaction_id,
		                      validation_id, session_key, paid_at, metadata, error_message,
		                      refund, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.UserID,
		payment.SubjectType,
		payment.SubscriptionID,
		payment.BookingID,
		payment.Type,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.PaymentMethod,
		payment.TransactionID,
		payment.ValidationID,
		payment.SessionKey,
		payment.PaidAt,
		payment.Metadata,
		payment.ErrorMessage,
		payment.Refund,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("user_id", payment.UserID.String()),
			zap.String("subject_type", string(payment.SubjectType)),
		)
		return fmt.Errorf("create payment for user %s: %w", payment.UserID.String(), err)
	}

	return nil
}

func (r *paymentRepository) findOne(ctx context.Context, query string, arg any, field string) (*entity.Payment, error) {
	payment, err := scanPayment(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment",
			zap.Error(err),
			zap.Any(field, arg),
		)
		return nil, fmt.Errorf("find payment by %s: %w", field, err)
	}
	return payment, nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.findOne(ctx, query, id, "payment_id")
}

// FindByIDForUpdate locks the payment row until the surrounding transaction
// ends. Concurrent settlements of the same payment queue up here.
func (r *paymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, query, id, "payment_id")
}

func (r *paymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE transaction_id = $1 AND type <> 'refund'
	`
	return r.findOne(ctx, query, transactionID, "transaction_id")
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list payments",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list payments for user %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			r.log.Error("Failed to scan payment row", zap.Error(err))
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM payments WHERE user_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.log.Error("Database error counting payments",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count payments for user %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *paymentRepository) SetSessionKey(ctx context.Context, id uuid.UUID, sessionKey string) error {
	query := `UPDATE payments SET session_key = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, sessionKey)
	if err != nil {
		r.log.Error("Failed to store gateway session key",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return fmt.Errorf("set session key on payment %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", id.String())
	}

	return nil
}

func (r *paymentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, t PaymentTransition) (bool, error) {
	if !t.From.CanTransitionTo(t.To) {
		return false, fmt.Errorf("payment %s: illegal transition %s -> %s", id.String(), t.From, t.To)
	}

	query := `
		UPDATE payments
		SET status = $3,
		    paid_at = COALESCE($4, paid_at),
		    validation_id = COALESCE($5, validation_id),
		    error_message = COALESCE($6, error_message),
		    refund = COALESCE($7, refund),
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, id, t.From, t.To, t.PaidAt, t.ValidationID, t.ErrorMessage, t.Refund)
	if err != nil {
		r.log.Error("Failed to transition payment",
			zap.Error(err),
			zap.String("payment_id", id.String()),
			zap.String("from", string(t.From)),
			zap.String("to", string(t.To)),
		)
		return false, fmt.Errorf("transition payment %s to %s: %w", id.String(), t.To, err)
	}

	return result.RowsAffected() > 0, nil
}

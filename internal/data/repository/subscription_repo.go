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

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error)
	FindLatestByUser(ctx context.Context, userID uuid.UUID) (*entity.Subscription, error)

	// TransitionStatus moves the subscription to `to` only while it is still
	// in `from`. It reports whether the row changed.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.SubscriptionStatus) (bool, error)
	MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

type subscriptionRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSubscriptionRepository(db database.Querier, log *zap.Logger) SubscriptionRepository {
	return &subscriptionRepository{
		db:  db,
		log: log.With(zap.String("repository", "subscription")),
	}
}

const subscriptionColumns = `
	id, user_id, plan_id, plan_name, status, billing_cycle, start_date, end_date,
	amount, currency, created_at, updated_at
`

func scanSubscription(row pgx.Row) (*entity.Subscription, error) {
	var sub entity.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PlanID,
		&sub.PlanName,
		&sub.Status,
		&sub.BillingCycle,
		&sub.StartDate,
		&sub.EndDate,
		&sub.Amount,
		&sub.Currency,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan_id, plan_name, status, billing_cycle,
		                           start_date, end_date, amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		sub.ID,
		sub.UserID,
		sub.PlanID,
		sub.PlanName,
		sub.Status,
		sub.BillingCycle,
		sub.StartDate,
		sub.EndDate,
		sub.Amount,
		sub.Currency,
		sub.CreatedAt,
		sub.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create subscription",
			zap.Error(err),
			zap.String("user_id", sub.UserID.String()),
		)
		return fmt.Errorf("create subscription for user %s: %w", sub.UserID.String(), err)
	}

	return nil
}

func (r *subscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find subscription by ID",
			zap.Error(err),
			zap.String("subscription_id", id.String()),
		)
		return nil, fmt.Errorf("find subscription by ID %s: %w", id.String(), err)
	}

	return sub, nil
}

// FindLatestByUser returns the newest subscription that got past checkout.
func (r *subscriptionRepository) FindLatestByUser(ctx context.Context, userID uuid.UUID) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status IN ('active', 'trial', 'expired')
		ORDER BY start_date DESC
		LIMIT 1
	`

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find latest subscription",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find latest subscription for user %s: %w", userID.String(), err)
	}

	return sub, nil
}

func (r *subscriptionRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.SubscriptionStatus) (bool, error) {
	query := `
		UPDATE subscriptions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		r.log.Error("Failed to transition subscription",
			zap.Error(err),
			zap.String("subscription_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("transition subscription %s to %s: %w", id.String(), to, err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *subscriptionRepository) MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE subscriptions
		SET status = 'expired', updated_at = NOW()
		WHERE id = $1 AND status IN ('active', 'trial') AND end_date < $2
	`

	result, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		r.log.Error("Failed to expire subscription",
			zap.Error(err),
			zap.String("subscription_id", id.String()),
		)
		return false, fmt.Errorf("expire subscription %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

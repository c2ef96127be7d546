package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roadside-assist/internal/billing"
	"roadside-assist/internal/data/entity"
	"roadside-assist/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	ApplyMembership(ctx context.Context, id uuid.UUID, tier billing.Tier, expiry time.Time, subscriptionID uuid.UUID) error
	DowngradeExpiredMembership(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	CreditWallet(ctx context.Context, id uuid.UUID, amount float64) error

	// RevokeMembership resets the tier to free when subscriptionID is still
	// the user's current subscription.
	RevokeMembership(ctx context.Context, id, subscriptionID uuid.UUID) (bool, error)
	AwardPoints(ctx context.Context, id uuid.UUID, points int, spent float64) error
}

type userRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewUserRepository(db database.Querier, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `
		SELECT id, name, email, phone, role, membership_tier, membership_expiry,
		       current_subscription_id, wallet_balance, reward_points,
		       total_bookings, total_spent, is_active, created_at, updated_at, deleted_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`

	var user entity.User
	err := ur.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.MembershipTier,
		&user.MembershipExpiry,
		&user.CurrentSubscriptionID,
		&user.WalletBalance,
		&user.RewardPoints,
		&user.TotalBookings,
		&user.TotalSpent,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}

	return &user, nil
}

// ApplyMembership writes the personal tier granted by a settled subscription.
func (ur *userRepository) ApplyMembership(ctx context.Context, id uuid.UUID, tier billing.Tier, expiry time.Time, subscriptionID uuid.UUID) error {
	query := `
		UPDATE users
		SET membership_tier = $2, membership_expiry = $3,
		    current_subscription_id = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := ur.db.Exec(ctx, query, id, tier, expiry, subscriptionID)
	if err != nil {
		ur.log.Error("Failed to apply membership",
			zap.Error(err),
			zap.String("user_id", id.String()),
			zap.String("tier", tier.String()),
		)
		return fmt.Errorf("apply membership to user %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", id.String())
	}

	return nil
}

// DowngradeExpiredMembership resets a lapsed personal tier to free. It only
// writes when the row still carries the stale tier, so the correction is
// persisted once no matter how many reads race on it.
func (ur *userRepository) DowngradeExpiredMembership(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE users
		SET membership_tier = 'free', membership_expiry = NULL, updated_at = NOW()
		WHERE id = $1
		  AND membership_tier <> 'free'
		  AND membership_expiry IS NOT NULL
		  AND membership_expiry < $2
	`

	result, err := ur.db.Exec(ctx, query, id, now)
	if err != nil {
		ur.log.Error("Failed to downgrade expired membership",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return false, fmt.Errorf("downgrade membership for user %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (ur *userRepository) CreditWallet(ctx context.Context, id uuid.UUID, amount float64) error {
	query := `
		UPDATE users
		SET wallet_balance = wallet_balance + $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := ur.db.Exec(ctx, query, id, amount)
	if err != nil {
		ur.log.Error("Failed to credit wallet",
			zap.Error(err),
			zap.String("user_id", id.String()),
			zap.Float64("amount", amount),
		)
		return fmt.Errorf("credit wallet of user %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", id.String())
	}

	return nil
}

func (ur *userRepository) RevokeMembership(ctx context.Context, id, subscriptionID uuid.UUID) (bool, error) {
	query := `
		UPDATE users
		SET membership_tier = 'free', membership_expiry = NULL,
		    current_subscription_id = NULL, updated_at = NOW()
		WHERE id = $1 AND current_subscription_id = $2
	`

	result, err := ur.db.Exec(ctx, query, id, subscriptionID)
	if err != nil {
		ur.log.Error("Failed to revoke membership",
			zap.Error(err),
			zap.String("user_id", id.String()),
			zap.String("subscription_id", subscriptionID.String()),
		)
		return false, fmt.Errorf("revoke membership of user %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

// AwardPoints adds earned points and counts a completed booking.
func (ur *userRepository) AwardPoints(ctx context.Context, id uuid.UUID, points int, spent float64) error {
	query := `
		UPDATE users
		SET reward_points = reward_points + $2,
		    total_bookings = total_bookings + 1,
		    total_spent = total_spent + $3,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := ur.db.Exec(ctx, query, id, points, spent)
	if err != nil {
		ur.log.Error("Failed to award points",
			zap.Error(err),
			zap.String("user_id", id.String()),
			zap.Int("points", points),
		)
		return fmt.Errorf("award points to user %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", id.String())
	}

	return nil
}

package usecase

import (
	"context"
	"fmt"

	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// applyEntitlement grants the plan bought by sub to its owner. It runs inside
// the settlement transaction, after the payment and subscription transitions
// succeeded, so it happens at most once per subscription.
//
// Effective tier is never cached; later reads resolve it again from the
// rows written here.
func applyEntitlement(ctx context.Context, tx *repository.Repository, sub *entity.Subscription, plan *entity.Plan, log *zap.Logger) error {
	if err := tx.User.ApplyMembership(ctx, sub.UserID, plan.Tier, sub.EndDate, sub.ID); err != nil {
		return fmt.Errorf("apply membership: %w", err)
	}

	if !plan.Tier.QualifiesForFeatured(plan.IsFeatured) {
		return nil
	}

	promoted, err := tx.Garage.PromoteOwnedGarages(ctx, sub.UserID, plan.Tier, sub.EndDate)
	if err != nil {
		return fmt.Errorf("promote owned garages: %w", err)
	}
	if promoted > 0 {
		log.Info("Garages promoted to featured",
			zap.String("owner_id", sub.UserID.String()),
			zap.String("tier", plan.Tier.String()),
			zap.Int64("garages", promoted),
		)
	}

	return nil
}

// revokeEntitlement takes back what applyEntitlement granted when the
// subscription's payment is refunded. The subscription is cancelled with a
// compare-and-swap; the user's tier and garages are reset only while they
// still come from this subscription. It reports whether the subscription was
// cancelled.
func revokeEntitlement(ctx context.Context, tx *repository.Repository, subscriptionID uuid.UUID, log *zap.Logger) (bool, error) {
	sub, err := tx.Subscription.FindByID(ctx, subscriptionID)
	if err != nil {
		return false, fmt.Errorf("load subscription: %w", err)
	}
	if sub == nil {
		return false, nil
	}

	var cancelled bool
	for _, from := range []entity.SubscriptionStatus{entity.SubscriptionStatusActive, entity.SubscriptionStatusTrial} {
		if sub.Status != from {
			continue
		}
		if cancelled, err = tx.Subscription.TransitionStatus(ctx, sub.ID, from, entity.SubscriptionStatusCancelled); err != nil {
			return false, fmt.Errorf("cancel subscription: %w", err)
		}
	}
	if !cancelled {
		return false, nil
	}

	revoked, err := tx.User.RevokeMembership(ctx, sub.UserID, sub.ID)
	if err != nil {
		return false, fmt.Errorf("revoke membership: %w", err)
	}
	if !revoked {
		return true, nil
	}

	demoted, err := tx.Garage.DemoteOwnedGarages(ctx, sub.UserID, sub.EndDate)
	if err != nil {
		return false, fmt.Errorf("demote owned garages: %w", err)
	}
	log.Info("Membership revoked",
		zap.String("user_id", sub.UserID.String()),
		zap.String("subscription_id", sub.ID.String()),
		zap.Int64("garages_demoted", demoted),
	)

	return true, nil
}

package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"roadside-assist/internal/billing"
	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/data/repository"
	"roadside-assist/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MembershipService interface {
	GetMembership(ctx context.Context, userID uuid.UUID) (*response.MembershipResponse, error)
	GetSubscription(ctx context.Context, userID uuid.UUID) (*response.SubscriptionResponse, error)
}

type membershipService struct {
	repo *repository.Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewMembershipService(repo *repository.Repository, log *zap.Logger) MembershipService {
	return &membershipService{
		repo: repo,
		now:  time.Now,
		log:  log.With(zap.String("service", "membership")),
	}
}

// GetMembership resolves the caller's effective tier. An expired personal
// tier is written back as free on the way.
func (s *membershipService) GetMembership(ctx context.Context, userID uuid.UUID) (*response.MembershipResponse, error) {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}

	now := s.now()
	if user.PersonalTierExpired(now) {
		downgraded, err := s.repo.User.DowngradeExpiredMembership(ctx, user.ID, now)
		if err != nil {
			s.log.Warn("Failed to downgrade expired membership", zap.Error(err), zap.String("user_id", user.ID.String()))
		} else if downgraded {
			s.log.Info("Expired membership downgraded",
				zap.String("user_id", user.ID.String()),
				zap.String("previous_tier", user.MembershipTier.String()),
			)
			user.MembershipTier = billing.TierFree
			user.MembershipExpiry = nil
		}
	}

	memberships, err := s.repo.Membership.ListActiveByUser(ctx, user.ID)
	if err != nil {
		s.log.Warn("Failed to load organization memberships, using personal tier",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
		memberships = nil
	}

	personal := billing.ActiveTier(user.MembershipTier, user.MembershipExpiry, now)
	effective := billing.ResolveEffectiveTier(user.MembershipTier, user.MembershipExpiry, memberships, now)

	return &response.MembershipResponse{
		EffectiveTier:    effective.String(),
		PersonalTier:     personal.String(),
		MembershipExpiry: user.MembershipExpiry,
		FromOrganization: effective.Rank() > personal.Rank(),
	}, nil
}

func (s *membershipService) GetSubscription(ctx context.Context, userID uuid.UUID) (*response.SubscriptionResponse, error) {
	sub, err := s.repo.Subscription.FindLatestByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: no subscription", ErrNotFound)
	}

	now := s.now()
	if sub.Lapsed(now) {
		expired, err := s.repo.Subscription.MarkExpired(ctx, sub.ID, now)
		if err != nil {
			s.log.Warn("Failed to expire lapsed subscription", zap.Error(err), zap.String("subscription_id", sub.ID.String()))
		} else if expired {
			sub.Status = entity.SubscriptionStatusExpired
		}
	}

	return newSubscriptionResponse(sub, now), nil
}

func newSubscriptionResponse(sub *entity.Subscription, now time.Time) *response.SubscriptionResponse {
	resp := &response.SubscriptionResponse{
		ID:           sub.ID.String(),
		Status:       string(sub.Status),
		BillingCycle: string(sub.BillingCycle),
		StartDate:    sub.StartDate,
		EndDate:      sub.EndDate,
		Amount:       sub.Amount,
		Currency:     sub.Currency,
	}
	if sub.PlanID != nil {
		id := sub.PlanID.String()
		resp.PlanID = &id
	}
	if sub.PlanName != nil {
		resp.PlanName = *sub.PlanName
	}
	if left := sub.EndDate.Sub(now).Hours() / 24; left > 0 {
		resp.DaysLeft = int(math.Ceil(left))
	}
	return resp
}

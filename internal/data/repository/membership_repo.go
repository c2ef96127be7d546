package repository

import (
	"context"
	"fmt"
	"time"

	"roadside-assist/internal/billing"
	"roadside-assist/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MembershipRepository reads the organization side of a user's entitlement.
type MembershipRepository interface {
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]billing.OrgMembership, error)
}

type membershipRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewMembershipRepository(db database.Querier, log *zap.Logger) MembershipRepository {
	return &membershipRepository{
		db:  db,
		log: log.With(zap.String("repository", "membership")),
	}
}

// ListActiveByUser returns one entry per active team membership. Broken links
// (organization without subscription, deleted plan) come back with
// HasSubscription=false instead of failing the whole read.
func (r *membershipRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]billing.OrgMembership, error) {
	query := `
		SELECT o.id,
		       s.id IS NOT NULL AND p.id IS NOT NULL,
		       COALESCE(s.status, ''),
		       COALESCE(p.tier, ''),
		       s.start_date,
		       s.end_date
		FROM team_members tm
		JOIN organizations o ON o.id = tm.organization_id
		LEFT JOIN subscriptions s ON s.id = o.subscription_id
		LEFT JOIN plans p ON p.id = s.plan_id
		WHERE tm.user_id = $1 AND tm.is_active = TRUE
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list memberships",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("list memberships for user %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var memberships []billing.OrgMembership
	for rows.Next() {
		var (
			orgID      uuid.UUID
			m          billing.OrgMembership
			start, end *time.Time
		)
		if err := rows.Scan(&orgID, &m.HasSubscription, &m.SubscriptionStatus, &m.PlanTier, &start, &end); err != nil {
			r.log.Error("Failed to scan membership row", zap.Error(err))
			return nil, fmt.Errorf("scan membership row: %w", err)
		}
		m.OrganizationID = orgID.String()
		if start == nil || end == nil {
			m.HasSubscription = false
		} else {
			m.StartDate, m.EndDate = *start, *end
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate membership rows: %w", err)
	}

	return memberships, nil
}

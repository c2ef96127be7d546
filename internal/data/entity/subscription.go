package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// Period returns the subscription window length for the cycle.
func (c BillingCycle) Period() time.Duration {
	if c == BillingYearly {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

type Subscription struct {
	BaseNoDelete
	UserID       uuid.UUID          `db:"user_id"`
	PlanID       *uuid.UUID         `db:"plan_id"`
	PlanName     *string            `db:"plan_name"`
	Status       SubscriptionStatus `db:"status"`
	BillingCycle BillingCycle       `db:"billing_cycle"`
	StartDate    time.Time          `db:"start_date"`
	EndDate      time.Time          `db:"end_date"`
	Amount       float64            `db:"amount"`
	Currency     string             `db:"currency"`
}

// Lapsed reports an active subscription whose window already closed. Such a
// subscription is treated as expired and corrected on the next read.
func (s *Subscription) Lapsed(now time.Time) bool {
	return (s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrial) && s.EndDate.Before(now)
}

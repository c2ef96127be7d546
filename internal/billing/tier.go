// Package billing holds the pure money-and-entitlement rules: membership tier
// ordering, price quotes, commission splits and refund policy.
package billing

import (
	"fmt"
	"strings"
	"time"
)

// Tier is a membership level. The zero value is TierFree.
type Tier string

const (
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierTrial      Tier = "trial"
	TierStandard   Tier = "standard"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// tierOrder is the single total order over known tiers, lowest first.
// Garage plans use the same names (free, premium).
var tierOrder = []Tier{
	TierFree,
	TierBasic,
	TierTrial,
	TierStandard,
	TierPremium,
	TierEnterprise,
}

// ParseTier normalizes a stored tier name. Unknown names map to TierFree and
// ok=false.
func ParseTier(raw string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range tierOrder {
		if t == known {
			return known, true
		}
	}
	return TierFree, false
}

// Rank returns the position of t in the tier order. Unknown tiers rank 0.
func (t Tier) Rank() int {
	for i, known := range tierOrder {
		if t == known {
			return i
		}
	}
	return 0
}

// Scan normalizes a stored tier name the same way ParseTier does, so rows
// holding "Premium" or an unknown name never reach the resolver raw.
func (t *Tier) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = TierFree
	case string:
		*t, _ = ParseTier(v)
	case []byte:
		*t, _ = ParseTier(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Tier", src)
	}
	return nil
}

func (t Tier) String() string {
	if t == "" {
		return string(TierFree)
	}
	return string(t)
}

// IsPaidGarageTier reports whether the tier earns the reduced commission rate.
func (t Tier) IsPaidGarageTier() bool {
	return t == TierPremium || t == TierEnterprise
}

// QualifiesForFeatured reports whether buying a plan of this tier promotes the
// buyer's garages to featured listings.
func (t Tier) QualifiesForFeatured(planFeatured bool) bool {
	return planFeatured || t == TierPremium || t == TierStandard
}

// ActiveTier returns tier unless expiry is set and already in the past, in
// which case the holder is treated as free.
func ActiveTier(tier Tier, expiry *time.Time, now time.Time) Tier {
	if expiry != nil && expiry.Before(now) {
		return TierFree
	}
	if tier == "" {
		return TierFree
	}
	return tier
}

// OrgMembership is one organization membership as seen by the resolver. Plan
// tier and window come from the organization's subscription; HasSubscription
// is false when that lookup came back empty.
type OrgMembership struct {
	OrganizationID     string
	HasSubscription    bool
	SubscriptionStatus string
	PlanTier           string
	StartDate          time.Time
	EndDate            time.Time
}

func (m OrgMembership) activeAt(now time.Time) bool {
	if !m.HasSubscription || m.PlanTier == "" {
		return false
	}
	if m.SubscriptionStatus != "active" && m.SubscriptionStatus != "trial" {
		return false
	}
	return !m.StartDate.After(now) && !m.EndDate.Before(now)
}

// ResolveEffectiveTier picks the highest ranked tier among the unexpired
// personal tier and every organization subscription whose window contains
// now. Ties keep the personal tier. Broken memberships are skipped.
func ResolveEffectiveTier(personal Tier, personalExpiry *time.Time, memberships []OrgMembership, now time.Time) Tier {
	effective := ActiveTier(personal, personalExpiry, now)
	best := effective.Rank()

	for _, m := range memberships {
		if !m.activeAt(now) {
			continue
		}
		planTier, ok := ParseTier(m.PlanTier)
		if !ok {
			continue
		}
		if planTier.Rank() > best {
			best = planTier.Rank()
			effective = planTier
		}
	}

	return effective
}

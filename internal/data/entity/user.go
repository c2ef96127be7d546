package entity

import (
	"time"

	"roadside-assist/internal/billing"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleUser     UserRole = "user"
	RoleGarage   UserRole = "garage"
	RoleMechanic UserRole = "mechanic"
	RoleAdmin    UserRole = "admin"
)

// CanConfirmPayments reports whether the role may settle manual payments.
func (r UserRole) CanConfirmPayments() bool {
	return r == RoleGarage || r == RoleAdmin
}

type User struct {
	Base
	Name                  string       `db:"name"`
	Email                 string       `db:"email"`
	Phone                 *string      `db:"phone"`
	Role                  UserRole     `db:"role"`
	MembershipTier        billing.Tier `db:"membership_tier"`
	MembershipExpiry      *time.Time   `db:"membership_expiry"`
	CurrentSubscriptionID *uuid.UUID   `db:"current_subscription_id"`
	WalletBalance         float64      `db:"wallet_balance"`
	RewardPoints          int          `db:"reward_points"`
	TotalBookings         int          `db:"total_bookings"`
	TotalSpent            float64      `db:"total_spent"`
	IsActive              bool         `db:"is_active"`
}

// PersonalTierExpired reports whether the stored personal tier has lapsed
// but has not been corrected to free yet.
func (u *User) PersonalTierExpired(now time.Time) bool {
	if u.MembershipTier == billing.TierFree || u.MembershipTier == "" {
		return false
	}
	return u.MembershipExpiry != nil && u.MembershipExpiry.Before(now)
}

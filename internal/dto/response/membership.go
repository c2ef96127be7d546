package response

import "time"

type MembershipResponse struct {
	EffectiveTier    string     `json:"effective_tier"`
	PersonalTier     string     `json:"personal_tier"`
	MembershipExpiry *time.Time `json:"membership_expiry,omitempty"`
	FromOrganization bool       `json:"from_organization"`
}

type SubscriptionResponse struct {
	ID           string    `json:"id"`
	PlanID       *string   `json:"plan_id,omitempty"`
	PlanName     string    `json:"plan_name"`
	Status       string    `json:"status"`
	BillingCycle string    `json:"billing_cycle"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	DaysLeft     int       `json:"days_left"`
}

package orgs

import "time"

// SubscriptionPlan enumerates the billing tiers.
type SubscriptionPlan string

const (
	PlanStarter      SubscriptionPlan = "STARTER"
	PlanProfessional SubscriptionPlan = "PROFESSIONAL"
	PlanEnterprise   SubscriptionPlan = "ENTERPRISE"
)

// Organization is a tenant: an isolated customer account all business data
// is partitioned by.
type Organization struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	VATNumber        string           `json:"vat_number"`
	SubscriptionPlan SubscriptionPlan `json:"subscription_plan"`
	Status           string           `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Metrics aggregates per-organization usage counts.
type Metrics struct {
	Users       int64 `json:"users"`
	Clients     int64 `json:"clients"`
	Submissions int64 `json:"submissions"`
	Uploads     int64 `json:"uploads"`
}

package service

import (
	"github.com/noah-isme/edustream-api/internal/models"
	"github.com/noah-isme/edustream-api/pkg/config"
)

// PlanCatalog holds the purchasable subscription tiers.
type PlanCatalog struct {
	plans []models.Plan
}

// NewPlanCatalog builds the catalog with processor price ids taken from configuration.
func NewPlanCatalog(cfg config.StripeConfig) *PlanCatalog {
	return &PlanCatalog{plans: []models.Plan{
		{
			Type:     models.PlanBasic,
			Name:     "Basic",
			PriceID:  cfg.BasicPriceID,
			Price:    0.01,
			Currency: "usd",
			Features: []string{"Access to all free courses", "Community forum access", "Course completion certificates"},
		},
		{
			Type:     models.PlanPremium,
			Name:     "Premium",
			PriceID:  cfg.PremiumPriceID,
			Price:    0.02,
			Currency: "usd",
			Features: []string{"Everything in Basic", "Access to all premium courses", "Downloadable resources", "Priority support"},
		},
		{
			Type:     models.PlanEnterprise,
			Name:     "Enterprise",
			PriceID:  cfg.EnterprisePriceID,
			Price:    0.03,
			Currency: "usd",
			Features: []string{"Everything in Premium", "Team management", "Custom learning paths", "Dedicated account manager"},
		},
	}}
}

// Plans returns every tier in ascending price order.
func (c *PlanCatalog) Plans() []models.Plan {
	out := make([]models.Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Find returns the tier of the given type.
func (c *PlanCatalog) Find(planType models.PlanType) (models.Plan, bool) {
	for _, plan := range c.plans {
		if plan.Type == planType {
			return plan, true
		}
	}
	return models.Plan{}, false
}

package entitlements

import (
	"strings"

	"github.com/fcescuela/clubhouse/internal/pkg/env"
)

type Plan string

const (
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
	PlanVIP     Plan = "vip"
)

// PlanInfo describes a membership tier as offered on the membership page.
type PlanInfo struct {
	ID          Plan     `json:"id"`
	Name        string   `json:"name"`
	PriceCents  int64    `json:"price"`
	Interval    string   `json:"interval"`
	PriceID     string   `json:"stripePriceId,omitempty"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits"`
}

// IsFree reports whether the plan needs no payment step.
func (p PlanInfo) IsFree() bool {
	return p.PriceCents == 0 || strings.TrimSpace(p.PriceID) == ""
}

// Catalog is the fixed set of membership plans.
type Catalog struct {
	plans []PlanInfo
}

// NewCatalog builds the catalog with the given processor price references.
func NewCatalog(premiumPriceID, vipPriceID string) *Catalog {
	return &Catalog{plans: []PlanInfo{
		{
			ID:          PlanBasic,
			Name:        "Basic Membership",
			Interval:    "year",
			Description: "Free access to public content and news.",
			Benefits:    []string{"Access to public news", "View match schedules", "Join the community"},
		},
		{
			ID:          PlanPremium,
			Name:        "Premium Membership",
			PriceCents:  9900,
			Interval:    "year",
			PriceID:     strings.TrimSpace(premiumPriceID),
			Description: "Unlock premium features and exclusive content.",
			Benefits:    []string{"All Basic benefits", "Priority ticket booking", "Exclusive member events", "Discounts on merchandise"},
		},
		{
			ID:          PlanVIP,
			Name:        "VIP Membership",
			PriceCents:  19900,
			Interval:    "year",
			PriceID:     strings.TrimSpace(vipPriceID),
			Description: "All-access pass to everything the club offers.",
			Benefits:    []string{"All Premium benefits", "Meet & greet with players", "VIP lounge access", "Personalized club gifts"},
		},
	}}
}

func NewCatalogFromEnv() *Catalog {
	return NewCatalog(
		env.GetEnv("STRIPE_PRICE_MEMBERSHIP_PREMIUM", ""),
		env.GetEnv("STRIPE_PRICE_MEMBERSHIP_VIP", ""),
	)
}

// Plans returns a copy of all plans in display order.
func (c *Catalog) Plans() []PlanInfo {
	out := make([]PlanInfo, len(c.plans))
	copy(out, c.plans)
	return out
}

// Lookup finds a plan by id, case-insensitively.
func (c *Catalog) Lookup(id string) (PlanInfo, bool) {
	want := Plan(strings.ToLower(strings.TrimSpace(id)))
	for _, p := range c.plans {
		if p.ID == want {
			return p, true
		}
	}
	return PlanInfo{}, false
}

// LookupByPriceID maps a processor price reference back to its plan.
func (c *Catalog) LookupByPriceID(priceID string) (PlanInfo, bool) {
	ref := strings.TrimSpace(priceID)
	if ref == "" {
		return PlanInfo{}, false
	}
	for _, p := range c.plans {
		if p.PriceID == ref {
			return p, true
		}
	}
	return PlanInfo{}, false
}

// Rank orders plans by tier; unknown plans rank lowest.
func Rank(plan Plan) int {
	switch plan {
	case PlanVIP:
		return 2
	case PlanPremium:
		return 1
	default:
		return 0
	}
}

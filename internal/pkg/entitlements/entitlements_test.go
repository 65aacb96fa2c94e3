package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalog_Lookup(t *testing.T) {
	c := NewCatalog("price_premium", "price_vip")

	tests := []struct {
		id       string
		found    bool
		free     bool
		priceRef string
	}{
		{"basic", true, true, ""},
		{"PREMIUM", true, false, "price_premium"},
		{"vip", true, false, "price_vip"},
		{"gold", false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, ok := c.Lookup(tt.id)
			assert.Equal(t, tt.found, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.free, p.IsFree())
			assert.Equal(t, tt.priceRef, p.PriceID)
		})
	}
}

func TestCatalog_PaidPlanWithoutPriceIsFree(t *testing.T) {
	c := NewCatalog("", "price_vip")

	p, ok := c.Lookup("premium")
	assert.True(t, ok)
	assert.True(t, p.IsFree(), "a plan without a processor price cannot be checked out")
}

func TestCatalog_LookupByPriceID(t *testing.T) {
	c := NewCatalog("price_premium", "price_vip")

	p, ok := c.LookupByPriceID("price_vip")
	assert.True(t, ok)
	assert.Equal(t, PlanVIP, p.ID)

	_, ok = c.LookupByPriceID("")
	assert.False(t, ok)
}

func TestRank(t *testing.T) {
	assert.Less(t, Rank(PlanBasic), Rank(PlanPremium))
	assert.Less(t, Rank(PlanPremium), Rank(PlanVIP))
	assert.Equal(t, 0, Rank(Plan("unknown")))
}

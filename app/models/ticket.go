package models

import (
	"strings"
	"time"
)

// TicketCategory is a pricing tier. Each tier has a fixed price multiplier.
type TicketCategory string

const (
	TicketCategoryStandard TicketCategory = "standard"
	TicketCategoryPremium  TicketCategory = "premium"
	TicketCategoryVIP      TicketCategory = "vip"
)

// TicketCategories lists the accepted categories in display order.
var TicketCategories = []TicketCategory{
	TicketCategoryStandard,
	TicketCategoryPremium,
	TicketCategoryVIP,
}

// ParseTicketCategory normalizes s and reports whether it is a known category.
func ParseTicketCategory(s string) (TicketCategory, bool) {
	c := TicketCategory(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case TicketCategoryStandard, TicketCategoryPremium, TicketCategoryVIP:
		return c, true
	default:
		return "", false
	}
}

// MultiplierHalves returns the price multiplier expressed in halves
// (standard 1 => 2, premium 1.5 => 3, vip 2 => 4) so prices stay integral.
func (c TicketCategory) MultiplierHalves() int64 {
	switch c {
	case TicketCategoryPremium:
		return 3
	case TicketCategoryVIP:
		return 4
	default:
		return 2
	}
}

// Multiplier returns the price multiplier as a float for display.
func (c TicketCategory) Multiplier() float64 {
	return float64(c.MultiplierHalves()) / 2
}

// Ticket is created only when the payment processor confirms a purchase.
// CheckoutSessionID is the idempotency key of that confirmation.
type Ticket struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	MatchID           uint      `gorm:"not null;index" json:"matchId"`
	Match             *Match    `gorm:"foreignKey:MatchID" json:"match,omitempty"`
	UserID            uint      `gorm:"not null;index" json:"userId"`
	Quantity          int       `gorm:"not null" json:"quantity"`
	Category          string    `gorm:"type:varchar(20);not null" json:"category"`
	CheckoutSessionID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_tickets_checkout_session" json:"-"`
	AmountTotal       int64     `gorm:"default:0" json:"amountTotal"`
	PurchasedAt       time.Time `gorm:"not null" json:"purchasedAt"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

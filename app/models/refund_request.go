package models

import "time"

const (
	RefundStatusPending  = "pending"
	RefundStatusResolved = "resolved"
)

// RefundRequest flags a paid purchase that could not be honored and needs a
// manual refund.
type RefundRequest struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CheckoutSessionID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_refund_requests_checkout_session" json:"checkoutSessionId"`
	MatchID           uint      `gorm:"not null;index" json:"matchId"`
	UserID            uint      `gorm:"not null;index" json:"userId"`
	Quantity          int       `gorm:"not null" json:"quantity"`
	Category          string    `gorm:"type:varchar(20)" json:"category"`
	Reason            string    `gorm:"type:varchar(255)" json:"reason"`
	Status            string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

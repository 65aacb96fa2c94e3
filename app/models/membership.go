package models

import "time"

const (
	MembershipStatusNone     = "none"
	MembershipStatusActive   = "active"
	MembershipStatusExpired  = "expired"
	MembershipStatusCanceled = "canceled"
)

// Membership is one row of a user's membership history. The row a user
// currently holds is referenced by User.ActiveMembershipID.
type Membership struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"not null;index" json:"userId"`
	PlanID               string     `gorm:"type:varchar(32);not null" json:"planId"`
	StripeCustomerID     string     `gorm:"type:varchar(191);index" json:"-"`
	StripeSubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_memberships_subscription" json:"-"`
	Status               string     `gorm:"type:varchar(32);not null;default:'active'" json:"status"`
	StartDate            time.Time  `gorm:"not null" json:"startDate"`
	EndDate              time.Time  `gorm:"not null" json:"endDate"`
	CanceledAt           *time.Time `gorm:"default:null" json:"canceledAt,omitempty"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

package billing

import (
	"strings"

	"github.com/fcescuela/clubhouse/app/models"
)

// MembershipStatusFor maps a processor subscription status onto the local
// membership lifecycle.
func MembershipStatusFor(subscriptionStatus string) string {
	switch normalizeStatus(subscriptionStatus) {
	case "active", "trialing", "past_due":
		return models.MembershipStatusActive
	case "canceled", "incomplete_expired", "unpaid":
		return models.MembershipStatusCanceled
	default:
		return models.MembershipStatusNone
	}
}

// IsEntitlingStatus reports whether a subscription status grants membership.
func IsEntitlingStatus(status string) bool {
	return MembershipStatusFor(status) == models.MembershipStatusActive
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

package membership

import (
	"errors"
	"fmt"
	"time"

	"github.com/fcescuela/clubhouse/app/models"
)

// Status is a membership lifecycle state.
type Status string

const (
	StatusNone     Status = models.MembershipStatusNone
	StatusActive   Status = models.MembershipStatusActive
	StatusExpired  Status = models.MembershipStatusExpired
	StatusCanceled Status = models.MembershipStatusCanceled
)

var ErrInvalidTransition = errors.New("invalid membership transition")

// CanTransition reports whether a stored membership may move from one state
// to another. Active to Active is the idempotent re-application of the same
// subscription; Expired is never stored, only derived.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusNone:
		return to == StatusActive
	case StatusActive:
		return to == StatusActive || to == StatusExpired || to == StatusCanceled
	case StatusCanceled:
		return to == StatusCanceled
	default:
		return false
	}
}

// Transition returns to, or ErrInvalidTransition.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// Effective derives the state of m as of now. An active membership whose end
// date has passed reads as Expired without any stored change.
func Effective(m *models.Membership, now time.Time) Status {
	if m == nil {
		return StatusNone
	}
	switch Status(m.Status) {
	case StatusCanceled:
		return StatusCanceled
	case StatusExpired:
		return StatusExpired
	case StatusActive:
		if !m.EndDate.IsZero() && now.After(m.EndDate) {
			return StatusExpired
		}
		return StatusActive
	default:
		return StatusNone
	}
}

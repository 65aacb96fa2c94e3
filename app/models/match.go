package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MatchStatus is derived at read time and never trusted from storage.
type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "Scheduled"
	MatchStatusUpcoming  MatchStatus = "Upcoming"
	MatchStatusFinished  MatchStatus = "Finished"
)

// UpcomingWindow is how many of the next scheduled matches are flagged as upcoming.
const UpcomingWindow = 3

type Match struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	HomeTeam    string      `gorm:"type:varchar(150);not null" json:"homeTeam" validate:"required,max=150"`
	AwayTeam    string      `gorm:"type:varchar(150);not null" json:"awayTeam" validate:"required,max=150"`
	Date        time.Time   `gorm:"not null;index" json:"date" validate:"required"`
	Time        string      `gorm:"type:varchar(10)" json:"time" validate:"omitempty,max=10"`
	Venue       string      `gorm:"type:varchar(200)" json:"venue" validate:"max=200"`
	Competition string      `gorm:"type:varchar(150)" json:"competition" validate:"max=150"`
	Score       *string     `gorm:"type:varchar(20);default:null" json:"score,omitempty" validate:"omitempty,max=20"`
	Capacity    *int        `gorm:"default:null" json:"capacity,omitempty" validate:"omitempty,min=0"`
	Status      MatchStatus `gorm:"-" json:"status"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *Match) Validate() error {
	v := validator.New()

	return v.Struct(m)
}

// Title renders the fixture as "Home vs Away".
func (m Match) Title() string {
	return fmt.Sprintf("%s vs %s", m.HomeTeam, m.AwayTeam)
}

// HasScore reports whether a final score was recorded.
func (m Match) HasScore() bool {
	return m.Score != nil && strings.TrimSpace(*m.Score) != ""
}

// IsFinishedAt reports whether the match is over relative to now.
func (m Match) IsFinishedAt(now time.Time) bool {
	return m.HasScore() || m.Date.Before(now)
}

// HasUnlimitedCapacity reports whether admission is unbounded for this match.
func (m Match) HasUnlimitedCapacity() bool {
	return m.Capacity == nil
}

// ParseScore splits an "H-A" score into home and away goals.
func (m Match) ParseScore() (home, away int, ok bool) {
	if !m.HasScore() {
		return 0, 0, false
	}
	parts := strings.SplitN(strings.TrimSpace(*m.Score), "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return h, a, true
}

// DeriveMatchStatuses sets Status on every match. The slice must be ordered by
// date ascending; the first UpcomingWindow matches that are not finished become
// Upcoming, the rest Scheduled.
func DeriveMatchStatuses(matches []Match, now time.Time) {
	upcoming := 0
	for i := range matches {
		if matches[i].IsFinishedAt(now) {
			matches[i].Status = MatchStatusFinished
			continue
		}
		if upcoming < UpcomingWindow {
			matches[i].Status = MatchStatusUpcoming
			upcoming++
			continue
		}
		matches[i].Status = MatchStatusScheduled
	}
}

// FilterByStatus keeps matches whose derived status equals status.
func FilterByStatus(matches []Match, status MatchStatus) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Status == status {
			out = append(out, m)
		}
	}
	return out
}

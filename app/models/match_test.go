package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestDeriveMatchStatuses(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	matches := []Match{
		{ID: 1, Date: now.Add(-7 * day), Score: strPtr("2-1")},
		{ID: 2, Date: now.Add(-1 * day)},
		{ID: 3, Date: now.Add(1 * day), Score: strPtr("0-0")},
		{ID: 4, Date: now.Add(2 * day)},
		{ID: 5, Date: now.Add(3 * day)},
		{ID: 6, Date: now.Add(4 * day)},
		{ID: 7, Date: now.Add(5 * day)},
	}

	DeriveMatchStatuses(matches, now)

	want := map[uint]MatchStatus{
		1: MatchStatusFinished,
		2: MatchStatusFinished,
		3: MatchStatusFinished,
		4: MatchStatusUpcoming,
		5: MatchStatusUpcoming,
		6: MatchStatusUpcoming,
		7: MatchStatusScheduled,
	}
	for _, m := range matches {
		assert.Equal(t, want[m.ID], m.Status, "match %d", m.ID)
	}

	assert.Len(t, FilterByStatus(matches, MatchStatusUpcoming), 3)
	assert.Len(t, FilterByStatus(matches, MatchStatusScheduled), 1)
}

func TestDeriveMatchStatuses_ClockMovesForward(t *testing.T) {
	kickoff := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	matches := []Match{{ID: 1, Date: kickoff}}

	DeriveMatchStatuses(matches, kickoff.Add(-time.Hour))
	assert.Equal(t, MatchStatusUpcoming, matches[0].Status)

	DeriveMatchStatuses(matches, kickoff.Add(time.Hour))
	assert.Equal(t, MatchStatusFinished, matches[0].Status)
}

func TestMatch_ParseScore(t *testing.T) {
	tests := []struct {
		name     string
		score    *string
		home     int
		away     int
		expectOK bool
	}{
		{"regular", strPtr("3-1"), 3, 1, true},
		{"spaces", strPtr(" 0 - 2 "), 0, 2, true},
		{"missing", nil, 0, 0, false},
		{"empty", strPtr(""), 0, 0, false},
		{"garbage", strPtr("abc"), 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, a, ok := Match{Score: tt.score}.ParseScore()
			assert.Equal(t, tt.expectOK, ok)
			assert.Equal(t, tt.home, h)
			assert.Equal(t, tt.away, a)
		})
	}
}

func TestParseTicketCategory(t *testing.T) {
	tests := []struct {
		in       string
		want     TicketCategory
		expectOK bool
		halves   int64
	}{
		{"standard", TicketCategoryStandard, true, 2},
		{"Premium", TicketCategoryPremium, true, 3},
		{" VIP ", TicketCategoryVIP, true, 4},
		{"balcony", "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTicketCategory(tt.in)
			assert.Equal(t, tt.expectOK, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				assert.Equal(t, tt.halves, got.MultiplierHalves())
			}
		})
	}
	assert.Equal(t, 1.5, TicketCategoryPremium.Multiplier())
}

func TestProfileUpdate_Apply(t *testing.T) {
	u := &User{Name: "Old", Email: "old@example.com"}

	changed := ProfileUpdate{Name: "New", AvatarURL: "https://img/1.png"}.Apply(u)

	assert.True(t, changed)
	assert.Equal(t, "New", u.Name)
	assert.Equal(t, "old@example.com", u.Email)
	assert.Equal(t, "https://img/1.png", u.AvatarURL)

	assert.False(t, ProfileUpdate{Name: "New"}.Apply(u))
}

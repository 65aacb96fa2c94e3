package listings_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/cache"
	"github.com/fcescuela/clubhouse/internal/pkg/listings"
)

func TestCreateMatch_InvalidatesMatchListings(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Matches(ctx, "")
	require.NoError(t, err)
	_, err = f.svc.Tickets(ctx)
	require.NoError(t, err)
	_, err = f.svc.Stats(ctx)
	require.NoError(t, err)
	require.True(t, f.mr.Exists(cache.KeyMatches))

	m, err := f.svc.CreateMatch(ctx, listings.MatchInput{
		HomeTeam: "FC ESCUELA", AwayTeam: "Rivals", Date: "2025-04-01", Time: "18:00", Capacity: intPtr(500),
	})
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, 500, *m.Capacity)

	for _, key := range cache.MatchWriteKeys() {
		assert.False(t, f.mr.Exists(key), "%s evicted", key)
	}

	all, err := f.svc.Matches(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.MatchStatusUpcoming, all[0].Status)
}

func TestCreateMatch_Validation(t *testing.T) {
	f := setup(t)
	tests := []struct {
		name string
		in   listings.MatchInput
	}{
		{"missing teams", listings.MatchInput{Date: "2025-04-01"}},
		{"bad date", listings.MatchInput{HomeTeam: "A", AwayTeam: "B", Date: "next friday"}},
		{"negative capacity", listings.MatchInput{HomeTeam: "A", AwayTeam: "B", Date: "2025-04-01", Capacity: intPtr(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateMatch(context.Background(), tt.in)
			assert.ErrorIs(t, err, listings.ErrInvalidInput)
		})
	}
}

func TestUpdateMatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.match(t, "Rivals", 0, nil, intPtr(100))
	_, err := f.svc.Tickets(ctx)
	require.NoError(t, err)

	updated, err := f.svc.UpdateMatch(ctx, m.ID, listings.MatchInput{
		HomeTeam: "FC ESCUELA", AwayTeam: "Rivals", Date: "2025-03-14T18:00:00Z", Score: strPtr("2-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2-1", *updated.Score)
	assert.Nil(t, updated.Capacity, "omitted capacity means unlimited")
	assert.False(t, f.mr.Exists(cache.KeyTickets))

	_, err = f.svc.UpdateMatch(ctx, 999, listings.MatchInput{HomeTeam: "A", AwayTeam: "B", Date: "2025-04-01"})
	assert.ErrorIs(t, err, listings.ErrNotFound)
}

func TestCreateNews_SlugAndInvalidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.News(ctx)
	require.NoError(t, err)
	require.True(t, f.mr.Exists(cache.KeyNews))

	first, err := f.svc.CreateNews(ctx, 1, listings.NewsInput{Title: "Season Opener Tickets", Content: "On sale now"})
	require.NoError(t, err)
	assert.Equal(t, "season-opener-tickets", first.Slug)
	assert.True(t, first.Published)
	assert.False(t, f.mr.Exists(cache.KeyNews))

	second, err := f.svc.CreateNews(ctx, 1, listings.NewsInput{Title: "Season Opener Tickets", Content: "Again"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(second.Slug, "season-opener-tickets-"))

	draft := false
	custom, err := f.svc.CreateNews(ctx, 1, listings.NewsInput{Title: "Ignored", Slug: "My Custom Slug", Content: "x", Published: &draft})
	require.NoError(t, err)
	assert.Equal(t, "my-custom-slug", custom.Slug)

	news, err := f.svc.News(ctx)
	require.NoError(t, err)
	assert.Len(t, news, 2)

	_, err = f.svc.CreateNews(ctx, 1, listings.NewsInput{Title: "!!!", Content: "x"})
	assert.ErrorIs(t, err, listings.ErrInvalidInput)
}

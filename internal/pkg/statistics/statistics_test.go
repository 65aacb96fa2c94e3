package statistics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/cache"
)

func scored(home, away, score string) models.Match {
	s := score
	return models.Match{HomeTeam: home, AwayTeam: away, Date: time.Now(), Score: &s}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		matches []models.Match
		want    SeasonStats
	}{
		{
			name: "no matches",
			want: SeasonStats{},
		},
		{
			name: "home win away draw away loss",
			matches: []models.Match{
				scored("FC Escuela", "Rivals", "3-1"),
				scored("Rivals", "FC ESCUELA", "2-2"),
				scored("Others", "fc escuela", "1-0"),
			},
			want: SeasonStats{Played: 3, Won: 1, Drawn: 1, Lost: 1, GoalsFor: 5, GoalsAgainst: 4, Points: 4},
		},
		{
			name: "other clubs and unplayed matches are skipped",
			matches: []models.Match{
				scored("Rivals", "Others", "5-0"),
				{HomeTeam: "FC ESCUELA", AwayTeam: "Rivals", Date: time.Now()},
				scored("FC ESCUELA", "Rivals", "abandoned"),
				scored("FC ESCUELA", "Rivals", " 0 - 0 "),
			},
			want: SeasonStats{Played: 1, Drawn: 1, Points: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(DefaultTeamName, tt.matches))
		})
	}
}

func TestGoalDifference(t *testing.T) {
	assert.Equal(t, -2, SeasonStats{GoalsFor: 1, GoalsAgainst: 3}.GoalDifference())
}

type fakeMatches struct {
	matches []models.Match
	calls   int
	err     error
}

func (f *fakeMatches) ListByDate(context.Context) ([]models.Match, error) {
	f.calls++
	return f.matches, f.err
}

func TestService_SeasonIsCachedUntilInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cache.New(client)

	repo := &fakeMatches{matches: []models.Match{scored("Club", "Rivals", "2-0")}}
	svc := NewService(repo, store, "Club")
	ctx := context.Background()

	first, err := svc.Season(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Points)

	repo.matches = append(repo.matches, scored("Rivals", "Club", "1-0"))
	cached, err := svc.Season(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, cached)
	assert.Equal(t, 1, repo.calls)

	store.Invalidate(ctx, cache.MatchWriteKeys()...)
	fresh, err := svc.Season(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Played)
	assert.Equal(t, 2, repo.calls)
}

func TestService_LoaderError(t *testing.T) {
	svc := NewService(&fakeMatches{err: errors.New("db down")}, nil, "")
	assert.Equal(t, DefaultTeamName, svc.Team())
	_, err := svc.Season(context.Background())
	assert.Error(t, err)
}

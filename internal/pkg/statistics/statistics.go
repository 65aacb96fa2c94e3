package statistics

import (
	"context"
	"strings"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/cache"
	"github.com/fcescuela/clubhouse/internal/pkg/env"
)

// DefaultTeamName is the club the season table is computed for.
const DefaultTeamName = "FC ESCUELA"

// SeasonStats is the club's record over all scored matches it took part in.
type SeasonStats struct {
	Played       int `json:"played"`
	Won          int `json:"won"`
	Drawn        int `json:"drawn"`
	Lost         int `json:"lost"`
	GoalsFor     int `json:"goalsFor"`
	GoalsAgainst int `json:"goalsAgainst"`
	Points       int `json:"points"`
}

// GoalDifference is goals for minus goals against.
func (s SeasonStats) GoalDifference() int {
	return s.GoalsFor - s.GoalsAgainst
}

// Compute tallies the matches team played in. Matches without a parseable
// score are skipped; team names compare case-insensitively.
func Compute(team string, matches []models.Match) SeasonStats {
	var s SeasonStats
	team = strings.TrimSpace(team)
	for _, m := range matches {
		home, away, ok := m.ParseScore()
		if !ok {
			continue
		}
		isHome := strings.EqualFold(strings.TrimSpace(m.HomeTeam), team)
		isAway := strings.EqualFold(strings.TrimSpace(m.AwayTeam), team)
		if !isHome && !isAway {
			continue
		}

		gf, ga := home, away
		if !isHome {
			gf, ga = away, home
		}
		s.Played++
		s.GoalsFor += gf
		s.GoalsAgainst += ga
		switch {
		case gf > ga:
			s.Won++
			s.Points += 3
		case gf == ga:
			s.Drawn++
			s.Points++
		default:
			s.Lost++
		}
	}
	return s
}

// MatchLister is the read side of the fixture list.
type MatchLister interface {
	ListByDate(ctx context.Context) ([]models.Match, error)
}

// Service serves the season table through the cache.
type Service struct {
	matches MatchLister
	cache   *cache.Store
	team    string
}

func NewService(matches MatchLister, store *cache.Store, team string) *Service {
	if strings.TrimSpace(team) == "" {
		team = DefaultTeamName
	}
	return &Service{matches: matches, cache: store, team: team}
}

// NewServiceFromEnv reads the club name from CLUB_TEAM_NAME.
func NewServiceFromEnv(matches MatchLister, store *cache.Store) *Service {
	return NewService(matches, store, env.GetEnv("CLUB_TEAM_NAME", DefaultTeamName))
}

func (s *Service) Team() string {
	return s.team
}

// Season returns the cached table, recomputing it on a miss.
func (s *Service) Season(ctx context.Context) (SeasonStats, error) {
	return cache.Read(ctx, s.cache, cache.KeyMatchStats, cache.TTLMatchStats, func(ctx context.Context) (SeasonStats, error) {
		matches, err := s.matches.ListByDate(ctx)
		if err != nil {
			return SeasonStats{}, err
		}
		return Compute(s.team, matches), nil
	})
}

// Package listings serves the public match, ticket, news and roster pages
// through the cache and applies the admin writes that make them stale.
package listings

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/app/repository"
	"github.com/fcescuela/clubhouse/internal/pkg/cache"
	"github.com/fcescuela/clubhouse/internal/pkg/statistics"
)

// ErrNotFound is returned for unknown matches and unpublished articles.
var ErrNotFound = errors.New("not found")

// RecentWindow bounds how far back the recent results list reaches.
const RecentWindow = 30 * 24 * time.Hour

const (
	TicketStatusAvailable = "Available"
	TicketStatusSoldOut   = "Sold Out"
	TicketStatusFinished  = "Finished"
)

// TicketListing is one row of the ticket sales page.
type TicketListing struct {
	ID             uint      `json:"id"`
	MatchID        uint      `json:"matchId"`
	Match          string    `json:"match"`
	Date           time.Time `json:"date"`
	Time           string    `json:"time"`
	Venue          string    `json:"venue"`
	Competition    string    `json:"competition"`
	PriceCents     int64     `json:"price"`
	Status         string    `json:"status"`
	Capacity       *int      `json:"capacity"`
	AvailableSeats *int      `json:"availableSeats"`
}

// RecentMatch is a finished match with its age in whole days.
type RecentMatch struct {
	models.Match
	DaysAgo int `json:"daysAgo"`
}

// TeamSheet is the roster page.
type TeamSheet struct {
	Team             []models.Player `json:"team"`
	PlayerOfTheMonth *models.Player  `json:"playerOfTheMonth"`
}

// ticketSnapshot is what the tickets key caches; seats are derived on read.
type ticketSnapshot struct {
	Matches []models.Match `json:"matches"`
	Sold    map[uint]int   `json:"sold"`
}

// Service reads listings through the cache. Every derived field (match
// status, remaining seats, days ago) is computed after the snapshot is
// loaded, so cached entries never carry a stale clock.
type Service struct {
	repos          *repository.Repositories
	cache          *cache.Store
	stats          *statistics.Service
	basePriceCents int64
	now            func() time.Time
}

type Config struct {
	BasePriceCents int64
	TeamName       string
	Now            func() time.Time
}

func NewService(repos *repository.Repositories, store *cache.Store, cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repos:          repos,
		cache:          store,
		stats:          statistics.NewService(repos.Match, store, cfg.TeamName),
		basePriceCents: cfg.BasePriceCents,
		now:            now,
	}
}

func (s *Service) allMatches(ctx context.Context) ([]models.Match, error) {
	return cache.Read(ctx, s.cache, cache.KeyMatches, cache.TTLMatches, s.repos.Match.ListByDate)
}

// Matches lists all fixtures by date with their derived status. A non-empty
// status keeps only matches in that state.
func (s *Service) Matches(ctx context.Context, status models.MatchStatus) ([]models.Match, error) {
	matches, err := s.allMatches(ctx)
	if err != nil {
		return nil, err
	}
	models.DeriveMatchStatuses(matches, s.now())
	if status != "" {
		return models.FilterByStatus(matches, status), nil
	}
	return matches, nil
}

// Match returns one fixture with the status it has in the full list.
func (s *Service) Match(ctx context.Context, id uint) (*models.Match, error) {
	matches, err := s.Matches(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if matches[i].ID == id {
			return &matches[i], nil
		}
	}
	return nil, ErrNotFound
}

// NextMatch returns the earliest fixture still to be played, or nil.
func (s *Service) NextMatch(ctx context.Context) (*models.Match, error) {
	matches, err := s.Matches(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if matches[i].Status != models.MatchStatusFinished {
			return &matches[i], nil
		}
	}
	return nil, nil
}

// RecentMatches returns scored matches of the last RecentWindow, newest
// first, paged by page (1-based) and limit.
func (s *Service) RecentMatches(ctx context.Context, page, limit int) ([]RecentMatch, error) {
	scored, err := cache.Read(ctx, s.cache, cache.KeyRecentMatches, cache.TTLRecentMatches, func(ctx context.Context) ([]models.Match, error) {
		matches, err := s.repos.Match.ListByDate(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Match, 0, len(matches))
		for _, m := range matches {
			if m.HasScore() {
				out = append(out, m)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	recent := make([]RecentMatch, 0, len(scored))
	for _, m := range scored {
		if m.Date.After(now) || now.Sub(m.Date) > RecentWindow {
			continue
		}
		m.Status = models.MatchStatusFinished
		recent = append(recent, RecentMatch{Match: m, DaysAgo: int(now.Sub(m.Date) / (24 * time.Hour))})
	}
	return paginate(recent, page, limit), nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Stats returns the club's season table.
func (s *Service) Stats(ctx context.Context) (statistics.SeasonStats, error) {
	return s.stats.Season(ctx)
}

// Tickets lists every fixture with its base price and remaining seats.
func (s *Service) Tickets(ctx context.Context) ([]TicketListing, error) {
	snap, err := cache.Read(ctx, s.cache, cache.KeyTickets, cache.TTLTickets, func(ctx context.Context) (ticketSnapshot, error) {
		matches, err := s.repos.Match.ListByDate(ctx)
		if err != nil {
			return ticketSnapshot{}, err
		}
		sold, err := s.repos.Ticket.SoldByMatch(ctx)
		if err != nil {
			return ticketSnapshot{}, err
		}
		return ticketSnapshot{Matches: matches, Sold: sold}, nil
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]TicketListing, 0, len(snap.Matches))
	for _, m := range snap.Matches {
		row := TicketListing{
			ID:          m.ID,
			MatchID:     m.ID,
			Match:       m.Title(),
			Date:        m.Date,
			Time:        m.Time,
			Venue:       m.Venue,
			Competition: m.Competition,
			PriceCents:  s.basePriceCents,
			Status:      TicketStatusAvailable,
			Capacity:    m.Capacity,
		}
		if m.Capacity != nil {
			left := *m.Capacity - snap.Sold[m.ID]
			if left < 0 {
				left = 0
			}
			row.AvailableSeats = &left
			if left == 0 {
				row.Status = TicketStatusSoldOut
			}
		}
		if m.IsFinishedAt(now) {
			row.Status = TicketStatusFinished
		}
		out = append(out, row)
	}
	return out, nil
}

// News lists published articles, newest first.
func (s *Service) News(ctx context.Context) ([]models.News, error) {
	return cache.Read(ctx, s.cache, cache.KeyNews, cache.TTLNews, s.repos.News.GetPublished)
}

// Article returns one published article by slug. Single articles are not cached.
func (s *Service) Article(ctx context.Context, slug string) (*models.News, error) {
	n, err := s.repos.News.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return n, err
}

// Team returns the roster. The captain is player of the month, falling back
// to the first listed player.
func (s *Service) Team(ctx context.Context) (TeamSheet, error) {
	return cache.Read(ctx, s.cache, cache.KeyTeam, cache.TTLTeam, func(ctx context.Context) (TeamSheet, error) {
		players, err := s.repos.Player.List(ctx)
		if err != nil {
			return TeamSheet{}, err
		}
		sheet := TeamSheet{Team: players}
		for i := range players {
			if players[i].Captain {
				sheet.PlayerOfTheMonth = &players[i]
				break
			}
		}
		if sheet.PlayerOfTheMonth == nil && len(players) > 0 {
			sheet.PlayerOfTheMonth = &players[0]
		}
		return sheet, nil
	})
}

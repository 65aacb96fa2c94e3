package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/app/repository"
	"github.com/fcescuela/clubhouse/internal/pkg/cache"
	"github.com/fcescuela/clubhouse/internal/pkg/slugs"
)

// ErrInvalidInput wraps validation failures of admin writes.
var ErrInvalidInput = errors.New("invalid input")

// MatchInput is the admin form for creating or replacing a fixture.
type MatchInput struct {
	HomeTeam    string  `json:"homeTeam" validate:"required,max=150"`
	AwayTeam    string  `json:"awayTeam" validate:"required,max=150"`
	Date        string  `json:"date" validate:"required"`
	Time        string  `json:"time" validate:"omitempty,max=10"`
	Venue       string  `json:"venue" validate:"max=200"`
	Competition string  `json:"competition" validate:"max=150"`
	Score       *string `json:"score" validate:"omitempty,max=20"`
	Capacity    *int    `json:"capacity" validate:"omitempty,min=0"`
}

// NewsInput is the admin form for publishing an article. Slug defaults to
// one derived from the title.
type NewsInput struct {
	Title     string `json:"title" validate:"required,min=3,max=255"`
	Summary   string `json:"summary" validate:"max=500"`
	Content   string `json:"content" validate:"required"`
	Image     string `json:"image" validate:"max=255"`
	Slug      string `json:"slug" validate:"max=255"`
	Published *bool  `json:"published"`
}

var validate = validator.New()

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func (in MatchInput) toModel() (*models.Match, error) {
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err)
	}
	date, err := parseMatchDate(in.Date)
	if err != nil {
		return nil, invalid(err)
	}
	m := &models.Match{
		HomeTeam:    strings.TrimSpace(in.HomeTeam),
		AwayTeam:    strings.TrimSpace(in.AwayTeam),
		Date:        date,
		Time:        strings.TrimSpace(in.Time),
		Venue:       strings.TrimSpace(in.Venue),
		Competition: strings.TrimSpace(in.Competition),
		Capacity:    in.Capacity,
	}
	if in.Score != nil && strings.TrimSpace(*in.Score) != "" {
		score := strings.TrimSpace(*in.Score)
		m.Score = &score
	}
	if err := m.Validate(); err != nil {
		return nil, invalid(err)
	}
	return m, nil
}

// parseMatchDate accepts a full timestamp or a plain calendar date.
func parseMatchDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// CreateMatch stores a fixture and evicts every listing derived from matches.
func (s *Service) CreateMatch(ctx context.Context, in MatchInput) (*models.Match, error) {
	m, err := in.toModel()
	if err != nil {
		return nil, err
	}
	if err := s.repos.Match.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	s.cache.Invalidate(ctx, cache.MatchWriteKeys()...)
	log.Infof("[Listings] Created match %d (%s)", m.ID, m.Title())
	return m, nil
}

// UpdateMatch replaces every field of fixture id. Lowering the capacity
// below the seats already sold is allowed; the capacity audit reports it.
func (s *Service) UpdateMatch(ctx context.Context, id uint, in MatchInput) (*models.Match, error) {
	m, err := in.toModel()
	if err != nil {
		return nil, err
	}
	m.ID = id
	if err := s.repos.Match.Update(ctx, m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update match %d: %w", id, err)
	}
	s.cache.Invalidate(ctx, cache.MatchWriteKeys()...)
	log.Infof("[Listings] Updated match %d", id)
	return s.repos.Match.GetByID(ctx, id)
}

// CreateNews stores an article under a free slug and evicts the news list.
func (s *Service) CreateNews(ctx context.Context, authorID uint, in NewsInput) (*models.News, error) {
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err)
	}
	base := slugs.Make(in.Slug)
	if base == "" {
		base = slugs.Make(in.Title)
	}
	slug, err := slugs.Unique(ctx, base, s.repos.News.SlugExists)
	if err != nil {
		if errors.Is(err, slugs.ErrExhausted) {
			return nil, invalid(err)
		}
		return nil, fmt.Errorf("pick slug: %w", err)
	}

	n := &models.News{
		Title:      strings.TrimSpace(in.Title),
		Summary:    strings.TrimSpace(in.Summary),
		Content:    in.Content,
		CoverImage: strings.TrimSpace(in.Image),
		Slug:       slug,
		Published:  in.Published == nil || *in.Published,
		AuthorID:   authorID,
	}
	if err := n.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := s.repos.News.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create news: %w", err)
	}
	s.cache.Invalidate(ctx, cache.KeyNews)
	log.Infof("[Listings] Created news %d (%s)", n.ID, n.Slug)
	return n, nil
}

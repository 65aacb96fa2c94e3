package listings

import (
	"context"
	"strings"

	"github.com/fcescuela/clubhouse/app/models"
)

// MaxQueryLength bounds the search term; longer input is cut.
const MaxQueryLength = 100

// SearchResults groups hits by collection. Every slice is non-nil so the
// response always carries all three keys.
type SearchResults struct {
	News    []models.News   `json:"news"`
	Team    []models.Player `json:"team"`
	Matches []models.Match  `json:"matches"`
}

// Search does a case-insensitive substring match over published news, the
// roster and all fixtures, reading the same cached snapshots as the list
// pages. Matches come back newest first.
func (s *Service) Search(ctx context.Context, query string) (SearchResults, error) {
	res := SearchResults{News: []models.News{}, Team: []models.Player{}, Matches: []models.Match{}}
	q := normalizeQuery(query)
	if q == "" {
		return res, nil
	}

	news, err := s.News(ctx)
	if err != nil {
		return res, err
	}
	for _, n := range news {
		if containsFold(q, n.Title, n.Summary, n.Content) {
			res.News = append(res.News, n)
		}
	}

	sheet, err := s.Team(ctx)
	if err != nil {
		return res, err
	}
	for _, p := range sheet.Team {
		if containsFold(q, p.Name, p.Role) {
			res.Team = append(res.Team, p)
		}
	}

	matches, err := s.Matches(ctx, "")
	if err != nil {
		return res, err
	}
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if containsFold(q, m.HomeTeam, m.AwayTeam, m.Competition, m.Venue, string(m.Status)) {
			res.Matches = append(res.Matches, m)
		}
	}
	return res, nil
}

func normalizeQuery(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if r := []rune(q); len(r) > MaxQueryLength {
		q = string(r[:MaxQueryLength])
	}
	return q
}

// containsFold reports whether any field contains the lowercased needle.
func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

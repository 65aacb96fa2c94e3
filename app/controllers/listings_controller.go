package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/listings"
	"github.com/fcescuela/clubhouse/internal/pkg/statistics"
)

// Listings is the public read side of the site.
type Listings interface {
	Matches(ctx context.Context, status models.MatchStatus) ([]models.Match, error)
	Match(ctx context.Context, id uint) (*models.Match, error)
	NextMatch(ctx context.Context) (*models.Match, error)
	RecentMatches(ctx context.Context, page, limit int) ([]listings.RecentMatch, error)
	Stats(ctx context.Context) (statistics.SeasonStats, error)
	Tickets(ctx context.Context) ([]listings.TicketListing, error)
	News(ctx context.Context) ([]models.News, error)
	Article(ctx context.Context, slug string) (*models.News, error)
	Team(ctx context.Context) (listings.TeamSheet, error)
	Search(ctx context.Context, query string) (listings.SearchResults, error)
}

type ListingsController struct {
	listings Listings
}

func NewListingsController(l Listings) *ListingsController {
	return &ListingsController{listings: l}
}

func (lc *ListingsController) HandleMatches(c *fiber.Ctx) error {
	status := models.MatchStatus(strings.TrimSpace(c.Query("status")))
	switch status {
	case "", models.MatchStatusScheduled, models.MatchStatusUpcoming, models.MatchStatusFinished:
	default:
		return jsonError(c, fiber.StatusBadRequest, "invalid_status", "Unknown match status")
	}
	matches, err := lc.listings.Matches(c.UserContext(), status)
	if err != nil {
		return readError(c, "matches", err)
	}
	return c.JSON(matches)
}

func (lc *ListingsController) HandleMatch(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Match not found")
	}
	match, err := lc.listings.Match(c.UserContext(), id)
	if err != nil {
		return readError(c, "match", err)
	}
	return c.JSON(match)
}

// HandleNextMatch answers null when nothing is scheduled.
func (lc *ListingsController) HandleNextMatch(c *fiber.Ctx) error {
	match, err := lc.listings.NextMatch(c.UserContext())
	if err != nil {
		return readError(c, "next match", err)
	}
	return c.JSON(match)
}

func (lc *ListingsController) HandleRecentMatches(c *fiber.Ctx) error {
	matches, err := lc.listings.RecentMatches(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return readError(c, "recent matches", err)
	}
	return c.JSON(matches)
}

func (lc *ListingsController) HandleStats(c *fiber.Ctx) error {
	stats, err := lc.listings.Stats(c.UserContext())
	if err != nil {
		return readError(c, "stats", err)
	}
	return c.JSON(stats)
}

func (lc *ListingsController) HandleTickets(c *fiber.Ctx) error {
	tickets, err := lc.listings.Tickets(c.UserContext())
	if err != nil {
		return readError(c, "tickets", err)
	}
	return c.JSON(tickets)
}

func (lc *ListingsController) HandleNews(c *fiber.Ctx) error {
	news, err := lc.listings.News(c.UserContext())
	if err != nil {
		return readError(c, "news", err)
	}
	return c.JSON(news)
}

func (lc *ListingsController) HandleArticle(c *fiber.Ctx) error {
	article, err := lc.listings.Article(c.UserContext(), c.Params("slug"))
	if err != nil {
		return readError(c, "news article", err)
	}
	return c.JSON(article)
}

func (lc *ListingsController) HandleTeam(c *fiber.Ctx) error {
	sheet, err := lc.listings.Team(c.UserContext())
	if err != nil {
		return readError(c, "team", err)
	}
	return c.JSON(sheet)
}

// HandleSearch answers /api/search?query=. A missing query returns empty groups.
func (lc *ListingsController) HandleSearch(c *fiber.Ctx) error {
	res, err := lc.listings.Search(c.UserContext(), c.Query("query"))
	if err != nil {
		return readError(c, "search results", err)
	}
	return c.JSON(res)
}

func readError(c *fiber.Ctx, what string, err error) error {
	if errors.Is(err, listings.ErrNotFound) {
		return jsonError(c, fiber.StatusNotFound, "not_found", strings.ToUpper(what[:1])+what[1:]+" not found")
	}
	log.Errorf("[Listings] Failed to fetch %s: %v", what, err)
	return jsonError(c, fiber.StatusInternalServerError, "fetch_failed", "Failed to fetch "+what)
}

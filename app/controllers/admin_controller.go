package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/app/repository"
	"github.com/fcescuela/clubhouse/internal/pkg/capacity"
	"github.com/fcescuela/clubhouse/internal/pkg/jobqueue"
	"github.com/fcescuela/clubhouse/internal/pkg/listings"
	"github.com/fcescuela/clubhouse/internal/pkg/usercontext"
)

// ContentWriter applies admin edits and evicts the listings they affect.
type ContentWriter interface {
	CreateMatch(ctx context.Context, in listings.MatchInput) (*models.Match, error)
	UpdateMatch(ctx context.Context, id uint, in listings.MatchInput) (*models.Match, error)
	CreateNews(ctx context.Context, authorID uint, in listings.NewsInput) (*models.News, error)
}

type CapacityAuditor interface {
	Audit(ctx context.Context) ([]capacity.Overbooked, error)
}

// CounterReader exposes the site's running totals.
type CounterReader interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
}

type JobStats interface {
	Stats(ctx context.Context) (jobqueue.QueueStats, error)
}

type AdminController struct {
	content  ContentWriter
	refunds  repository.RefundRepository
	auditor  CapacityAuditor
	counters CounterReader
	jobs     JobStats
}

func NewAdminController(content ContentWriter, refunds repository.RefundRepository, auditor CapacityAuditor) *AdminController {
	return &AdminController{content: content, refunds: refunds, auditor: auditor}
}

func (ac *AdminController) WithCounters(counters CounterReader) *AdminController {
	ac.counters = counters
	return ac
}

func (ac *AdminController) WithJobs(jobs JobStats) *AdminController {
	ac.jobs = jobs
	return ac
}

func (ac *AdminController) HandleCreateMatch(c *fiber.Ctx) error {
	var in listings.MatchInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Request body could not be parsed")
	}
	m, err := ac.content.CreateMatch(c.UserContext(), in)
	if err != nil {
		return writeError(c, "create match", err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (ac *AdminController) HandleUpdateMatch(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Match not found")
	}
	var in listings.MatchInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Request body could not be parsed")
	}
	m, err := ac.content.UpdateMatch(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, "update match", err)
	}
	return c.JSON(m)
}

func (ac *AdminController) HandleCreateNews(c *fiber.Ctx) error {
	var in listings.NewsInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Request body could not be parsed")
	}
	n, err := ac.content.CreateNews(c.UserContext(), usercontext.GetUserID(c), in)
	if err != nil {
		return writeError(c, "create news", err)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

// HandleRefundRequests lists purchases flagged for a manual refund.
func (ac *AdminController) HandleRefundRequests(c *fiber.Ctx) error {
	list, err := ac.refunds.ListPending(c.UserContext())
	if err != nil {
		log.Errorf("[Admin] Listing refund requests: %v", err)
		return internalError(c)
	}
	return c.JSON(list)
}

func (ac *AdminController) HandleResolveRefund(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Refund request not found")
	}
	if err := ac.refunds.Resolve(c.UserContext(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Refund request not found")
		}
		log.Errorf("[Admin] Resolving refund request %d: %v", id, err)
		return internalError(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleCapacityAudit runs the overbooking check on demand.
func (ac *AdminController) HandleCapacityAudit(c *fiber.Ctx) error {
	over, err := ac.auditor.Audit(c.UserContext())
	if err != nil {
		log.Errorf("[Admin] Capacity audit: %v", err)
		return internalError(c)
	}
	return c.JSON(fiber.Map{"overbooked": over})
}

func (ac *AdminController) HandleCounters(c *fiber.Ctx) error {
	if ac.counters == nil {
		return c.JSON(fiber.Map{"counters": fiber.Map{}})
	}
	counters, err := ac.counters.Snapshot(c.UserContext())
	if err != nil {
		log.Errorf("[Admin] Reading counters: %v", err)
		return internalError(c)
	}
	return c.JSON(fiber.Map{"counters": counters})
}

// HandleJobStats reports the background job queue.
func (ac *AdminController) HandleJobStats(c *fiber.Ctx) error {
	if ac.jobs == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "jobs_disabled", "Job queue is not configured")
	}
	st, err := ac.jobs.Stats(c.UserContext())
	if err != nil {
		log.Errorf("[Admin] Reading job stats: %v", err)
		return internalError(c)
	}
	return c.JSON(st)
}

func writeError(c *fiber.Ctx, what string, err error) error {
	switch {
	case errors.Is(err, listings.ErrInvalidInput):
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, listings.ErrNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "Match not found")
	}
	log.Errorf("[Admin] Failed to %s: %v", what, err)
	return jsonError(c, fiber.StatusInternalServerError, "write_failed", "Failed to "+what)
}

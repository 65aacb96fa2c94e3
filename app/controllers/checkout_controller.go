package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/billing"
	"github.com/fcescuela/clubhouse/internal/pkg/checkout"
	"github.com/fcescuela/clubhouse/internal/pkg/usercontext"
)

// CheckoutInitiator opens processor sessions for purchases.
type CheckoutInitiator interface {
	InitiateTicketCheckout(ctx context.Context, user *models.User, matchID uint, quantity int, category string) (*billing.SessionHandle, error)
	InitiateTicketPaymentIntent(ctx context.Context, user *models.User, matchID uint, quantity int, category string) (*billing.SessionHandle, error)
	InitiateMembershipCheckout(ctx context.Context, user *models.User, planID string) (*billing.SessionHandle, error)
}

type CheckoutController struct {
	initiator CheckoutInitiator
}

func NewCheckoutController(initiator CheckoutInitiator) *CheckoutController {
	return &CheckoutController{initiator: initiator}
}

// Quantity and category are checked by the initiator so the error codes stay
// the same for every entry point.
type ticketCheckoutRequest struct {
	MatchID  uint   `json:"matchId" validate:"required"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"`
}

type membershipCheckoutRequest struct {
	PlanID string `json:"planId"`
}

// HandleTicketCheckout opens a hosted checkout for match tickets.
func (cc *CheckoutController) HandleTicketCheckout(c *fiber.Ctx) error {
	var req ticketCheckoutRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	handle, err := cc.initiator.InitiateTicketCheckout(c.UserContext(), usercontext.CurrentUser(c), req.MatchID, req.Quantity, req.Category)
	if err != nil {
		return checkoutError(c, err)
	}
	return c.JSON(fiber.Map{"sessionId": handle.ID, "url": handle.URL})
}

// HandleTicketPaymentIntent opens a direct payment for match tickets.
func (cc *CheckoutController) HandleTicketPaymentIntent(c *fiber.Ctx) error {
	var req ticketCheckoutRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	handle, err := cc.initiator.InitiateTicketPaymentIntent(c.UserContext(), usercontext.CurrentUser(c), req.MatchID, req.Quantity, req.Category)
	if err != nil {
		return checkoutError(c, err)
	}
	return c.JSON(fiber.Map{"clientSecret": handle.ClientSecret, "amount": handle.AmountCents})
}

// HandleMembershipCheckout opens a subscription checkout for a paid plan.
func (cc *CheckoutController) HandleMembershipCheckout(c *fiber.Ctx) error {
	var req membershipCheckoutRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	handle, err := cc.initiator.InitiateMembershipCheckout(c.UserContext(), usercontext.CurrentUser(c), req.PlanID)
	if err != nil {
		return checkoutError(c, err)
	}
	return c.JSON(fiber.Map{"sessionId": handle.ID, "url": handle.URL})
}

func checkoutError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, checkout.ErrMatchNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "Match not found")
	case errors.Is(err, checkout.ErrInvalidCategory):
		return jsonError(c, fiber.StatusBadRequest, "invalid_category", "Invalid ticket category")
	case errors.Is(err, checkout.ErrInvalidQuantity):
		return jsonError(c, fiber.StatusBadRequest, "invalid_quantity", fmt.Sprintf("Quantity must be between 1 and %d", checkout.MaxTicketsPerOrder))
	case errors.Is(err, checkout.ErrInsufficientCapacity):
		return jsonError(c, fiber.StatusConflict, "insufficient_capacity", "Not enough available seats")
	case errors.Is(err, checkout.ErrInvalidOrFreePlan):
		return jsonError(c, fiber.StatusBadRequest, "invalid_or_free_plan", "Invalid or free plan selected")
	}
	log.Errorf("[Checkout] %v", err)
	return jsonError(c, fiber.StatusInternalServerError, "checkout_failed", "Failed to create checkout session")
}

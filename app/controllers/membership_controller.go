package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/entitlements"
	"github.com/fcescuela/clubhouse/internal/pkg/membership"
	"github.com/fcescuela/clubhouse/internal/pkg/orders"
	"github.com/fcescuela/clubhouse/internal/pkg/usercontext"
)

// CurrentMembership reports the membership a user holds right now.
type CurrentMembership interface {
	Current(ctx context.Context, userID uint) (*models.Membership, membership.Status, error)
}

type OrderLister interface {
	List(ctx context.Context, userID uint) ([]orders.Order, error)
}

type AccountController struct {
	plans       *entitlements.Catalog
	memberships CurrentMembership
	orders      OrderLister
}

func NewAccountController(plans *entitlements.Catalog, memberships CurrentMembership, orders OrderLister) *AccountController {
	return &AccountController{plans: plans, memberships: memberships, orders: orders}
}

// HandleMe describes the caller; anonymous callers get is_logged_in false.
func (ac *AccountController) HandleMe(c *fiber.Ctx) error {
	return c.JSON(usercontext.GetUserContext(c))
}

// HandleMembershipPlans lists the plan catalog, plus the caller's current
// membership when logged in.
func (ac *AccountController) HandleMembershipPlans(c *fiber.Ctx) error {
	resp := fiber.Map{"plans": ac.plans.Plans()}

	uc := usercontext.GetUserContext(c)
	if uc.IsLoggedIn && uc.UserID != 0 {
		m, status, err := ac.memberships.Current(c.UserContext(), uc.UserID)
		if err != nil {
			log.Errorf("[Membership] Current membership for user %d: %v", uc.UserID, err)
			return internalError(c)
		}
		current := fiber.Map{"status": status}
		if m != nil {
			current["planId"] = m.PlanID
			current["startDate"] = m.StartDate
			current["endDate"] = m.EndDate
		}
		resp["current"] = current
	}
	return c.JSON(resp)
}

// HandleOrders returns the caller's tickets and memberships, newest first.
func (ac *AccountController) HandleOrders(c *fiber.Ctx) error {
	list, err := ac.orders.List(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		log.Errorf("[Orders] Listing orders for user %d: %v", usercontext.GetUserID(c), err)
		return jsonError(c, fiber.StatusInternalServerError, "fetch_failed", "Failed to fetch orders")
	}
	return c.JSON(fiber.Map{"orders": list})
}

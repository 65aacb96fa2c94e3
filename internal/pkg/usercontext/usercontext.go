package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/utils"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsAdmin    bool   `json:"is_admin"`
	// Plan is the membership type the user currently holds, if any.
	Plan   string `json:"plan"`
	Avatar string `json:"avatar,omitempty"`
}

// FromUser builds the context for a loaded user.
func FromUser(u *models.User) UserContext {
	if u == nil {
		return UserContext{}
	}
	return UserContext{
		UserID:     u.ID,
		Username:   u.Name,
		IsLoggedIn: true,
		IsAdmin:    u.IsAdmin(),
		Plan:       u.MembershipType,
		Avatar:     utils.AvatarURL(u.AvatarURL, u.Email),
	}
}

// Set stores the context and, when known, the user row for the request.
func Set(c *fiber.Ctx, uc UserContext, u *models.User) {
	c.Locals(localsContext, uc)
	if u != nil {
		c.Locals(localsUser, u)
	}
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(localsContext).(UserContext); ok {
		return ctx
	}
	return UserContext{IsLoggedIn: false, IsAdmin: false}
}

// CurrentUser returns the user row loaded for the request, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(localsUser).(*models.User)
	return u
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsAdmin checks if the current user is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

package auth

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

// SettingsSource returns the live settings document.
type SettingsSource interface {
	Current(ctx context.Context) (domain.Settings, error)
}

// Require gates a route on a capability predicate.
func Require(check func(*domain.User) bool, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !check(user) {
			return fiber.NewError(http.StatusForbidden, message)
		}
		return c.Next()
	}
}

// RequireRoles ensures the principal has one of the allowed roles.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	return Require(func(u *domain.User) bool { return hasRole(u, allowed...) }, "insufficient role")
}

// RequireModule checks the role-access matrix of the live settings for module.
func RequireModule(settings SettingsSource, module domain.Module) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		current, err := settings.Current(c.UserContext())
		if err != nil {
			return err
		}
		if !CanAccessModule(current, user, module) {
			return fiber.NewError(http.StatusForbidden, "module not available for role")
		}
		return c.Next()
	}
}

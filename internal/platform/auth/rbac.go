package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Allowed is the single authorization predicate: an actor may perform an
// operation only when their role is in the operation's allowed set. There is
// no implicit admin override; routes that admins may use list admin
// explicitly. Ownership checks on individual records layer on top of this in
// the domain services.
func Allowed(actorRole string, allowedRoles ...string) bool {
	for _, r := range allowedRoles {
		if actorRole == r {
			return true
		}
	}
	return false
}

// RequireRole returns middleware that rejects requests whose authenticated
// identity is not in the allowed role set. Rejection happens before the
// handler runs, so a denied request performs no side effect.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !Allowed(identity.Role, roles...) {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
			}
			return next(c)
		}
	}
}

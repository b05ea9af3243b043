package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication: infrastructure
// endpoints and the session entry points themselves.
var publicPaths = map[string]bool{
	"/health":        true,
	"/health/db":     true,
	"/auth/login":    true,
	"/auth/register": true,
}

// Skipper returns true for requests whose path should skip authentication.
// Pass it to Middleware so login, registration and health checks remain
// reachable without a bearer token.
func Skipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path bypasses authentication.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}

package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists routes that never look at a bearer token: the welcome
// page, login itself and the health checks.
var publicPaths = map[string]bool{
	"/":          true,
	"/login":     true,
	"/health":    true,
	"/health/db": true,
}

// AuthSkipper returns true for requests whose path should skip token parsing.
// It matches on the registered route path, falling back to the URL path for
// unmatched requests.
func AuthSkipper(c echo.Context) bool {
	if p := c.Path(); p != "" {
		return publicPaths[p]
	}
	return publicPaths[c.Request().URL.Path]
}

// IsPublicPath reports whether the given path is public.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}

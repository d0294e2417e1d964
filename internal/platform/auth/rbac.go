package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that checks if the user has at least one of the specified roles.
// Admins pass every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			userRoles := p.Roles
			if HasRole(userRoles, RoleAdmin) {
				return next(c)
			}
			for _, required := range roles {
				if HasRole(userRoles, required) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// HasRole reports whether roles contains role, ignoring case.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// ResolveRoles returns the roles granted to a user at login: the stored role
// plus admin for the built-in "admin" account.
func ResolveRoles(username, storedRole string) []string {
	var roles []string
	if r := strings.TrimSpace(storedRole); r != "" {
		roles = append(roles, strings.ToLower(r))
	}
	if strings.EqualFold(username, RoleAdmin) && !HasRole(roles, RoleAdmin) {
		roles = append(roles, RoleAdmin)
	}
	if len(roles) == 0 {
		roles = []string{"user"}
	}
	return roles
}

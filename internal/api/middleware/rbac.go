package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/customer-portal/internal/core/domain"
)

type forbiddenResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// RequireRole enforces that the session holds role. Denials use the same
// shape as a failed mutation action.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	msg := "Forbidden: " + role + " role required"

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFrom(c)
			if sess == nil {
				return c.JSON(http.StatusUnauthorized, forbiddenResponse{Error: domain.MsgUnauthorized})
			}
			if !sess.Roles.Contains(role) {
				return c.JSON(http.StatusForbidden, forbiddenResponse{Error: msg})
			}
			return next(c)
		}
	}
}

// RouteGuard applies the navigation policy to page routes. Denied
// navigations are redirected without an error.
func RouteGuard(policy domain.RoutePolicy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := policy.Evaluate(c.Request().URL.Path, SessionFrom(c) != nil)
			if !d.Allow {
				return c.Redirect(http.StatusFound, d.Redirect)
			}
			return next(c)
		}
	}
}

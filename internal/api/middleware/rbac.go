package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inkpost/blog-platform/internal/api/metrics"
	"github.com/inkpost/blog-platform/internal/core/domain"
)

// RBAC restricts a route group to the given roles. It must run after Auth.
// Refusals are logged with the caller's account and counted per route, then
// handed to the error handler as domain.ErrForbidden.
func RBAC(log zerolog.Logger, allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if _, ok := allowed[role]; ok {
				return next(c)
			}

			accountID, _ := c.Get(ContextAccountID).(string)
			log.Warn().
				Str("account_id", accountID).
				Str("role", role).
				Str("method", c.Request().Method).
				Str("route", c.Path()).
				Msg("access denied")
			metrics.AccessDenialsTotal.WithLabelValues(c.Path(), role).Inc()
			return domain.ErrForbidden
		}
	}
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkpost/blog-platform/internal/api/middleware"
)

// principal is the caller identity injected by the Auth middleware.
type principal struct {
	AccountID string
	Username  string
	Email     string
	Role      string
}

// ctxPrincipal extracts the claims set by the Auth middleware. A missing
// account id means the route was mounted without the middleware.
func ctxPrincipal(c echo.Context) (principal, error) {
	id, _ := c.Get(middleware.ContextAccountID).(string)
	if id == "" {
		return principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	p := principal{AccountID: id}
	p.Username, _ = c.Get(middleware.ContextUsername).(string)
	p.Email, _ = c.Get(middleware.ContextEmail).(string)
	p.Role, _ = c.Get(middleware.ContextRole).(string)
	return p, nil
}

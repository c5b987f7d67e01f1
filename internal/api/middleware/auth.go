package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

// Context keys populated by Auth.
const (
	ContextAccountID = "account_id"
	ContextUsername  = "username"
	ContextEmail     = "email"
	ContextRole      = "role"
)

const accessTokenCookie = "accessToken"

// Auth validates the access token and injects its claims into the context.
// The token is read from the accessToken cookie, falling back to a Bearer
// Authorization header.
func Auth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := accessToken(c)
			if err != nil {
				return err
			}

			claims, err := tokens.ParseAccess(raw)
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "access token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextAccountID, claims.AccountID)
			c.Set(ContextUsername, claims.Username)
			c.Set(ContextEmail, claims.Email)
			c.Set(ContextRole, claims.Role)

			return next(c)
		}
	}
}

func accessToken(c echo.Context) (string, error) {
	if ck, err := c.Cookie(accessTokenCookie); err == nil && ck.Value != "" {
		return ck.Value, nil
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

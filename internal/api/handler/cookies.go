package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inkpost/blog-platform/internal/core/domain"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// CookieOptions controls the attributes of the session cookies.
type CookieOptions struct {
	Secure     bool
	SameSite   http.SameSite
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (o CookieOptions) setSession(c echo.Context, tokens domain.TokenPair) {
	c.SetCookie(o.cookie(accessTokenCookie, tokens.AccessToken, o.AccessTTL))
	c.SetCookie(o.cookie(refreshTokenCookie, tokens.RefreshToken, o.RefreshTTL))
}

func (o CookieOptions) clearSession(c echo.Context) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		ck := o.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.SetCookie(ck)
	}
}

func (o CookieOptions) cookie(name, value string, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.SameSite,
	}
	if ttl > 0 {
		ck.MaxAge = int(ttl.Seconds())
	}
	return ck
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

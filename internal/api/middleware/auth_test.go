package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

// stubTokens accepts "good" and reports "stale" as expired.
type stubTokens struct {
	ports.TokenService
}

func (stubTokens) ParseAccess(token string) (*domain.AccessClaims, error) {
	switch token {
	case "good":
		return &domain.AccessClaims{
			AccountID: "acc_1",
			Username:  "alice",
			Email:     "alice@x.com",
			Role:      domain.RoleAdmin,
			ExpiresAt: time.Now().Add(time.Minute),
		}, nil
	case "stale":
		return nil, domain.ErrTokenExpired
	default:
		return nil, domain.ErrUnauthorized
	}
}

func runAuth(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, bool, echo.Context) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(stubTokens{})(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called, c
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")

	rec, called, c := runAuth(t, req)

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c.Get(ContextAccountID) != "acc_1" {
		t.Fatalf("account id not set")
	}
	if c.Get(ContextUsername) != "alice" || c.Get(ContextEmail) != "alice@x.com" {
		t.Fatalf("identity not set")
	}
	if c.Get(ContextRole) != domain.RoleAdmin {
		t.Fatalf("role not set")
	}
}

func TestAuthMiddleware_CookieToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "good"})
	req.Header.Set("Authorization", "Bearer garbage")

	rec, called, _ := runAuth(t, req)

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected cookie to take precedence, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec, called, _ := runAuth(t, req)

	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")

	rec, called, _ := runAuth(t, req)

	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	rec, called, _ := runAuth(t, req)

	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "stale"})

	rec, called, _ := runAuth(t, req)

	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "access token expired") {
		t.Fatalf("expected expiry message, got %s", body)
	}
}

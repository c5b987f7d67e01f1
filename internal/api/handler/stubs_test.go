package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inkpost/blog-platform/internal/api/middleware"
	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

type stubSessionService struct {
	loginFn     func(ctx context.Context, creds ports.Credentials) (domain.LoginOutcome, error)
	verifyOTPFn func(ctx context.Context, email, code string) (domain.LoginOutcome, error)
	refreshFn   func(ctx context.Context, refreshToken string) (domain.LoginOutcome, error)
	logoutFn    func(ctx context.Context, accountID string) error
}

func (s *stubSessionService) Login(ctx context.Context, creds ports.Credentials) (domain.LoginOutcome, error) {
	return s.loginFn(ctx, creds)
}

func (s *stubSessionService) VerifyOTP(ctx context.Context, email, code string) (domain.LoginOutcome, error) {
	return s.verifyOTPFn(ctx, email, code)
}

func (s *stubSessionService) Refresh(ctx context.Context, refreshToken string) (domain.LoginOutcome, error) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubSessionService) Logout(ctx context.Context, accountID string) error {
	return s.logoutFn(ctx, accountID)
}

type stubAccountService struct {
	registerFn       func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error)
	getFn            func(ctx context.Context, id string) (*domain.Account, error)
	changePasswordFn func(ctx context.Context, id, oldPassword, newPassword string) error
	updateDetailsFn  func(ctx context.Context, id, fullName, email string) (*domain.Account, error)
	deleteFn         func(ctx context.Context, id string) error
}

func (s *stubAccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *stubAccountService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	return s.changePasswordFn(ctx, id, oldPassword, newPassword)
}

func (s *stubAccountService) UpdateDetails(ctx context.Context, id, fullName, email string) (*domain.Account, error) {
	return s.updateDetailsFn(ctx, id, fullName, email)
}

func (s *stubAccountService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

var testCookies = CookieOptions{
	Secure:     true,
	SameSite:   http.SameSiteLaxMode,
	AccessTTL:  15 * time.Minute,
	RefreshTTL: 240 * time.Hour,
}

func newAuthHandler(sessions ports.SessionService, accounts ports.AccountService) *AuthHandler {
	return NewAuthHandler(sessions, accounts, testCookies, zerolog.Nop())
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// withPrincipal mimics the Auth middleware.
func withPrincipal(c echo.Context, id, role string) {
	c.Set(middleware.ContextAccountID, id)
	c.Set(middleware.ContextUsername, "alice")
	c.Set(middleware.ContextEmail, "alice@x.com")
	c.Set(middleware.ContextRole, role)
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, ck := range rec.Result().Cookies() {
		out[ck.Name] = ck
	}
	return out
}

func httpStatus(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

var alice = &domain.Account{
	ID:       "acc_1",
	Username: "alice",
	Email:    "alice@x.com",
	FullName: "Alice Liddell",
	Role:     domain.RoleUser,
	Status:   domain.StatusActive,
}

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inkpost/blog-platform/internal/api/metrics"
	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

// AuthHandler serves the sign-in flow: register, password login, OTP
// verification, refresh and logout.
type AuthHandler struct {
	sessions ports.SessionService
	accounts ports.AccountService
	cookies  CookieOptions
	log      zerolog.Logger
}

func NewAuthHandler(sessions ports.SessionService, accounts ports.AccountService, cookies CookieOptions, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, accounts: accounts, cookies: cookies, log: log}
}

type registerRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required_without=Username"`
	Username string `json:"username" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type accountResponse struct {
	User *domain.Account `json:"user"`
}

type otpChallengeResponse struct {
	RequiresOTP bool   `json:"requiresOtp"`
	Email       string `json:"email"`
	Message     string `json:"message"`
}

type sessionResponse struct {
	User         *domain.Account `json:"user"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates a new account with the default user role.
//
// @Summary      Register a new account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/users/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     domain.RoleUser,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, accountResponse{User: account})
}

// Login checks the password and mails a one-time code. No token is issued
// until the code is verified.
//
// @Summary      Password login (first factor)
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Email or username, and password"
// @Success      200   {object}  otpChallengeResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	outcome, err := h.sessions.Login(c.Request().Context(), ports.Credentials{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}

	challenge, ok := outcome.(domain.NeedsOTP)
	if !ok {
		return errors.New("login: unexpected outcome")
	}
	metrics.LoginAttemptsTotal.WithLabelValues("otp_sent").Inc()

	return c.JSON(http.StatusOK, otpChallengeResponse{
		RequiresOTP: true,
		Email:       challenge.Email,
		Message:     "OTP sent to email",
	})
}

// VerifyOTP completes sign-in and sets the session cookies.
//
// @Summary      Verify one-time code (second factor)
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      verifyOTPRequest  true  "Email and code"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/users/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	outcome, err := h.sessions.VerifyOTP(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		metrics.OTPVerificationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return err
	}
	metrics.OTPVerificationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	return h.writeSession(c, outcome)
}

// RefreshToken rotates the refresh token. The token is read from the cookie,
// falling back to the JSON body. Any failure clears the session cookies.
//
// @Summary      Rotate session tokens
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token when no cookie is sent"
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/users/refresh-token [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	presented := cookieValue(c, refreshTokenCookie)
	if presented == "" {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	outcome, err := h.sessions.Refresh(c.Request().Context(), presented)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		h.cookies.clearSession(c)
		if domain.IsUnauthorized(err) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired refresh token")
		}
		return err
	}
	metrics.TokenRefreshesTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	return h.writeSession(c, outcome)
}

// Logout revokes the refresh token and clears the session cookies. Cookies
// are cleared even when revocation fails.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/users/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.sessions.Logout(c.Request().Context(), p.AccountID); err != nil {
		h.log.Warn().Err(err).Str("account_id", p.AccountID).Msg("refresh token revocation failed")
	}
	h.cookies.clearSession(c)
	metrics.LogoutsTotal.Inc()

	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *AuthHandler) writeSession(c echo.Context, outcome domain.LoginOutcome) error {
	auth, ok := outcome.(domain.Authenticated)
	if !ok {
		return errors.New("session: unexpected outcome")
	}

	h.cookies.setSession(c, auth.Tokens)
	return c.JSON(http.StatusOK, sessionResponse{
		User:         auth.Account,
		AccessToken:  auth.Tokens.AccessToken,
		RefreshToken: auth.Tokens.RefreshToken,
	})
}

func loginResult(err error) string {
	if domain.IsUnauthorized(err) || errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrAccountNotFound) {
		return "rejected"
	}
	return "error"
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

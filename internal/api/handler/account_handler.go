package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkpost/blog-platform/internal/core/ports"
)

// AccountHandler serves self-service account endpoints and admin removal.
type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// CurrentUser returns the signed-in account.
//
// @Summary      Current account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/users/current-user [get]
func (h *AccountHandler) CurrentUser(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	account, err := h.accounts.Get(c.Request().Context(), p.AccountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{User: account})
}

// ChangePassword replaces the password after checking the current one.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/users/change-password [post]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ChangePassword(c.Request().Context(), p.AccountID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password changed successfully"})
}

// UpdateAccount changes the display name and email.
//
// @Summary      Update account details
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateAccountRequest  true  "New details"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/users/update-account [patch]
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.UpdateDetails(c.Request().Context(), p.AccountID, req.FullName, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{User: account})
}

// Delete removes an account. Admin only.
//
// @Summary      Delete an account
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/admin/users/{id} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	if err := h.accounts.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "account deleted"})
}

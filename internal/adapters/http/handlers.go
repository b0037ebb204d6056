package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/core/internal/infrastructure/config"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// AuthHandler handles registration, email verification and sessions
type AuthHandler struct {
	authService ports.AuthService
	cookies     config.AuthConfig
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, cookies config.AuthConfig, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
		logger:      logger,
	}
}

// Register godoc
// @Summary Register an account
// @Description Creates an unverified account and mails an activation link
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.RegisterRequest true "Account data"
// @Success 201 {object} ports.Result
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusCreated, result)
}

// VerifyEmail godoc
// @Summary Verify an email address
// @Tags auth
// @Produce json
// @Param token query string true "Activation token"
// @Success 200 {object} ports.Result
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /auth/verify [get]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return badRequest("Missing token")
	}

	result, err := h.authService.VerifyEmail(c.Request().Context(), token)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}

// ResendVerification godoc
// @Summary Resend the activation mail
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.ResendVerificationRequest true "Email"
// @Success 200 {object} ports.Result
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/verify/resend [post]
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req ports.ResendVerificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.ResendVerification(c.Request().Context(), req.Email)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}

// Login godoc
// @Summary Log in
// @Description Returns an access and a refresh token and sets them as HttpOnly cookies
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} ports.AuthResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.LogSecurityEvent("login_failed", "", c.RealIP(), map[string]interface{}{
			"email": req.Email,
			"error": err.Error(),
		})
		return Fail(err)
	}

	h.setSessionCookies(c, response)
	return c.JSON(http.StatusOK, response)
}

// Refresh godoc
// @Summary Rotate the refresh token
// @Description Reads the refresh token from the body or the refresh cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.RefreshRequest false "Refresh token"
// @Success 200 {object} ports.AuthResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := h.refreshToken(c)
	if token == "" {
		return errNeedLogin
	}

	response, err := h.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		h.clearSessionCookies(c)
		return Fail(err)
	}

	h.setSessionCookies(c, response)
	return c.JSON(http.StatusOK, response)
}

// Logout godoc
// @Summary Log out
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.RefreshRequest false "Refresh token"
// @Success 200 {object} ports.Result
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := h.refreshToken(c); token != "" {
		if err := h.authService.Logout(c.Request().Context(), token); err != nil {
			return Fail(err)
		}
	}

	h.clearSessionCookies(c)
	return ok(c, http.StatusOK, ports.Success("Logged out"))
}

func (h *AuthHandler) refreshToken(c echo.Context) string {
	var req ports.RefreshRequest
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := c.Cookie(h.cookies.RefreshCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *AuthHandler) setSessionCookies(c echo.Context, response *ports.AuthResponse) {
	c.SetCookie(h.cookie(h.cookies.AccessCookie, response.AccessToken, time.Duration(response.ExpiresIn)*time.Second))
	c.SetCookie(h.cookie(h.cookies.RefreshCookie, response.RefreshToken, time.Duration(response.RefreshExpiresIn)*time.Second))
}

func (h *AuthHandler) clearSessionCookies(c echo.Context) {
	c.SetCookie(h.cookie(h.cookies.AccessCookie, "", -time.Second))
	c.SetCookie(h.cookie(h.cookies.RefreshCookie, "", -time.Second))
}

func (h *AuthHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// AccountHandler serves the caller's own profile
type AccountHandler struct {
	accountService ports.AccountService
	logger         *logger.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService ports.AccountService, logger *logger.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Profile godoc
// @Summary Current account
// @Tags account
// @Produce json
// @Success 200 {object} ports.Result
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /account [get]
func (h *AccountHandler) Profile(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}

	account, err := h.accountService.Profile(c.Request().Context(), user)
	if err != nil {
		return Fail(err)
	}
	return data(c, "account", account)
}

// UpdateProfile godoc
// @Summary Update nickname or avatar
// @Tags account
// @Accept json
// @Produce json
// @Param request body ports.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} ports.Result
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /account [patch]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	var req ports.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.accountService.UpdateProfile(c.Request().Context(), req, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}

// ChangePassword godoc
// @Summary Change password
// @Description Revokes every refresh token of the account
// @Tags account
// @Accept json
// @Produce json
// @Param request body ports.ChangePasswordRequest true "Old and new password"
// @Success 200 {object} ports.Result
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /account/password [put]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	var req ports.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.accountService.ChangePassword(c.Request().Context(), req, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}

package server

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/taskboard/core/internal/adapters/http"
	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/ports"
)

// authMiddleware resolves the access token from the Authorization header or
// the access cookie, loads the account and stores it on the echo context.
func (s *Server) authMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := s.accessToken(c)
			if token == "" {
				return httpHandlers.Fail(entities.ErrTokenInvalid)
			}

			claims, err := s.app.Auth.ValidateAccessToken(token)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"error": err.Error(),
				})
				return httpHandlers.Fail(err)
			}

			account, err := s.app.Accounts.GetByID(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, ports.ErrNotFound) {
					return httpHandlers.Fail(entities.ErrTokenInvalid)
				}
				return httpHandlers.Fail(err)
			}
			if account.Archived {
				return httpHandlers.Fail(entities.ErrAccountArchived)
			}

			c.Set(httpHandlers.AccountKey, account)
			return next(c)
		}
	}
}

func (s *Server) accessToken(c echo.Context) string {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(s.config.Auth.AccessCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func accountFrom(c echo.Context) *entities.Account {
	account, _ := c.Get(httpHandlers.AccountKey).(*entities.Account)
	return account
}

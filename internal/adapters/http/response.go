package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/ports"
)

// AccountKey is the echo context key the auth middleware stores the caller under.
const AccountKey = "account"

var errNeedLogin = echo.NewHTTPError(http.StatusUnauthorized, ports.Failure(ports.CodeNeedLogin, "Login required"))

// ErrorResponse documents the failure envelope for swagger.
type ErrorResponse struct {
	Code    ports.ResultCode `json:"code"`
	Message string           `json:"message"`
}

// Fail converts an error returned by a service into an HTTP error carrying
// the failure envelope. Unexpected errors keep the cause as Internal so the
// error handler can log it.
func Fail(err error) *echo.HTTPError {
	status, code := classify(err)

	var de *entities.Error
	message := http.StatusText(status)
	if errors.As(err, &de) && status < http.StatusInternalServerError {
		message = de.Message
	}

	he := echo.NewHTTPError(status, ports.Failure(code, message))
	if status >= http.StatusInternalServerError {
		he.Internal = err
	}
	return he
}

func classify(err error) (int, ports.ResultCode) {
	switch {
	case errors.Is(err, entities.ErrTokenExpired):
		return http.StatusUnauthorized, ports.CodeTokenExpired
	case errors.Is(err, entities.ErrBadCredentials):
		return http.StatusUnauthorized, ports.CodeBadCredentials
	case errors.Is(err, entities.ErrEmailNotVerified):
		return http.StatusForbidden, ports.CodeEmailNotVerified
	}

	switch entities.KindOf(err) {
	case entities.KindValidation:
		return http.StatusBadRequest, ports.CodeBadArgument
	case entities.KindAuthorization:
		return http.StatusForbidden, ports.CodeAccessDenied
	case entities.KindAuthentication:
		return http.StatusUnauthorized, ports.CodeNeedLogin
	case entities.KindNotFound:
		return http.StatusNotFound, ports.CodeNotFound
	case entities.KindInvariant:
		return http.StatusConflict, ports.CodeBusinessError
	}
	return http.StatusInternalServerError, ports.CodeError
}

// badRequest covers malformed bodies and path parameters.
func badRequest(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, ports.Failure(ports.CodeBadArgument, message))
}

// bindAndValidate decodes the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return badRequest(verrs[0].Field() + " failed on " + verrs[0].Tag())
		}
		return badRequest(err.Error())
	}
	return nil
}

func currentAccount(c echo.Context) (*entities.Account, error) {
	account, ok := c.Get(AccountKey).(*entities.Account)
	if !ok || account == nil {
		return nil, errNeedLogin
	}
	return account, nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, badRequest("Invalid " + name)
	}
	return id, nil
}

func int64Param(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("Invalid " + name)
	}
	return id, nil
}

func ok(c echo.Context, status int, result *ports.Result) error {
	return c.JSON(status, result)
}

// data wraps a read in a success envelope.
func data(c echo.Context, key string, value interface{}) error {
	return c.JSON(http.StatusOK, ports.Success("OK").With(key, value))
}

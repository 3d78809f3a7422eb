package serviceutils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_proxy/internal/domain"
	"github.com/locvowork/employee_proxy/internal/logger"
)

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message"`
	Fields  []domain.FieldViolation `json:"fields,omitempty"`
}

// StatusFor maps a domain error to the HTTP status returned to callers.
func StatusFor(err error) int {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		upstreamErr   *domain.UpstreamError
		httpErr       *echo.HTTPError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	case errors.As(err, &httpErr):
		return httpErr.Code
	default:
		return http.StatusInternalServerError
	}
}

// ResponseError writes err as an ErrorResponse with the status StatusFor picks.
// message is used for dependency and internal failures, whose causes are
// logged instead of returned.
func ResponseError(c echo.Context, message string, err error) error {
	return ResponseErrorStatus(c, StatusFor(err), message, err)
}

// ResponseErrorStatus is ResponseError with an explicit status.
func ResponseErrorStatus(c echo.Context, status int, message string, err error) error {
	ctx := c.Request().Context()
	body := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		body.Fields = validationErr.Violations
	case status < http.StatusInternalServerError && err != nil:
		body.Message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorLog(ctx, message, err)
	} else {
		logger.WarnLog(ctx, "%s: %v", message, err)
	}
	return c.JSON(status, body)
}

// ResponseSuccess writes data as JSON.
func ResponseSuccess(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, data)
}

package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Eursukkul/ewm-service/internal/apperr"
	"github.com/Eursukkul/ewm-service/internal/dto"
	"github.com/labstack/echo/v4"
)

// RetryAfterSeconds is advertised on 503 responses.
const RetryAfterSeconds = 1

var reasons = map[int]string{
	http.StatusBadRequest:          "Incorrectly made request.",
	http.StatusForbidden:           "For the requested operation the conditions are not met.",
	http.StatusNotFound:            "The required object was not found.",
	http.StatusConflict:            "Integrity constraint has been violated.",
	http.StatusServiceUnavailable:  "The resource is busy, retry later.",
	http.StatusInternalServerError: "Internal server error.",
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrAuthorization:
		return http.StatusForbidden
	case apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := StatusOf(err)
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}

	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		slog.ErrorContext(c.Request().Context(), "request failed", "component", "http",
			"method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
		msg = "internal server error"
	}
	if code == http.StatusServiceUnavailable {
		c.Response().Header().Set("Retry-After", fmt.Sprint(RetryAfterSeconds))
	}

	reason, ok := reasons[code]
	if !ok {
		reason = http.StatusText(code)
	}

	body := dto.ApiError{
		Status:    strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_")),
		Reason:    reason,
		Message:   msg,
		Timestamp: dto.NewDateTime(time.Now()),
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, body)
}

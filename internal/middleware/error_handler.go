package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "catalog/internal/errors"
)

// ErrorHandler renders echo's own errors (unknown route, wrong method, bad
// body) with the same {"detail", "code"} shape the handlers use, and leaves
// structured bodies as they are.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he := &echo.HTTPError{}
	if !errors.As(err, &he) {
		he = apperrors.EchoError(err)
	}

	body := he.Message
	if msg, ok := he.Message.(string); ok {
		body = apperrors.ErrorResponse{Detail: detail(he.Code, msg), Code: codeFor(he.Code)}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, body)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

func detail(status int, msg string) string {
	if msg == "" || strings.EqualFold(msg, http.StatusText(status)) {
		if status == http.StatusNotFound {
			return "Not found."
		}
		return http.StatusText(status)
	}
	return msg
}

func codeFor(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusUnauthorized:
		return "not_authenticated"
	case http.StatusBadRequest:
		return "parse_error"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	case http.StatusRequestEntityTooLarge:
		return "request_too_large"
	case http.StatusTooManyRequests:
		return "throttled"
	default:
		if status >= 500 {
			return "internal_error"
		}
		return "error"
	}
}

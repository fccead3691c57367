package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"academy/internal/dto"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// HTTPErrorHandler renders errors that escape handlers, including those from
// echo itself and from middleware, in the same envelope as handler errors.
func HTTPErrorHandler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := ""
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			if text, ok := httpErr.Message.(string); ok {
				message = text
			} else if httpErr.Message != nil {
				message = fmt.Sprint(httpErr.Message)
			}
		}

		kind := errorKind(status)
		if status >= http.StatusInternalServerError {
			if logger != nil {
				logger.WithError(err).WithField("path", c.Path()).Error("unhandled error")
			}
			message = "internal server error"
		}
		if message == "" {
			message = strings.ToLower(http.StatusText(status))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, dto.ErrorResponse{Error: kind, Message: message})
		}
		if writeErr != nil && logger != nil {
			logger.WithError(writeErr).Warn("write error response")
		}
	}
}

func errorKind(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "validation_error"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status >= http.StatusInternalServerError:
		return "internal_error"
	}
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}

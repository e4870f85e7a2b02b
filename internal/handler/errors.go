package handler

import (
	"errors"
	"game-discount-app/internal/dto"
	"game-discount-app/internal/service"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every error as {"error": msg}. Unclassified errors are
// logged and reported with a generic message.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := classifyError(err)
		if status == http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method, "path", c.Path(), "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, &dto.ErrorResponse{Error: message})
		}
		if err != nil {
			logger.Error("write error response", "error", err)
		}
	}
}

func classifyError(err error) (int, string) {
	var claimErr *service.ClaimError
	if errors.As(err, &claimErr) {
		return claimErr.Status, claimErr.Message
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, msg
		}
		return httpErr.Code, http.StatusText(httpErr.Code)
	}

	switch {
	case errors.Is(err, service.ErrInvalidHMAC):
		return http.StatusUnauthorized, "invalid hmac"
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusBadRequest, service.ErrInvalidState.Error()
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	}

	return http.StatusInternalServerError, service.MsgUnexpectedFailed
}

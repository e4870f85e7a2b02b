package handler

import (
	"game-discount-app/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) Install(c echo.Context) error {
	ctx := c.Request().Context()

	authorizeURL, err := h.authService.BeginInstall(ctx, c.QueryParam("shop"))
	if err != nil {
		return err
	}

	return c.Redirect(http.StatusFound, authorizeURL)
}

func (h *AuthHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	adminURL, err := h.authService.CompleteInstall(ctx, c.QueryParams())
	if err != nil {
		return err
	}

	return c.Redirect(http.StatusFound, adminURL)
}

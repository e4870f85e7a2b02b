package handler

import (
	"game-discount-app/internal/dto"
	"game-discount-app/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type StorefrontHandler struct {
	settingsService service.SettingsService
	gamePlayService service.GamePlayService
}

func NewStorefrontHandler(settingsService service.SettingsService, gamePlayService service.GamePlayService) *StorefrontHandler {
	return &StorefrontHandler{
		settingsService: settingsService,
		gamePlayService: gamePlayService,
	}
}

func (h *StorefrontHandler) PopupConfig(c echo.Context) error {
	ctx := c.Request().Context()

	settings, err := h.settingsService.PopupConfig(ctx, c.QueryParam("shop"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewPopupConfigResponse(settings))
}

func (h *StorefrontHandler) RecordGamePlay(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.GamePlayRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	err := h.gamePlayService.RecordPlay(ctx, &service.GamePlayInput{
		Shop:     req.Shop,
		GameType: req.GameType,
		Device:   req.Device,
		Score:    req.Score,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{
		"success": true,
	})
}

package handler

import (
	"game-discount-app/internal/dto"
	"game-discount-app/internal/middleware"
	"game-discount-app/internal/model"
	"game-discount-app/internal/repository"
	"game-discount-app/internal/service"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const defaultClaimsLimit = 20

type AdminHandler struct {
	settingsService service.SettingsService
	claimService    service.ClaimService
}

func NewAdminHandler(settingsService service.SettingsService, claimService service.ClaimService) *AdminHandler {
	return &AdminHandler{
		settingsService: settingsService,
		claimService:    claimService,
	}
}

func (h *AdminHandler) GetSettings(c echo.Context) error {
	ctx := c.Request().Context()

	settings, err := h.settingsService.GetSettings(ctx, middleware.ShopFromContext(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewSettingsResponse(settings))
}

func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	settings, err := h.settingsService.UpdateSettings(ctx, middleware.ShopFromContext(c), &repository.SettingsUpdate{
		DiscountCodePrefix: req.DiscountCodePrefix,
		RequireName:        req.RequireName,
		RequireEmail:       req.RequireEmail,
		MaxDiscount:        req.MaxDiscount,
		GameType:           model.GameType(req.GameType),
		PopupEnabled:       req.PopupEnabled,
		PopupTitle:         req.PopupTitle,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewSettingsResponse(settings))
}

func (h *AdminHandler) ListClaims(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := intQueryParam(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := intQueryParam(c, "limit", defaultClaimsLimit)
	if err != nil {
		return err
	}

	claims, total, err := h.claimService.ListClaims(ctx, middleware.ShopFromContext(c), page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.ClaimListResponse{
		Data:  claims,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func intQueryParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

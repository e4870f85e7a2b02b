package handler

import (
	"game-discount-app/internal/dto"
	"game-discount-app/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type DiscountHandler struct {
	claimService service.ClaimService
}

func NewDiscountHandler(claimService service.ClaimService) *DiscountHandler {
	return &DiscountHandler{
		claimService: claimService,
	}
}

func (h *DiscountHandler) ClaimDiscount(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ClaimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	result, err := h.claimService.Claim(ctx, &service.ClaimInput{
		Shop:       req.Shop,
		Email:      req.Email,
		Percentage: string(req.Percentage),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		GameType:   req.GameType,
		Device:     req.Device,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.ClaimResponse{
		DiscountCode: result.DiscountCode,
		Email:        result.Email,
		Success:      true,
	})
}

// Preflight answers CORS OPTIONS requests from the storefront iframe.
func Preflight(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

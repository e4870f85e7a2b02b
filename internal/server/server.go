package server

import (
	"context"
	"game-discount-app/internal/config"
	"game-discount-app/internal/handler"
	appmiddleware "game-discount-app/internal/middleware"
	"game-discount-app/internal/service"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Services struct {
	Claim    service.ClaimService
	Settings service.SettingsService
	GamePlay service.GamePlayService
	Webhook  service.WebhookService
	Auth     service.AuthService
}

type Server struct {
	echo              *echo.Echo
	shopifyCfg        *config.Shopify
	discountHandler   *handler.DiscountHandler
	storefrontHandler *handler.StorefrontHandler
	adminHandler      *handler.AdminHandler
	webhookHandler    *handler.WebhookHandler
	authHandler       *handler.AuthHandler
}

func NewServer(shopifyCfg *config.Shopify, services *Services, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	s := &Server{
		echo:              e,
		shopifyCfg:        shopifyCfg,
		discountHandler:   handler.NewDiscountHandler(services.Claim),
		storefrontHandler: handler.NewStorefrontHandler(services.Settings, services.GamePlay),
		adminHandler:      handler.NewAdminHandler(services.Settings, services.Claim),
		webhookHandler:    handler.NewWebhookHandler(services.Webhook),
		authHandler:       handler.NewAuthHandler(services.Auth),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- storefront (called from the game iframe) --------
	storefront := api.Group("", middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))
	storefront.POST("/discount-code", s.discountHandler.ClaimDiscount)
	storefront.OPTIONS("/discount-code", handler.Preflight)
	storefront.GET("/popup-config", s.storefrontHandler.PopupConfig)
	storefront.POST("/game-play", s.storefrontHandler.RecordGamePlay)
	storefront.OPTIONS("/game-play", handler.Preflight)

	// -------- embedded admin --------
	admin := api.Group("/admin", appmiddleware.SessionTokenAuth(s.shopifyCfg.APIKey, s.shopifyCfg.APISecret))
	admin.GET("/settings", s.adminHandler.GetSettings)
	admin.PUT("/settings", s.adminHandler.UpdateSettings)
	admin.GET("/claims", s.adminHandler.ListClaims)

	// -------- shopify oauth / webhooks --------
	auth := s.echo.Group("/auth")
	auth.GET("/install", s.authHandler.Install)
	auth.GET("/callback", s.authHandler.Callback)

	s.echo.POST("/webhooks", s.webhookHandler.ShopifyWebhook)
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

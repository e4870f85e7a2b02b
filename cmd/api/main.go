package main

import (
	"context"
	"errors"
	"fmt"
	"game-discount-app/internal/client"
	"game-discount-app/internal/config"
	"game-discount-app/internal/repository"
	"game-discount-app/internal/security"
	"game-discount-app/internal/server"
	"game-discount-app/internal/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)

	db, err := client.OpenDatabase(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	var sealer security.TokenSealer
	if cfg.TokenEncKeyB64 != "" {
		sealer, err = security.NewTokenSealer(cfg.TokenEncKeyB64)
		if err != nil {
			logger.Error("invalid TOKEN_ENC_KEY_B64", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("TOKEN_ENC_KEY_B64 not set, access tokens are stored unencrypted")
	}

	shopifyClient := client.NewShopifyClient(&cfg.Shopify)

	settingsRepo := repository.NewSettingsRepository(db)
	sessionRepo := repository.NewSessionRepository(db, sealer)
	claimRepo := repository.NewClaimRepository(db)
	gamePlayRepo := repository.NewGamePlayRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	stateRepo := repository.NewOAuthStateRepository(db)

	services := &server.Services{
		Claim:    service.NewClaimService(settingsRepo, sessionRepo, claimRepo, shopifyClient, logger),
		Settings: service.NewSettingsService(settingsRepo),
		GamePlay: service.NewGamePlayService(gamePlayRepo),
		Webhook: service.NewWebhookService(
			db, cfg.Shopify.APISecret,
			settingsRepo,
			sessionRepo,
			claimRepo,
			gamePlayRepo,
			webhookEventRepo,
			logger,
		),
		Auth: service.NewAuthService(
			cfg.AppURL, &cfg.Shopify,
			shopifyClient,
			stateRepo,
			sessionRepo,
			settingsRepo,
			logger,
		),
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(&cfg.Shopify, services, logger)

	logger.Info("starting HTTP server", "addr", serverAddr, "environment", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
}

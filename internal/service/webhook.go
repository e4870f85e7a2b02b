package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"game-discount-app/internal/model"
	"game-discount-app/internal/repository"
	"game-discount-app/internal/security"
	"log/slog"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

var ErrInvalidHMAC = errors.New("invalid hmac")

const (
	TopicAppUninstalled       = "app/uninstalled"
	TopicShopRedact           = "shop/redact"
	TopicCustomersRedact      = "customers/redact"
	TopicCustomersDataRequest = "customers/data_request"
)

type WebhookService interface {
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
}

type webhookServiceImpl struct {
	db               *gorm.DB
	apiSecret        string
	settingsRepo     repository.SettingsRepository
	sessionRepo      repository.SessionRepository
	claimRepo        repository.ClaimRepository
	gamePlayRepo     repository.GamePlayRepository
	webhookEventRepo repository.WebhookEventRepository
	logger           *slog.Logger
}

func NewWebhookService(
	db *gorm.DB,
	apiSecret string,
	settingsRepo repository.SettingsRepository,
	sessionRepo repository.SessionRepository,
	claimRepo repository.ClaimRepository,
	gamePlayRepo repository.GamePlayRepository,
	webhookEventRepo repository.WebhookEventRepository,
	logger *slog.Logger,
) WebhookService {
	return &webhookServiceImpl{
		db:               db,
		apiSecret:        apiSecret,
		settingsRepo:     settingsRepo,
		sessionRepo:      sessionRepo,
		claimRepo:        claimRepo,
		gamePlayRepo:     gamePlayRepo,
		webhookEventRepo: webhookEventRepo,
		logger:           logger,
	}
}

func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if !security.VerifyWebhookHMAC(body, headers.Get("X-Shopify-Hmac-Sha256"), s.apiSecret) {
		return ErrInvalidHMAC
	}

	topic := strings.ToLower(headers.Get("X-Shopify-Topic"))
	shop := headers.Get("X-Shopify-Shop-Domain")
	webhookID := headers.Get("X-Shopify-Webhook-Id")

	if webhookID != "" {
		seen, err := s.webhookEventRepo.Exists(ctx, webhookID)
		if err != nil {
			return fmt.Errorf("check webhook event: %w", err)
		}
		if seen {
			s.logger.Info("duplicate webhook skipped", "topic", topic, "shop", shop, "webhook_id", webhookID)
			return nil
		}
	}

	switch topic {
	case TopicAppUninstalled:
		if err := s.purgeShop(ctx, shop, false); err != nil {
			return err
		}
	case TopicShopRedact:
		var payload model.ShopRedactPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("decode shop/redact payload: %w", err)
		}
		if payload.ShopDomain != "" {
			shop = payload.ShopDomain
		}
		if err := s.purgeShop(ctx, shop, true); err != nil {
			return err
		}
	case TopicCustomersRedact:
		if err := s.redactCustomer(ctx, shop, body); err != nil {
			return err
		}
	case TopicCustomersDataRequest:
		var payload model.CustomersDataRequestPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("decode customers/data_request payload: %w", err)
		}
		s.logger.Info("customer data request received",
			"shop", shop, "customer_id", payload.Customer.ID, "data_request_id", payload.DataRequest.ID)
	default:
		s.logger.Info("unhandled webhook topic acknowledged", "topic", topic, "shop", shop)
	}

	if webhookID != "" {
		if _, err := s.webhookEventRepo.MarkProcessed(ctx, webhookID, topic, shop); err != nil {
			return fmt.Errorf("mark webhook processed: %w", err)
		}
	}

	return nil
}

// purgeShop removes everything stored for a shop in one transaction.
func (s *webhookServiceImpl) purgeShop(ctx context.Context, shop string, includeEvents bool) error {
	if shop == "" {
		return fmt.Errorf("%w: missing shop domain", ErrInvalidInput)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.DeleteShop(ctx, tx, shop); err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		if err := s.settingsRepo.DeleteShop(ctx, tx, shop); err != nil {
			return fmt.Errorf("delete settings: %w", err)
		}
		if err := s.claimRepo.DeleteShop(ctx, tx, shop); err != nil {
			return fmt.Errorf("delete claims: %w", err)
		}
		if err := s.gamePlayRepo.DeleteShop(ctx, tx, shop); err != nil {
			return fmt.Errorf("delete game plays: %w", err)
		}
		if includeEvents {
			if err := s.webhookEventRepo.DeleteShop(ctx, tx, shop); err != nil {
				return fmt.Errorf("delete webhook events: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("purge shop %s: %w", shop, err)
	}

	s.logger.Info("shop data purged", "shop", shop)
	return nil
}

func (s *webhookServiceImpl) redactCustomer(ctx context.Context, shop string, body []byte) error {
	var payload model.CustomersRedactPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode customers/redact payload: %w", err)
	}
	if payload.ShopDomain != "" {
		shop = payload.ShopDomain
	}

	email := strings.TrimSpace(payload.Customer.Email)
	if email == "" {
		s.logger.Info("customer redact without email", "shop", shop, "customer_id", payload.Customer.ID)
		return nil
	}

	deleted, err := s.claimRepo.DeleteByEmail(ctx, shop, email)
	if err != nil {
		return fmt.Errorf("redact customer claims: %w", err)
	}

	s.logger.Info("customer claims redacted", "shop", shop, "deleted", deleted)
	return nil
}

package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"game-discount-app/internal/client"
	"game-discount-app/internal/config"
	"game-discount-app/internal/model"
	"game-discount-app/internal/repository"
	"game-discount-app/internal/security"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

const oauthStateTTL = 10 * time.Minute

var ErrInvalidState = errors.New("invalid or expired oauth state")

type AuthService interface {
	// BeginInstall stores a fresh state and returns the Shopify authorize URL.
	BeginInstall(ctx context.Context, shop string) (string, error)
	// CompleteInstall verifies the callback, stores the offline session and returns the admin URL.
	CompleteInstall(ctx context.Context, params url.Values) (string, error)
}

type authServiceImpl struct {
	appURL        string
	shopifyCfg    *config.Shopify
	shopifyClient client.ShopifyClient
	stateRepo     repository.OAuthStateRepository
	sessionRepo   repository.SessionRepository
	settingsRepo  repository.SettingsRepository
	logger        *slog.Logger
	now           func() time.Time
}

func NewAuthService(
	appURL string,
	shopifyCfg *config.Shopify,
	shopifyClient client.ShopifyClient,
	stateRepo repository.OAuthStateRepository,
	sessionRepo repository.SessionRepository,
	settingsRepo repository.SettingsRepository,
	logger *slog.Logger,
) AuthService {
	return &authServiceImpl{
		appURL:        strings.TrimRight(appURL, "/"),
		shopifyCfg:    shopifyCfg,
		shopifyClient: shopifyClient,
		stateRepo:     stateRepo,
		sessionRepo:   sessionRepo,
		settingsRepo:  settingsRepo,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *authServiceImpl) BeginInstall(ctx context.Context, shop string) (string, error) {
	shop = strings.ToLower(strings.TrimSpace(shop))
	if !IsCanonicalShopDomain(shop) {
		return "", fmt.Errorf("%w: shop must look like your-store.myshopify.com", ErrInvalidInput)
	}

	state, err := randomState(24)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	err = s.stateRepo.Create(ctx, &model.OAuthState{
		State:     state,
		Shop:      shop,
		ExpiresAt: s.now().UTC().Add(oauthStateTTL),
	})
	if err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}

	q := url.Values{}
	q.Set("client_id", s.shopifyCfg.APIKey)
	q.Set("scope", s.shopifyCfg.Scopes)
	q.Set("redirect_uri", s.appURL+"/auth/callback")
	q.Set("state", state)

	return fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shop, q.Encode()), nil
}

func (s *authServiceImpl) CompleteInstall(ctx context.Context, params url.Values) (string, error) {
	shop := strings.ToLower(strings.TrimSpace(params.Get("shop")))
	code := strings.TrimSpace(params.Get("code"))
	state := strings.TrimSpace(params.Get("state"))

	if !IsCanonicalShopDomain(shop) || code == "" || state == "" {
		return "", fmt.Errorf("%w: missing required oauth params", ErrInvalidInput)
	}
	if !security.VerifyQueryHMAC(params, s.shopifyCfg.APISecret) {
		return "", ErrInvalidHMAC
	}

	stored, err := s.stateRepo.Consume(ctx, state)
	if err != nil {
		if errors.Is(err, repository.ErrStateNotFound) {
			return "", ErrInvalidState
		}
		return "", fmt.Errorf("consume oauth state: %w", err)
	}
	if stored.Shop != shop || s.now().UTC().After(stored.ExpiresAt) {
		return "", ErrInvalidState
	}

	token, err := s.shopifyClient.ExchangeAccessToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("exchange access token: %w", err)
	}

	err = s.sessionRepo.Upsert(ctx, &model.Session{
		ID:          "offline_" + shop,
		Shop:        shop,
		State:       state,
		IsOnline:    false,
		Scope:       token.Scope,
		AccessToken: token.AccessToken,
	})
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	if _, err := s.settingsRepo.GetOrCreate(ctx, shop); err != nil {
		return "", fmt.Errorf("ensure settings: %w", err)
	}

	s.logger.Info("app installed", "shop", shop, "scope", token.Scope)

	storeHandle := strings.TrimSuffix(shop, ".myshopify.com")
	return fmt.Sprintf("https://admin.shopify.com/store/%s/apps/%s", storeHandle, s.shopifyCfg.APIKey), nil
}

func randomState(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

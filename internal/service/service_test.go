package service

import (
	"context"
	"game-discount-app/internal/client"
	"game-discount-app/internal/model"
	"game-discount-app/internal/repository"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/gorm"
)

var ctx = context.Background()

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.OpenDatabase("sqlite://"+filepath.Join(t.TempDir(), "test.db"), discardLogger())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubShopify replays scripted results and records the codes it was asked to create.
type stubShopify struct {
	mu      sync.Mutex
	results []*client.DiscountResult
	codes   []string
	token   *client.AccessToken
	err     error
	// onCreate runs before a create call returns.
	onCreate func()
}

func (s *stubShopify) CreateBasicCodeDiscount(ctx context.Context, shop, accessToken string, in *client.BasicCodeDiscountInput) *client.DiscountResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes = append(s.codes, in.Code)
	if s.onCreate != nil {
		s.onCreate()
	}
	if len(s.results) == 0 {
		return &client.DiscountResult{Outcome: client.OutcomeCreated, DiscountID: "gid://shopify/DiscountCodeNode/1", Code: in.Code}
	}
	res := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	if res.Outcome == client.OutcomeCreated && res.Code == "" {
		return &client.DiscountResult{Outcome: client.OutcomeCreated, DiscountID: res.DiscountID, Code: in.Code}
	}
	return res
}

func (s *stubShopify) ExchangeAccessToken(ctx context.Context, shop, code string) (*client.AccessToken, error) {
	return s.token, s.err
}

func (s *stubShopify) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.codes...)
}

type fixture struct {
	db           *gorm.DB
	settingsRepo repository.SettingsRepository
	sessionRepo  repository.SessionRepository
	claimRepo    repository.ClaimRepository
	shopify      *stubShopify
	claims       ClaimService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:           db,
		settingsRepo: repository.NewSettingsRepository(db),
		sessionRepo:  repository.NewSessionRepository(db, nil),
		claimRepo:    repository.NewClaimRepository(db),
		shopify:      &stubShopify{},
	}
	f.claims = NewClaimService(f.settingsRepo, f.sessionRepo, f.claimRepo, f.shopify, discardLogger())
	return f
}

func (f *fixture) install(t *testing.T, shop, token string) {
	t.Helper()
	err := f.sessionRepo.Upsert(ctx, &model.Session{ID: "offline_" + shop, Shop: shop, AccessToken: token})
	if err != nil {
		t.Fatalf("upsert session: %v", err)
	}
}

func (f *fixture) counter(t *testing.T, shop string) int64 {
	t.Helper()
	settings, err := f.settingsRepo.Get(ctx, shop)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	return settings.DiscountCodeOrderNumber
}

package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"game-discount-app/internal/client"
	"game-discount-app/internal/config"
	"game-discount-app/internal/model"
	"game-discount-app/internal/repository"
	"game-discount-app/internal/service"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const (
	testShop   = "demo.myshopify.com"
	testKey    = "app-key"
	testSecret = "app-secret"
)

type fakeShopify struct {
	outcome client.Outcome
	message string
}

func (f *fakeShopify) CreateBasicCodeDiscount(ctx context.Context, shop, accessToken string, in *client.BasicCodeDiscountInput) *client.DiscountResult {
	if f.outcome != "" && f.outcome != client.OutcomeCreated {
		return &client.DiscountResult{Outcome: f.outcome, Message: f.message}
	}
	return &client.DiscountResult{Outcome: client.OutcomeCreated, DiscountID: "gid://shopify/DiscountCodeNode/1", Code: in.Code}
}

func (f *fakeShopify) ExchangeAccessToken(ctx context.Context, shop, code string) (*client.AccessToken, error) {
	return &client.AccessToken{AccessToken: "shpat_1"}, nil
}

type testApp struct {
	srv     *httptest.Server
	db      *gorm.DB
	shopify *fakeShopify
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := client.OpenDatabase("sqlite://"+filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })

	cfg := &config.Shopify{APIKey: testKey, APISecret: testSecret, Scopes: "write_discounts"}
	shopify := &fakeShopify{}

	settingsRepo := repository.NewSettingsRepository(db)
	sessionRepo := repository.NewSessionRepository(db, nil)
	claimRepo := repository.NewClaimRepository(db)
	gamePlayRepo := repository.NewGamePlayRepository(db)

	services := &Services{
		Claim:    service.NewClaimService(settingsRepo, sessionRepo, claimRepo, shopify, logger),
		Settings: service.NewSettingsService(settingsRepo),
		GamePlay: service.NewGamePlayService(gamePlayRepo),
		Webhook: service.NewWebhookService(db, testSecret, settingsRepo, sessionRepo, claimRepo, gamePlayRepo,
			repository.NewWebhookEventRepository(db), logger),
		Auth: service.NewAuthService("https://app.example.com", cfg, shopify,
			repository.NewOAuthStateRepository(db), sessionRepo, settingsRepo, logger),
	}

	srv := httptest.NewServer(NewServer(cfg, services, logger).Handler())
	t.Cleanup(srv.Close)

	if err := sessionRepo.Upsert(context.Background(), &model.Session{ID: "offline_" + testShop, Shop: testShop, AccessToken: "shpat_1"}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	return &testApp{srv: srv, db: db, shopify: shopify}
}

func (a *testApp) do(t *testing.T, method, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func sessionToken(t *testing.T) string {
	t.Helper()
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"dest": "https://" + testShop,
		"aud":  testKey,
		"exp":  now.Add(time.Minute).Unix(),
		"nbf":  now.Add(-time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + token
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodGet, "/api/health", "", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", resp.StatusCode, body)
	}
}

func TestDiscountCodePreflight(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.do(t, http.MethodOptions, "/api/discount-code", "", map[string]string{
		"Origin":                         "https://demo.myshopify.com",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "Content-Type",
	})

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		t.Errorf("unexpected preflight status %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected allow origin *, got %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) || !strings.Contains(got, http.MethodOptions) {
		t.Errorf("expected POST and OPTIONS allowed, got %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Content-Type") {
		t.Errorf("expected Content-Type allowed, got %q", got)
	}
}

func TestClaimDiscountCode(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodPost, "/api/discount-code",
		`{"shop":"demo.myshopify.com","email":"player@example.com","percentage":16}`,
		map[string]string{"Origin": "https://demo.myshopify.com"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", resp.StatusCode, body)
	}
	if body["discountCode"] != "wincode16345" || body["email"] != "player@example.com" || body["success"] != true {
		t.Errorf("unexpected body %v", body)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected CORS header on response, got %q", got)
	}

	_, body = app.do(t, http.MethodPost, "/api/discount-code",
		`{"shop":"demo.myshopify.com","email":"player@example.com","percentage":"16%"}`, nil)
	if body["discountCode"] != "wincode16346" {
		t.Errorf("expected next order number, got %v", body)
	}
}

func TestClaimDiscountCodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		outcome client.Outcome
		status  int
		message string
	}{
		{
			name:    "missing fields",
			body:    `{"shop":"demo.myshopify.com"}`,
			status:  http.StatusBadRequest,
			message: "Missing required fields: shop, email, and percentage are required",
		},
		{
			name:    "bad percentage",
			body:    `{"shop":"demo.myshopify.com","email":"player@example.com","percentage":"abc"}`,
			status:  http.StatusBadRequest,
			message: "Percentage must be a number between 1 and 100",
		},
		{
			name:    "malformed json",
			body:    `{"shop":`,
			status:  http.StatusBadRequest,
			message: "Invalid request body",
		},
		{
			name:    "unknown shop",
			body:    `{"shop":"nobody.myshopify.com","email":"player@example.com","percentage":10}`,
			status:  http.StatusNotFound,
			message: "Store connection not found. Please reinstall the app.",
		},
		{
			name:    "upstream timeout",
			body:    `{"shop":"demo.myshopify.com","email":"player@example.com","percentage":10}`,
			outcome: client.OutcomeTimeout,
			status:  http.StatusInternalServerError,
			message: "Request timed out. Please try again.",
		},
		{
			name:    "always conflicting",
			body:    `{"shop":"demo.myshopify.com","email":"player@example.com","percentage":10}`,
			outcome: client.OutcomeConflict,
			status:  http.StatusInternalServerError,
			message: "Unable to create discount code after multiple attempts. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.shopify.outcome = tt.outcome

			resp, body := app.do(t, http.MethodPost, "/api/discount-code", tt.body, nil)
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if body["error"] != tt.message {
				t.Errorf("expected error %q, got %v", tt.message, body)
			}
		})
	}
}

func TestUnexpectedErrorIsHidden(t *testing.T) {
	app := newTestApp(t)
	sqlDB, _ := app.db.DB()
	sqlDB.Close()

	resp, body := app.do(t, http.MethodPost, "/api/discount-code",
		`{"shop":"demo.myshopify.com","email":"player@example.com","percentage":10}`, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
	if body["error"] != service.MsgUnexpectedFailed {
		t.Errorf("expected generic message, got %v", body)
	}
}

func TestStorefrontEndpoints(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodGet, "/api/popup-config?shop=demo.myshopify.com", "", nil)
	if resp.StatusCode != http.StatusOK || body["popupEnabled"] != true || body["gameType"] != "bouncing_ball" {
		t.Errorf("unexpected popup config %d %v", resp.StatusCode, body)
	}

	resp, body = app.do(t, http.MethodGet, "/api/popup-config?shop=bad", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad shop, got %d %v", resp.StatusCode, body)
	}

	resp, body = app.do(t, http.MethodPost, "/api/game-play",
		`{"shop":"demo.myshopify.com","gameType":"pass_the_gaps","device":"desktop","score":4}`, nil)
	if resp.StatusCode != http.StatusOK || body["success"] != true {
		t.Errorf("unexpected game-play response %d %v", resp.StatusCode, body)
	}

	resp, _ = app.do(t, http.MethodPost, "/api/game-play",
		`{"shop":"demo.myshopify.com","gameType":"pass_the_gaps","score":-1}`, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for negative score, got %d", resp.StatusCode)
	}
}

func TestAdminRoutes(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.do(t, http.MethodGet, "/api/admin/settings", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without session token, got %d", resp.StatusCode)
	}

	auth := map[string]string{"Authorization": sessionToken(t)}

	resp, body := app.do(t, http.MethodGet, "/api/admin/settings", "", auth)
	if resp.StatusCode != http.StatusOK || body["discountCodePrefix"] != "wincode" {
		t.Errorf("unexpected settings %d %v", resp.StatusCode, body)
	}

	resp, body = app.do(t, http.MethodPut, "/api/admin/settings",
		`{"discountCodePrefix":"promo","requireName":false,"requireEmail":true,"maxDiscount":40,"gameType":"reaction_click","popupEnabled":true,"popupTitle":"Go"}`, auth)
	if resp.StatusCode != http.StatusOK || body["discountCodePrefix"] != "promo" || body["maxDiscount"] != float64(40) {
		t.Errorf("unexpected update %d %v", resp.StatusCode, body)
	}

	resp, _ = app.do(t, http.MethodPut, "/api/admin/settings",
		`{"discountCodePrefix":"promo","maxDiscount":0,"gameType":"reaction_click"}`, auth)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid settings, got %d", resp.StatusCode)
	}

	app.do(t, http.MethodPost, "/api/discount-code",
		`{"shop":"demo.myshopify.com","email":"player@example.com","percentage":25}`, nil)

	resp, body = app.do(t, http.MethodGet, "/api/admin/claims?page=1&limit=10", "", auth)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected claims status %d", resp.StatusCode)
	}
	data, _ := body["data"].([]any)
	if body["total"] != float64(1) || len(data) != 1 || body["limit"] != float64(10) {
		t.Fatalf("unexpected claims listing %v", body)
	}
	if code := data[0].(map[string]any)["code"]; code != "promo25345" {
		t.Errorf("expected claim with new prefix, got %v", code)
	}

	resp, _ = app.do(t, http.MethodGet, "/api/admin/claims?limit=500", "", auth)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for limit 500, got %d", resp.StatusCode)
	}
}

func TestWebhookEndpoint(t *testing.T) {
	app := newTestApp(t)
	body := `{"domain":"demo.myshopify.com"}`

	resp, _ := app.do(t, http.MethodPost, "/webhooks", body, map[string]string{
		"X-Shopify-Topic":       "app/uninstalled",
		"X-Shopify-Hmac-Sha256": "invalid",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad hmac, got %d", resp.StatusCode)
	}

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	resp, _ = app.do(t, http.MethodPost, "/webhooks", body, map[string]string{
		"X-Shopify-Topic":       "app/uninstalled",
		"X-Shopify-Shop-Domain": testShop,
		"X-Shopify-Webhook-Id":  "wh-1",
		"X-Shopify-Hmac-Sha256": base64.StdEncoding.EncodeToString(mac.Sum(nil)),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	_, claim := app.do(t, http.MethodPost, "/api/discount-code",
		`{"shop":"demo.myshopify.com","email":"player@example.com","percentage":10}`, nil)
	if claim["error"] != "Store connection not found. Please reinstall the app." {
		t.Errorf("expected session removed by uninstall, got %v", claim)
	}
}

func TestInstallRedirect(t *testing.T) {
	app := newTestApp(t)
	app.srv.Client().CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, _ := app.do(t, http.MethodGet, "/auth/install?shop=demo.myshopify.com", "", nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "https://demo.myshopify.com/admin/oauth/authorize?") {
		t.Errorf("unexpected redirect %s", loc)
	}

	resp, _ = app.do(t, http.MethodGet, "/auth/callback?shop=demo.myshopify.com&code=x&state=y&hmac=00", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for forged callback, got %d", resp.StatusCode)
	}
}

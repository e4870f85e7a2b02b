package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"game-discount-app/internal/config"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUnauthorized = errors.New("shopify: unauthorized")

type ShopifyClient interface {
	// CreateBasicCodeDiscount makes one attempt and reports its outcome; it never retries.
	CreateBasicCodeDiscount(ctx context.Context, shop, accessToken string, in *BasicCodeDiscountInput) *DiscountResult
	ExchangeAccessToken(ctx context.Context, shop, code string) (*AccessToken, error)
}

type BasicCodeDiscountInput struct {
	Code        string
	Percentage  decimal.Decimal // 1-100
	OrderNumber int64
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

type shopifyClientImpl struct {
	httpClient   *http.Client
	apiKey       string
	apiSecret    string
	apiVersion   string
	adminBaseURL string
	timeout      time.Duration
	now          func() time.Time
}

func NewShopifyClient(cfg *config.Shopify) ShopifyClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &shopifyClientImpl{
		// no client-level timeout; each call carries its own deadline
		httpClient:   &http.Client{},
		apiKey:       cfg.APIKey,
		apiSecret:    cfg.APISecret,
		apiVersion:   cfg.APIVersion,
		adminBaseURL: strings.TrimRight(cfg.AdminBaseURL, "/"),
		timeout:      timeout,
		now:          time.Now,
	}
}

func (c *shopifyClientImpl) shopURL(shop string) string {
	if c.adminBaseURL != "" {
		return c.adminBaseURL
	}
	return "https://" + shop
}

const discountCodeBasicCreateMutation = `
mutation discountCodeBasicCreate($basicCodeDiscount: DiscountCodeBasicInput!) {
  discountCodeBasicCreate(basicCodeDiscount: $basicCodeDiscount) {
    codeDiscountNode {
      id
      codeDiscount {
        ... on DiscountCodeBasic {
          title
          startsAt
          usageLimit
          codes(first: 1) { nodes { code } }
        }
      }
    }
    userErrors { field code message }
  }
}`

type discountCodeBasicCreateData struct {
	DiscountCodeBasicCreate *struct {
		CodeDiscountNode *struct {
			ID           string `json:"id"`
			CodeDiscount struct {
				Title string `json:"title"`
				Codes struct {
					Nodes []struct {
						Code string `json:"code"`
					} `json:"nodes"`
				} `json:"codes"`
			} `json:"codeDiscount"`
		} `json:"codeDiscountNode"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"discountCodeBasicCreate"`
}

func (c *shopifyClientImpl) CreateBasicCodeDiscount(ctx context.Context, shop, accessToken string, in *BasicCodeDiscountInput) *DiscountResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fraction, _ := in.Percentage.Div(decimal.NewFromInt(100)).Float64()
	variables := map[string]any{
		"basicCodeDiscount": map[string]any{
			"title":             fmt.Sprintf("Game reward %s%% #%d", in.Percentage.String(), in.OrderNumber),
			"code":              in.Code,
			"startsAt":          c.now().UTC().Format(time.RFC3339),
			"customerSelection": map[string]any{"all": true},
			"customerGets": map[string]any{
				"value": map[string]any{"percentage": fraction},
				"items": map[string]any{"all": true},
			},
			"appliesOncePerCustomer": true,
			"usageLimit":             1,
		},
	}

	resp, status, err := postGraphQL[discountCodeBasicCreateData](ctx, c.httpClient, c.graphQLEndpoint(shop), accessToken, discountCodeBasicCreateMutation, variables)
	if err != nil && status == 0 {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return failure(OutcomeTimeout, "request to Shopify timed out")
		}
		return failure(OutcomeUpstream, fmt.Sprintf("shopify request failed: %v", err))
	}
	if status < 200 || status >= 300 {
		return classifyStatus(status)
	}
	if err != nil {
		return failure(OutcomeUpstream, err.Error())
	}
	if len(resp.Errors) > 0 {
		return classifyGraphQLErrors(resp.Errors)
	}

	payload := resp.Data.DiscountCodeBasicCreate
	if payload == nil {
		return failure(OutcomeUpstream, "shopify returned no discount payload")
	}
	if len(payload.UserErrors) > 0 {
		first := payload.UserErrors[0]
		return failure(ClassifyUserError(first.Message), first.Message)
	}
	if payload.CodeDiscountNode == nil {
		return failure(OutcomeUpstream, "shopify did not create the discount")
	}

	code := in.Code
	if nodes := payload.CodeDiscountNode.CodeDiscount.Codes.Nodes; len(nodes) > 0 && nodes[0].Code != "" {
		code = nodes[0].Code
	}

	return &DiscountResult{
		Outcome:    OutcomeCreated,
		DiscountID: payload.CodeDiscountNode.ID,
		Code:       code,
	}
}

func (c *shopifyClientImpl) graphQLEndpoint(shop string) string {
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", c.shopURL(shop), c.apiVersion)
}

func (c *shopifyClientImpl) ExchangeAccessToken(ctx context.Context, shop, code string) (*AccessToken, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{
		"client_id":     c.apiKey,
		"client_secret": c.apiSecret,
		"code":          code,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.shopURL(shop)+"/admin/oauth/access_token", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token exchange failed: status=%d body=%s", resp.StatusCode, string(raw))
	}

	var token AccessToken
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("token exchange returned no access token")
	}

	return &token, nil
}

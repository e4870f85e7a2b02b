package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type Outcome string

const (
	OutcomeCreated      Outcome = "created"
	OutcomeConflict     Outcome = "conflict"
	OutcomeValidation   Outcome = "validation"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeUpstream     Outcome = "upstream"
	OutcomeTimeout      Outcome = "timeout"
)

// DiscountResult is the outcome of a single discountCodeBasicCreate call.
// Message is only set on failure.
type DiscountResult struct {
	Outcome    Outcome
	DiscountID string
	Code       string
	Message    string
}

func (r *DiscountResult) Success() bool {
	return r.Outcome == OutcomeCreated
}

type UserError struct {
	Field   []string `json:"field"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
}

type GraphQLError struct {
	Message    string `json:"message"`
	Path       []any  `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions,omitempty"`
}

type GraphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// errDecode marks a response that arrived but could not be parsed.
type errDecode struct {
	err error
}

func (e *errDecode) Error() string { return "decode graphql response: " + e.err.Error() }
func (e *errDecode) Unwrap() error { return e.err }

// postGraphQL returns status 0 only when no response was received.
func postGraphQL[T any](ctx context.Context, httpClient *http.Client, endpoint, accessToken, query string, variables any) (*GraphQLResponse[T], int, error) {
	b, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal graphql body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, 0, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", accessToken)

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, err
	}

	var out GraphQLResponse[T]
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, res.StatusCode, &errDecode{err: err}
	}

	return &out, res.StatusCode, nil
}

// ClassifyUserError decides whether a userErrors message means the code is taken.
// The "code" match is broad and also catches other code-related validation messages.
func ClassifyUserError(message string) Outcome {
	msg := strings.ToLower(message)
	if strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "code") {
		return OutcomeConflict
	}
	return OutcomeValidation
}

func classifyStatus(status int) *DiscountResult {
	if status == http.StatusUnauthorized {
		return failure(OutcomeUnauthorized, "shopify rejected the access token")
	}
	return failure(OutcomeUpstream, fmt.Sprintf("shopify returned status %d", status))
}

func classifyGraphQLErrors(errs []GraphQLError) *DiscountResult {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		lower := strings.ToLower(e.Message)
		if strings.Contains(lower, "unauthorized") || strings.Contains(lower, "authentication") {
			return failure(OutcomeUnauthorized, e.Message)
		}
		msgs = append(msgs, e.Message)
	}
	return failure(OutcomeUpstream, strings.Join(msgs, "; "))
}

func failure(outcome Outcome, message string) *DiscountResult {
	return &DiscountResult{
		Outcome: outcome,
		Message: message,
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"game-discount-app/internal/client"
	"game-discount-app/internal/model"
	"game-discount-app/internal/repository"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MaxIssueAttempts = 3
	maxNameLength    = 50
)

const (
	msgMissingFields    = "Missing required fields: shop, email, and percentage are required"
	msgNameRequired     = "First name and last name are required"
	msgNameTooLong      = "First name and last name must be 50 characters or less"
	msgInvalidShop      = "Invalid shop domain format"
	msgInvalidEmail     = "Invalid email format"
	msgInvalidPercent   = "Percentage must be a number between 1 and 100"
	msgNoSession        = "Store connection not found. Please reinstall the app."
	msgSessionExpired   = "Store connection expired. Please refresh the page."
	msgUpstreamAuth     = "Session expired. Please refresh the page and try again."
	msgTimeout          = "Request timed out. Please try again."
	msgExhausted        = "Unable to create discount code after multiple attempts. Please try again."
	msgUpstreamFailure  = "Failed to create discount code. Please try again."
	MsgUnexpectedFailed = "An unexpected error occurred. Please try again."
)

// ClaimError is a failure the storefront may show verbatim.
type ClaimError struct {
	Status  int
	Message string
}

func (e *ClaimError) Error() string {
	return e.Message
}

func newClaimError(status int, message string) *ClaimError {
	return &ClaimError{Status: status, Message: message}
}

type ClaimInput struct {
	Shop       string
	Email      string
	Percentage string // raw text, may carry a trailing "%"
	FirstName  string
	LastName   string
	GameType   string
	Device     string
}

type ClaimResult struct {
	DiscountCode string
	Email        string
}

type ClaimService interface {
	// Claim validates the request and issues a single-use code, retrying on code conflicts.
	Claim(ctx context.Context, in *ClaimInput) (*ClaimResult, error)
	ListClaims(ctx context.Context, shop string, page, limit int) ([]*model.DiscountClaim, int64, error)
}

type claimServiceImpl struct {
	settingsRepo  repository.SettingsRepository
	sessionRepo   repository.SessionRepository
	claimRepo     repository.ClaimRepository
	shopifyClient client.ShopifyClient
	logger        *slog.Logger
}

func NewClaimService(
	settingsRepo repository.SettingsRepository,
	sessionRepo repository.SessionRepository,
	claimRepo repository.ClaimRepository,
	shopifyClient client.ShopifyClient,
	logger *slog.Logger,
) ClaimService {
	return &claimServiceImpl{
		settingsRepo:  settingsRepo,
		sessionRepo:   sessionRepo,
		claimRepo:     claimRepo,
		shopifyClient: shopifyClient,
		logger:        logger,
	}
}

type validatedClaim struct {
	*ClaimInput
	percentage decimal.Decimal
	normalized string
}

func (s *claimServiceImpl) Claim(ctx context.Context, in *ClaimInput) (*ClaimResult, error) {
	claim, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.resolveAccessToken(ctx, claim.Shop)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= MaxIssueAttempts; attempt++ {
		alloc, err := s.settingsRepo.AllocateOrderNumber(ctx, claim.Shop)
		if err != nil {
			return nil, fmt.Errorf("allocate order number: %w", err)
		}

		code := BuildCandidateCode(alloc.Prefix, claim.normalized, alloc.OrderNumber)
		result := s.shopifyClient.CreateBasicCodeDiscount(ctx, claim.Shop, accessToken, &client.BasicCodeDiscountInput{
			Code:        code,
			Percentage:  claim.percentage,
			OrderNumber: alloc.OrderNumber,
		})

		if result.Success() {
			if result.Code == "" {
				result.Code = code
			}
			s.recordClaim(context.WithoutCancel(ctx), claim, result, alloc.OrderNumber)
			return &ClaimResult{DiscountCode: result.Code, Email: claim.Email}, nil
		}

		if result.Outcome == client.OutcomeConflict && attempt < MaxIssueAttempts {
			s.logger.Info("discount code conflict, retrying",
				"shop", claim.Shop, "code", code, "attempt", attempt)
			continue
		}

		s.logger.Warn("discount code issuance failed",
			"shop", claim.Shop, "code", code, "attempt", attempt,
			"outcome", result.Outcome, "message", result.Message)
		return nil, failureFor(result)
	}

	return nil, newClaimError(http.StatusInternalServerError, msgExhausted)
}

func (s *claimServiceImpl) ListClaims(ctx context.Context, shop string, page, limit int) ([]*model.DiscountClaim, int64, error) {
	if page < 1 {
		return nil, 0, fmt.Errorf("%w: page must be 1 or more", ErrInvalidInput)
	}
	if limit < 1 || limit > 100 {
		return nil, 0, fmt.Errorf("%w: limit must be between 1 and 100", ErrInvalidInput)
	}

	return s.claimRepo.List(ctx, shop, limit, (page-1)*limit)
}

func (s *claimServiceImpl) validate(ctx context.Context, in *ClaimInput) (*validatedClaim, error) {
	in.Shop = NormalizeShop(in.Shop)
	in.Email = strings.TrimSpace(in.Email)
	if in.Shop == "" || in.Email == "" || strings.TrimSpace(in.Percentage) == "" {
		return nil, newClaimError(http.StatusBadRequest, msgMissingFields)
	}

	requireName, err := s.requireName(ctx, in.Shop)
	if err != nil {
		return nil, err
	}
	if requireName {
		in.FirstName = strings.TrimSpace(in.FirstName)
		in.LastName = strings.TrimSpace(in.LastName)
		if in.FirstName == "" || in.LastName == "" {
			return nil, newClaimError(http.StatusBadRequest, msgNameRequired)
		}
		if utf8.RuneCountInString(in.FirstName) > maxNameLength || utf8.RuneCountInString(in.LastName) > maxNameLength {
			return nil, newClaimError(http.StatusBadRequest, msgNameTooLong)
		}
	}

	if !ValidShopDomain(in.Shop) {
		return nil, newClaimError(http.StatusBadRequest, msgInvalidShop)
	}
	if in.Email != model.NoEmailSentinel && !ValidEmail(in.Email) {
		return nil, newClaimError(http.StatusBadRequest, msgInvalidEmail)
	}

	percentage, normalized, err := ParsePercentage(in.Percentage)
	if err != nil {
		return nil, newClaimError(http.StatusBadRequest, msgInvalidPercent)
	}

	return &validatedClaim{
		ClaimInput: in,
		percentage: percentage,
		normalized: normalized,
	}, nil
}

// requireName reads the merchant flag without creating a settings row.
func (s *claimServiceImpl) requireName(ctx context.Context, shop string) (bool, error) {
	settings, err := s.settingsRepo.Get(ctx, shop)
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get settings: %w", err)
	}
	return settings.RequireName, nil
}

func (s *claimServiceImpl) resolveAccessToken(ctx context.Context, shop string) (string, error) {
	sessions, err := s.sessionRepo.FindByShop(ctx, shop)
	if err != nil {
		return "", fmt.Errorf("find sessions: %w", err)
	}
	if len(sessions) == 0 {
		return "", newClaimError(http.StatusNotFound, msgNoSession)
	}

	session := sessions[0]
	if session.AccessToken == "" || (session.Expires != nil && session.Expires.Before(time.Now())) {
		return "", newClaimError(http.StatusUnauthorized, msgSessionExpired)
	}

	return session.AccessToken, nil
}

// recordClaim stores the issued code. The code already exists upstream, so it runs on a
// context detached from the request and a failed write is only logged.
func (s *claimServiceImpl) recordClaim(ctx context.Context, claim *validatedClaim, result *client.DiscountResult, orderNumber int64) {
	row := &model.DiscountClaim{
		ID:          uuid.NewString(),
		Shop:        claim.Shop,
		Code:        result.Code,
		Percentage:  claim.percentage,
		OrderNumber: orderNumber,
		FirstName:   claim.FirstName,
		LastName:    claim.LastName,
		GameType:    claim.GameType,
		Device:      claim.Device,
		DiscountGID: result.DiscountID,
	}
	if claim.Email != model.NoEmailSentinel {
		row.Email = claim.Email
	}

	if err := s.claimRepo.Create(ctx, row); err != nil {
		s.logger.Error("failed to record discount claim",
			"shop", claim.Shop, "code", result.Code, "error", err)
	}
}

func failureFor(result *client.DiscountResult) *ClaimError {
	switch result.Outcome {
	case client.OutcomeConflict:
		return newClaimError(http.StatusInternalServerError, msgExhausted)
	case client.OutcomeValidation:
		return newClaimError(http.StatusBadRequest, result.Message)
	case client.OutcomeUnauthorized:
		return newClaimError(http.StatusUnauthorized, msgUpstreamAuth)
	case client.OutcomeTimeout:
		return newClaimError(http.StatusInternalServerError, msgTimeout)
	default:
		return newClaimError(http.StatusInternalServerError, msgUpstreamFailure)
	}
}

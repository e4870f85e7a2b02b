package service

import (
	"context"
	"errors"
	"fmt"
	"game-discount-app/internal/model"
	"game-discount-app/internal/repository"
	"strings"
	"unicode/utf8"
)

var ErrInvalidInput = errors.New("invalid input")

const (
	maxPrefixLength     = 32
	maxPopupTitleLength = 120
)

type SettingsService interface {
	GetSettings(ctx context.Context, shop string) (*model.ShopSettings, error)
	UpdateSettings(ctx context.Context, shop string, update *repository.SettingsUpdate) (*model.ShopSettings, error)
	// PopupConfig returns the storefront view of a shop's settings; unknown shops get defaults.
	PopupConfig(ctx context.Context, shop string) (*model.ShopSettings, error)
}

type settingsServiceImpl struct {
	settingsRepo repository.SettingsRepository
}

func NewSettingsService(settingsRepo repository.SettingsRepository) SettingsService {
	return &settingsServiceImpl{
		settingsRepo: settingsRepo,
	}
}

func (s *settingsServiceImpl) GetSettings(ctx context.Context, shop string) (*model.ShopSettings, error) {
	return s.settingsRepo.GetOrCreate(ctx, shop)
}

func (s *settingsServiceImpl) UpdateSettings(ctx context.Context, shop string, update *repository.SettingsUpdate) (*model.ShopSettings, error) {
	update.DiscountCodePrefix = strings.TrimSpace(update.DiscountCodePrefix)
	update.PopupTitle = strings.TrimSpace(update.PopupTitle)

	if update.DiscountCodePrefix == "" || utf8.RuneCountInString(update.DiscountCodePrefix) > maxPrefixLength {
		return nil, fmt.Errorf("%w: discountCodePrefix must be 1 to %d characters", ErrInvalidInput, maxPrefixLength)
	}
	if strings.ContainsAny(update.DiscountCodePrefix, " \t%") {
		return nil, fmt.Errorf("%w: discountCodePrefix must not contain spaces or %%", ErrInvalidInput)
	}
	if update.MaxDiscount < 1 || update.MaxDiscount > 100 {
		return nil, fmt.Errorf("%w: maxDiscount must be between 1 and 100", ErrInvalidInput)
	}
	if !update.GameType.Valid() {
		return nil, fmt.Errorf("%w: unknown gameType %q", ErrInvalidInput, update.GameType)
	}
	if utf8.RuneCountInString(update.PopupTitle) > maxPopupTitleLength {
		return nil, fmt.Errorf("%w: popupTitle must be %d characters or less", ErrInvalidInput, maxPopupTitleLength)
	}

	return s.settingsRepo.Update(ctx, shop, update)
}

func (s *settingsServiceImpl) PopupConfig(ctx context.Context, shop string) (*model.ShopSettings, error) {
	shop = NormalizeShop(shop)
	if !ValidShopDomain(shop) {
		return nil, fmt.Errorf("%w: invalid shop domain", ErrInvalidInput)
	}

	settings, err := s.settingsRepo.Get(ctx, shop)
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			return model.NewShopSettings(shop), nil
		}
		return nil, err
	}

	return settings, nil
}

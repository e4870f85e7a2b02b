package service

import (
	"errors"
	"game-discount-app/internal/model"
	"game-discount-app/internal/repository"
	"strings"
	"testing"
)

func validUpdate() *repository.SettingsUpdate {
	return &repository.SettingsUpdate{
		DiscountCodePrefix: "promo",
		RequireName:        true,
		RequireEmail:       true,
		MaxDiscount:        30,
		GameType:           model.GamePassTheGaps,
		PopupEnabled:       true,
		PopupTitle:         "Win big",
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	svc := NewSettingsService(repository.NewSettingsRepository(newTestDB(t)))

	tests := []struct {
		name   string
		mutate func(u *repository.SettingsUpdate)
	}{
		{"empty prefix", func(u *repository.SettingsUpdate) { u.DiscountCodePrefix = "  " }},
		{"long prefix", func(u *repository.SettingsUpdate) { u.DiscountCodePrefix = strings.Repeat("p", 33) }},
		{"prefix with space", func(u *repository.SettingsUpdate) { u.DiscountCodePrefix = "win code" }},
		{"zero max", func(u *repository.SettingsUpdate) { u.MaxDiscount = 0 }},
		{"max over 100", func(u *repository.SettingsUpdate) { u.MaxDiscount = 101 }},
		{"unknown game", func(u *repository.SettingsUpdate) { u.GameType = "snake" }},
		{"long title", func(u *repository.SettingsUpdate) { u.PopupTitle = strings.Repeat("t", 121) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := validUpdate()
			tt.mutate(u)
			if _, err := svc.UpdateSettings(ctx, testShop, u); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestUpdateSettingsPersists(t *testing.T) {
	svc := NewSettingsService(repository.NewSettingsRepository(newTestDB(t)))

	got, err := svc.UpdateSettings(ctx, testShop, validUpdate())
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got.DiscountCodePrefix != "promo" || got.MaxDiscount != 30 || got.GameType != model.GamePassTheGaps {
		t.Errorf("unexpected settings: %+v", got)
	}

	read, err := svc.GetSettings(ctx, testShop)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if read.PopupTitle != "Win big" || !read.RequireName {
		t.Errorf("unexpected settings: %+v", read)
	}
}

func TestPopupConfig(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingsService(repository.NewSettingsRepository(db))

	if _, err := svc.PopupConfig(ctx, "bad shop"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	defaults, err := svc.PopupConfig(ctx, testShop)
	if err != nil {
		t.Fatalf("PopupConfig: %v", err)
	}
	if !defaults.PopupEnabled || defaults.MaxDiscount != model.DefaultMaxDiscount {
		t.Errorf("unexpected defaults: %+v", defaults)
	}
	var rows int64
	db.Model(&model.ShopSettings{}).Count(&rows)
	if rows != 0 {
		t.Errorf("popup config must not persist defaults, found %d rows", rows)
	}

	if _, err := svc.UpdateSettings(ctx, testShop, validUpdate()); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	for _, shop := range []string{testShop, " Demo.MyShopify.com "} {
		stored, err := svc.PopupConfig(ctx, shop)
		if err != nil {
			t.Fatalf("PopupConfig(%q): %v", shop, err)
		}
		if stored.MaxDiscount != 30 || stored.GameType != model.GamePassTheGaps {
			t.Errorf("%q: expected stored settings, got %+v", shop, stored)
		}
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"game-discount-app/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSettingsNotFound = errors.New("shop settings not found")

// Allocation is the pre-increment counter value handed to exactly one caller.
type Allocation struct {
	OrderNumber int64
	Prefix      string
}

type SettingsUpdate struct {
	DiscountCodePrefix string
	RequireName        bool
	RequireEmail       bool
	MaxDiscount        int
	GameType           model.GameType
	PopupEnabled       bool
	PopupTitle         string
}

type SettingsRepository interface {
	Get(ctx context.Context, shop string) (*model.ShopSettings, error)
	GetOrCreate(ctx context.Context, shop string) (*model.ShopSettings, error)
	Update(ctx context.Context, shop string, update *SettingsUpdate) (*model.ShopSettings, error)
	AllocateOrderNumber(ctx context.Context, shop string) (*Allocation, error)
	DeleteShop(ctx context.Context, tx *gorm.DB, shop string) error
}

type settingsRepoImpl struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepoImpl{
		db: db,
	}
}

func (r *settingsRepoImpl) Get(ctx context.Context, shop string) (*model.ShopSettings, error) {
	var settings model.ShopSettings
	err := r.db.WithContext(ctx).
		Where("shop = ?", shop).
		First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}

	return &settings, nil
}

func (r *settingsRepoImpl) GetOrCreate(ctx context.Context, shop string) (*model.ShopSettings, error) {
	var settings model.ShopSettings
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertIfAbsent(tx, shop); err != nil {
			return err
		}
		return tx.Where("shop = ?", shop).First(&settings).Error
	})
	if err != nil {
		return nil, fmt.Errorf("get or create settings: %w", err)
	}

	return &settings, nil
}

func (r *settingsRepoImpl) Update(ctx context.Context, shop string, update *SettingsUpdate) (*model.ShopSettings, error) {
	var settings model.ShopSettings
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertIfAbsent(tx, shop); err != nil {
			return err
		}

		// map form so false/0 are written; the counter column is never in this set
		err := tx.Model(&model.ShopSettings{}).
			Where("shop = ?", shop).
			Updates(map[string]interface{}{
				"discount_code_prefix": update.DiscountCodePrefix,
				"require_name":         update.RequireName,
				"require_email":        update.RequireEmail,
				"max_discount":         update.MaxDiscount,
				"game_type":            string(update.GameType),
				"popup_enabled":        update.PopupEnabled,
				"popup_title":          update.PopupTitle,
			}).Error
		if err != nil {
			return err
		}

		return tx.Where("shop = ?", shop).First(&settings).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}

	return &settings, nil
}

// AllocateOrderNumber reads-or-creates the shop row and bumps its counter in one transaction.
// The increment runs before the read so the row (or, on sqlite, the database) is
// write-locked first; concurrent callers therefore never observe the same value.
func (r *settingsRepoImpl) AllocateOrderNumber(ctx context.Context, shop string) (*Allocation, error) {
	var settings model.ShopSettings
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertIfAbsent(tx, shop); err != nil {
			return err
		}

		result := tx.Model(&model.ShopSettings{}).
			Where("shop = ?", shop).
			UpdateColumn("discount_code_order_number", gorm.Expr("discount_code_order_number + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSettingsNotFound
		}

		return tx.Where("shop = ?", shop).First(&settings).Error
	})
	if err != nil {
		return nil, fmt.Errorf("allocate order number for %s: %w", shop, err)
	}

	return &Allocation{
		OrderNumber: settings.DiscountCodeOrderNumber - 1,
		Prefix:      settings.DiscountCodePrefix,
	}, nil
}

func (r *settingsRepoImpl) DeleteShop(ctx context.Context, tx *gorm.DB, shop string) error {
	return tx.WithContext(ctx).
		Where("shop = ?", shop).
		Delete(&model.ShopSettings{}).Error
}

func insertIfAbsent(tx *gorm.DB, shop string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop"}},
		DoNothing: true,
	}).Create(model.NewShopSettings(shop)).Error
}

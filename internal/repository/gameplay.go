package repository

import (
	"context"
	"game-discount-app/internal/model"

	"gorm.io/gorm"
)

type GamePlayRepository interface {
	Create(ctx context.Context, play *model.GamePlay) error
	DeleteShop(ctx context.Context, tx *gorm.DB, shop string) error
}

type gamePlayRepoImpl struct {
	db *gorm.DB
}

func NewGamePlayRepository(db *gorm.DB) GamePlayRepository {
	return &gamePlayRepoImpl{
		db: db,
	}
}

func (r *gamePlayRepoImpl) Create(ctx context.Context, play *model.GamePlay) error {
	return r.db.WithContext(ctx).Create(play).Error
}

func (r *gamePlayRepoImpl) DeleteShop(ctx context.Context, tx *gorm.DB, shop string) error {
	return tx.WithContext(ctx).
		Where("shop = ?", shop).
		Delete(&model.GamePlay{}).Error
}

package repository

import (
	"context"
	"game-discount-app/internal/model"

	"gorm.io/gorm"
)

type ClaimRepository interface {
	Create(ctx context.Context, claim *model.DiscountClaim) error
	List(ctx context.Context, shop string, limit, offset int) ([]*model.DiscountClaim, int64, error)
	DeleteByEmail(ctx context.Context, shop, email string) (int64, error)
	DeleteShop(ctx context.Context, tx *gorm.DB, shop string) error
}

type claimRepoImpl struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) ClaimRepository {
	return &claimRepoImpl{
		db: db,
	}
}

func (r *claimRepoImpl) Create(ctx context.Context, claim *model.DiscountClaim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *claimRepoImpl) List(ctx context.Context, shop string, limit, offset int) ([]*model.DiscountClaim, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.DiscountClaim{}).
		Where("shop = ?", shop).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	claims := []*model.DiscountClaim{}
	err := r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&claims).Error
	if err != nil {
		return nil, 0, err
	}

	return claims, total, nil
}

func (r *claimRepoImpl) DeleteByEmail(ctx context.Context, shop, email string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("shop = ? AND email = ?", shop, email).
		Delete(&model.DiscountClaim{})

	return result.RowsAffected, result.Error
}

func (r *claimRepoImpl) DeleteShop(ctx context.Context, tx *gorm.DB, shop string) error {
	return tx.WithContext(ctx).
		Where("shop = ?", shop).
		Delete(&model.DiscountClaim{}).Error
}

package repository

import (
	"context"
	"game-discount-app/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository interface {
	Exists(ctx context.Context, webhookID string) (bool, error)
	// MarkProcessed records the delivery; first is false when it was already recorded.
	MarkProcessed(ctx context.Context, webhookID, topic, shop string) (first bool, err error)
	DeleteShop(ctx context.Context, tx *gorm.DB, shop string) error
}

type webhookEventRepositoryImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepositoryImpl{db: db}
}

func (r *webhookEventRepositoryImpl) Exists(ctx context.Context, webhookID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("event_id = ?", webhookID).
		Count(&count).Error

	return count > 0, err
}

func (r *webhookEventRepositoryImpl) MarkProcessed(ctx context.Context, webhookID, topic, shop string) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.WebhookEvent{
			EventID:     webhookID,
			Topic:       topic,
			Shop:        shop,
			ProcessedAt: time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *webhookEventRepositoryImpl) DeleteShop(ctx context.Context, tx *gorm.DB, shop string) error {
	return tx.WithContext(ctx).
		Where("shop = ?", shop).
		Delete(&model.WebhookEvent{}).Error
}

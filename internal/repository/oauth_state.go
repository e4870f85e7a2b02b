package repository

import (
	"context"
	"errors"
	"game-discount-app/internal/model"

	"gorm.io/gorm"
)

var ErrStateNotFound = errors.New("oauth state not found")

type OAuthStateRepository interface {
	Create(ctx context.Context, state *model.OAuthState) error
	// Consume deletes the state and returns it; a state can be consumed once.
	Consume(ctx context.Context, state string) (*model.OAuthState, error)
}

type oauthStateRepoImpl struct {
	db *gorm.DB
}

func NewOAuthStateRepository(db *gorm.DB) OAuthStateRepository {
	return &oauthStateRepoImpl{
		db: db,
	}
}

func (r *oauthStateRepoImpl) Create(ctx context.Context, state *model.OAuthState) error {
	return r.db.WithContext(ctx).Create(state).Error
}

func (r *oauthStateRepoImpl) Consume(ctx context.Context, state string) (*model.OAuthState, error) {
	var row model.OAuthState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("state = ?", state).First(&row).Error; err != nil {
			return err
		}

		result := tx.Where("state = ?", state).Delete(&model.OAuthState{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStateNotFound
		}
		return nil, err
	}

	return &row, nil
}

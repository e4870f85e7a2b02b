package repository

import (
	"context"
	"fmt"
	"game-discount-app/internal/model"
	"game-discount-app/internal/security"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	FindByShop(ctx context.Context, shop string) ([]*model.Session, error)
	Upsert(ctx context.Context, session *model.Session) error
	DeleteShop(ctx context.Context, tx *gorm.DB, shop string) error
}

type sessionRepoImpl struct {
	db     *gorm.DB
	sealer security.TokenSealer
}

// NewSessionRepository stores access tokens sealed when sealer is non-nil.
func NewSessionRepository(db *gorm.DB, sealer security.TokenSealer) SessionRepository {
	return &sessionRepoImpl{
		db:     db,
		sealer: sealer,
	}
}

func (r *sessionRepoImpl) FindByShop(ctx context.Context, shop string) ([]*model.Session, error) {
	var sessions []*model.Session
	err := r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Order("id").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	if r.sealer == nil {
		return sessions, nil
	}
	for _, s := range sessions {
		if s.AccessToken == "" {
			continue
		}
		token, err := r.sealer.Open(s.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("open access token for session %s: %w", s.ID, err)
		}
		s.AccessToken = token
	}

	return sessions, nil
}

func (r *sessionRepoImpl) Upsert(ctx context.Context, session *model.Session) error {
	row := *session
	if r.sealer != nil && row.AccessToken != "" {
		sealed, err := r.sealer.Seal(row.AccessToken)
		if err != nil {
			return fmt.Errorf("seal access token: %w", err)
		}
		row.AccessToken = sealed
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"shop":         row.Shop,
			"state":        row.State,
			"is_online":    row.IsOnline,
			"scope":        row.Scope,
			"expires":      row.Expires,
			"access_token": row.AccessToken,
			"updated_at":   time.Now(),
		}),
	}).Create(&row).Error
}

func (r *sessionRepoImpl) DeleteShop(ctx context.Context, tx *gorm.DB, shop string) error {
	return tx.WithContext(ctx).
		Where("shop = ?", shop).
		Delete(&model.Session{}).Error
}

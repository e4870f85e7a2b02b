package service

import (
	"context"
	"fmt"
	"game-discount-app/internal/model"
	"game-discount-app/internal/repository"
	"strings"

	"github.com/google/uuid"
)

type GamePlayInput struct {
	Shop     string
	GameType string
	Device   string
	Score    int
}

type GamePlayService interface {
	RecordPlay(ctx context.Context, in *GamePlayInput) error
}

type gamePlayServiceImpl struct {
	gamePlayRepo repository.GamePlayRepository
}

func NewGamePlayService(gamePlayRepo repository.GamePlayRepository) GamePlayService {
	return &gamePlayServiceImpl{
		gamePlayRepo: gamePlayRepo,
	}
}

func (s *gamePlayServiceImpl) RecordPlay(ctx context.Context, in *GamePlayInput) error {
	shop := NormalizeShop(in.Shop)
	if !ValidShopDomain(shop) {
		return fmt.Errorf("%w: invalid shop domain", ErrInvalidInput)
	}

	gameType := model.GameType(in.GameType)
	if !gameType.Valid() {
		return fmt.Errorf("%w: unknown gameType %q", ErrInvalidInput, in.GameType)
	}
	if in.Score < 0 {
		return fmt.Errorf("%w: score must not be negative", ErrInvalidInput)
	}

	device := strings.ToLower(strings.TrimSpace(in.Device))
	if len(device) > 32 {
		device = device[:32]
	}

	return s.gamePlayRepo.Create(ctx, &model.GamePlay{
		ID:       uuid.NewString(),
		Shop:     shop,
		GameType: gameType,
		Device:   device,
		Score:    in.Score,
	})
}

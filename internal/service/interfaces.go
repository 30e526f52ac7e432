package service

import (
	"context"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_service.go -package=mocks

// Cache is an interface that abstracts IAI result caching
// This allows for easier testing and mocking
type Cache interface {
	SetResult(ctx context.Context, result *models.IAIResult) error
	GetResult(ctx context.Context, eventID string) (*models.IAIResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// Scorer is an interface that abstracts per-event scoring sessions
type Scorer interface {
	Score(eventID string, sc models.ScoringContext) (*models.IAIResult, error)
	Reset(eventID string) bool
}

package source

import (
	"context"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_source.go -package=mocks

// Source fetches early odds for one sport from one upstream provider.
// Implementations never return errors: any failure yields an empty slice.
type Source interface {
	Name() string
	FetchEarlyOdds(ctx context.Context, sport string, horizonDays int) []models.NormalizedOdds
}

// OddsCache stores raw per-source fetch results
type OddsCache interface {
	GetOdds(ctx context.Context, key string) ([]models.NormalizedOdds, error)
	SetOdds(ctx context.Context, key string, odds []models.NormalizedOdds) error
}

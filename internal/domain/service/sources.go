package service

import (
	"context"

	"ContraTrack/internal/domain/models"
	"ContraTrack/internal/domain/repository"
)

// PriceFetcher downloads bars for a symbol from an upstream source.
// Bars come back ascending with one bar per day.
type PriceFetcher interface {
	Name() string
	FetchHistory(ctx context.Context, symbol string, interval repository.Interval, rng string) (*models.PriceHistory, error)
}

// RecommendationSource collects calls from an upstream feed.
type RecommendationSource interface {
	Name() string
	Collect(ctx context.Context) ([]models.Recommendation, error)
}

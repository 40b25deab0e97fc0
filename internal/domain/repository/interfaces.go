package repository

import (
	"context"
	"errors"

	"ContraTrack/internal/domain/models"
)

// ErrNotFound is returned when a store holds nothing for the requested symbol.
var ErrNotFound = errors.New("not found")

// PriceStore provides daily closes per symbol.
type PriceStore interface {
	GetSeries(ctx context.Context, symbol string) ([]models.PricePoint, error)
	SaveHistory(ctx context.Context, symbol string, h *models.PriceHistory) error
}

// RecommendationStore provides the calls recorded for a symbol.
type RecommendationStore interface {
	GetRecommendations(ctx context.Context, symbol string) ([]models.Recommendation, error)
	SaveRecommendations(ctx context.Context, recs []models.Recommendation) error
}

// DocumentStore serves the raw per-symbol document.
type DocumentStore interface {
	GetDocument(ctx context.Context, symbol string) (*models.StockDocument, error)
}

// AnalysisPublisher fans analysis reports out to downstream consumers.
type AnalysisPublisher interface {
	PublishAnalysis(ctx context.Context, r *models.AnalysisReport) error
	Close() error
}

// AnalysisRecorder keeps a history of analysis runs.
type AnalysisRecorder interface {
	RecordRun(ctx context.Context, run models.AnalysisRun) error
	ListRuns(ctx context.Context, symbol string, limit int) ([]models.AnalysisRun, error)
	Close() error
}

// Metrics records domain-level counters and timings.
type Metrics interface {
	RecordAnalysis(symbol string, rule models.VerdictRule, effective bool)
	RecordIngested(source, symbol string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

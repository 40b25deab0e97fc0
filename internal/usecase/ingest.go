package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ContraTrack/internal/domain/models"
	domrepo "ContraTrack/internal/domain/repository"
	"ContraTrack/internal/domain/service"
	applogger "ContraTrack/pkg/logger"
	"ContraTrack/pkg/trace"
	"ContraTrack/pkg/util"
)

// IngestUseCase pulls bars from a price source and calls from recommendation
// sources into the stores.
type IngestUseCase struct {
	fetcher  service.PriceFetcher
	sources  []service.RecommendationSource
	prices   domrepo.PriceStore
	recs     domrepo.RecommendationStore
	metrics  domrepo.Metrics
	l        *applogger.Logger
	interval domrepo.Interval
	rng      string
}

func NewIngestUseCase(
	fetcher service.PriceFetcher,
	sources []service.RecommendationSource,
	prices domrepo.PriceStore,
	recs domrepo.RecommendationStore,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	interval, rng string,
) *IngestUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	if rng == "" {
		rng = "5y"
	}
	return &IngestUseCase{
		fetcher:  fetcher,
		sources:  sources,
		prices:   prices,
		recs:     recs,
		metrics:  metrics,
		l:        l,
		interval: domrepo.NormalizeInterval(interval),
		rng:      rng,
	}
}

// IngestPrices downloads and stores the history of symbol. Returns the number of bars.
func (uc *IngestUseCase) IngestPrices(ctx context.Context, symbol string) (n int, err error) {
	sym := util.NormalizeSymbol(symbol)
	if sym == "" {
		return 0, ErrInvalidSymbol
	}
	if uc.fetcher == nil {
		return 0, nil
	}
	ctx, span := trace.StartSpan(ctx, "ingest.prices", "symbol", sym, "source", uc.fetcher.Name())
	defer func() { trace.End(span, err) }()

	start := time.Now()
	h, err := uc.fetcher.FetchHistory(ctx, sym, uc.interval, uc.rng)
	if err != nil {
		uc.fail("fetch")
		return 0, fmt.Errorf("fetch %s: %w", sym, err)
	}
	if err := uc.prices.SaveHistory(ctx, sym, h); err != nil {
		uc.fail("save_prices")
		return 0, fmt.Errorf("save %s: %w", sym, err)
	}
	n = len(h.Bars)
	if uc.metrics != nil {
		uc.metrics.RecordIngested(uc.fetcher.Name(), sym, n)
		uc.metrics.RecordLatency("ingest_prices", time.Since(start).Seconds())
	}
	uc.l.Info("prices ingested",
		applogger.String("symbol", sym),
		applogger.String("source", uc.fetcher.Name()),
		applogger.Int("bars", n),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return n, nil
}

// IngestRecommendations collects from every source and stores what came back.
// A failing source does not stop the others.
func (uc *IngestUseCase) IngestRecommendations(ctx context.Context) (n int, err error) {
	ctx, span := trace.StartSpan(ctx, "ingest.recommendations")
	defer func() { trace.End(span, err) }()

	var errs []error
	for _, src := range uc.sources {
		recs, cerr := src.Collect(ctx)
		if cerr != nil {
			uc.l.Warn("recommendation source failed",
				applogger.String("source", src.Name()),
				applogger.Error(cerr),
			)
			uc.fail("collect")
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), cerr))
			if len(recs) == 0 {
				continue
			}
		}
		saved, serr := uc.SaveRecommendations(ctx, src.Name(), recs)
		if serr != nil {
			errs = append(errs, serr)
			continue
		}
		n += saved
	}
	return n, errors.Join(errs...)
}

// SaveRecommendations stores recs attributed to source and counts them per ticker.
func (uc *IngestUseCase) SaveRecommendations(ctx context.Context, source string, recs []models.Recommendation) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	if err := uc.recs.SaveRecommendations(ctx, recs); err != nil {
		uc.fail("save_recommendations")
		return 0, fmt.Errorf("save recommendations from %s: %w", source, err)
	}
	if uc.metrics != nil {
		per := make(map[string]int)
		for _, r := range recs {
			per[util.NormalizeSymbol(r.Ticker)]++
		}
		for sym, c := range per {
			uc.metrics.RecordIngested(source, sym, c)
		}
	}
	uc.l.Info("recommendations stored", applogger.String("source", source), applogger.Int("count", len(recs)))
	return len(recs), nil
}

// Run ingests prices for every symbol, then collects recommendations.
func (uc *IngestUseCase) Run(ctx context.Context, symbols []string) error {
	var errs []error
	for _, s := range symbols {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := uc.IngestPrices(ctx, s); err != nil {
			uc.l.Error("price ingestion failed", applogger.String("symbol", s), applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if _, err := uc.IngestRecommendations(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (uc *IngestUseCase) fail(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}

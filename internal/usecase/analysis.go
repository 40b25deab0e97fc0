package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ContraTrack/internal/domain/models"
	domrepo "ContraTrack/internal/domain/repository"
	"ContraTrack/internal/service/cache"
	svcmetrics "ContraTrack/internal/service/metrics"
	"ContraTrack/internal/services/performance"
	"ContraTrack/internal/services/series"
	applogger "ContraTrack/pkg/logger"
	"ContraTrack/pkg/trace"
	"ContraTrack/pkg/util"

	"github.com/google/uuid"
)

// ErrInvalidSymbol is returned for an empty or malformed symbol.
var ErrInvalidSymbol = errors.New("invalid symbol")

// AnalysisUseCase loads a symbol's prices and calls, runs the engine and
// distributes the report. Cache, recorder, publisher and metrics are optional.
type AnalysisUseCase struct {
	docs      domrepo.DocumentStore
	prices    domrepo.PriceStore
	recs      domrepo.RecommendationStore
	cache     cache.BytesCache
	cacheTTL  time.Duration
	recorder  domrepo.AnalysisRecorder
	publisher domrepo.AnalysisPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
	timeout   time.Duration
	defaults  models.AnalysisOptions
	now       func() time.Time
	newID     func() string
}

// AnalysisOption configures an AnalysisUseCase.
type AnalysisOption func(*AnalysisUseCase)

// WithAnalysisCache caches reports in c for ttl. A non-positive ttl keeps the default.
func WithAnalysisCache(c cache.BytesCache, ttl time.Duration) AnalysisOption {
	return func(uc *AnalysisUseCase) {
		uc.cache = c
		if ttl > 0 {
			uc.cacheTTL = ttl
		}
	}
}

// WithAnalysisRecorder records every computed run.
func WithAnalysisRecorder(r domrepo.AnalysisRecorder) AnalysisOption {
	return func(uc *AnalysisUseCase) { uc.recorder = r }
}

// WithAnalysisPublisher publishes every computed report.
func WithAnalysisPublisher(p domrepo.AnalysisPublisher) AnalysisOption {
	return func(uc *AnalysisUseCase) { uc.publisher = p }
}

// WithAnalysisMetrics sets the metrics sink.
func WithAnalysisMetrics(m domrepo.Metrics) AnalysisOption {
	return func(uc *AnalysisUseCase) { uc.metrics = m }
}

// WithAnalysisLogger sets the logger. nil is ignored.
func WithAnalysisLogger(l *applogger.Logger) AnalysisOption {
	return func(uc *AnalysisUseCase) {
		if l != nil {
			uc.l = l
		}
	}
}

// WithAnalysisTimeout bounds a single Analyze call.
func WithAnalysisTimeout(d time.Duration) AnalysisOption {
	return func(uc *AnalysisUseCase) {
		if d > 0 {
			uc.timeout = d
		}
	}
}

// WithAnalysisDefaults sets the options used when a request leaves them empty
// and by Reanalyze.
func WithAnalysisDefaults(o models.AnalysisOptions) AnalysisOption {
	return func(uc *AnalysisUseCase) { uc.defaults = o }
}

// NewAnalysisUseCase builds the use case over the three stores. Unset options
// fall back to exact lookup, a 3 day gap and the literal rule.
func NewAnalysisUseCase(docs domrepo.DocumentStore, prices domrepo.PriceStore, recs domrepo.RecommendationStore, opts ...AnalysisOption) *AnalysisUseCase {
	uc := &AnalysisUseCase{
		docs:     docs,
		prices:   prices,
		recs:     recs,
		cacheTTL: 10 * time.Minute,
		l:        applogger.Nop(),
		timeout:  15 * time.Second,
		defaults: models.AnalysisOptions{Lookup: models.LookupExact, MaxGapDays: models.GapDays(3), Rule: models.RuleLiteral},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Document returns the raw stored document for symbol.
func (uc *AnalysisUseCase) Document(ctx context.Context, symbol string) (*models.StockDocument, error) {
	sym := util.NormalizeSymbol(symbol)
	if sym == "" {
		return nil, ErrInvalidSymbol
	}
	return uc.docs.GetDocument(ctx, sym)
}

// History lists recorded runs for symbol, newest first.
func (uc *AnalysisUseCase) History(ctx context.Context, symbol string, limit int) ([]models.AnalysisRun, error) {
	sym := util.NormalizeSymbol(symbol)
	if sym == "" {
		return nil, ErrInvalidSymbol
	}
	if uc.recorder == nil {
		return []models.AnalysisRun{}, nil
	}
	return uc.recorder.ListRuns(ctx, sym, limit)
}

// resolve fills what the caller left unset from the configured defaults and
// clamps the result. The returned MaxGapDays is never nil.
func (uc *AnalysisUseCase) resolve(o models.AnalysisOptions) models.AnalysisOptions {
	if o.Lookup == "" {
		o.Lookup = uc.defaults.Lookup
	}
	if o.Rule == "" {
		o.Rule = uc.defaults.Rule
	}
	gap := uc.defaults.Gap()
	if o.MaxGapDays != nil {
		gap = *o.MaxGapDays
	}
	if o.Lookup != models.LookupNearest {
		o.Lookup = models.LookupExact
		gap = 0
	}
	if o.Rule != models.RuleStrict {
		o.Rule = models.RuleLiteral
	}
	if gap < 0 {
		gap = 0
	}
	if gap > 10 {
		gap = 10
	}
	o.MaxGapDays = models.GapDays(gap)
	return o
}

type loaded struct {
	points []models.PricePoint
	recs   []models.Recommendation
}

// load fetches prices and calls concurrently. A symbol neither store knows
// is ErrNotFound; one missing half is treated as empty.
func (uc *AnalysisUseCase) load(ctx context.Context, sym string) (loaded, error) {
	var (
		wg         sync.WaitGroup
		out        loaded
		perr, rerr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		out.points, perr = uc.prices.GetSeries(ctx, sym)
	}()
	go func() {
		defer wg.Done()
		out.recs, rerr = uc.recs.GetRecommendations(ctx, sym)
	}()
	wg.Wait()

	pMissing := errors.Is(perr, domrepo.ErrNotFound)
	rMissing := errors.Is(rerr, domrepo.ErrNotFound)
	switch {
	case pMissing && rMissing:
		return out, perr
	case perr != nil && !pMissing:
		return out, fmt.Errorf("load series: %w", perr)
	case rerr != nil && !rMissing:
		return out, fmt.Errorf("load recommendations: %w", rerr)
	}
	return out, nil
}

// Analyze runs the analysis for symbol. A cached report for the same data
// versions and options is returned unless opts.Refresh is set.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, symbol string, opts models.AnalysisOptions) (rep *models.AnalysisReport, err error) {
	start := uc.now()
	sym := util.NormalizeSymbol(symbol)
	if sym == "" {
		return nil, ErrInvalidSymbol
	}
	opts = uc.resolve(opts)

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	ctx, span := trace.StartSpan(ctx, "analysis.run",
		"symbol", sym, "lookup", string(opts.Lookup), "rule", string(opts.Rule))
	defer func() { trace.End(span, err) }()

	data, err := uc.load(ctx, sym)
	if err != nil {
		if !errors.Is(err, domrepo.ErrNotFound) {
			uc.l.Error("analysis load error", applogger.String("symbol", sym), applogger.Error(err))
			uc.recordError("load")
		}
		return nil, err
	}

	points := series.Normalize(data.points)
	events := series.Events(sym, data.recs)
	sv, ev := series.Version(points), series.EventsVersion(events)
	key := cache.AnalysisKey(sym, sv, ev, opts)

	if !opts.Refresh {
		if cached, ok := uc.cached(ctx, key); ok {
			return cached, nil
		}
	}

	engine := performance.NewEngine(performance.WithLookup(performance.LookupFor(opts.Lookup, opts.Gap())))
	a := engine.Analyze(points, events)
	rep = &models.AnalysisReport{
		RunID:         uc.newID(),
		Symbol:        sym,
		Lookup:        opts.Lookup,
		MaxGapDays:    opts.Gap(),
		Rule:          opts.Rule,
		RuleVerdict:   performance.Verdict(a, opts.Rule),
		SeriesVersion: sv,
		EventsVersion: ev,
		PricePoints:   len(points),
		ComputedAt:    uc.now().UTC(),
		Analysis:      a,
	}

	uc.store(ctx, key, rep)
	uc.distribute(ctx, rep)
	if uc.metrics != nil {
		uc.metrics.RecordAnalysis(sym, opts.Rule, rep.InverseEffective)
		uc.metrics.RecordLatency("analysis", uc.now().Sub(start).Seconds())
	}
	uc.l.Info("analysis computed",
		applogger.String("symbol", sym),
		applogger.String("run_id", rep.RunID),
		applogger.String("rule", string(opts.Rule)),
		applogger.Int("buys", rep.BuyCount),
		applogger.Int("sells", rep.SellCount),
		applogger.Decimal("buy_1m", rep.BuyMeans[models.VerdictHorizon]),
		applogger.Decimal("sell_1m", rep.SellMeans[models.VerdictHorizon]),
		applogger.Bool("inverse_effective", rep.InverseEffective),
	)
	return rep, nil
}

// Reanalyze refreshes the report of every symbol with the default options.
// It stops at the first context error; other failures are joined.
func (uc *AnalysisUseCase) Reanalyze(ctx context.Context, symbols []string) error {
	var errs []error
	opts := uc.defaults
	opts.Refresh = true
	for _, s := range symbols {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := uc.Analyze(ctx, s, opts); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s, err))
		}
	}
	return errors.Join(errs...)
}

func (uc *AnalysisUseCase) cached(ctx context.Context, key string) (*models.AnalysisReport, bool) {
	if uc.cache == nil {
		return nil, false
	}
	b, ok, err := uc.cache.GetBytes(ctx, key)
	if err != nil {
		uc.l.Warn("analysis cache get error", applogger.String("key", key), applogger.Error(err))
		uc.recordError("cache")
		return nil, false
	}
	if !ok {
		svcmetrics.CacheResult(false)
		return nil, false
	}
	var rep models.AnalysisReport
	if err := json.Unmarshal(b, &rep); err != nil {
		uc.l.Warn("analysis cache decode error", applogger.String("key", key), applogger.Error(err))
		_ = uc.cache.Delete(ctx, key)
		return nil, false
	}
	svcmetrics.CacheResult(true)
	return &rep, true
}

func (uc *AnalysisUseCase) store(ctx context.Context, key string, rep *models.AnalysisReport) {
	if uc.cache == nil {
		return
	}
	b, err := json.Marshal(rep)
	if err == nil {
		err = uc.cache.SetBytes(ctx, key, b, uc.cacheTTL)
	}
	if err != nil {
		uc.l.Warn("analysis cache set error", applogger.String("key", key), applogger.Error(err))
		uc.recordError("cache")
	}
}

func (uc *AnalysisUseCase) distribute(ctx context.Context, rep *models.AnalysisReport) {
	if uc.recorder != nil {
		if err := uc.recorder.RecordRun(ctx, rep.Run()); err != nil {
			uc.l.Error("analysis record error", applogger.String("symbol", rep.Symbol), applogger.Error(err))
			uc.recordError("record")
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishAnalysis(ctx, rep); err != nil {
			uc.l.Error("analysis publish error", applogger.String("symbol", rep.Symbol), applogger.Error(err))
			uc.recordError("publish")
		}
	}
}

func (uc *AnalysisUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}

package di

import (
	"context"
	"fmt"
	"time"

	"ContraTrack/internal/domain/models"
	"ContraTrack/internal/domain/repository"
	"ContraTrack/internal/domain/service"
	"ContraTrack/internal/handler/api"
	internalrepo "ContraTrack/internal/repository"
	"ContraTrack/internal/scheduler"
	"ContraTrack/internal/service/cache"
	"ContraTrack/internal/service/ratelimit"
	"ContraTrack/internal/service/scraper"
	"ContraTrack/internal/service/stream"
	"ContraTrack/internal/service/yahoo"
	"ContraTrack/internal/usecase"
	pkgch "ContraTrack/pkg/clickhouse"
	"ContraTrack/pkg/config"
	xhttp "ContraTrack/pkg/http"
	pkgkafka "ContraTrack/pkg/kafka"
	applogger "ContraTrack/pkg/logger"
	"ContraTrack/pkg/metrics"
	"ContraTrack/pkg/server"
)

// Stores groups the read/write stores of the selected data backend.
type Stores struct {
	Docs   repository.DocumentStore
	Prices repository.PriceStore
	Recs   repository.RecommendationStore
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideKafkaProducer creates a Kafka producer. Nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	if cfg.Logger.Collect {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logger.FlushInterval,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topics.Logs,
			Publisher:      producer,
		})
	}
	return producer, nil
}

// ProvideClickHouseClient creates a ClickHouse client and its schema. Nil
// unless the clickhouse backend is selected.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Data.Backend != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.CHSchema(client.Database())); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideStores selects the data backend.
func ProvideStores(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) Stores {
	if ch != nil {
		s := internalrepo.NewCHStore(ch)
		s.SetLogger(l)
		return Stores{Docs: s, Prices: s, Recs: s}
	}
	s := internalrepo.NewJSONStore(cfg.Data.JSONDir, l)
	return Stores{Docs: s, Prices: s, Recs: s}
}

// ProvideRecorder opens the analysis history database. Nil when no path is set.
func ProvideRecorder(cfg *config.Config, l *applogger.Logger) (repository.AnalysisRecorder, error) {
	if cfg.Data.SQLitePath == "" {
		return nil, nil
	}
	r, err := internalrepo.NewSQLiteRecorder(cfg.Data.SQLitePath, l)
	if err != nil {
		return nil, fmt.Errorf("sqlite recorder: %w", err)
	}
	return r, nil
}

// ProvideHub creates the websocket broadcast hub.
func ProvideHub(l *applogger.Logger) *stream.Hub {
	return stream.NewHub(l)
}

// ProvidePublisher fans reports out to websocket clients and, if enabled, Kafka.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer, hub *stream.Hub) repository.AnalysisPublisher {
	pubs := []repository.AnalysisPublisher{hub}
	if producer != nil {
		pubs = append(pubs, internalrepo.NewKafkaAnalysisPublisher(producer, cfg.Kafka.Topics.Analysis))
	}
	return internalrepo.NewMultiPublisher(pubs...)
}

// ProvideCache returns Redis when configured, an in-process TTL cache otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) cache.BytesCache {
	if !cfg.Redis.Enabled {
		return cache.NewTTLCache()
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   "contratrack:",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis unreachable, using in-process cache", applogger.String("addr", cfg.Redis.Addr), applogger.Error(err))
		_ = rc.Close()
		return cache.NewTTLCache()
	}
	return rc
}

// ProvideAnalysisUseCase creates the analysis use case.
func ProvideAnalysisUseCase(
	stores Stores,
	c cache.BytesCache,
	recorder repository.AnalysisRecorder,
	pub repository.AnalysisPublisher,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.AnalysisUseCase {
	opts := []usecase.AnalysisOption{
		usecase.WithAnalysisCache(c, cfg.Analysis.CacheTTL),
		usecase.WithAnalysisPublisher(pub),
		usecase.WithAnalysisMetrics(m),
		usecase.WithAnalysisLogger(l),
		usecase.WithAnalysisDefaults(models.AnalysisOptions{
			Lookup:     models.LookupMode(cfg.Analysis.Lookup),
			MaxGapDays: models.GapDays(cfg.Analysis.MaxGapDays),
			Rule:       models.VerdictRule(cfg.Analysis.Rule),
		}),
	}
	if recorder != nil {
		opts = append(opts, usecase.WithAnalysisRecorder(recorder))
	}
	return usecase.NewAnalysisUseCase(stores.Docs, stores.Prices, stores.Recs, opts...)
}

// ProvideIngestUseCase wires Yahoo and the configured scraper sources.
func ProvideIngestUseCase(stores Stores, m repository.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.IngestUseCase {
	fetcher := yahoo.New(cfg.Yahoo.BaseURL, cfg.Yahoo.Timeout, yahoo.WithRateLimit(cfg.Yahoo.RPS))
	var sources []service.RecommendationSource
	if len(cfg.Scraper.Sources) > 0 {
		sources = append(sources, scraper.New(cfg.Scraper.Sources, cfg.Scraper.Timeout, cfg.Scraper.UserAgent, l))
	}
	return usecase.NewIngestUseCase(fetcher, sources, stores.Prices, stores.Recs, m, l, cfg.Yahoo.Interval, cfg.Yahoo.Range)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML. Nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.TracingHook())
	return consumer, nil
}

// ProvideRecommendationsHandler handles the recommendations topic.
func ProvideRecommendationsHandler(cfg *config.Config, ingest *usecase.IngestUseCase, l *applogger.Logger) *usecase.RecommendationsHandler {
	return usecase.NewRecommendationsHandler(cfg.Kafka.Topics.Recommendations, ingest, l)
}

// ProvideScheduler creates the ingest scheduler. Nil when disabled.
func ProvideScheduler(cfg *config.Config, ingest *usecase.IngestUseCase, analysis *usecase.AnalysisUseCase, l *applogger.Logger) (*scheduler.Scheduler, error) {
	if !cfg.Scheduler.Enabled {
		return nil, nil
	}
	s := scheduler.New(ingest, analysis, cfg.Scheduler.Symbols, l)
	if err := s.Register(cfg.Scheduler.IngestCron); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideHTTPServer mounts the API, the websocket hub and the operational routes.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, analysis *usecase.AnalysisUseCase, hub *stream.Hub) *xhttp.Server {
	limiter := ratelimit.New(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	stock := api.NewStockHandler(l, analysis, api.RateLimit(limiter))

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, []xhttp.Handler{stock, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideResources collects what the app closes on shutdown.
func ProvideResources(pub repository.AnalysisPublisher, recorder repository.AnalysisRecorder, ch *pkgch.Client, c cache.BytesCache) server.Resources {
	return server.Resources{Publisher: pub, Recorder: recorder, ClickHouse: ch, Cache: c}
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	handler *usecase.RecommendationsHandler,
	sched *scheduler.Scheduler,
	res server.Resources,
) *server.App {
	return server.New(cfg, l, httpServer, consumer, handler, sched, res)
}

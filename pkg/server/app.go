package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"ContraTrack/internal/domain/repository"
	"ContraTrack/internal/scheduler"
	"ContraTrack/internal/service/cache"
	pkgch "ContraTrack/pkg/clickhouse"
	"ContraTrack/pkg/config"
	xhttp "ContraTrack/pkg/http"
	pkgkafka "ContraTrack/pkg/kafka"
	applogger "ContraTrack/pkg/logger"
	"ContraTrack/pkg/trace"
)

// Resources are released on shutdown. Nil members are skipped.
type Resources struct {
	Publisher  repository.AnalysisPublisher
	Recorder   repository.AnalysisRecorder
	ClickHouse *pkgch.Client
	Cache      cache.BytesCache
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	sched      *scheduler.Scheduler
	res        Resources
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	sched *scheduler.Scheduler,
	res Resources,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		consumer:   consumer,
		kh:         kh,
		sched:      sched,
		res:        res,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := trace.Init(trace.Config{
		Enabled:     a.cfg.Tracing.Enabled,
		ServiceName: a.cfg.Tracing.ServiceName,
	}); err != nil {
		a.log.Warn("tracing init failed", applogger.Error(err))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.sched != nil {
		a.sched.Start()
		if a.cfg.Scheduler.RunOnStart {
			go a.sched.RunNow()
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("contratrack started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("backend", a.cfg.Data.Backend),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// the log collector publishes through the producer behind Publisher
	a.log.RemoveCollector()

	if a.res.Publisher != nil {
		if err := a.res.Publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.res.Recorder != nil {
		if err := a.res.Recorder.Close(); err != nil {
			a.log.Warn("recorder close error", applogger.Error(err))
		}
	}
	if c, ok := a.res.Cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.res.ClickHouse != nil {
		if err := a.res.ClickHouse.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if err := trace.Shutdown(ctx); err != nil {
		a.log.Warn("trace shutdown error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	applogger "ContraTrack/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Ingester refreshes stored prices and calls for a set of symbols.
type Ingester interface {
	Run(ctx context.Context, symbols []string) error
}

// Reanalyzer recomputes reports for a set of symbols.
type Reanalyzer interface {
	Reanalyze(ctx context.Context, symbols []string) error
}

// Scheduler runs the ingest-then-reanalyze cycle on a cron spec (with seconds).
type Scheduler struct {
	cron     *cron.Cron
	ingest   Ingester
	analysis Reanalyzer
	symbols  []string
	timeout  time.Duration
	l        *applogger.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(ingest Ingester, analysis Reanalyzer, symbols []string, l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		ingest:   ingest,
		analysis: analysis,
		symbols:  symbols,
		timeout:  30 * time.Minute,
		l:        l,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register adds the cycle under spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("register ingest task %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started", applogger.Strings("symbols", s.symbols))
}

// Stop cancels a running cycle and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.l.Info("scheduler stopped")
}

// RunNow executes one cycle. Overlapping cycles are skipped.
func (s *Scheduler) RunNow() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.l.Warn("scheduler cycle still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if s.ingest != nil {
		if err := s.ingest.Run(ctx, s.symbols); err != nil {
			s.l.Error("scheduled ingest finished with errors", applogger.Error(err))
		}
	}
	if s.analysis != nil {
		if err := s.analysis.Reanalyze(ctx, s.symbols); err != nil {
			s.l.Error("scheduled reanalysis finished with errors", applogger.Error(err))
		}
	}
	s.l.Info("scheduler cycle done",
		applogger.Int("symbols", len(s.symbols)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
}

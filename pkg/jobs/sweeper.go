package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler performs one sweep pass.
type Handler func(context.Context) error

// SweeperConfig configures periodic execution.
type SweeperConfig struct {
	Interval time.Duration
	Logger   *zap.Logger
}

// Sweeper runs a handler on a fixed interval in a background goroutine.
// Used to prune expired revocation ledger entries.
type Sweeper struct {
	name     string
	handler  Handler
	interval time.Duration
	logger   *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewSweeper builds a sweeper with the provided handler.
func NewSweeper(name string, handler Handler, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Sweeper{
		name:     name,
		handler:  handler,
		interval: cfg.Interval,
		logger:   cfg.Logger,
	}
}

// Start begins periodic execution. Safe to call once.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
	s.started = true
	s.logger.Sugar().Infow("sweeper started", "sweeper", s.name, "interval", s.interval)
}

// Stop cancels the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Sugar().Infow("sweeper stopped", "sweeper", s.name)
}

func (s *Sweeper) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.handler(s.ctx); err != nil {
				s.logger.Sugar().Warnw("sweep failed", "sweeper", s.name, "error", err)
			}
		}
	}
}

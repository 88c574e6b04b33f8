package main

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EditorSweeper periodically closes editors that clients abandoned
type EditorSweeper struct {
	registry *EditorRegistry
	maxIdle  time.Duration
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewEditorSweeper creates a sweeper that checks every interval for editors
// idle longer than maxIdle
func NewEditorSweeper(registry *EditorRegistry, maxIdle, interval time.Duration, logger *zap.Logger) *EditorSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorSweeper{
		registry: registry,
		maxIdle:  maxIdle,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// sweepInterval checks a few times per idle period, at most once a minute
func sweepInterval(maxIdle time.Duration) time.Duration {
	interval := maxIdle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}

// Start begins the periodic sweep
func (s *EditorSweeper) Start() {
	go s.run()
	s.logger.Info("✓ Editor sweeper started",
		zap.Duration("max_idle", s.maxIdle),
		zap.Duration("interval", s.interval))
}

// Stop halts the sweep and waits for the loop to exit
func (s *EditorSweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		<-s.done
		s.logger.Info("✓ Editor sweeper stopped")
	})
}

// run executes the sweep loop
func (s *EditorSweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *EditorSweeper) sweep() {
	if n := s.registry.CloseIdle(s.maxIdle); n > 0 {
		s.logger.Info("Closed idle editors", zap.Int("count", n))
	}
}

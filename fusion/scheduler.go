package fusion

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler triggers fusion runs at a fixed interval. The core itself
// stays stateless between invocations; this is just the external periodic
// trigger.
type Scheduler struct {
	service  *Service
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *zap.SugaredLogger

	mu        sync.Mutex
	lastRunAt time.Time
	runsSoFar int64
	lastErr   error
}

// NewScheduler creates a scheduler over the fusion service. interval
// defaults to 15 minutes when non-positive.
func NewScheduler(ctx context.Context, service *Service, interval time.Duration, logger *zap.SugaredLogger) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	schedCtx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		service:  service,
		interval: interval,
		ctx:      schedCtx,
		cancel:   cancel,
		logger:   logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	s.logger.Infow("Fusion scheduler started", "interval", s.interval)
}

// Stop cancels the loop and waits for the in-flight run to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Infow("Fusion scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case tickTime := <-ticker.C:
			created, err := s.service.RunSystem(s.ctx)

			s.mu.Lock()
			s.lastRunAt = tickTime
			s.runsSoFar++
			s.lastErr = err
			s.mu.Unlock()

			if err != nil {
				s.logger.Warnw("Scheduled fusion run failed", "error", err)
				continue
			}
			if len(created) > 0 {
				s.logger.Infow("Scheduled fusion run created events", "count", len(created))
			}
		}
	}
}

// Stats reports the scheduler's run history for the status endpoint.
func (s *Scheduler) Stats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]interface{}{
		"last_run_at": s.lastRunAt,
		"runs":        s.runsSoFar,
		"interval":    s.interval.String(),
	}
	if s.lastErr != nil {
		stats["last_error"] = s.lastErr.Error()
	}
	return stats
}

package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/hamed0406/netmonitor/internal/bus"
	"github.com/hamed0406/netmonitor/internal/domain"
	"github.com/hamed0406/netmonitor/internal/metrics"
	"github.com/hamed0406/netmonitor/internal/repo"
)

// SpeedTester runs one measurement cycle end to end (resolve, measure,
// record). Implemented by Service.
type SpeedTester interface {
	RunSpeedTest(ctx context.Context, cfg bus.SpeedTestConfig) (*domain.SpeedTestResult, error)
}

// Scheduler owns the registry of active monitoring schedules: one recurring
// timer per target. The registry is the single source of truth for "is this
// target currently being polled" and holds each id at most once.
type Scheduler struct {
	Log     *zap.Logger
	Targets repo.TargetStore
	Tester  SpeedTester
	Metrics *metrics.Collector

	sem *semaphore.Weighted

	mu      sync.Mutex
	entries map[domain.TargetID]*entry
	order   []domain.TargetID
}

type entry struct {
	cancel   context.CancelFunc
	inFlight atomic.Bool
}

// NewScheduler caps concurrent in-flight speed tests across all targets at
// maxConcurrent (many targets on short intervals would otherwise issue
// unbounded parallel downloads).
func NewScheduler(log *zap.Logger, targets repo.TargetStore, tester SpeedTester, mc *metrics.Collector, maxConcurrent int64) *Scheduler {
	if maxConcurrent < 1 {
		maxConcurrent = 4
	}
	return &Scheduler{
		Log:     log,
		Targets: targets,
		Tester:  tester,
		Metrics: mc,
		sem:     semaphore.NewWeighted(maxConcurrent),
		entries: make(map[domain.TargetID]*entry),
	}
}

// Start begins a recurring measurement cycle for targetID. Starting an
// already-registered target is an idempotent no-op that logs a warning.
func (s *Scheduler) Start(targetID domain.TargetID, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("interval must be positive")
	}

	s.mu.Lock()
	if _, ok := s.entries[targetID]; ok {
		s.mu.Unlock()
		s.Log.Warn("already_monitoring", zap.String("target_id", string(targetID)))
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{cancel: cancel}
	s.entries[targetID] = e
	s.order = append(s.order, targetID)
	n := len(s.entries)
	s.mu.Unlock()

	s.Metrics.SetActiveTargets(n)
	s.Log.Info("monitoring_started",
		zap.String("target_id", string(targetID)),
		zap.Duration("interval", interval),
	)

	go s.loop(ctx, targetID, e, interval)
	return nil
}

// Stop cancels the schedule for targetID. Stopping an unknown target is an
// idempotent no-op that logs a warning.
func (s *Scheduler) Stop(targetID domain.TargetID) {
	s.mu.Lock()
	e, ok := s.entries[targetID]
	if !ok {
		s.mu.Unlock()
		s.Log.Warn("not_monitoring", zap.String("target_id", string(targetID)))
		return
	}
	delete(s.entries, targetID)
	for i, id := range s.order {
		if id == targetID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	e.cancel()
	s.Metrics.SetActiveTargets(n)
	s.Log.Info("monitoring_stopped", zap.String("target_id", string(targetID)))
}

// StopAll cancels every schedule; used on shutdown.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	ids := make([]domain.TargetID, len(s.order))
	copy(ids, s.order)
	s.mu.Unlock()
	for _, id := range ids {
		s.Stop(id)
	}
}

// Active returns the scheduled target ids in registration order.
func (s *Scheduler) Active() []domain.TargetID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TargetID, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Scheduler) loop(ctx context.Context, targetID domain.TargetID, e *entry, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			// skip the tick if the previous cycle is still running
			if !e.inFlight.CompareAndSwap(false, true) {
				s.Log.Debug("tick_skipped_overlap", zap.String("target_id", string(targetID)))
				continue
			}
			s.isolated(targetID, func() error {
				defer e.inFlight.Store(false)
				return s.tick(ctx, targetID)
			})
		}
	}
}

// tick is one measurement cycle: re-fetch the target, then measure and record.
// A target that no longer exists stops its own schedule.
func (s *Scheduler) tick(ctx context.Context, targetID domain.TargetID) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	t, err := s.Targets.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Log.Error("target_gone", zap.String("target_id", string(targetID)))
			s.Stop(targetID)
			return nil
		}
		return err
	}

	_, err = s.Tester.RunSpeedTest(ctx, bus.SpeedTestConfig{TargetID: targetID, Address: t.Address})
	return err
}

// isolated is the per-cycle failure isolation policy: errors and panics from
// one tick are logged and contained, never clearing the timer.
func (s *Scheduler) isolated(targetID domain.TargetID, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error("tick_panic",
				zap.String("target_id", string(targetID)),
				zap.Any("panic", r),
			)
		}
	}()
	if err := fn(); err != nil {
		s.Log.Error("tick_error",
			zap.String("target_id", string(targetID)),
			zap.Error(err),
		)
	}
}

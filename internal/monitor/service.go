package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/netmonitor/internal/bus"
	"github.com/hamed0406/netmonitor/internal/domain"
	"github.com/hamed0406/netmonitor/internal/metrics"
	"github.com/hamed0406/netmonitor/internal/repo"
	"github.com/hamed0406/netmonitor/internal/speedtest"
)

// Service is the monitoring orchestration core: target lifecycle, on-demand
// speed tests, and schedule control. The event gateway and the HTTP API both
// sit on top of it.
type Service struct {
	Log      *zap.Logger
	Targets  repo.TargetStore
	Results  repo.ResultStore
	Runner   *speedtest.Runner
	Resolver *speedtest.Resolver
	Recorder *speedtest.Recorder
	Metrics  *metrics.Collector

	Sched *Scheduler
}

var _ SpeedTester = (*Service)(nil)

func (s *Service) CreateTarget(ctx context.Context, data repo.CreateTarget) (*domain.Target, error) {
	s.Log.Info("creating_target",
		zap.String("name", data.Name),
		zap.String("address", data.Address),
	)
	t, err := s.Targets.Create(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	s.Log.Info("target_created", zap.String("target_id", string(t.ID)))
	return t, nil
}

func (s *Service) GetTarget(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	return s.Targets.FindByIDWithRelations(ctx, id)
}

func (s *Service) GetTargets(ctx context.Context, ownerID string) ([]*domain.Target, error) {
	return s.Targets.FindByOwnerWithRelations(ctx, ownerID)
}

func (s *Service) GetAllTargets(ctx context.Context) ([]*domain.Target, error) {
	return s.Targets.AllWithRelations(ctx)
}

func (s *Service) UpdateTarget(ctx context.Context, id domain.TargetID, data repo.UpdateTarget) (*domain.Target, error) {
	t, err := s.Targets.Update(ctx, id, data)
	if err != nil {
		return nil, fmt.Errorf("update target: %w", err)
	}
	s.Log.Info("target_updated", zap.String("target_id", string(t.ID)))
	return t, nil
}

// DeleteTarget stops any active schedule first so no orphaned timer can
// reference the deleted target.
func (s *Service) DeleteTarget(ctx context.Context, id domain.TargetID) error {
	if s.Sched != nil {
		s.Sched.Stop(id)
	}
	if err := s.Targets.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	s.Log.Info("target_deleted", zap.String("target_id", string(id)))
	return nil
}

// RunSpeedTest executes one measurement cycle and records the outcome. It
// never fails on measurement problems; those come back as FAILURE results.
// The returned error covers persistence only.
func (s *Service) RunSpeedTest(ctx context.Context, cfg bus.SpeedTestConfig) (*domain.SpeedTestResult, error) {
	start := time.Now()

	address := cfg.Address
	if address == "" {
		t, err := s.Targets.FindByID(ctx, cfg.TargetID)
		if err != nil {
			now := time.Now().UTC()
			res := &domain.SpeedTestResult{
				ID:        uuid.NewString(),
				TargetID:  cfg.TargetID,
				Status:    domain.StatusFailure,
				Error:     fmt.Sprintf("target not found: %s", cfg.TargetID),
				Timestamp: now,
				CreatedAt: now,
			}
			return s.record(ctx, res, start)
		}
		address = t.Address
	}

	downloadURL := s.Resolver.Resolve(ctx, cfg.TargetID)
	res := s.Runner.Run(ctx, cfg.TargetID, address, downloadURL)
	return s.record(ctx, res, start)
}

func (s *Service) record(ctx context.Context, res *domain.SpeedTestResult, start time.Time) (*domain.SpeedTestResult, error) {
	stored, err := s.Recorder.Record(ctx, res)
	if err != nil {
		return nil, err
	}
	s.Metrics.ObserveTest(string(stored.Status), time.Since(start))
	s.Log.Info("speed_test_done",
		zap.String("target_id", string(stored.TargetID)),
		zap.String("status", string(stored.Status)),
		zap.Duration("took", time.Since(start)),
	)
	return stored, nil
}

func (s *Service) StartMonitoring(targetID domain.TargetID, interval time.Duration) error {
	return s.Sched.Start(targetID, interval)
}

func (s *Service) StopMonitoring(targetID domain.TargetID) {
	s.Sched.Stop(targetID)
}

func (s *Service) ActiveTargets() []domain.TargetID {
	return s.Sched.Active()
}

func (s *Service) TargetResults(ctx context.Context, id domain.TargetID, limit int) ([]*domain.SpeedTestResult, error) {
	return s.Results.FindByTargetID(ctx, id, limit)
}

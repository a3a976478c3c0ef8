package speedtest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/netmonitor/internal/bus"
	"github.com/hamed0406/netmonitor/internal/domain"
	"github.com/hamed0406/netmonitor/internal/repo"
)

// Recorder persists every completed measurement, success or failure, keeping a
// full history of failed cycles, and then broadcasts the completion event for
// downstream subscribers.
type Recorder struct {
	Results repo.ResultStore
	Bus     bus.Bus
	Log     *zap.Logger
}

func NewRecorder(results repo.ResultStore, b bus.Bus, log *zap.Logger) *Recorder {
	return &Recorder{Results: results, Bus: b, Log: log}
}

func (rec *Recorder) Record(ctx context.Context, r *domain.SpeedTestResult) (*domain.SpeedTestResult, error) {
	stored, err := rec.Results.Create(ctx, repo.CreateResult{
		TargetID: r.TargetID,
		Ping:     r.Ping,
		Download: r.Download,
		Upload:   r.Upload,
		Status:   r.Status,
		Error:    r.Error,
	})
	if err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}

	rec.Log.Debug("result_recorded",
		zap.String("target_id", string(stored.TargetID)),
		zap.String("status", string(stored.Status)),
	)
	rec.Bus.Emit(bus.SpeedTestCompleted, bus.SpeedTestEvent{Result: stored})
	return stored, nil
}

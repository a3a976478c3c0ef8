package speedtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/netmonitor/internal/bus"
	"github.com/hamed0406/netmonitor/internal/domain"
	"github.com/hamed0406/netmonitor/internal/repo"
	"github.com/hamed0406/netmonitor/internal/repo/memory"
)

func TestRecorder_PersistsAndBroadcasts(t *testing.T) {
	s := memory.New()
	b := bus.NewMemory(zap.NewNop())
	rec := NewRecorder(s.Results(), b, zap.NewNop())

	var seen []*domain.SpeedTestResult
	b.On(bus.SpeedTestCompleted, func(p any) {
		ev := p.(bus.SpeedTestEvent)
		seen = append(seen, ev.Result)
	})

	r := failureResult("target-1", time.Now().UTC(), errors.New("Network error"))
	stored, err := rec.Record(context.Background(), r)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	// failure outcomes are stored too, same null/failure shape
	got, _ := s.Results().FindByTargetID(context.Background(), "target-1", 0)
	if len(got) != 1 {
		t.Fatalf("want 1 stored result, got %d", len(got))
	}
	if got[0].Status != domain.StatusFailure || got[0].Error != "Network error" ||
		got[0].Ping != nil || got[0].Download != nil || got[0].Upload != nil {
		t.Fatalf("stored shape wrong: %+v", got[0])
	}

	if len(seen) != 1 || seen[0].ID != stored.ID {
		t.Fatalf("completion broadcast wrong: %+v", seen)
	}
}

type brokenResults struct{}

func (brokenResults) Create(context.Context, repo.CreateResult) (*domain.SpeedTestResult, error) {
	return nil, errors.New("db down")
}
func (brokenResults) FindByTargetID(context.Context, domain.TargetID, int) ([]*domain.SpeedTestResult, error) {
	return nil, nil
}

func TestRecorder_StoreErrorPropagatesWithoutBroadcast(t *testing.T) {
	b := bus.NewMemory(zap.NewNop())
	rec := NewRecorder(brokenResults{}, b, zap.NewNop())

	fired := false
	b.On(bus.SpeedTestCompleted, func(any) { fired = true })

	ping := 1.0
	dl := 2.0
	zero := 0.0
	_, err := rec.Record(context.Background(), &domain.SpeedTestResult{
		TargetID: "t", Ping: &ping, Download: &dl, Upload: &zero, Status: domain.StatusSuccess,
	})
	if err == nil {
		t.Fatalf("want persistence error")
	}
	if fired {
		t.Fatalf("must not broadcast when persistence fails")
	}
}

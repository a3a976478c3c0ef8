package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/netmonitor/internal/bus"
	"github.com/hamed0406/netmonitor/internal/domain"
	"github.com/hamed0406/netmonitor/internal/repo/memory"
	"github.com/hamed0406/netmonitor/internal/speedtest"
)

// newTestService wires a full service against the given HTTP endpoint for
// both ping and download.
func newTestService(t *testing.T, b *bus.Memory, store *memory.Store, endpoint string) *Service {
	t.Helper()
	log := zap.NewNop()
	svc := &Service{
		Log:      log,
		Targets:  store,
		Results:  store.Results(),
		Runner:   speedtest.NewRunner(2*time.Second, log),
		Resolver: &speedtest.Resolver{Override: endpoint, Targets: store, Catalog: speedtest.DefaultCatalog(), Log: log},
		Recorder: speedtest.NewRecorder(store.Results(), b, log),
	}
	svc.Sched = NewScheduler(log, store, svc, nil, 2)
	t.Cleanup(svc.Sched.StopAll)
	return svc
}

func okServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	t.Cleanup(s.Close)
	return s
}

func TestGateway_TargetCreate_EmitsReplyAndBroadcast(t *testing.T) {
	b := bus.NewMemory(zap.NewNop())
	store := memory.New()
	svc := newTestService(t, b, store, okServer(t).URL)

	gw := NewGateway(svc, b, zap.NewNop())
	gw.Bind()
	defer gw.Close()

	var p2p *domain.Target
	var broadcast *domain.Target
	b.On(bus.ReplyEvent(bus.TargetCreated, "r1"), func(p any) {
		p2p = p.(*domain.Target)
	})
	b.On(bus.TargetCreated, func(p any) {
		broadcast = p.(bus.TargetEvent).Target
	})

	b.Emit(bus.TargetCreateRequested, &bus.TargetCreateRequest{
		RequestID: "r1", Name: "t", Address: "https://x.test", OwnerID: "u1",
	})

	if p2p == nil || broadcast == nil {
		t.Fatalf("want both correlated reply and broadcast, got p2p=%v broadcast=%v", p2p, broadcast)
	}
	if p2p.ID != broadcast.ID || p2p.Name != "t" {
		t.Fatalf("payload mismatch: %+v vs %+v", p2p, broadcast)
	}
	if p2p.SpeedTestResults == nil || p2p.AlertRules == nil {
		t.Fatalf("created target must carry empty relations, got %+v", p2p)
	}
}

func TestGateway_NilPayloadIsNoOp(t *testing.T) {
	b := bus.NewMemory(zap.NewNop())
	store := memory.New()
	svc := newTestService(t, b, store, okServer(t).URL)

	gw := NewGateway(svc, b, zap.NewNop())
	gw.Bind()
	defer gw.Close()

	b.Emit(bus.TargetCreateRequested, nil) // must not panic or create anything

	all, _ := store.AllWithRelations(context.Background())
	if len(all) != 0 {
		t.Fatalf("nil payload created a target: %v", all)
	}
}

func TestGateway_DeleteUnknown_EmitsFailureReply(t *testing.T) {
	b := bus.NewMemory(zap.NewNop())
	store := memory.New()
	svc := newTestService(t, b, store, okServer(t).URL)

	gw := NewGateway(svc, b, zap.NewNop())
	gw.Bind()
	defer gw.Close()

	var failure *bus.FailureReply
	b.On(bus.ReplyEvent(bus.TargetDeleteFailed, "r9"), func(p any) {
		v := p.(bus.FailureReply)
		failure = &v
	})

	b.Emit(bus.TargetDeleteRequested, &bus.TargetDeleteRequest{RequestID: "r9", ID: "missing"})

	if failure == nil || failure.Error == "" {
		t.Fatalf("want failure reply with error text, got %v", failure)
	}
}

func TestGateway_MonitoringStartStop_ViaCaller(t *testing.T) {
	b := bus.NewMemory(zap.NewNop())
	store := memory.New()
	svc := newTestService(t, b, store, okServer(t).URL)
	tgt, _ := svc.CreateTarget(context.Background(), targetData())

	gw := NewGateway(svc, b, zap.NewNop())
	gw.Bind()
	defer gw.Close()

	caller := bus.NewCaller(b, zap.NewNop(), time.Second)

	out, err := caller.Call(context.Background(), bus.OpStartMonitoring, &bus.MonitoringStartRequest{
		TargetID: tgt.ID, IntervalMS: int64(time.Hour / time.Millisecond),
	})
	if err != nil {
		t.Fatalf("start call: %v", err)
	}
	if ack, ok := out.(bus.Ack); !ok || !ack.Success {
		t.Fatalf("want Ack{true}, got %v", out)
	}
	if got := svc.ActiveTargets(); len(got) != 1 || got[0] != tgt.ID {
		t.Fatalf("schedule not registered: %v", got)
	}

	if _, err := caller.Call(context.Background(), bus.OpStopMonitoring, &bus.MonitoringStopRequest{
		TargetID: tgt.ID,
	}); err != nil {
		t.Fatalf("stop call: %v", err)
	}
	if got := svc.ActiveTargets(); len(got) != 0 {
		t.Fatalf("schedule not removed: %v", got)
	}
}

func TestGateway_SpeedTest_CorrelatedResult(t *testing.T) {
	b := bus.NewMemory(zap.NewNop())
	store := memory.New()
	svc := newTestService(t, b, store, okServer(t).URL)
	tgt, _ := svc.CreateTarget(context.Background(), targetDataWithAddress(okServer(t).URL))

	gw := NewGateway(svc, b, zap.NewNop())
	gw.Bind()
	defer gw.Close()

	var broadcasts int
	b.On(bus.SpeedTestCompleted, func(any) { broadcasts++ })

	caller := bus.NewCaller(b, zap.NewNop(), 5*time.Second)
	out, err := caller.Call(context.Background(), bus.OpRunSpeedTest, &bus.SpeedTestRequest{
		Config: bus.SpeedTestConfig{TargetID: tgt.ID},
	})
	if err != nil {
		t.Fatalf("speed test call: %v", err)
	}
	res, ok := out.(*domain.SpeedTestResult)
	if !ok {
		t.Fatalf("unexpected reply type %T", out)
	}
	if res.Status != domain.StatusSuccess || res.Ping == nil || res.Download == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if broadcasts != 1 {
		t.Fatalf("want exactly one completion broadcast, got %d", broadcasts)
	}
}

func TestService_RunSpeedTest_NeverRaisesOnNetworkFailure(t *testing.T) {
	b := bus.NewMemory(zap.NewNop())
	store := memory.New()
	// unreachable endpoint for both ping and download
	svc := newTestService(t, b, store, "http://127.0.0.1:1/none")
	tgt, _ := svc.CreateTarget(context.Background(), targetDataWithAddress("http://127.0.0.1:1/none"))

	res, err := svc.RunSpeedTest(context.Background(), bus.SpeedTestConfig{TargetID: tgt.ID})
	if err != nil {
		t.Fatalf("measurement failure must not error: %v", err)
	}
	if res.Status != domain.StatusFailure || res.Error == "" {
		t.Fatalf("want FAILURE result, got %+v", res)
	}
	if res.Ping != nil || res.Download != nil || res.Upload != nil {
		t.Fatalf("failure metrics must be nil: %+v", res)
	}

	// the same shape must have been persisted
	stored, _ := store.Results().FindByTargetID(context.Background(), tgt.ID, 0)
	if len(stored) != 1 || stored[0].Status != domain.StatusFailure {
		t.Fatalf("failure result not stored: %+v", stored)
	}
}

func TestService_RunSpeedTest_MissingTargetIsFailureResult(t *testing.T) {
	b := bus.NewMemory(zap.NewNop())
	store := memory.New()
	svc := newTestService(t, b, store, okServer(t).URL)

	res, err := svc.RunSpeedTest(context.Background(), bus.SpeedTestConfig{TargetID: "ghost"})
	if err != nil {
		t.Fatalf("missing target must not error: %v", err)
	}
	if res.Status != domain.StatusFailure {
		t.Fatalf("want FAILURE, got %+v", res)
	}
}

package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/netmonitor/internal/bus"
	"github.com/hamed0406/netmonitor/internal/repo"
)

// Gateway binds the six *_REQUESTED events to service operations, turning the
// shared bus into a request/response channel. Each handler is a single-shot
// transition: do the operation, then emit either the correlated success reply
// plus the broadcast, or the correlated failure reply. Nothing raises past a
// handler.
type Gateway struct {
	Svc *Service
	Bus bus.Bus
	Log *zap.Logger

	tokens map[string]int
}

func NewGateway(svc *Service, b bus.Bus, log *zap.Logger) *Gateway {
	return &Gateway{Svc: svc, Bus: b, Log: log, tokens: make(map[string]int)}
}

func (g *Gateway) Bind() {
	g.tokens[bus.TargetCreateRequested] = g.Bus.On(bus.TargetCreateRequested, g.onTargetCreate)
	g.tokens[bus.TargetUpdateRequested] = g.Bus.On(bus.TargetUpdateRequested, g.onTargetUpdate)
	g.tokens[bus.TargetDeleteRequested] = g.Bus.On(bus.TargetDeleteRequested, g.onTargetDelete)
	g.tokens[bus.MonitoringStartRequested] = g.Bus.On(bus.MonitoringStartRequested, g.onMonitoringStart)
	g.tokens[bus.MonitoringStopRequested] = g.Bus.On(bus.MonitoringStopRequested, g.onMonitoringStop)
	g.tokens[bus.SpeedTestRequested] = g.Bus.On(bus.SpeedTestRequested, g.onSpeedTest)
	g.Log.Info("gateway_bound", zap.Int("events", len(g.tokens)))
}

func (g *Gateway) Close() {
	for event, token := range g.tokens {
		g.Bus.Off(event, token)
		delete(g.tokens, event)
	}
}

func (g *Gateway) onTargetCreate(p any) {
	req, ok := p.(*bus.TargetCreateRequest)
	if !ok || req == nil {
		return
	}
	t, err := g.Svc.CreateTarget(context.Background(), repo.CreateTarget{
		Name:    req.Name,
		Address: req.Address,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		g.fail("create target", bus.TargetCreateFailed, req.RequestID, err)
		return
	}
	g.reply(bus.TargetCreated, req.RequestID, t)
	g.Bus.Emit(bus.TargetCreated, bus.TargetEvent{Target: t})
}

func (g *Gateway) onTargetUpdate(p any) {
	req, ok := p.(*bus.TargetUpdateRequest)
	if !ok || req == nil {
		return
	}
	t, err := g.Svc.UpdateTarget(context.Background(), req.ID, repo.UpdateTarget{
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		g.fail("update target", bus.TargetUpdateFailed, req.RequestID, err)
		return
	}
	g.reply(bus.TargetUpdated, req.RequestID, t)
	g.Bus.Emit(bus.TargetUpdated, bus.TargetEvent{Target: t})
}

func (g *Gateway) onTargetDelete(p any) {
	req, ok := p.(*bus.TargetDeleteRequest)
	if !ok || req == nil {
		return
	}
	if err := g.Svc.DeleteTarget(context.Background(), req.ID); err != nil {
		g.fail("delete target", bus.TargetDeleteFailed, req.RequestID, err)
		return
	}
	g.reply(bus.TargetDeleted, req.RequestID, bus.Ack{Success: true})
	g.Bus.Emit(bus.TargetDeleted, bus.TargetDeletedEvent{ID: req.ID})
}

func (g *Gateway) onMonitoringStart(p any) {
	req, ok := p.(*bus.MonitoringStartRequest)
	if !ok || req == nil {
		return
	}
	if err := g.Svc.StartMonitoring(req.TargetID, time.Duration(req.IntervalMS)*time.Millisecond); err != nil {
		g.fail("start monitoring", bus.MonitoringStartFailed, req.RequestID, err)
		return
	}
	g.reply(bus.MonitoringStarted, req.RequestID, bus.Ack{Success: true})
	g.Bus.Emit(bus.MonitoringStarted, bus.MonitoringEvent{TargetID: req.TargetID})
}

func (g *Gateway) onMonitoringStop(p any) {
	req, ok := p.(*bus.MonitoringStopRequest)
	if !ok || req == nil {
		return
	}
	g.Svc.StopMonitoring(req.TargetID)
	g.reply(bus.MonitoringStopped, req.RequestID, bus.Ack{Success: true})
	g.Bus.Emit(bus.MonitoringStopped, bus.MonitoringEvent{TargetID: req.TargetID})
}

func (g *Gateway) onSpeedTest(p any) {
	req, ok := p.(*bus.SpeedTestRequest)
	if !ok || req == nil {
		return
	}
	res, err := g.Svc.RunSpeedTest(context.Background(), req.Config)
	if err != nil {
		g.fail("run speed test", bus.SpeedTestFailed, req.RequestID, err)
		return
	}
	// the completion broadcast is emitted by the recorder on every persisted
	// result; the gateway only adds the correlated reply
	g.reply(bus.SpeedTestCompleted, req.RequestID, res)
}

func (g *Gateway) reply(base, requestID string, payload any) {
	if requestID == "" {
		return
	}
	g.Bus.Emit(bus.ReplyEvent(base, requestID), payload)
}

func (g *Gateway) fail(op, base, requestID string, err error) {
	g.Log.Error("operation_failed",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Error(err),
	)
	if requestID == "" {
		return
	}
	g.Bus.Emit(bus.ReplyEvent(base, requestID), bus.FailureReply{Error: err.Error()})
}

package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation names the three event legs of one correlated request type.
type Operation struct {
	Request string
	Success string
	Failure string
}

var (
	OpCreateTarget    = Operation{TargetCreateRequested, TargetCreated, TargetCreateFailed}
	OpUpdateTarget    = Operation{TargetUpdateRequested, TargetUpdated, TargetUpdateFailed}
	OpDeleteTarget    = Operation{TargetDeleteRequested, TargetDeleted, TargetDeleteFailed}
	OpStartMonitoring = Operation{MonitoringStartRequested, MonitoringStarted, MonitoringStartFailed}
	OpStopMonitoring  = Operation{MonitoringStopRequested, MonitoringStopped, MonitoringStopFailed}
	OpRunSpeedTest    = Operation{SpeedTestRequested, SpeedTestCompleted, SpeedTestFailed}
)

const DefaultCallTimeout = 10 * time.Second

// ErrCallTimeout is returned when no reply arrives within the caller's timeout.
var ErrCallTimeout = errors.New("request timeout")

// Caller turns the bus into a request/response channel: it assigns a fresh
// correlation id, listens for the matching one-shot replies, and enforces a
// timeout so a crashed responder cannot strand the caller.
type Caller struct {
	Bus     Bus
	Log     *zap.Logger
	Timeout time.Duration
}

func NewCaller(b Bus, log *zap.Logger, timeout time.Duration) *Caller {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Caller{Bus: b, Log: log, Timeout: timeout}
}

// Call emits op.Request with payload and waits for the correlated reply.
// The reply listeners are detached on every exit path.
func (c *Caller) Call(ctx context.Context, op Operation, payload Correlatable) (any, error) {
	requestID := uuid.NewString()
	payload.SetRequestID(requestID)

	done := make(chan any, 1)
	fail := make(chan error, 1)

	successEvent := ReplyEvent(op.Success, requestID)
	failureEvent := ReplyEvent(op.Failure, requestID)

	st := c.Bus.On(successEvent, func(p any) {
		select {
		case done <- p:
		default:
		}
	})
	ft := c.Bus.On(failureEvent, func(p any) {
		select {
		case fail <- replyError(p):
		default:
		}
	})
	defer c.Bus.Off(successEvent, st)
	defer c.Bus.Off(failureEvent, ft)

	c.Log.Debug("bus_call",
		zap.String("request", op.Request),
		zap.String("request_id", requestID),
	)
	c.Bus.Emit(op.Request, payload)

	timer := time.NewTimer(c.Timeout)
	defer timer.Stop()

	select {
	case p := <-done:
		return p, nil
	case err := <-fail:
		c.Log.Warn("bus_call_failed",
			zap.String("request", op.Request),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, err
	case <-timer.C:
		c.Log.Error("bus_call_timeout",
			zap.String("request", op.Request),
			zap.String("request_id", requestID),
			zap.Duration("timeout", c.Timeout),
		)
		return nil, fmt.Errorf("%w: %s (%s)", ErrCallTimeout, op.Request, c.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func replyError(p any) error {
	switch v := p.(type) {
	case FailureReply:
		return errors.New(v.Error)
	case *FailureReply:
		return errors.New(v.Error)
	case error:
		return v
	default:
		return errors.New("unknown error")
	}
}

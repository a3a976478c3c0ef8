package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/netmonitor/internal/bus"
)

// FailureWatcher is a plain subscriber on the completion broadcast: it sends
// a notification whenever a measurement cycle fails. Rule evaluation and
// cooldowns belong to the external alerting workers; this is only a
// best-effort operator ping.
type FailureWatcher struct {
	Bus      bus.Bus
	Notifier Notifier
	Log      *zap.Logger

	token int
}

func NewFailureWatcher(b bus.Bus, n Notifier, log *zap.Logger) *FailureWatcher {
	return &FailureWatcher{Bus: b, Notifier: n, Log: log}
}

func (w *FailureWatcher) Bind() {
	w.token = w.Bus.On(bus.SpeedTestCompleted, w.onCompleted)
}

func (w *FailureWatcher) Close() {
	w.Bus.Off(bus.SpeedTestCompleted, w.token)
}

func (w *FailureWatcher) onCompleted(p any) {
	ev, ok := p.(bus.SpeedTestEvent)
	if !ok || ev.Result == nil || !ev.Result.Failed() {
		return
	}
	r := ev.Result

	text := fmt.Sprintf(
		"Target: %s\nError: %s\nMeasured: %s",
		r.TargetID, r.Error, r.Timestamp.Format(time.RFC3339),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.Notifier.Send(ctx, "🔴 Speed test FAILED", text); err != nil {
		w.Log.Warn("failure_notify_error",
			zap.String("target_id", string(r.TargetID)),
			zap.Error(err),
		)
	}
}

package speedtest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/netmonitor/internal/domain"
)

// Runner performs one measurement cycle (ping + download) against a target.
// It knows nothing about scheduling or events.
type Runner struct {
	Client *http.Client
	Log    *zap.Logger
}

func NewRunner(timeout time.Duration, log *zap.Logger) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		Client: &http.Client{Timeout: timeout},
		Log:    log,
	}
}

// Run measures ping latency against address and throughput against
// downloadURL. It never returns an error: a failed cycle is represented as a
// FAILURE result with nil metrics and the failure message.
func (r *Runner) Run(ctx context.Context, targetID domain.TargetID, address, downloadURL string) *domain.SpeedTestResult {
	now := time.Now().UTC()

	ping, err := r.Ping(ctx, address)
	if err != nil {
		return failureResult(targetID, now, err)
	}

	download, err := r.Download(ctx, downloadURL)
	if err != nil {
		return failureResult(targetID, now, err)
	}

	upload := 0.0 // upload measurement not implemented
	return &domain.SpeedTestResult{
		ID:        uuid.NewString(),
		TargetID:  targetID,
		Ping:      &ping,
		Download:  &download,
		Upload:    &upload,
		Status:    domain.StatusSuccess,
		Timestamp: now,
		CreatedAt: now,
	}
}

// Ping issues a header-only probe and returns the round-trip latency in ms.
// A ping failure short-circuits the cycle; the download is not attempted.
func (r *Runner) Ping(ctx context.Context, address string) (float64, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, address, nil)
	if err != nil {
		return 0, err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return time.Since(start).Seconds() * 1000, nil
}

// Download fetches testURL, streaming the body and counting bytes so large
// test files never sit in memory whole. Returns throughput in Mbps.
func (r *Runner) Download(ctx context.Context, testURL string) (float64, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, testURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	bytes, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return 0, err
	}
	elapsed := time.Since(start).Seconds()

	mbps := float64(bytes) * 8 / elapsed / 1_000_000
	r.Log.Debug("download_measured",
		zap.Int64("bytes", bytes),
		zap.Float64("seconds", elapsed),
		zap.Float64("mbps", mbps),
	)
	return mbps, nil
}

func failureResult(targetID domain.TargetID, at time.Time, err error) *domain.SpeedTestResult {
	msg := "Unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &domain.SpeedTestResult{
		ID:        uuid.NewString(),
		TargetID:  targetID,
		Status:    domain.StatusFailure,
		Error:     msg,
		Timestamp: at,
		CreatedAt: at,
	}
}

package domain

import "time"

type TestStatus string

const (
	StatusSuccess TestStatus = "SUCCESS"
	StatusFailure TestStatus = "FAILURE"
)

// SpeedTestResult is one completed measurement cycle. Immutable once created.
//
// Exactly one of two shapes is valid: Ping and Download set with StatusSuccess,
// or all numeric fields nil with StatusFailure and a populated Error.
type SpeedTestResult struct {
	ID        string     `json:"id"`
	TargetID  TargetID   `json:"target_id"`
	Ping      *float64   `json:"ping"`     // milliseconds
	Download  *float64   `json:"download"` // Mbps
	Upload    *float64   `json:"upload"`   // always 0 on success; upload tests not implemented
	Status    TestStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	CreatedAt time.Time  `json:"created_at"`
}

func (r *SpeedTestResult) Failed() bool { return r.Status == StatusFailure }

package domain

import "time"

type TargetID string

// Target is a monitored network endpoint owned by a user.
type Target struct {
	ID               TargetID          `json:"id"`
	Name             string            `json:"name"`
	Address          string            `json:"address"`
	OwnerID          string            `json:"owner_id"`
	CreatedAt        time.Time         `json:"created_at"`
	SpeedTestResults []SpeedTestResult `json:"speed_test_results"`
	AlertRules       []AlertRule       `json:"alert_rules"`
}

// AlertRule belongs to a target. The core stores and returns rules alongside
// the target; rule evaluation happens in external consumers of the event stream.
type AlertRule struct {
	ID        string    `json:"id"`
	TargetID  TargetID  `json:"target_id"`
	Name      string    `json:"name"`
	Metric    string    `json:"metric"` // "ping" or "download"
	Condition string    `json:"condition"`
	Threshold float64   `json:"threshold"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// SpeedTestPreference is a user's stored choice of download test file,
// referencing a catalog source by id.
type SpeedTestPreference struct {
	UserID   string `json:"user_id"`
	SourceID string `json:"source_id"`
}

package bus

import "github.com/hamed0406/netmonitor/internal/domain"

// Event names are part of the wire protocol; the literal strings are consumed
// by external workers as well.
const (
	TargetCreateRequested = "TARGET_CREATE_REQUESTED"
	TargetCreated         = "TARGET_CREATED"
	TargetCreateFailed    = "TARGET_CREATE_FAILED"

	TargetUpdateRequested = "TARGET_UPDATE_REQUESTED"
	TargetUpdated         = "TARGET_UPDATED"
	TargetUpdateFailed    = "TARGET_UPDATE_FAILED"

	TargetDeleteRequested = "TARGET_DELETE_REQUESTED"
	TargetDeleted         = "TARGET_DELETED"
	TargetDeleteFailed    = "TARGET_DELETE_FAILED"

	MonitoringStartRequested = "MONITORING_START_REQUESTED"
	MonitoringStarted        = "MONITORING_STARTED"
	MonitoringStartFailed    = "MONITORING_START_FAILED"

	MonitoringStopRequested = "MONITORING_STOP_REQUESTED"
	MonitoringStopped       = "MONITORING_STOPPED"
	MonitoringStopFailed    = "MONITORING_STOP_FAILED"

	SpeedTestRequested = "SPEED_TEST_REQUESTED"
	SpeedTestCompleted = "SPEED_TEST_COMPLETED"
	SpeedTestFailed    = "SPEED_TEST_FAILED"
)

// ReplyEvent builds the point-to-point event name for a correlated reply.
func ReplyEvent(base, requestID string) string {
	return base + "_" + requestID
}

// Correlatable request payloads accept the caller-assigned correlation id.
type Correlatable interface {
	SetRequestID(id string)
}

// ---- request payloads ----

type TargetCreateRequest struct {
	RequestID string `json:"request_id,omitempty"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	OwnerID   string `json:"owner_id"`
}

type TargetUpdateRequest struct {
	RequestID string          `json:"request_id,omitempty"`
	ID        domain.TargetID `json:"id"`
	Name      *string         `json:"name,omitempty"`
	Address   *string         `json:"address,omitempty"`
}

type TargetDeleteRequest struct {
	RequestID string          `json:"request_id,omitempty"`
	ID        domain.TargetID `json:"id"`
}

type MonitoringStartRequest struct {
	RequestID  string          `json:"request_id,omitempty"`
	TargetID   domain.TargetID `json:"target_id"`
	IntervalMS int64           `json:"interval_ms"`
}

type MonitoringStopRequest struct {
	RequestID string          `json:"request_id,omitempty"`
	TargetID  domain.TargetID `json:"target_id"`
}

// SpeedTestConfig describes one on-demand measurement. Address may be empty,
// in which case the target's stored address is used.
type SpeedTestConfig struct {
	TargetID domain.TargetID `json:"target_id"`
	Address  string          `json:"address,omitempty"`
}

type SpeedTestRequest struct {
	RequestID string          `json:"request_id,omitempty"`
	Config    SpeedTestConfig `json:"config"`
}

func (p *TargetCreateRequest) SetRequestID(id string)    { p.RequestID = id }
func (p *TargetUpdateRequest) SetRequestID(id string)    { p.RequestID = id }
func (p *TargetDeleteRequest) SetRequestID(id string)    { p.RequestID = id }
func (p *MonitoringStartRequest) SetRequestID(id string) { p.RequestID = id }
func (p *MonitoringStopRequest) SetRequestID(id string)  { p.RequestID = id }
func (p *SpeedTestRequest) SetRequestID(id string)       { p.RequestID = id }

// ---- broadcast / reply payloads ----

type TargetEvent struct {
	Target *domain.Target `json:"target"`
}

type TargetDeletedEvent struct {
	ID domain.TargetID `json:"id"`
}

type MonitoringEvent struct {
	TargetID domain.TargetID `json:"target_id"`
}

type SpeedTestEvent struct {
	Result *domain.SpeedTestResult `json:"result"`
}

// Ack is the point-to-point success reply for operations with no result body.
type Ack struct {
	Success bool `json:"success"`
}

// FailureReply is the point-to-point failure payload.
type FailureReply struct {
	Error string `json:"error"`
}

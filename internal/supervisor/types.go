package supervisor

import (
	"time"

	"variantd/internal/variant"
)

// State is the lifecycle state of one variant process.
type State string

const (
	StateStarting   State = "starting"
	StateRunning    State = "running"
	StateStopping   State = "stopping"
	StateTerminated State = "terminated"
)

// StartRequest describes a transcoder to spawn under Key.
type StartRequest struct {
	Key  variant.Key
	Args []string
}

// ProcessInfo is a read-only projection of a tracked variant process.
type ProcessInfo struct {
	Key            string       `json:"key"`
	SourceID       string       `json:"sourceId"`
	Resolution     string       `json:"resolution"`
	Tier           variant.Tier `json:"tier"`
	OutputStreamID string       `json:"outputStreamId"`
	PID            int          `json:"pid,omitempty"`
	State          State        `json:"state"`
	StartedAt      time.Time    `json:"startedAt"`
}

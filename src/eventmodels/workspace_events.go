package eventmodels

import "time"

type SimulationStartedEvent struct {
	HomeID     string    `json:"home_id"`
	InstanceID string    `json:"instance_id"`
	Accounts   []string  `json:"accounts"`
	StartedAt  time.Time `json:"started_at"`
}

type SimulationCompletedEvent struct {
	HomeID      string        `json:"home_id"`
	InstanceID  string        `json:"instance_id"`
	ResultCount int           `json:"result_count"`
	Cached      bool          `json:"cached"`
	Elapsed     time.Duration `json:"elapsed"`
}

type SimulationFailedEvent struct {
	HomeID     string `json:"home_id"`
	InstanceID string `json:"instance_id"`
	Error      string `json:"error"`
}

type InstanceBranchedEvent struct {
	HomeID   string `json:"home_id"`
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
}

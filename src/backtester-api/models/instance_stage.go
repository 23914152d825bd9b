package models

import "fmt"

type InstanceStage string

var ErrInvalidInstanceStage = fmt.Errorf("invalid instance stage")

func (s InstanceStage) Validate() error {
	switch s {
	case InstanceStageSelecting, InstanceStageSetting, InstanceStageSimulating, InstanceStageSimulated, InstanceStageIdle:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidInstanceStage, string(s))
	}
}

const (
	InstanceStageSelecting  InstanceStage = "selecting"
	InstanceStageSetting    InstanceStage = "setting"
	InstanceStageSimulating InstanceStage = "simulating"
	InstanceStageSimulated  InstanceStage = "simulated"
	InstanceStageIdle       InstanceStage = "idle"
)

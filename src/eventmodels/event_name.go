package eventmodels

type EventName string

const (
	SimulationStartedEventName   EventName = "SimulationStartedEvent"
	SimulationCompletedEventName EventName = "SimulationCompletedEvent"
	SimulationFailedEventName    EventName = "SimulationFailedEvent"
	InstanceBranchedEventName    EventName = "InstanceBranchedEvent"
)

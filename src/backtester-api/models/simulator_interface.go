package models

import "context"

type ISimulator interface {
	Simulate(ctx context.Context, req *SimulationRequest) (*SimulationResponse, error)
}

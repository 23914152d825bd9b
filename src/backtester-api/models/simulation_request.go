package models

import "fmt"

type SimulationRequest struct {
	Accounts []string         `json:"accounts"`
	Settings BacktestSettings `json:"settings"`
}

func (r *SimulationRequest) Validate() error {
	if len(r.Accounts) == 0 {
		return ErrNoTraders
	}

	if err := r.Settings.Validate(); err != nil {
		return fmt.Errorf("SimulationRequest.Validate: %w", err)
	}

	return nil
}

type SimulationResponse struct {
	Results []*BacktestResult `json:"results"`
}

package models

import (
	"context"
	"sync"
)

type MockSimulator struct {
	mu       sync.Mutex
	requests []*SimulationRequest
	results  map[string]*BacktestResult
	err      error
}

func (m *MockSimulator) Simulate(ctx context.Context, req *SimulationRequest) (*SimulationResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.err != nil {
		return nil, m.err
	}

	resp := &SimulationResponse{}
	for _, account := range req.Accounts {
		if result, ok := m.results[account]; ok {
			resp.Results = append(resp.Results, result)
		}
	}

	return resp, nil
}

func (m *MockSimulator) SetResult(result *BacktestResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.results[result.Account] = result
}

func (m *MockSimulator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

func (m *MockSimulator) Requests() []*SimulationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*SimulationRequest(nil), m.requests...)
}

func NewMockSimulator() *MockSimulator {
	return &MockSimulator{
		requests: make([]*SimulationRequest, 0),
		results:  make(map[string]*BacktestResult),
	}
}

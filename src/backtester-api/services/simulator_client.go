package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
	"github.com/jiaming2012/backtest-workspace/src/utils"
)

// SimulatorClient calls the backtest backend over HTTP.
type SimulatorClient struct {
	baseURL string
	client  *http.Client
}

func NewSimulatorClient(baseURL string, timeout time.Duration) *SimulatorClient {
	return &SimulatorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *SimulatorClient) Simulate(ctx context.Context, req *models.SimulationRequest) (*models.SimulationResponse, error) {
	var resp models.SimulationResponse
	if err := utils.PostJSON(ctx, c.client, c.baseURL+"/backtest/simulate", req, &resp); err != nil {
		return nil, fmt.Errorf("SimulatorClient.Simulate: %w", err)
	}

	return &resp, nil
}

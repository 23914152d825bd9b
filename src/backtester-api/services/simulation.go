package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
	"github.com/jiaming2012/backtest-workspace/src/eventmodels"
)

// RunSimulation replays the instance's traders through the external simulator and stores the
// results. The instance sits in the simulating stage for the duration of the call; on failure
// its previous stage is restored.
func (s *WorkspaceService) RunSimulation(ctx context.Context, homeID, instanceID string) (*models.TestInstance, error) {
	data, err := s.resolve(homeID, instanceID)
	if err != nil {
		return nil, err
	}

	home, instance := data.Home, data.Instance

	if instance.Settings == nil {
		return nil, eventmodels.NewWebError(http.StatusBadRequest, "cannot simulate", models.ErrMissingSettings)
	}

	req := &models.SimulationRequest{
		Accounts: append([]string(nil), instance.ListTrader...),
		Settings: *instance.Settings,
	}

	if err := req.Validate(); err != nil {
		return nil, eventmodels.NewWebError(http.StatusBadRequest, "cannot simulate", err)
	}

	if !s.markRunning(instance.ID) {
		return nil, eventmodels.NewWebError(http.StatusConflict, "cannot simulate", models.ErrSimulationInProgress)
	}
	defer s.clearRunning(instance.ID)

	prevStage := instance.Stage
	if err := s.setStage(home.ID, instance.ID, models.InstanceStageSimulating); err != nil {
		return nil, fmt.Errorf("RunSimulation: %w", err)
	}

	s.publish(eventmodels.SimulationStartedEventName, &eventmodels.SimulationStartedEvent{
		HomeID:     home.ID,
		InstanceID: instance.ID,
		Accounts:   req.Accounts,
		StartedAt:  time.Now(),
	})

	start := time.Now()
	results, cached, err := s.simulate(ctx, req)
	if err != nil {
		if stageErr := s.setStage(home.ID, instance.ID, prevStage); stageErr != nil {
			log.Warnf("RunSimulation: failed to restore stage of %s: %v", instance.ID, stageErr)
		}

		s.publish(eventmodels.SimulationFailedEventName, &eventmodels.SimulationFailedEvent{
			HomeID:     home.ID,
			InstanceID: instance.ID,
			Error:      err.Error(),
		})

		return nil, simulationError(err)
	}

	stage := models.InstanceStageSimulated
	err = s.store.UpdateInstance(models.TestInstancePatch{
		HomeID:         home.ID,
		ID:             instance.ID,
		Stage:          &stage,
		BacktestResult: &results,
	})
	if err != nil {
		// the instance was removed while the simulator was running
		return nil, fmt.Errorf("RunSimulation: failed to store results: %w", err)
	}

	isTested := true
	if err := s.store.UpdateHomeInstance(home.ID, models.HomeInstancePatch{IsTested: &isTested}); err != nil {
		return nil, fmt.Errorf("RunSimulation: failed to mark home as tested: %w", err)
	}

	s.publish(eventmodels.SimulationCompletedEventName, &eventmodels.SimulationCompletedEvent{
		HomeID:      home.ID,
		InstanceID:  instance.ID,
		ResultCount: len(results),
		Cached:      cached,
		Elapsed:     time.Since(start),
	})

	updated := s.store.GetCommonData(home.ID, instance.ID).Instance
	if updated == nil {
		return nil, fmt.Errorf("RunSimulation: %w", models.ErrInstanceNotFound)
	}

	return updated, nil
}

func (s *WorkspaceService) simulate(ctx context.Context, req *models.SimulationRequest) ([]*models.BacktestResult, bool, error) {
	if results, found := s.cache.Get(req); found {
		return results, true, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.simulator.Simulate(ctx, req)
	if err != nil {
		return nil, false, err
	}

	results := resp.Results
	if results == nil {
		results = []*models.BacktestResult{}
	}

	s.cache.Set(req, results)

	return results, false, nil
}

func (s *WorkspaceService) setStage(homeID, instanceID string, stage models.InstanceStage) error {
	return s.store.UpdateInstance(models.TestInstancePatch{
		HomeID: homeID,
		ID:     instanceID,
		Stage:  &stage,
	})
}

func simulationError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return eventmodels.NewWebError(http.StatusGatewayTimeout, "simulator timed out", err)
	case errors.Is(err, context.Canceled):
		return eventmodels.NewWebError(http.StatusServiceUnavailable, "simulation cancelled", err)
	}

	return eventmodels.NewWebError(http.StatusBadGateway, "simulator failed", err)
}

package services

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
	"github.com/jiaming2012/backtest-workspace/src/backtester-api/store"
	"github.com/jiaming2012/backtest-workspace/src/eventmodels"
	"github.com/jiaming2012/backtest-workspace/src/eventpubsub"
)

const publisherName = "WorkspaceService"

type WorkspaceService struct {
	store     *store.Store
	simulator models.ISimulator
	bus       *eventpubsub.Bus
	cache     *ResultsCache
	timeout   time.Duration

	runningMutex sync.Mutex
	running      map[string]struct{}
}

func (s *WorkspaceService) GetStore() *store.Store {
	return s.store
}

func NewWorkspaceService(st *store.Store, simulator models.ISimulator, bus *eventpubsub.Bus, cache *ResultsCache, timeout time.Duration) *WorkspaceService {
	return &WorkspaceService{
		store:     st,
		simulator: simulator,
		bus:       bus,
		cache:     cache,
		timeout:   timeout,
		running:   make(map[string]struct{}),
	}
}

func (s *WorkspaceService) publish(topic eventmodels.EventName, event interface{}) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(publisherName, topic, event)
}

// Reset empties the store and forgets every cached simulator response.
func (s *WorkspaceService) Reset() error {
	if err := s.store.ResetStore(); err != nil {
		return fmt.Errorf("Reset: %w", err)
	}

	s.cache.Flush()

	return nil
}

// resolve looks up an instance, returning a 404 WebError when the home or instance is missing.
func (s *WorkspaceService) resolve(homeID, instanceID string) (store.CommonData, error) {
	data := s.store.GetCommonData(homeID, instanceID)
	if data.Home == nil {
		if homeID == "" {
			return data, eventmodels.NewWebError(http.StatusNotFound, "no current home instance", models.ErrNoCurrentHomeInstance)
		}

		return data, eventmodels.NewWebError(http.StatusNotFound, "home instance "+homeID, models.ErrHomeInstanceNotFound)
	}

	if data.Instance == nil {
		return data, eventmodels.NewWebError(http.StatusNotFound, "backtest instance "+instanceID, models.ErrInstanceNotFound)
	}

	return data, nil
}

// markRunning reserves instanceID for a simulation and returns false if one is already running.
func (s *WorkspaceService) markRunning(instanceID string) bool {
	s.runningMutex.Lock()
	defer s.runningMutex.Unlock()

	if _, found := s.running[instanceID]; found {
		return false
	}

	s.running[instanceID] = struct{}{}
	return true
}

func (s *WorkspaceService) clearRunning(instanceID string) {
	s.runningMutex.Lock()
	defer s.runningMutex.Unlock()

	delete(s.running, instanceID)
}

// StatusCode maps service and store errors onto HTTP status codes.
func StatusCode(err error) int {
	var webErr *eventmodels.WebError
	if errors.As(err, &webErr) {
		return webErr.StatusCode
	}

	switch {
	case errors.Is(err, models.ErrHomeInstanceNotFound),
		errors.Is(err, models.ErrNoCurrentHomeInstance),
		errors.Is(err, models.ErrInstanceNotFound),
		errors.Is(err, models.ErrParentInstanceNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInstanceAlreadyExists),
		errors.Is(err, models.ErrSimulationInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrMissingSettings),
		errors.Is(err, models.ErrNoTraders),
		errors.Is(err, models.ErrInvalidInstanceStage):
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

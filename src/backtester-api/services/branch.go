package services

import (
	"fmt"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
	"github.com/jiaming2012/backtest-workspace/src/eventmodels"
)

// BranchInstance spawns a child of parentID carrying the parent's traders and a private copy of
// its settings, ready to be tweaked and simulated.
func (s *WorkspaceService) BranchInstance(homeID, parentID string) (*models.TestInstance, error) {
	data, err := s.resolve(homeID, parentID)
	if err != nil {
		return nil, err
	}

	parent := data.Instance

	child := &models.TestInstance{
		HomeID:     data.Home.ID,
		ParentID:   &parent.ID,
		ListTrader: append([]string{}, parent.ListTrader...),
		Stage:      models.InstanceStageSetting,
		IsVisible:  true,
	}

	if parent.Settings != nil {
		child.Settings = parent.Settings.Copy()
	}

	id, err := s.store.AddInstance(child)
	if err != nil {
		return nil, fmt.Errorf("BranchInstance: %w", err)
	}

	s.publish(eventmodels.InstanceBranchedEventName, &eventmodels.InstanceBranchedEvent{
		HomeID:   data.Home.ID,
		ParentID: parent.ID,
		ChildID:  id,
	})

	created := s.store.GetCommonData(data.Home.ID, id).Instance
	if created == nil {
		return nil, fmt.Errorf("BranchInstance: %w", models.ErrInstanceNotFound)
	}

	return created, nil
}

package store

import "github.com/jiaming2012/backtest-workspace/src/backtester-api/models"

type CommonData struct {
	Home     *models.HomeInstance `json:"home"`
	Instance *models.TestInstance `json:"instance"`
}

// GetCommonData resolves a home instance and, when instanceID is set, one of its test
// instances. An empty homeID resolves the current home instance.
func GetCommonData(state *models.StoreState, homeID, instanceID string) CommonData {
	var data CommonData

	if homeID == "" {
		data.Home = state.GetCurrentHomeInstance()
	} else {
		data.Home = state.HomeInstancesMapping[homeID]
	}

	if data.Home == nil || instanceID == "" {
		return data
	}

	data.Instance, _ = data.Home.GetInstance(instanceID)

	return data
}

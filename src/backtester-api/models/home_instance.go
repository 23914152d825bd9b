package models

// HomeInstance is a workspace: one trader selection and every backtest instance derived from it.
type HomeInstance struct {
	ID                          string                   `json:"id"`
	TradersMapping              map[string]*TraderData   `json:"traders_mapping"`
	TradersByIds                []string                 `json:"traders_by_ids"`
	BacktestInstancesMapping    map[string]*TestInstance `json:"backtest_instances_mapping"`
	BacktestInstancesByIds      []string                 `json:"backtest_instances_by_ids"`
	RootBacktestInstancesByIds  []string                 `json:"root_backtest_instances_by_ids"`
	CurrentBacktestInstanceID   *string                  `json:"current_backtest_instance_id"`
	LastRootOrdinal             int                      `json:"last_root_ordinal"`
	IsTested                    bool                     `json:"is_tested"`
	IsShowedWarningDeleteTrader bool                     `json:"is_showed_warning_delete_trader"`
}

func NewHomeInstance(id string) *HomeInstance {
	return &HomeInstance{
		ID:                         id,
		TradersMapping:             map[string]*TraderData{},
		TradersByIds:               []string{},
		BacktestInstancesMapping:   map[string]*TestInstance{},
		BacktestInstancesByIds:     []string{},
		RootBacktestInstancesByIds: []string{},
	}
}

// Copy returns a shallow copy. Maps and slices are shared with the receiver and must be
// replaced, not mutated, on the copy.
func (h *HomeInstance) Copy() *HomeInstance {
	c := *h
	return &c
}

func (h *HomeInstance) GetInstance(id string) (*TestInstance, bool) {
	instance, ok := h.BacktestInstancesMapping[id]
	return instance, ok
}

func (h *HomeInstance) GetCurrentInstance() *TestInstance {
	if h.CurrentBacktestInstanceID == nil {
		return nil
	}

	return h.BacktestInstancesMapping[*h.CurrentBacktestInstanceID]
}

package models

// StoreState is the root of the backtest workspace tree.
type StoreState struct {
	HomeInstancesMapping  map[string]*HomeInstance `json:"home_instances_mapping"`
	HomeInstancesByIds    []string                 `json:"home_instances_by_ids"`
	CurrentHomeInstanceID *string                  `json:"current_home_instance_id"`
	IsFocusBacktest       bool                     `json:"is_focus_backtest"`
}

func NewStoreState() *StoreState {
	return &StoreState{
		HomeInstancesMapping: map[string]*HomeInstance{},
		HomeInstancesByIds:   []string{},
	}
}

func (s *StoreState) Copy() *StoreState {
	c := *s
	return &c
}

func (s *StoreState) GetHomeInstance(id string) (*HomeInstance, bool) {
	home, ok := s.HomeInstancesMapping[id]
	return home, ok
}

func (s *StoreState) GetCurrentHomeInstance() *HomeInstance {
	if s.CurrentHomeInstanceID == nil {
		return nil
	}

	return s.HomeInstancesMapping[*s.CurrentHomeInstanceID]
}

package models

import "slices"

// TestInstance is one node of a backtest exploration tree. Instances are immutable once
// published in a StoreState; updates always go through a copy.
type TestInstance struct {
	ID             string            `json:"id"`
	HomeID         string            `json:"home_id"`
	ParentID       *string           `json:"parent_id"`
	ChildIDs       []string          `json:"child_ids"`
	ListTrader     []string          `json:"list_trader"`
	Settings       *BacktestSettings `json:"settings"`
	Stage          InstanceStage     `json:"stage"`
	Name           string            `json:"name"`
	SiblingOrdinal int               `json:"sibling_ordinal"`
	IsVisible      bool              `json:"is_visible"`
	BacktestResult []*BacktestResult `json:"backtest_result"`
}

func (i *TestInstance) IsRoot() bool {
	return i.ParentID == nil
}

func (i *TestInstance) Copy() *TestInstance {
	c := *i
	return &c
}

// Clone is Copy with its own ListTrader, Settings and BacktestResult, for values handed in by a caller.
func (i *TestInstance) Clone() *TestInstance {
	c := i.Copy()
	c.ListTrader = slices.Clone(i.ListTrader)
	c.Settings = i.Settings.Copy()
	c.BacktestResult = CopyResults(i.BacktestResult)
	return c
}

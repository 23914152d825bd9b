package store

import "github.com/jiaming2012/backtest-workspace/src/backtester-api/models"

type Action interface {
	Name() string
}

type SetCurrentHomeInstanceID struct {
	HomeID *string
}

// AddTraderToHomeInstance merges traders into the current home instance. NewHomeID is used
// only when there is no current home instance and one has to be created.
type AddTraderToHomeInstance struct {
	NewHomeID string
	Traders   []*models.TraderData
}

type RemoveTraderFromHomeInstance struct {
	Accounts []string
}

type AddRootBacktestInstance struct {
	InstanceID string
	ListTrader []string
}

type AddInstance struct {
	Instance *models.TestInstance
}

// RemoveInstance deletes one instance. With Cascade set, every descendant still present in the
// home instance is deleted too; otherwise descendants are left orphaned.
type RemoveInstance struct {
	HomeID     string
	InstanceID string
	Cascade    bool
}

type UpdateInstance struct {
	Patch models.TestInstancePatch
}

type UpdateHomeInstance struct {
	HomeID string
	Patch  models.HomeInstancePatch
}

type RemoveHomeInstance struct{}

type RemoveHomeInstanceByID struct {
	HomeID string
}

type SetCurrentBacktestInstanceID struct {
	HomeID     string
	BacktestID *string
}

// ToggleFocusBacktest flips IsFocusBacktest, or sets it when Value is not nil.
type ToggleFocusBacktest struct {
	Value *bool
}

type ResetStore struct{}

func (SetCurrentHomeInstanceID) Name() string     { return "setCurrentHomeInstanceId" }
func (AddTraderToHomeInstance) Name() string      { return "addTraderToHomeInstance" }
func (RemoveTraderFromHomeInstance) Name() string { return "removeTraderFromHomeInstance" }
func (AddRootBacktestInstance) Name() string      { return "addRootBacktestInstance" }
func (AddInstance) Name() string                  { return "addInstance" }
func (RemoveInstance) Name() string               { return "removeInstance" }
func (UpdateInstance) Name() string               { return "updateInstance" }
func (UpdateHomeInstance) Name() string           { return "updateHomeInstance" }
func (RemoveHomeInstance) Name() string           { return "removeHomeInstance" }
func (RemoveHomeInstanceByID) Name() string       { return "removeHomeInstanceById" }
func (SetCurrentBacktestInstanceID) Name() string { return "setCurrentBacktestInstanceId" }
func (ToggleFocusBacktest) Name() string          { return "toggleFocusBacktest" }
func (ResetStore) Name() string                   { return "resetStore" }

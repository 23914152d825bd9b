package store

import (
	"fmt"
	"slices"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
)

// Reduce applies action to state and returns the next state. state is never mutated: the
// returned state shares every home and test instance the action did not touch. When the action
// references a missing home or instance, state itself is returned together with a sentinel error.
func Reduce(state *models.StoreState, action Action) (*models.StoreState, error) {
	switch a := action.(type) {
	case SetCurrentHomeInstanceID:
		return setCurrentHomeInstanceID(state, a)
	case AddTraderToHomeInstance:
		return addTraderToHomeInstance(state, a)
	case RemoveTraderFromHomeInstance:
		return removeTraderFromHomeInstance(state, a)
	case AddRootBacktestInstance:
		return addRootBacktestInstance(state, a)
	case AddInstance:
		return addInstance(state, a)
	case RemoveInstance:
		return removeInstance(state, a)
	case UpdateInstance:
		return updateInstance(state, a)
	case UpdateHomeInstance:
		return updateHomeInstance(state, a)
	case RemoveHomeInstance:
		if state.CurrentHomeInstanceID == nil {
			return state, models.ErrNoCurrentHomeInstance
		}
		return removeHomeInstanceByID(state, RemoveHomeInstanceByID{HomeID: *state.CurrentHomeInstanceID})
	case RemoveHomeInstanceByID:
		return removeHomeInstanceByID(state, a)
	case SetCurrentBacktestInstanceID:
		return setCurrentBacktestInstanceID(state, a)
	case ToggleFocusBacktest:
		return toggleFocusBacktest(state, a)
	case ResetStore:
		return models.NewStoreState(), nil
	default:
		return state, fmt.Errorf("Reduce: unknown action %T", action)
	}
}

func withHome(state *models.StoreState, home *models.HomeInstance) *models.StoreState {
	next := state.Copy()
	next.HomeInstancesMapping = cloneMap(state.HomeInstancesMapping)
	next.HomeInstancesMapping[home.ID] = home
	return next
}

func withInstances(home *models.HomeInstance, instances ...*models.TestInstance) *models.HomeInstance {
	next := home.Copy()
	next.BacktestInstancesMapping = cloneMap(home.BacktestInstancesMapping)
	for _, instance := range instances {
		next.BacktestInstancesMapping[instance.ID] = instance
	}
	return next
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func setCurrentHomeInstanceID(state *models.StoreState, a SetCurrentHomeInstanceID) (*models.StoreState, error) {
	if equalPtr(state.CurrentHomeInstanceID, a.HomeID) {
		return state, nil
	}

	next := state.Copy()
	next.CurrentHomeInstanceID = nil
	if a.HomeID != nil {
		next.CurrentHomeInstanceID = ptr(*a.HomeID)
	}

	return next, nil
}

// mergeTraders appends accounts not yet selected, in first-seen order. Mapping entries are
// always overwritten by the latest data.
func mergeTraders(home *models.HomeInstance, traders []*models.TraderData) *models.HomeInstance {
	next := home.Copy()
	next.TradersMapping = cloneMap(home.TradersMapping)
	next.TradersByIds = slices.Clone(home.TradersByIds)

	selected := make(map[string]struct{}, len(next.TradersByIds))
	for _, account := range next.TradersByIds {
		selected[account] = struct{}{}
	}

	for _, trader := range traders {
		if trader == nil || trader.Account == "" {
			continue
		}

		if _, found := selected[trader.Account]; !found {
			selected[trader.Account] = struct{}{}
			next.TradersByIds = append(next.TradersByIds, trader.Account)
		}

		next.TradersMapping[trader.Account] = trader
	}

	return next
}

func addTraderToHomeInstance(state *models.StoreState, a AddTraderToHomeInstance) (*models.StoreState, error) {
	if len(a.Traders) == 0 {
		return state, nil
	}

	home := state.GetCurrentHomeInstance()
	if home == nil {
		if a.NewHomeID == "" {
			return state, fmt.Errorf("addTraderToHomeInstance: missing id for new home instance")
		}

		home = mergeTraders(models.NewHomeInstance(a.NewHomeID), a.Traders)

		next := withHome(state, home)
		next.HomeInstancesByIds = append(slices.Clone(state.HomeInstancesByIds), home.ID)
		next.CurrentHomeInstanceID = ptr(home.ID)
		return next, nil
	}

	home = mergeTraders(home, a.Traders)
	home.CurrentBacktestInstanceID = nil

	return withHome(state, home), nil
}

func removeTraderFromHomeInstance(state *models.StoreState, a RemoveTraderFromHomeInstance) (*models.StoreState, error) {
	home := state.GetCurrentHomeInstance()
	if home == nil {
		return state, models.ErrNoCurrentHomeInstance
	}

	next := home.Copy()
	next.TradersByIds = slices.DeleteFunc(slices.Clone(home.TradersByIds), func(account string) bool {
		return slices.Contains(a.Accounts, account)
	})

	// once tested, trader data is kept so past results can still be displayed
	if !home.IsTested {
		next.TradersMapping = cloneMap(home.TradersMapping)
		for _, account := range a.Accounts {
			delete(next.TradersMapping, account)
		}
	}

	next.CurrentBacktestInstanceID = nil

	if len(state.HomeInstancesByIds) == 1 && len(next.TradersByIds) == 0 {
		return models.NewStoreState(), nil
	}

	return withHome(state, next), nil
}

func addRootBacktestInstance(state *models.StoreState, a AddRootBacktestInstance) (*models.StoreState, error) {
	home := state.GetCurrentHomeInstance()
	if home == nil {
		return state, models.ErrNoCurrentHomeInstance
	}

	if _, found := home.GetInstance(a.InstanceID); found {
		return state, models.ErrInstanceAlreadyExists
	}

	ordinal := rootOrdinal(home)
	instance := &models.TestInstance{
		ID:             a.InstanceID,
		HomeID:         home.ID,
		ChildIDs:       []string{},
		ListTrader:     slices.Clone(a.ListTrader),
		Stage:          models.InstanceStageSetting,
		Name:           rootName(ordinal),
		SiblingOrdinal: ordinal,
		IsVisible:      true,
		BacktestResult: []*models.BacktestResult{},
	}

	next := withInstances(home, instance)
	next.BacktestInstancesByIds = append(slices.Clone(home.BacktestInstancesByIds), instance.ID)
	next.RootBacktestInstancesByIds = append(slices.Clone(home.RootBacktestInstancesByIds), instance.ID)
	next.LastRootOrdinal = ordinal
	next.CurrentBacktestInstanceID = ptr(instance.ID)

	return withHome(state, next), nil
}

func addInstance(state *models.StoreState, a AddInstance) (*models.StoreState, error) {
	if a.Instance == nil {
		return state, models.ErrInstanceNotFound
	}

	home, found := state.GetHomeInstance(a.Instance.HomeID)
	if !found {
		return state, models.ErrHomeInstanceNotFound
	}

	if _, found := home.GetInstance(a.Instance.ID); found {
		return state, models.ErrInstanceAlreadyExists
	}

	instance := a.Instance.Clone()
	instance.ChildIDs = []string{}
	if instance.Stage == "" {
		instance.Stage = models.InstanceStageSetting
	}
	if instance.BacktestResult == nil {
		instance.BacktestResult = []*models.BacktestResult{}
	}

	var next *models.HomeInstance

	if !instance.IsRoot() {
		parent, found := home.GetInstance(*instance.ParentID)
		if !found {
			return state, models.ErrParentInstanceNotFound
		}

		instance.ParentID = ptr(*instance.ParentID)
		instance.SiblingOrdinal = childOrdinal(home, parent)
		instance.Name = childName(parent, instance.SiblingOrdinal)

		nextParent := parent.Copy()
		nextParent.ChildIDs = append(slices.Clone(parent.ChildIDs), instance.ID)

		next = withInstances(home, nextParent, instance)
	} else {
		instance.SiblingOrdinal = rootOrdinal(home)
		instance.Name = rootName(instance.SiblingOrdinal)

		next = withInstances(home, instance)
		next.RootBacktestInstancesByIds = append(slices.Clone(home.RootBacktestInstancesByIds), instance.ID)
		next.LastRootOrdinal = instance.SiblingOrdinal
	}

	next.BacktestInstancesByIds = append(slices.Clone(home.BacktestInstancesByIds), instance.ID)
	next.CurrentBacktestInstanceID = ptr(instance.ID)

	return withHome(state, next), nil
}

// descendants walks ChildIDs depth first, skipping ids that are no longer present.
func descendants(home *models.HomeInstance, id string, into map[string]struct{}) {
	instance, found := home.GetInstance(id)
	if !found {
		return
	}

	for _, childID := range instance.ChildIDs {
		if _, seen := into[childID]; seen {
			continue
		}
		if _, found := home.GetInstance(childID); !found {
			continue
		}

		into[childID] = struct{}{}
		descendants(home, childID, into)
	}
}

// pruneIDs drops removed ids, and empties the list when none of the rest resolve.
func pruneIDs(ids []string, removed map[string]struct{}, mapping map[string]*models.TestInstance) []string {
	out := slices.DeleteFunc(slices.Clone(ids), func(id string) bool {
		_, gone := removed[id]
		return gone
	})

	for _, id := range out {
		if _, found := mapping[id]; found {
			return out
		}
	}

	return []string{}
}

func removeInstance(state *models.StoreState, a RemoveInstance) (*models.StoreState, error) {
	home, found := state.GetHomeInstance(a.HomeID)
	if !found {
		return state, models.ErrHomeInstanceNotFound
	}

	target, found := home.GetInstance(a.InstanceID)
	if !found {
		return state, models.ErrInstanceNotFound
	}

	removed := map[string]struct{}{target.ID: {}}
	if a.Cascade {
		descendants(home, target.ID, removed)
	}

	next := home.Copy()
	next.BacktestInstancesMapping = cloneMap(home.BacktestInstancesMapping)
	for id := range removed {
		delete(next.BacktestInstancesMapping, id)
	}

	next.BacktestInstancesByIds = slices.DeleteFunc(slices.Clone(home.BacktestInstancesByIds), func(id string) bool {
		_, gone := removed[id]
		return gone
	})

	next.RootBacktestInstancesByIds = pruneIDs(home.RootBacktestInstancesByIds, removed, next.BacktestInstancesMapping)

	if !target.IsRoot() {
		if parent, found := next.GetInstance(*target.ParentID); found {
			nextParent := parent.Copy()
			nextParent.ChildIDs = pruneIDs(parent.ChildIDs, removed, next.BacktestInstancesMapping)
			next.BacktestInstancesMapping[nextParent.ID] = nextParent
		}
	}

	next.CurrentBacktestInstanceID = nil
	if len(next.BacktestInstancesByIds) > 0 {
		next.CurrentBacktestInstanceID = ptr(next.BacktestInstancesByIds[0])
	}

	return withHome(state, next), nil
}

func updateInstance(state *models.StoreState, a UpdateInstance) (*models.StoreState, error) {
	home, found := state.GetHomeInstance(a.Patch.HomeID)
	if !found {
		return state, models.ErrHomeInstanceNotFound
	}

	instance, found := home.GetInstance(a.Patch.ID)
	if !found {
		return state, models.ErrInstanceNotFound
	}

	if err := a.Patch.Validate(); err != nil {
		return state, fmt.Errorf("updateInstance: %w", err)
	}

	return withHome(state, withInstances(home, a.Patch.ApplyTo(instance))), nil
}

func updateHomeInstance(state *models.StoreState, a UpdateHomeInstance) (*models.StoreState, error) {
	home, found := state.GetHomeInstance(a.HomeID)
	if !found {
		return state, models.ErrHomeInstanceNotFound
	}

	return withHome(state, a.Patch.ApplyTo(home)), nil
}

func removeHomeInstanceByID(state *models.StoreState, a RemoveHomeInstanceByID) (*models.StoreState, error) {
	if _, found := state.GetHomeInstance(a.HomeID); !found {
		return state, models.ErrHomeInstanceNotFound
	}

	next := state.Copy()
	next.HomeInstancesMapping = cloneMap(state.HomeInstancesMapping)
	delete(next.HomeInstancesMapping, a.HomeID)
	next.HomeInstancesByIds = slices.DeleteFunc(slices.Clone(state.HomeInstancesByIds), func(id string) bool {
		return id == a.HomeID
	})

	if len(next.HomeInstancesByIds) == 0 {
		next.CurrentHomeInstanceID = nil
		next.IsFocusBacktest = false
	} else {
		next.CurrentHomeInstanceID = ptr(next.HomeInstancesByIds[0])
	}

	return next, nil
}

func setCurrentBacktestInstanceID(state *models.StoreState, a SetCurrentBacktestInstanceID) (*models.StoreState, error) {
	home, found := state.GetHomeInstance(a.HomeID)
	if !found {
		return state, models.ErrHomeInstanceNotFound
	}

	if equalPtr(home.CurrentBacktestInstanceID, a.BacktestID) {
		return state, nil
	}

	next := home.Copy()
	next.CurrentBacktestInstanceID = nil
	if a.BacktestID != nil {
		next.CurrentBacktestInstanceID = ptr(*a.BacktestID)
	}

	return withHome(state, next), nil
}

func toggleFocusBacktest(state *models.StoreState, a ToggleFocusBacktest) (*models.StoreState, error) {
	value := !state.IsFocusBacktest
	if a.Value != nil {
		value = *a.Value
	}

	if value == state.IsFocusBacktest {
		return state, nil
	}

	next := state.Copy()
	next.IsFocusBacktest = value
	return next, nil
}

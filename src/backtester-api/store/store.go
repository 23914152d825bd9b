package store

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
)

type StateChange struct {
	Version uint64             `json:"version"`
	Action  string             `json:"action"`
	State   *models.StoreState `json:"state"`
}

type Listener func(change StateChange)

// Store holds the workspace tree and serialises every mutation through Reduce. Published
// states are immutable and may be read without holding any lock.
type Store struct {
	mu      sync.RWMutex
	state   *models.StoreState
	version uint64

	listenersMu sync.Mutex
	listeners   map[uuid.UUID]Listener

	newID func() string
}

func NewStore() *Store {
	return &Store{
		state:     models.NewStoreState(),
		listeners: make(map[uuid.UUID]Listener),
		newID:     uuid.NewString,
	}
}

func (s *Store) GetState() *models.StoreState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

// Subscribe registers l for every state change. Listeners run on the dispatching goroutine,
// after the store lock is released.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	id := uuid.New()

	s.listenersMu.Lock()
	s.listeners[id] = l
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// Dispatch reduces action into the store. A rejected action leaves the state untouched and
// returns the reducer's error; listeners are only notified when the state actually changed.
func (s *Store) Dispatch(action Action) error {
	s.mu.Lock()
	prev := s.state
	next, err := Reduce(prev, action)
	changed := next != prev
	if changed {
		s.state = next
		s.version++
	}
	change := StateChange{Version: s.version, Action: action.Name(), State: s.state}
	s.mu.Unlock()

	if err != nil {
		log.WithFields(log.Fields{"action": action.Name(), "error": err}).Debug("store: action ignored")
		return err
	}

	if !changed {
		return nil
	}

	log.WithFields(log.Fields{"action": change.Action, "version": change.Version}).Debug("store: state changed")
	s.notify(change)

	return nil
}

func (s *Store) notify(change StateChange) {
	s.listenersMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l(change)
	}
}

func (s *Store) GetCommonData(homeID, instanceID string) CommonData {
	return GetCommonData(s.GetState(), homeID, instanceID)
}

func (s *Store) SetCurrentHomeInstanceID(homeID *string) error {
	return s.Dispatch(SetCurrentHomeInstanceID{HomeID: homeID})
}

// AddTraderToHomeInstance returns the id of the home instance the traders were merged into.
func (s *Store) AddTraderToHomeInstance(traders ...*models.TraderData) (string, error) {
	if err := s.Dispatch(AddTraderToHomeInstance{NewHomeID: s.newID(), Traders: traders}); err != nil {
		return "", err
	}

	home := s.GetState().GetCurrentHomeInstance()
	if home == nil {
		return "", models.ErrNoCurrentHomeInstance
	}

	return home.ID, nil
}

func (s *Store) RemoveTraderFromHomeInstance(accounts ...string) error {
	return s.Dispatch(RemoveTraderFromHomeInstance{Accounts: accounts})
}

func (s *Store) AddRootBacktestInstance(listTrader []string) (string, error) {
	id := s.newID()
	if err := s.Dispatch(AddRootBacktestInstance{InstanceID: id, ListTrader: listTrader}); err != nil {
		return "", err
	}

	return id, nil
}

// AddInstance inserts instance, assigning an id when it has none, and returns the id.
func (s *Store) AddInstance(instance *models.TestInstance) (string, error) {
	if instance == nil {
		return "", models.ErrInstanceNotFound
	}

	instance = instance.Clone()
	if instance.ID == "" {
		instance.ID = s.newID()
	}

	if err := s.Dispatch(AddInstance{Instance: instance}); err != nil {
		return "", err
	}

	return instance.ID, nil
}

func (s *Store) RemoveInstance(homeID, instanceID string, cascade bool) error {
	return s.Dispatch(RemoveInstance{HomeID: homeID, InstanceID: instanceID, Cascade: cascade})
}

func (s *Store) UpdateInstance(patch models.TestInstancePatch) error {
	return s.Dispatch(UpdateInstance{Patch: patch})
}

func (s *Store) UpdateHomeInstance(homeID string, patch models.HomeInstancePatch) error {
	return s.Dispatch(UpdateHomeInstance{HomeID: homeID, Patch: patch})
}

func (s *Store) RemoveHomeInstance() error {
	return s.Dispatch(RemoveHomeInstance{})
}

func (s *Store) RemoveHomeInstanceByID(homeID string) error {
	return s.Dispatch(RemoveHomeInstanceByID{HomeID: homeID})
}

func (s *Store) SetCurrentBacktestInstanceID(homeID string, backtestID *string) error {
	return s.Dispatch(SetCurrentBacktestInstanceID{HomeID: homeID, BacktestID: backtestID})
}

func (s *Store) ToggleFocusBacktest(value *bool) error {
	return s.Dispatch(ToggleFocusBacktest{Value: value})
}

func (s *Store) ResetStore() error {
	return s.Dispatch(ResetStore{})
}

// Package usecase contains application business logic.
package usecase

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// Snapshot is everything a handler needs from the shared store, read once.
type Snapshot struct {
	Apps    domain.BlockedAppSet
	Window  *domain.UnblockWindow
	Session *domain.ShoppingSession
	Flags   domain.PromptFlags
}

// StateStore gives typed access to the shared store cells.
// Malformed or absent entries read as "no data" and never fail the caller;
// only I/O errors from the store are returned.
type StateStore struct {
	store  domain.SharedStore
	logger *zap.Logger
}

// NewStateStore creates a typed view over store.
func NewStateStore(store domain.SharedStore, logger *zap.Logger) *StateStore {
	return &StateStore{
		store:  store,
		logger: logger,
	}
}

// Apps returns the blocked app set, empty when absent or malformed.
func (s *StateStore) Apps() (domain.BlockedAppSet, error) {
	var set domain.BlockedAppSet
	ok, err := s.getJSON(domain.KeyBlockedAppSet, &set)
	if err != nil || !ok {
		return domain.BlockedAppSet{}, err
	}
	return set.Normalize(), nil
}

// SaveApps replaces the blocked app set as one value.
func (s *StateStore) SaveApps(set domain.BlockedAppSet) error {
	return s.setJSON(domain.KeyBlockedAppSet, set.Normalize())
}

// Window returns the stored unblock window, nil when absent or malformed.
func (s *StateStore) Window() (*domain.UnblockWindow, error) {
	var w domain.UnblockWindow
	ok, err := s.getJSON(domain.KeyActiveWindow, &w)
	if err != nil || !ok {
		return nil, err
	}
	if w.ID == "" || w.ExpiresAt.IsZero() {
		s.logger.Warn("incomplete unblock window in store, ignoring",
			zap.String("id", w.ID))
		return nil, nil
	}
	return &w, nil
}

// SaveWindow writes the whole window atomically.
func (s *StateStore) SaveWindow(w *domain.UnblockWindow) error {
	return s.setJSON(domain.KeyActiveWindow, w)
}

// ClearWindow removes the window.
func (s *StateStore) ClearWindow() error {
	return s.store.Remove(domain.KeyActiveWindow)
}

// Session returns the open shopping session, nil when none.
func (s *StateStore) Session() (*domain.ShoppingSession, error) {
	var session domain.ShoppingSession
	ok, err := s.getJSON(domain.KeyShoppingSession, &session)
	if err != nil || !ok {
		return nil, err
	}
	if session.StartTime.IsZero() {
		return nil, nil
	}
	return &session, nil
}

// SaveSession writes the shopping session.
func (s *StateStore) SaveSession(session *domain.ShoppingSession) error {
	return s.setJSON(domain.KeyShoppingSession, session)
}

// ClearSession removes the shopping session.
func (s *StateStore) ClearSession() error {
	return s.store.Remove(domain.KeyShoppingSession)
}

// Flags reads both prompt flags.
func (s *StateStore) Flags() (domain.PromptFlags, error) {
	show, err := s.flag(domain.KeyShowIntentPrompt)
	if err != nil {
		return domain.PromptFlags{}, err
	}
	reopen, err := s.flag(domain.KeyReopenTargetApp)
	if err != nil {
		return domain.PromptFlags{}, err
	}
	return domain.PromptFlags{ShowIntentPrompt: show, ReopenTargetApp: reopen}, nil
}

// SetFlag writes one prompt flag. False removes the cell.
func (s *StateStore) SetFlag(key string, value bool) error {
	if !value {
		return s.store.Remove(key)
	}
	return s.store.Set(key, []byte("true"))
}

// Snapshot reads every cell a handler needs.
func (s *StateStore) Snapshot() (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Apps, err = s.Apps(); err != nil {
		return snap, fmt.Errorf("failed to read blocked apps: %w", err)
	}
	if snap.Window, err = s.Window(); err != nil {
		return snap, fmt.Errorf("failed to read unblock window: %w", err)
	}
	if snap.Session, err = s.Session(); err != nil {
		return snap, fmt.Errorf("failed to read shopping session: %w", err)
	}
	if snap.Flags, err = s.Flags(); err != nil {
		return snap, fmt.Errorf("failed to read prompt flags: %w", err)
	}
	return snap, nil
}

func (s *StateStore) flag(key string) (bool, error) {
	data, ok, err := s.store.Get(key)
	if err != nil || !ok {
		return false, err
	}
	var value bool
	if err := json.Unmarshal(data, &value); err != nil {
		s.logger.Warn("malformed flag in store, treating as false",
			zap.String("key", key),
			zap.Error(err))
		return false, nil
	}
	return value, nil
}

func (s *StateStore) getJSON(key string, v interface{}) (bool, error) {
	data, ok, err := s.store.Get(key)
	if err != nil {
		return false, err
	}
	if !ok || len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("malformed store entry, treating as absent",
			zap.String("key", key),
			zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (s *StateStore) setJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.store.Set(key, data)
}

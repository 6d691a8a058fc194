package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

var errStoreDown = errors.New("store unavailable")

// memStore implements domain.Store in memory for testing
type memStore struct {
	mu        sync.Mutex
	values    map[string][]byte
	logs      map[string][][]byte
	getErr    error
	setErr    error
	appendErr error
	// Entries calls, to check appends never scan the log
	entriesCalls int
}

func newMemStore() *memStore {
	return &memStore{
		values: make(map[string][]byte),
		logs:   make(map[string][][]byte),
	}
}

func (m *memStore) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) SetIfAbsent(key string, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return false, m.setErr
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = append([]byte(nil), value...)
	return true, nil
}

func (m *memStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memStore) Append(log string, record []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.logs[log] = append(m.logs[log], append([]byte(nil), record...))
	return nil
}

func (m *memStore) Entries(log string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entriesCalls++
	return append([][]byte(nil), m.logs[log]...), nil
}

func (m *memStore) Close() error {
	return nil
}

// mockRestriction implements domain.RestrictionCapability for testing
type mockRestriction struct {
	applied    []string
	active     bool
	applyCalls int
	clearCalls int
	applyErr   error
	countErr   error
	// When set, AppliedCount reports this instead of the real count
	reportCount *int
}

func (m *mockRestriction) Apply(tokens []string) error {
	m.applyCalls++
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applied = append([]string(nil), tokens...)
	m.active = true
	return nil
}

func (m *mockRestriction) Clear() error {
	m.clearCalls++
	m.applied = nil
	m.active = false
	return nil
}

func (m *mockRestriction) AppliedCount() (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	if m.reportCount != nil {
		return *m.reportCount, nil
	}
	return len(m.applied), nil
}

// mockNotifier implements domain.NotificationCapability for testing
type mockNotifier struct {
	status       domain.AuthStatus
	sent         []domain.Notification
	sendErr      error
	requestCalls int
}

func (m *mockNotifier) RequestAuthorization() error {
	m.requestCalls++
	m.status = domain.AuthAuthorized
	return nil
}

func (m *mockNotifier) Send(n domain.Notification) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) AuthorizationStatus() (domain.AuthStatus, error) {
	if m.status == "" {
		return domain.AuthNotDetermined, nil
	}
	return m.status, nil
}

// fakeClock is a settable domain.Clock
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// sequentialIDs returns prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// harness wires every service over one memStore, the way cmd/appgate does.
type harness struct {
	store       *memStore
	restriction *mockRestriction
	notifier    *mockNotifier
	clock       *fakeClock
	state       *StateStore
	controller  *RestrictionController
	recorder    *Recorder
	dispatcher  *Dispatcher
	effects     *Effects
	scheduler   *UnblockScheduler
	router      *Router
	foreground  *Foreground
}

var baseTime = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) // Monday morning

func newHarness() *harness {
	logger := zap.NewNop()
	h := &harness{
		store:       newMemStore(),
		restriction: &mockRestriction{},
		notifier:    &mockNotifier{status: domain.AuthAuthorized},
		clock:       &fakeClock{now: baseTime},
	}
	h.state = NewStateStore(h.store, logger)
	h.controller = NewRestrictionController(h.restriction, logger)
	h.recorder = NewRecorderWithDeps(h.store, h.clock, sequentialIDs("evt_"), logger)
	h.dispatcher = NewDispatcher(h.notifier, logger)
	h.effects = NewEffects(h.state, h.controller, h.recorder, h.dispatcher, logger)
	h.scheduler = NewUnblockSchedulerWithDeps(h.state, h.effects, h.clock, sequentialIDs("win_"), logger)
	h.router = NewRouter(h.state, h.effects, h.clock, DefaultRoutePolicy(), logger)
	h.foreground = NewForeground(h.state, h.scheduler, h.controller, logger)
	return h
}

// withApps stores a set of n apps named by token.
func (h *harness) withApps(tokens ...string) domain.BlockedAppSet {
	set := domain.BlockedAppSet{}
	for _, tok := range tokens {
		var err error
		set, err = set.Add(tok)
		if err != nil {
			panic(err)
		}
	}
	if err := h.state.SaveApps(set); err != nil {
		panic(err)
	}
	return set
}

// eventsOfKind returns all recorded events of kind.
func (h *harness) eventsOfKind(kind domain.EventKind) []domain.BehavioralEvent {
	events, err := h.recorder.Events(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		panic(err)
	}
	var out []domain.BehavioralEvent
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

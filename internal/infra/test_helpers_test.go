package infra

import (
	"errors"
	"strings"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// mockProcessManager is a test double for ProcessManager
type mockProcessManager struct {
	processes  map[int]string // pid -> name
	killedPIDs []int
	findErr    error
	killErr    error
}

func newMockProcessManager() *mockProcessManager {
	return &mockProcessManager{
		processes: make(map[int]string),
	}
}

func (m *mockProcessManager) FindByName(pattern string) ([]int, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var pids []int
	for pid, name := range m.processes {
		if strings.Contains(strings.ToLower(name), strings.ToLower(pattern)) {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

func (m *mockProcessManager) FindByExactName(name string) ([]int, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var pids []int
	for pid, procName := range m.processes {
		if strings.EqualFold(procName, name) {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

func (m *mockProcessManager) Kill(pid int) error {
	if m.killErr != nil {
		return m.killErr
	}
	m.killedPIDs = append(m.killedPIDs, pid)
	delete(m.processes, pid)
	return nil
}

func (m *mockProcessManager) IsRunning(pid int) bool {
	_, ok := m.processes[pid]
	return ok
}

func (m *mockProcessManager) SetRunning(pid int, name string) {
	m.processes[pid] = name
}

// staticResolver maps tokens to fixed patterns; unknown tokens have none
type staticResolver map[string][]string

func (r staticResolver) Patterns(token string) []string {
	return r[token]
}

// mockCommandRunner records commands for testing
type mockCommandRunner struct {
	started   [][]string
	outputErr error
	startErr  error
}

func (m *mockCommandRunner) Start(name string, args ...string) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started = append(m.started, append([]string{name}, args...))
	return nil
}

func (m *mockCommandRunner) Output(name string, args ...string) ([]byte, error) {
	if m.outputErr != nil {
		return nil, m.outputErr
	}
	return []byte("/usr/bin/tool\n"), nil
}

var errToolMissing = errors.New("exit status 1")

// Ensure mocks implement their interfaces
var (
	_ domain.ProcessManager  = (*mockProcessManager)(nil)
	_ domain.PatternResolver = staticResolver(nil)
)

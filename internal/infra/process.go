// Package infra implements infrastructure concerns (stores, process shield, notifications).
package infra

import (
	"os"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct {
	selfPID int
}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{selfPID: os.Getpid()}
}

// FindByName returns PIDs of processes whose name contains the pattern (case-insensitive).
// The calling process is never returned.
func (pm *ProcessManagerImpl) FindByName(pattern string) ([]int, error) {
	if pattern == "" {
		return nil, nil
	}
	patternLower := strings.ToLower(pattern)
	return pm.find(func(name string) bool {
		return strings.Contains(strings.ToLower(name), patternLower)
	})
}

// FindByExactName returns PIDs of processes named exactly name (case-insensitive).
func (pm *ProcessManagerImpl) FindByExactName(name string) ([]int, error) {
	if name == "" {
		return nil, nil
	}
	return pm.find(func(procName string) bool {
		return strings.EqualFold(procName, name)
	})
}

func (pm *ProcessManagerImpl) find(match func(name string) bool) ([]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	var found []int
	for _, p := range procs {
		if int(p.Pid) == pm.selfPID {
			continue
		}
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}
		if match(name) {
			found = append(found, int(p.Pid))
		}
	}
	return found, nil
}

// Kill terminates a process by PID using SIGKILL.
func (pm *ProcessManagerImpl) Kill(pid int) error {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return err
	}
	return p.Kill()
}

// IsRunning checks if a PID exists and is running.
func (pm *ProcessManagerImpl) IsRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)

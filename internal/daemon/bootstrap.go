package daemon

import (
	"os"
	"os/exec"
	"syscall"
)

// StartDetached spawns `<binary> monitor` detached from the terminal,
// so the monitor host outlives the command that started it.
func StartDetached(configPath string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	return StartDetachedWithPath(executable, configPath)
}

// StartDetachedWithPath spawns the monitor from a specific binary.
func StartDetachedWithPath(binaryPath, configPath string) error {
	cmd := exec.Command(binaryPath, MonitorArgs(configPath)...)

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session (detach from terminal)
	}

	// No stdin/stdout/stderr - fully detached
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	return cmd.Start()
}

// MonitorArgs returns the arguments that run the monitor in the foreground.
func MonitorArgs(configPath string) []string {
	args := []string{"monitor"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return args
}

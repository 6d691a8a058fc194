package infra

import (
	"os"
	"os/user"
	"path/filepath"
)

// ExecMode represents whether appgate runs for one user or system-wide.
type ExecMode string

const (
	// ExecModeUser keeps state under the user's home (no sudo required)
	ExecModeUser ExecMode = "user"
	// ExecModeSystem keeps state under /var/lib (root)
	ExecModeSystem ExecMode = "system"
)

// ExecModeConfig holds paths derived from the execution mode.
type ExecModeConfig struct {
	Mode    ExecMode
	DataDir string // Shared store, key file, config
	LogPath string // Default zap output
	IsRoot  bool
}

// DetectExecMode determines the execution mode based on effective UID.
func DetectExecMode() *ExecModeConfig {
	if os.Geteuid() == 0 {
		return &ExecModeConfig{
			Mode:    ExecModeSystem,
			DataDir: "/var/lib/appgate",
			LogPath: "/var/log/appgate.log",
			IsRoot:  true,
		}
	}

	home := GetRealUserHome()
	dataDir := filepath.Join(home, ".appgate")
	return &ExecModeConfig{
		Mode:    ExecModeUser,
		DataDir: dataDir,
		LogPath: filepath.Join(dataDir, "appgate.log"),
		IsRoot:  false,
	}
}

// String returns a human-readable description of the mode.
func (m ExecMode) String() string {
	switch m {
	case ExecModeSystem:
		return "system (root)"
	case ExecModeUser:
		return "user (non-root)"
	default:
		return "unknown"
	}
}

// GetRealUserHome returns the real user's home directory, even when running under sudo.
// Under sudo, os.UserHomeDir() returns /var/root, so we use SUDO_USER to find the real user.
func GetRealUserHome() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir
		}
	}
	home, _ := os.UserHomeDir()
	return home
}

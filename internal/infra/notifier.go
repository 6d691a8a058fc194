package infra

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// CommandRunner abstracts command execution for testing.
type CommandRunner interface {
	// Start launches a command without waiting for it (fire-and-forget).
	Start(name string, args ...string) error
	// Output executes a command and returns its stdout.
	Output(name string, args ...string) ([]byte, error)
}

// RealCommandRunner executes real system commands.
type RealCommandRunner struct{}

// Start launches the command detached from the caller's lifetime.
func (r *RealCommandRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Start()
}

// Output executes a command and returns its stdout.
func (r *RealCommandRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// DesktopNotifier implements domain.NotificationCapability with the
// platform notification tool (osascript on macOS, notify-send on Linux).
// Authorization is a store cell only the foreground app writes.
type DesktopNotifier struct {
	store     domain.SharedStore
	cmdRunner CommandRunner
	goos      string
	logger    *zap.Logger
}

// NewDesktopNotifier creates a notifier for the current platform.
func NewDesktopNotifier(store domain.SharedStore, logger *zap.Logger) *DesktopNotifier {
	return NewDesktopNotifierWithDeps(store, &RealCommandRunner{}, runtime.GOOS, logger)
}

// NewDesktopNotifierWithDeps creates a notifier with injectable dependencies (for testing).
func NewDesktopNotifierWithDeps(store domain.SharedStore, cmdRunner CommandRunner, goos string, logger *zap.Logger) *DesktopNotifier {
	return &DesktopNotifier{
		store:     store,
		cmdRunner: cmdRunner,
		goos:      goos,
		logger:    logger,
	}
}

// RequestAuthorization records the user's consent. Only the foreground calls this.
func (n *DesktopNotifier) RequestAuthorization() error {
	if !n.toolAvailable() {
		n.logger.Warn("notification tool not available, marking denied", zap.String("os", n.goos))
		return n.store.Set(domain.KeyNotificationAuth, []byte(domain.AuthDenied))
	}
	return n.store.Set(domain.KeyNotificationAuth, []byte(domain.AuthAuthorized))
}

// AuthorizationStatus reads the stored authorization.
func (n *DesktopNotifier) AuthorizationStatus() (domain.AuthStatus, error) {
	data, ok, err := n.store.Get(domain.KeyNotificationAuth)
	if err != nil {
		return domain.AuthNotDetermined, err
	}
	if !ok {
		return domain.AuthNotDetermined, nil
	}
	switch status := domain.AuthStatus(strings.TrimSpace(string(data))); status {
	case domain.AuthAuthorized, domain.AuthDenied:
		return status, nil
	}
	return domain.AuthNotDetermined, nil
}

// Send fires the notification after its delay. The delay runs inside the
// spawned shell so the calling process can exit immediately.
func (n *DesktopNotifier) Send(note domain.Notification) error {
	delay := note.MinDelay
	if delay <= 0 {
		delay = time.Second
	}
	seconds := int(delay.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	var command string
	switch n.goos {
	case "darwin":
		command = fmt.Sprintf("osascript -e %s", shellQuote(appleScript(note)))
	case "linux":
		urgency := "normal"
		if note.Priority == domain.PriorityHigh {
			urgency = "critical"
		}
		body := note.Body
		if link := note.Payload["link"]; link != "" {
			body += "\n" + link
		}
		command = fmt.Sprintf("notify-send -u %s %s %s", urgency, shellQuote(note.Title), shellQuote(body))
	default:
		return fmt.Errorf("notifications not supported on %s", n.goos)
	}

	script := fmt.Sprintf("sleep %d; %s", seconds, command)
	return n.cmdRunner.Start("/bin/sh", "-c", script)
}

func (n *DesktopNotifier) toolAvailable() bool {
	tool := "notify-send"
	if n.goos == "darwin" {
		tool = "osascript"
	}
	_, err := n.cmdRunner.Output("/bin/sh", "-c", "command -v "+tool)
	return err == nil
}

func appleScript(note domain.Notification) string {
	script := fmt.Sprintf("display notification %s with title %s",
		appleQuote(note.Body), appleQuote(note.Title))
	if link := note.Payload["link"]; link != "" {
		script += " subtitle " + appleQuote(link)
	}
	if note.Priority == domain.PriorityHigh {
		script += ` sound name "Glass"`
	}
	return script
}

func appleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Ensure DesktopNotifier implements domain.NotificationCapability.
var _ domain.NotificationCapability = (*DesktopNotifier)(nil)

// Package daemon implements the monitor host: the long-running process that
// plays the OS monitoring role on desktop and delivers monitoring signals.
package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
	"github.com/eliteGoblin/focusd/appgate/internal/infra"
	"github.com/eliteGoblin/focusd/appgate/internal/policy"
	"github.com/eliteGoblin/focusd/appgate/internal/usecase"
)

// Event names carried by threshold signals.
const (
	EventBlockedLaunch = "blocked_app_launch"
	EventAppOpened     = "app_opened"
)

// SignalHandler receives monitoring signals.
type SignalHandler interface {
	Handle(ctx context.Context, sig domain.MonitoringSignal) (usecase.Transition, error)
}

// Shield is the process side of the restriction.
type Shield interface {
	Sweep() infra.ShieldSweep
	RunningTokens(tokens []string) []string
}

// StateReader reads the store cells the monitor polls.
type StateReader interface {
	Apps() (domain.BlockedAppSet, error)
	Window() (*domain.UnblockWindow, error)
}

// MonitorConfig holds monitor host configuration.
type MonitorConfig struct {
	PollInterval time.Duration // How often to sweep and check the window
	Activity     string        // Activity name carried by every signal
}

// DefaultMonitorConfig returns default monitor configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval: policy.DefaultSweepInterval,
		Activity:     "appgate.daily",
	}
}

// Monitor watches for blocked app launches and window expiry and turns them
// into monitoring signals. Its in-memory bookkeeping only suppresses repeat
// deliveries; the handler is idempotent either way.
type Monitor struct {
	config  MonitorConfig
	handler SignalHandler
	shield  Shield
	state   StateReader
	clock   domain.Clock
	logger  *zap.Logger

	day           string // Local day of the last IntervalStart
	openWindow    string // Window seen live on the previous tick
	reachedWindow string // Window ThresholdReached was delivered for
	endedWindow   string // Window IntervalEnd was delivered for
}

// NewMonitor creates a monitor host.
func NewMonitor(
	config MonitorConfig,
	handler SignalHandler,
	shield Shield,
	state StateReader,
	clock domain.Clock,
	logger *zap.Logger,
) *Monitor {
	return &Monitor{
		config:  config,
		handler: handler,
		shield:  shield,
		state:   state,
		clock:   clock,
		logger:  logger,
	}
}

// Run starts the monitor loop.
// This blocks until context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started",
		zap.Duration("poll_interval", m.config.PollInterval),
		zap.String("activity", m.config.Activity))

	// First tick delivers IntervalStart
	m.Tick(ctx)

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping")
			return ctx.Err()

		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs one poll: day rollover, window expiry, launch detection.
func (m *Monitor) Tick(ctx context.Context) {
	now := m.clock.Now()

	if day := now.Format("2006-01-02"); day != m.day {
		m.day = day
		m.deliver(ctx, domain.SignalIntervalStart, "")
	}

	window, err := m.state.Window()
	if err != nil {
		m.logger.Warn("failed to read unblock window", zap.Error(err))
		return
	}
	state := domain.DeriveState(window, now)

	switch {
	case state == domain.StateExpired && window.ID != m.endedWindow:
		m.endedWindow = window.ID
		m.openWindow = ""
		m.deliver(ctx, domain.SignalIntervalEnd, "")
	case m.openWindow != "" && (window == nil || window.ID != m.openWindow):
		// Closed by another trigger path before we saw it expire
		m.endedWindow = m.openWindow
		m.openWindow = ""
		m.deliver(ctx, domain.SignalIntervalEnd, "")
	}

	if state == domain.StateUnblockGranted {
		m.openWindow = window.ID
		m.detectUsage(ctx, window)
		return
	}

	sweep := m.shield.Sweep()
	if sweep.Killed() > 0 {
		m.logger.Info("blocked app launch stopped",
			zap.Int("killed", sweep.Killed()))
		m.deliver(ctx, domain.SignalThresholdWarning, EventBlockedLaunch)
	}
}

// detectUsage delivers ThresholdReached the first time a designated app runs
// during window w.
func (m *Monitor) detectUsage(ctx context.Context, w *domain.UnblockWindow) {
	if w.ID == m.reachedWindow {
		return
	}
	apps, err := m.state.Apps()
	if err != nil {
		m.logger.Warn("failed to read blocked apps", zap.Error(err))
		return
	}
	if running := m.shield.RunningTokens(apps.Tokens()); len(running) > 0 {
		m.reachedWindow = w.ID
		m.deliver(ctx, domain.SignalThresholdReached, EventAppOpened)
	}
}

func (m *Monitor) deliver(ctx context.Context, kind domain.SignalKind, event string) {
	sig := domain.MonitoringSignal{
		Kind:     kind,
		Activity: m.config.Activity,
		Event:    event,
	}
	if _, err := m.handler.Handle(ctx, sig); err != nil {
		m.logger.Warn("signal handling failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

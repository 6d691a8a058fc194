// Package main is the CLI entry point for appgate.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/appgate/internal/config"
	"github.com/eliteGoblin/focusd/appgate/internal/domain"
	"github.com/eliteGoblin/focusd/appgate/internal/infra"
	"github.com/eliteGoblin/focusd/appgate/internal/policy"
	"github.com/eliteGoblin/focusd/appgate/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "appgate",
	Short: "Keep shopping apps blocked, unblock them briefly on purpose",
	Long: `appgate keeps a set of designated apps blocked by default, opens short
unblock windows when you ask for one, re-blocks when the window runs out,
and records why you unblocked and what happened so you can review your
habits later.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath  string
	dataDirFlag string
	jsonOutput  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <data-dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (default depends on exec mode)")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(versionCmd)
}

// app holds every service a command may need, wired over one shared store.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  domain.Store

	profiles   *policy.Registry
	shield     *infra.ProcessShield
	notifier   *infra.DesktopNotifier
	state      *usecase.StateStore
	controller *usecase.RestrictionController
	recorder   *usecase.Recorder
	dispatcher *usecase.Dispatcher
	scheduler  *usecase.UnblockScheduler
	router     *usecase.Router
	foreground *usecase.Foreground
}

// openApp loads config, opens the store and wires the services.
func openApp() (*app, error) {
	dir := dataDir()
	path := resolveConfigPath(dir)
	writeErr := config.WriteDefault(path, dir)

	cfg, err := config.Load(path, dir)
	if err != nil {
		return nil, err
	}
	logger := createLogger(cfg.Log)
	if writeErr != nil {
		logger.Warn("failed to write default config, using defaults",
			zap.String("path", path),
			zap.Error(writeErr))
	}

	store, err := infra.OpenStore(infra.StoreOptions{
		Driver:         cfg.Store.Driver,
		DataDir:        cfg.DataDir,
		RedisAddr:      cfg.Store.RedisAddr,
		RedisNamespace: cfg.Store.RedisNamespace,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	clock := domain.RealClock{}
	profiles := policy.NewRegistry()
	pm := infra.NewProcessManager()

	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		profiles: profiles,
		shield:   infra.NewProcessShield(store, pm, profiles, logger),
		notifier: infra.NewDesktopNotifier(store, logger),
	}
	a.state = usecase.NewStateStore(store, logger)
	a.controller = usecase.NewRestrictionController(a.shield, logger)
	a.recorder = usecase.NewRecorder(store, clock, logger)
	a.dispatcher = usecase.NewDispatcher(a.notifier, logger)
	effects := usecase.NewEffects(a.state, a.controller, a.recorder, a.dispatcher, logger)
	a.scheduler = usecase.NewUnblockScheduler(a.state, effects, clock, logger)
	a.router = usecase.NewRouter(a.state, effects, clock, usecase.RoutePolicy{
		ShoppingThreshold: cfg.Shopping.MinSession(),
	}, logger)
	a.foreground = usecase.NewForeground(a.state, a.scheduler, a.controller, logger)
	return a, nil
}

// Close releases the store and flushes logs.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// resolveConfigPath returns --config, or the config file in dataDir.
func resolveConfigPath(dataDir string) string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(dataDir, config.FileName)
}

// withApp runs fn with a wired app and closes it afterwards. A window that
// expired while nothing was running is closed before fn sees any state.
func withApp(fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		closed, err := a.scheduler.Reconcile(ctx)
		if err != nil {
			return fmt.Errorf("failed to re-block expired window: %w", err)
		}
		if closed {
			a.logger.Info("stale unblock window closed on launch")
		}
		return fn(a, cmd, args)
	}
}

func createLogger(cfg config.LogConfig) *zap.Logger {
	zapConfig := zap.NewProductionConfig()
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err == nil {
			zapConfig.OutputPaths = []string{cfg.Path}
			zapConfig.ErrorOutputPaths = []string{cfg.Path}
		}
	}
	if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zapConfig.Level = zap.NewAtomicLevelAt(level)
	}
	zapConfig.EncoderConfig.TimeKey = "time"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger.With(zap.Int("pid", os.Getpid()))
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("appgate %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}

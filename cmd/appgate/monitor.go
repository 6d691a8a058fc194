package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/daemon"
	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the monitor host",
	Long: `Runs the long-lived process that plays the OS monitoring role: it
terminates restricted apps, notices window expiry and delivers monitoring
signals. Use --detach to start it in the background.`,
	RunE: runMonitor,
}

var monitorDetach bool

func init() {
	monitorCmd.Flags().BoolVar(&monitorDetach, "detach", false, "Start the monitor in the background and return")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if monitorDetach {
		if err := daemon.StartDetached(configPath); err != nil {
			return fmt.Errorf("failed to start monitor: %w", err)
		}
		fmt.Println("Monitor started in background")
		return nil
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	monitorConfig := daemon.DefaultMonitorConfig()
	monitorConfig.PollInterval = a.cfg.Monitor.PollInterval

	m := daemon.NewMonitor(monitorConfig, a.router, a.shield, a.state, domain.RealClock{}, a.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		a.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	a.logger.Info("monitor starting",
		zap.String("version", Version),
		zap.String("store", a.cfg.Store.Driver),
		zap.Duration("poll_interval", monitorConfig.PollInterval))

	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("monitor stopped")
	return nil
}

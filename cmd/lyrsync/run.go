package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"karolbroda.com/lyrsync/internal/arbiter"
	"karolbroda.com/lyrsync/internal/cache"
	"karolbroda.com/lyrsync/internal/dispatch"
	"karolbroda.com/lyrsync/internal/logging"
	"karolbroda.com/lyrsync/internal/lyrics"
	"karolbroda.com/lyrsync/internal/mpris"
	"karolbroda.com/lyrsync/internal/poller"
	"karolbroda.com/lyrsync/internal/provider"
	"karolbroda.com/lyrsync/internal/terminal"
	"karolbroda.com/lyrsync/internal/ui"
)

const (
	distributorQueueLen = 64
	lyricsQueueLen      = 64
	rendererQueueLen    = 128
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the interactive lyrics viewer",
	Long:  `starts the terminal viewer that follows the active player and displays synchronized lyrics.`,
	RunE:  runViewer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runViewer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		<-sigChan
		cancel()
		terminal.Reset()
		os.Exit(0)
	}()
	defer terminal.Reset()

	cfg := loadConfig(cmd)

	logger, err := logging.NewForTUI(cfg.Debug, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer bus.Close()

	store := cache.NewMemory()
	if !cfg.NoCache {
		if diskStore, err := cache.New(); err == nil {
			store = diskStore
		} else {
			logger.Warn("disk cache unavailable, using memory cache")
		}
	}

	providers, err := provider.Build(cfg, logger, store)
	if err != nil {
		return err
	}

	discovery, err := mpris.NewBusDiscovery(bus)
	if err != nil {
		return err
	}
	arb := arbiter.New(logger.Named("arbiter"), cfg.ManualSwitch)
	dist := dispatch.New(logger.Named("dispatch"), distributorQueueLen)
	collector := poller.NewCollector(logger.Named("poller"), discovery, arb, dist, cfg.PollInterval, cfg.Blacklist)
	orchestrator := lyrics.NewOrchestrator(logger.Named("lyrics"), providers, collector)

	// subscriptions must exist before the first event is delivered
	lyricsEvents := dist.Subscribe("lyrics", lyricsQueueLen, dispatch.NoPositionUpdates)
	rendererEvents := dist.Subscribe("renderer", rendererQueueLen, nil)

	go dist.Run(ctx)
	go collector.Run(ctx)
	go orchestrator.Run(ctx, lyricsEvents)

	model := ui.NewModel(cfg, orchestrator, collector, rendererEvents)
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running bubble tea: %w", err)
	}
	return nil
}

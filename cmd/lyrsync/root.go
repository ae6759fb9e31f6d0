package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"karolbroda.com/lyrsync/internal/config"
)

var (
	// global flags
	flagSources      []string
	flagLrclibURL    string
	flagLyricsDir    string
	flagBlacklist    []string
	flagPollInterval time.Duration
	flagAdvanceMs    int64
	flagContextLines int
	flagManualSwitch bool
	flagHideHeader   bool
	flagNoCache      bool
	flagLogFile      string
	flagDebug        bool
)

var rootCmd = &cobra.Command{
	Use:   "lyrsync",
	Short: "terminal synchronized lyrics for mpris players",
	Long: `lyrsync watches every mpris-compatible player on the session bus, follows
whichever one is actually playing and displays synchronized lyrics for its
current track.

when run without a subcommand, it starts the interactive viewer.`,
	Version: "1.0.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runViewer(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&flagSources, "sources", nil, "lyrics sources in priority order (lrclib, local)")
	rootCmd.PersistentFlags().StringVar(&flagLrclibURL, "lrclib-url", "", "custom lrclib search api url")
	rootCmd.PersistentFlags().StringVar(&flagLyricsDir, "lyrics-dir", "", "directory with local .lrc files")
	rootCmd.PersistentFlags().StringSliceVarP(&flagBlacklist, "blacklist", "b", nil, "player name patterns to ignore")
	rootCmd.PersistentFlags().DurationVar(&flagPollInterval, "poll-interval", 0, "player poll interval")
	rootCmd.PersistentFlags().Int64Var(&flagAdvanceMs, "advance-ms", 0, "show lines this many milliseconds early")
	rootCmd.PersistentFlags().IntVar(&flagContextLines, "context-lines", 0, "lyric lines shown around the focused one")
	rootCmd.PersistentFlags().BoolVarP(&flagManualSwitch, "manual-switch", "m", false, "never switch players automatically")
	rootCmd.PersistentFlags().BoolVarP(&flagHideHeader, "hide-header", "H", false, "hide the track header")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "keep the lyrics cache off disk")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "write logs to this file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

// loadConfig merges the environment configuration with whatever flags were
// explicitly set on the command line. Flags win.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()

	if cmd.Flags().Changed("sources") {
		cfg.Sources = flagSources
	}
	if flagLrclibURL != "" {
		cfg.LrclibURL = flagLrclibURL
	}
	if flagLyricsDir != "" {
		cfg.LocalLyricsDir = flagLyricsDir
	}
	if cmd.Flags().Changed("blacklist") {
		cfg.Blacklist = flagBlacklist
	}
	if flagPollInterval > 0 {
		cfg.PollInterval = flagPollInterval
	}
	if cmd.Flags().Changed("advance-ms") {
		cfg.AdvanceTimeMs = flagAdvanceMs
	}
	if flagContextLines > 0 {
		cfg.ContextLines = flagContextLines
	}
	if cmd.Flags().Changed("manual-switch") {
		cfg.ManualSwitch = flagManualSwitch
	}
	if cmd.Flags().Changed("hide-header") {
		cfg.HideHeader = flagHideHeader
	}
	if cmd.Flags().Changed("no-cache") {
		cfg.NoCache = flagNoCache
	}
	if flagLogFile != "" {
		cfg.LogFile = flagLogFile
	}
	if flagDebug {
		cfg.Debug = true
	}

	return cfg
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

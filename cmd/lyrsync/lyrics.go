package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"karolbroda.com/lyrsync/internal/cache"
	"karolbroda.com/lyrsync/internal/logging"
	"karolbroda.com/lyrsync/internal/provider"
)

var (
	lyricsAlbum      string
	lyricsDurationMs int64
	lyricsTimestamps bool
)

var lyricsCmd = &cobra.Command{
	Use:   "lyrics",
	Short: "lyrics lookup utilities",
	Long:  `fetch lyrics through the configured source chain without starting the viewer.`,
}

var lyricsFetchCmd = &cobra.Command{
	Use:   "fetch <artist> <title>",
	Short: "fetch lyrics for a track",
	Long:  `walks the configured sources in priority order and prints the first synced lyrics found.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist, title := args[0], args[1]

		cfg := loadConfig(cmd)
		logger, err := logging.New(cfg.Debug)
		if err != nil {
			return err
		}
		defer logger.Sync()

		store := cache.NewMemory()
		if !cfg.NoCache {
			if diskStore, err := cache.New(); err == nil {
				store = diskStore
			}
		}

		providers, err := provider.Build(cfg, logger, store)
		if err != nil {
			return err
		}

		q := provider.Query{
			Title:      title,
			Artist:     artist,
			Album:      lyricsAlbum,
			DurationMs: lyricsDurationMs,
		}

		for _, p := range providers {
			doc, err := p.Fetch(cmd.Context(), q)
			if err != nil || doc.Empty() {
				continue
			}

			fmt.Printf("source: %s\n\n", p.Name())
			for _, line := range doc.Lines {
				if lyricsTimestamps {
					fmt.Printf("[%s] %s\n", formatTimestamp(line.StartTimeMs), line.Text)
				} else if line.Text != "" {
					fmt.Println(line.Text)
				}
			}
			return nil
		}

		return fmt.Errorf("no lyrics found for %s - %s (tried %s)",
			artist, title, strings.Join(cfg.Sources, ", "))
	},
}

func formatTimestamp(ms int64) string {
	return fmt.Sprintf("%02d:%05.2f", ms/60_000, float64(ms%60_000)/1000)
}

func init() {
	lyricsFetchCmd.Flags().StringVar(&lyricsAlbum, "album", "", "album name, improves matching")
	lyricsFetchCmd.Flags().Int64Var(&lyricsDurationMs, "duration-ms", 0, "track length in milliseconds, improves matching")
	lyricsFetchCmd.Flags().BoolVarP(&lyricsTimestamps, "timestamps", "t", false, "print line timestamps")

	lyricsCmd.AddCommand(lyricsFetchCmd)
	rootCmd.AddCommand(lyricsCmd)
}

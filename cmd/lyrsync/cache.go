package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"karolbroda.com/lyrsync/internal/cache"
)

var cacheSortBy string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "manage the lyrics cache",
	Long:  `inspect and maintain the on-disk lyrics cache.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.New()
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}

		count, sizeBytes, err := store.Stats()
		if err != nil {
			return fmt.Errorf("failed to get cache stats: %w", err)
		}

		fmt.Println("cache statistics:")
		fmt.Printf("  entries: %d\n", count)
		fmt.Printf("  size:    %s\n", formatBytes(sizeBytes))
		return nil
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "list all cached tracks",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.New()
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}

		entries, err := store.ListAll()
		if err != nil {
			return fmt.Errorf("failed to list cache: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("cache is empty")
			return nil
		}

		sortCacheEntries(entries, cacheSortBy)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ARTIST\tTITLE\tSOURCE\tCACHED")
		for _, entry := range entries {
			cached := time.Unix(entry.CreatedAt, 0).Format("2006-01-02")
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Artist, entry.Title, entry.Source, cached)
		}
		w.Flush()

		fmt.Printf("\ntotal: %d tracks\n", len(entries))
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.New()
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}

		pruned, err := store.Prune()
		if err != nil {
			return fmt.Errorf("failed to prune cache: %w", err)
		}

		fmt.Printf("pruned %d expired entries\n", pruned)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "delete every cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.New()
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}

		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		fmt.Println("cache cleared")
		return nil
	},
}

func sortCacheEntries(entries []*cache.Entry, by string) {
	switch by {
	case "title":
		sort.Slice(entries, func(i, j int) bool { return entries[i].Title < entries[j].Title })
	case "date":
		sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt > entries[j].CreatedAt })
	default:
		sort.Slice(entries, func(i, j int) bool { return entries[i].Artist < entries[j].Artist })
	}
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func init() {
	cacheListCmd.Flags().StringVar(&cacheSortBy, "sort", "artist", "sort order: artist, title or date")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

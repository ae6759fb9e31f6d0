// Package provider defines the lyric source contract and the concrete
// sources the orchestrator queries in configured order.
package provider

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"karolbroda.com/lyrsync/internal/cache"
	"karolbroda.com/lyrsync/internal/config"
	"karolbroda.com/lyrsync/internal/lyrics"
)

// ErrNotFound means the source answered but has no lyrics for the track.
// It is the only error the orchestrator treats as a clean "try the next
// source"; everything else is a transient failure.
var ErrNotFound = lyrics.ErrNotFound

// Query identifies the track a document is wanted for. DurationMs is zero
// when the player did not report a length.
type Query = lyrics.Query

// Provider is one lyric source. Fetch returns ErrNotFound when the source
// has nothing, a nil-error document when it does, and any other error for
// transient trouble (network, parse, quota). The contract is defined by the
// consumer in package lyrics; this package provides the concrete sources.
type Provider = lyrics.Provider

// Build assembles the provider chain in the order cfg.Sources lists them.
// Unknown source names are an error; configuration typos should not fail
// silently at fetch time.
func Build(cfg *config.Config, logger *zap.Logger, store *cache.DiskCache) ([]Provider, error) {
	providers := make([]Provider, 0, len(cfg.Sources))
	for _, source := range cfg.Sources {
		switch source {
		case "lrclib":
			providers = append(providers, NewLrclib(cfg.LrclibURL, logger, store))
		case "local":
			providers = append(providers, NewLocal(cfg.LocalLyricsDir, logger))
		default:
			return nil, fmt.Errorf("unknown lyrics source %q", source)
		}
	}
	if len(providers) == 0 {
		return nil, errors.New("no lyrics sources configured")
	}
	return providers, nil
}

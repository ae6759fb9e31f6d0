package lyrics

import (
	"context"
	"errors"
)

// ErrNotFound means the source answered but has no lyrics for the track.
// It is the only error the orchestrator treats as a clean "try the next
// source"; everything else is a transient failure.
var ErrNotFound = errors.New("lyrics not found")

// Query identifies the track a document is wanted for. DurationMs is zero
// when the player did not report a length.
type Query struct {
	Title      string
	Artist     string
	Album      string
	DurationMs int64
}

// Provider is one lyric source. Fetch returns ErrNotFound when the source
// has nothing, a nil-error document when it does, and any other error for
// transient trouble (network, parse, quota).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) (*Document, error)
}

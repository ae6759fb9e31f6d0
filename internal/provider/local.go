package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"karolbroda.com/lyrsync/internal/lyrics"
)

// minFilenameSimilarity is the fuzzy-match floor for picking a local file
// whose name does not exactly match the track.
const minFilenameSimilarity = 0.6

// Local serves .lrc files from a directory, matching on filename. Exact
// "artist - title" style names win; otherwise the closest filename above
// the similarity floor is used.
type Local struct {
	dir    string
	logger *zap.Logger
}

func NewLocal(dir string, logger *zap.Logger) *Local {
	return &Local{dir: dir, logger: logger}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Fetch(ctx context.Context, q Query) (*lyrics.Document, error) {
	if l.dir == "" || q.Title == "" {
		return nil, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := l.locate(q)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	doc := lyrics.ParseLRC(string(raw))
	if doc.Empty() {
		return nil, ErrNotFound
	}
	doc.Metadata.Source = l.Name()
	l.logger.Debug("matched local lyrics file", zap.String("path", path))
	return doc, nil
}

// locate tries the conventional filenames first, then falls back to fuzzy
// matching over everything in the directory.
func (l *Local) locate(q Query) (string, error) {
	exact := []string{
		q.Artist + " - " + q.Title + ".lrc",
		q.Title + ".lrc",
		q.Title + " - " + q.Artist + ".lrc",
	}
	for _, name := range exact {
		path := filepath.Join(l.dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("reading lyrics dir %s: %w", l.dir, err)
	}

	want := q.Artist + " " + q.Title
	bestScore := 0.0
	bestName := ""
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".lrc") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if s := Similarity(want, stem); s > bestScore {
			bestScore, bestName = s, entry.Name()
		}
	}
	if bestName == "" || bestScore < minFilenameSimilarity {
		return "", ErrNotFound
	}
	return filepath.Join(l.dir, bestName), nil
}

var _ Provider = (*Local)(nil)

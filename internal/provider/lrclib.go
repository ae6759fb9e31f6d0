package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"karolbroda.com/lyrsync/internal/cache"
	"karolbroda.com/lyrsync/internal/config"
	"karolbroda.com/lyrsync/internal/lyrics"
)

const userAgent = "lyrsync/1.0 (https://karolbroda.com/lyrsync)"

// lrclibTrack is one record from the lrclib search endpoint.
type lrclibTrack struct {
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// Lrclib fetches synchronized lyrics from the lrclib.net search API, with a
// disk cache in front of the network.
type Lrclib struct {
	searchURL string
	logger    *zap.Logger
	store     *cache.DiskCache
	client    *http.Client
}

func NewLrclib(searchURL string, logger *zap.Logger, store *cache.DiskCache) *Lrclib {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 2 * time.Second,
	}
	return &Lrclib{
		searchURL: searchURL,
		logger:    logger,
		store:     store,
		client: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(config.HTTPTimeoutSeconds) * time.Second,
		},
	}
}

func (l *Lrclib) Name() string { return "lrclib" }

func (l *Lrclib) Fetch(ctx context.Context, q Query) (*lyrics.Document, error) {
	if q.Title == "" || q.Artist == "" {
		return nil, ErrNotFound
	}

	if l.store != nil {
		if entry, err := l.store.Get(q.Artist, q.Title); err == nil && entry.Source == l.Name() {
			return l.document(entry.SyncedLRC), nil
		}
	}

	candidates, tracks, err := l.search(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}

	best := BestCandidate(q, candidates)
	track := tracks[best]

	if l.store != nil {
		_ = l.store.Set(q.Artist, q.Title, &cache.Entry{
			Title:      track.TrackName,
			Artist:     track.ArtistName,
			Album:      track.AlbumName,
			Source:     l.Name(),
			DurationMs: int64(track.Duration * 1000),
			SyncedLRC:  track.SyncedLyrics,
		})
	}

	return l.document(track.SyncedLyrics), nil
}

func (l *Lrclib) document(syncedLRC string) *lyrics.Document {
	doc := lyrics.ParseLRC(syncedLRC)
	doc.Metadata.Source = l.Name()
	return doc
}

// search queries lrclib with progressively looser parameters and returns
// the synced candidates from the first non-empty response.
func (l *Lrclib) search(ctx context.Context, q Query) ([]Candidate, []lrclibTrack, error) {
	type params struct {
		title  string
		artist string
		album  string
	}

	attempts := []params{
		{q.Title, q.Artist, q.Album},
		{q.Title, q.Artist, ""},
		{stripVersionInfo(q.Title), stripVersionInfo(q.Artist), ""},
	}

	seen := make(map[string]bool)
	var lastErr error
	for i, attempt := range attempts {
		if attempt.title == "" || attempt.artist == "" {
			continue
		}
		key := attempt.title + "|" + attempt.artist + "|" + attempt.album
		if seen[key] {
			continue
		}
		seen[key] = true

		// space out retries so loosening the query never hammers the server
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
		}

		tracks, err := l.request(ctx, attempt.title, attempt.artist, attempt.album)
		if err != nil {
			lastErr = err
			continue
		}

		var candidates []Candidate
		var synced []lrclibTrack
		for _, track := range tracks {
			if track.SyncedLyrics == "" {
				continue
			}
			candidates = append(candidates, Candidate{
				Title:      track.TrackName,
				Artist:     track.ArtistName,
				Album:      track.AlbumName,
				DurationMs: int64(track.Duration * 1000),
			})
			synced = append(synced, track)
		}
		if len(candidates) > 0 {
			return candidates, synced, nil
		}
	}

	if lastErr != nil {
		return nil, nil, fmt.Errorf("lrclib search failed: %w", lastErr)
	}
	return nil, nil, nil
}

func (l *Lrclib) request(ctx context.Context, title, artist, album string) ([]lrclibTrack, error) {
	parsed, err := url.Parse(l.searchURL)
	if err != nil {
		return nil, fmt.Errorf("invalid lrclib url %q: %w", l.searchURL, err)
	}

	query := parsed.Query()
	query.Set("track_name", title)
	query.Set("artist_name", artist)
	if album != "" {
		query.Set("album_name", album)
	}
	parsed.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build http request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("lrclib returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read lrclib response: %w", err)
	}

	var tracks []lrclibTrack
	if err := json.Unmarshal(body, &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode lrclib json: %w", err)
	}
	return tracks, nil
}

// stripVersionInfo removes parenthesized and bracketed suffixes, which are
// usually remaster or remix annotations lrclib does not index.
func stripVersionInfo(s string) string {
	for {
		start := strings.Index(s, "(")
		end := strings.Index(s, ")")
		if start < 0 || end <= start {
			break
		}
		s = s[:start] + " " + s[end+1:]
	}
	for {
		start := strings.Index(s, "[")
		end := strings.Index(s, "]")
		if start < 0 || end <= start {
			break
		}
		s = s[:start] + " " + s[end+1:]
	}
	return strings.Join(strings.Fields(s), " ")
}

var _ Provider = (*Lrclib)(nil)

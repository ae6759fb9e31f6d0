// Package cache persists fetched lyric documents on disk so repeated plays
// of the same track never hit the network twice within the TTL.
package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	entryVersion   = 1
	defaultTTLDays = 30
	cacheDirName   = "lyrsync"
	lyricsDirName  = "lyrics"
)

var (
	ErrMiss    = errors.New("cache miss")
	ErrExpired = errors.New("cache expired")
	ErrCorrupt = errors.New("cache corrupt")
)

// Entry is one cached lyric document, stored as gob.
type Entry struct {
	Version    uint8
	Title      string
	Artist     string
	Album      string
	Source     string
	DurationMs int64
	SyncedLRC  string
	CreatedAt  int64
	ExpiresAt  int64
}

// DiskCache is a write-through cache: entries live in memory for the
// process lifetime and on disk across runs. A DiskCache with an empty base
// path degrades to memory-only, which is how --no-cache mode runs.
type DiskCache struct {
	basePath string
	ttl      time.Duration

	mu  sync.RWMutex
	mem map[string]*Entry
}

// New opens the cache under the user's XDG cache directory.
func New() (*DiskCache, error) {
	dir, err := cacheDirectory()
	if err != nil {
		return nil, err
	}
	return NewAt(filepath.Join(dir, lyricsDirName))
}

// NewAt opens a cache rooted at basePath, creating it if needed.
func NewAt(basePath string) (*DiskCache, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}
	return &DiskCache{
		basePath: basePath,
		ttl:      defaultTTLDays * 24 * time.Hour,
		mem:      make(map[string]*Entry),
	}, nil
}

// NewMemory returns a cache that never touches the filesystem.
func NewMemory() *DiskCache {
	return &DiskCache{
		ttl: defaultTTLDays * 24 * time.Hour,
		mem: make(map[string]*Entry),
	}
}

func cacheDirectory() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, cacheDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", cacheDirName), nil
}

func entryKey(artist, title string) string {
	normalized := strings.ToLower(artist) + "|" + strings.ToLower(title)
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:12])
}

func (c *DiskCache) filePath(key string) string {
	if c.basePath == "" {
		return ""
	}
	return filepath.Join(c.basePath, key+".bin")
}

func (c *DiskCache) Get(artist, title string) (*Entry, error) {
	if artist == "" || title == "" {
		return nil, ErrMiss
	}

	key := entryKey(artist, title)

	c.mu.RLock()
	entry, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		if entry.ExpiresAt > time.Now().Unix() {
			return entry, nil
		}
		c.mu.Lock()
		delete(c.mem, key)
		c.mu.Unlock()
	}

	if c.basePath == "" {
		return nil, ErrMiss
	}

	path := c.filePath(key)
	entry, err := c.readFromDisk(path)
	if err != nil {
		return nil, err
	}

	if entry.ExpiresAt <= time.Now().Unix() {
		_ = os.Remove(path)
		return nil, ErrExpired
	}

	c.mu.Lock()
	c.mem[key] = entry
	c.mu.Unlock()

	return entry, nil
}

func (c *DiskCache) Set(artist, title string, entry *Entry) error {
	if artist == "" || title == "" || entry == nil {
		return errors.New("invalid cache entry")
	}

	key := entryKey(artist, title)

	now := time.Now()
	entry.Version = entryVersion
	entry.CreatedAt = now.Unix()
	entry.ExpiresAt = now.Add(c.ttl).Unix()

	c.mu.Lock()
	c.mem[key] = entry
	c.mu.Unlock()

	if c.basePath == "" {
		return nil
	}
	return c.writeToDisk(c.filePath(key), entry)
}

func (c *DiskCache) readFromDisk(path string) (*Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, err
	}
	defer file.Close()

	var entry Entry
	if err := gob.NewDecoder(file).Decode(&entry); err != nil {
		return nil, ErrCorrupt
	}

	// version mismatch means stale format
	if entry.Version != entryVersion {
		_ = os.Remove(path)
		return nil, ErrCorrupt
	}

	return &entry, nil
}

func (c *DiskCache) writeToDisk(path string, entry *Entry) error {
	// write to temp file first, then rename for atomicity
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(entry); err != nil {
		file.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}

func (c *DiskCache) Clear() error {
	c.mu.Lock()
	c.mem = make(map[string]*Entry)
	c.mu.Unlock()

	if c.basePath == "" {
		return nil
	}

	entries, err := os.ReadDir(c.basePath)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".bin") {
			_ = os.Remove(filepath.Join(c.basePath, entry.Name()))
		}
	}
	return nil
}

// Prune removes expired and unreadable entries, returning how many were
// deleted.
func (c *DiskCache) Prune() (int, error) {
	if c.basePath == "" {
		return 0, nil
	}

	entries, err := os.ReadDir(c.basePath)
	if err != nil {
		return 0, err
	}

	pruned := 0
	now := time.Now().Unix()
	for _, dirEntry := range entries {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), ".bin") {
			continue
		}

		path := filepath.Join(c.basePath, dirEntry.Name())
		entry, err := c.readFromDisk(path)
		if err != nil {
			_ = os.Remove(path)
			pruned++
			continue
		}
		if entry.ExpiresAt <= now {
			_ = os.Remove(path)
			pruned++
		}
	}
	return pruned, nil
}

func (c *DiskCache) Stats() (count int, sizeBytes int64, err error) {
	if c.basePath == "" {
		return 0, 0, nil
	}

	entries, err := os.ReadDir(c.basePath)
	if err != nil {
		return 0, 0, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".bin") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		sizeBytes += info.Size()
	}
	return count, sizeBytes, nil
}

// ListAll returns every readable entry on disk, for the cache list command.
func (c *DiskCache) ListAll() ([]*Entry, error) {
	if c.basePath == "" {
		return nil, nil
	}

	dirEntries, err := os.ReadDir(c.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []*Entry
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), ".bin") {
			continue
		}
		entry, err := c.readFromDisk(filepath.Join(c.basePath, dirEntry.Name()))
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

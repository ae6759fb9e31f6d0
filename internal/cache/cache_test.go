package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testCache(t *testing.T) *DiskCache {
	t.Helper()
	c, err := NewAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewAt: %v", err)
	}
	return c
}

func sampleEntry() *Entry {
	return &Entry{
		Title:      "Karma Police",
		Artist:     "Radiohead",
		Album:      "OK Computer",
		Source:     "lrclib",
		DurationMs: 261_000,
		SyncedLRC:  "[00:01.00]hello",
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	c := testCache(t)

	if err := c.Set("Radiohead", "Karma Police", sampleEntry()); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get("Radiohead", "Karma Police")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SyncedLRC != "[00:01.00]hello" || got.Source != "lrclib" {
		t.Errorf("entry = %+v", got)
	}

	// keys are case-insensitive
	if _, err := c.Get("radiohead", "karma police"); err != nil {
		t.Errorf("case-folded Get: %v", err)
	}
}

func TestGetMiss(t *testing.T) {
	c := testCache(t)

	if _, err := c.Get("Nobody", "Nothing"); err != ErrMiss {
		t.Errorf("err = %v, want ErrMiss", err)
	}
	if _, err := c.Get("", "Nothing"); err != ErrMiss {
		t.Errorf("empty artist err = %v, want ErrMiss", err)
	}
}

func TestExpiredEntryIsRemoved(t *testing.T) {
	c := testCache(t)
	if err := c.Set("Radiohead", "Karma Police", sampleEntry()); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// rewrite the on-disk entry with an expiry in the past
	c.mu.Lock()
	for key, entry := range c.mem {
		entry.ExpiresAt = time.Now().Add(-time.Hour).Unix()
		_ = c.writeToDisk(c.filePath(key), entry)
	}
	c.mem = make(map[string]*Entry)
	c.mu.Unlock()

	if _, err := c.Get("Radiohead", "Karma Police"); err != ErrExpired {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	if count, _, _ := c.Stats(); count != 0 {
		t.Errorf("expired entry still on disk, count = %d", count)
	}
}

func TestCorruptEntry(t *testing.T) {
	c := testCache(t)

	path := filepath.Join(c.basePath, entryKey("a", "b")+".bin")
	if err := os.WriteFile(path, []byte("not gob"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get("a", "b"); err != ErrCorrupt {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestPrune(t *testing.T) {
	c := testCache(t)
	if err := c.Set("Radiohead", "Karma Police", sampleEntry()); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("Metallica", "One", sampleEntry()); err != nil {
		t.Fatal(err)
	}

	// expire one of the two on disk
	key := entryKey("Metallica", "One")
	c.mu.Lock()
	entry := c.mem[key]
	entry.ExpiresAt = time.Now().Add(-time.Hour).Unix()
	_ = c.writeToDisk(c.filePath(key), entry)
	c.mu.Unlock()

	pruned, err := c.Prune()
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
	if count, _, _ := c.Stats(); count != 1 {
		t.Errorf("remaining = %d, want 1", count)
	}
}

func TestMemoryOnlyCache(t *testing.T) {
	c := NewMemory()

	if err := c.Set("Radiohead", "Karma Police", sampleEntry()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Get("Radiohead", "Karma Police"); err != nil {
		t.Errorf("Get: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear: %v", err)
	}
	if _, err := c.Get("Radiohead", "Karma Police"); err != ErrMiss {
		t.Errorf("after Clear err = %v, want ErrMiss", err)
	}
}

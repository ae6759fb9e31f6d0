package mpris

import (
	"testing"

	"github.com/godbus/dbus/v5"

	"karolbroda.com/lyrsync/internal/event"
	"karolbroda.com/lyrsync/internal/track"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want event.PlaybackStatus
	}{
		{"Playing", event.StatusPlaying},
		{"Paused", event.StatusPaused},
		{"Stopped", event.StatusStopped},
		{"", event.StatusUnknown},
		{"playing", event.StatusUnknown},
	}
	for _, tt := range tests {
		if got := ParseStatus(tt.raw); got != tt.want {
			t.Errorf("ParseStatus(%q) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]dbus.Variant
		check    func(t *testing.T, got *track.Info)
	}{
		{
			name: "full metadata",
			metadata: map[string]dbus.Variant{
				"xesam:title":   dbus.MakeVariant("Paranoid Android"),
				"xesam:artist":  dbus.MakeVariant([]string{"Radiohead"}),
				"xesam:album":   dbus.MakeVariant("OK Computer"),
				"mpris:length":  dbus.MakeVariant(int64(386_000_000)),
				"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/track/1")),
			},
			check: func(t *testing.T, got *track.Info) {
				if got == nil {
					t.Fatal("expected track info")
				}
				if got.Title != "Paranoid Android" {
					t.Errorf("title = %q", got.Title)
				}
				if got.Artist != "Radiohead" {
					t.Errorf("artist = %q", got.Artist)
				}
				if got.LengthMs != 386_000 {
					t.Errorf("length = %d; want 386000", got.LengthMs)
				}
				if got.TrackID != "/track/1" {
					t.Errorf("trackid = %q", got.TrackID)
				}
			},
		},
		{
			name: "artist as plain string",
			metadata: map[string]dbus.Variant{
				"xesam:title":  dbus.MakeVariant("Song"),
				"xesam:artist": dbus.MakeVariant("Solo Artist"),
			},
			check: func(t *testing.T, got *track.Info) {
				if got == nil || got.Artist != "Solo Artist" {
					t.Errorf("artist not parsed from string variant: %+v", got)
				}
			},
		},
		{
			name: "multiple artists joined",
			metadata: map[string]dbus.Variant{
				"xesam:title":  dbus.MakeVariant("Duet"),
				"xesam:artist": dbus.MakeVariant([]string{"A", "B"}),
			},
			check: func(t *testing.T, got *track.Info) {
				if got == nil || got.Artist != "A, B" {
					t.Errorf("artist = %+v; want joined list", got)
				}
			},
		},
		{
			name:     "empty metadata yields nil",
			metadata: map[string]dbus.Variant{},
			check: func(t *testing.T, got *track.Info) {
				if got != nil {
					t.Errorf("expected nil track, got %+v", got)
				}
			},
		},
		{
			name: "wrong title type treated as absent",
			metadata: map[string]dbus.Variant{
				"xesam:title": dbus.MakeVariant(12345),
			},
			check: func(t *testing.T, got *track.Info) {
				if got != nil {
					t.Errorf("expected nil track, got %+v", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, parseMetadata(tt.metadata))
		})
	}
}

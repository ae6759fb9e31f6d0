package mpris

import (
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"karolbroda.com/lyrsync/internal/event"
	"karolbroda.com/lyrsync/internal/track"
)

const (
	mprisPrefix      = "org.mpris.MediaPlayer2."
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisIface       = "org.mpris.MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
)

// Player is the raw per-player report from one discovery query. Absent fields
// stay at their zero value: StatusUnknown, nil track, zero position.
type Player struct {
	// Identity is the player's human-readable name (the Identity property),
	// falling back to the bus name. It is the key everything else uses.
	Identity string
	// BusName is the well-known mpris bus name, kept as a secondary hint
	// for blacklist matching.
	BusName    string
	Status     event.PlaybackStatus
	Track      *track.Info
	PositionMs int64
}

// Discovery enumerates visible players. Implementations must treat missing
// fields as unknown, never as fatal; a single bad player should not fail the
// whole enumeration.
type Discovery interface {
	Players() ([]Player, error)
}

// BusDiscovery queries the session bus for mpris players.
type BusDiscovery struct {
	bus *dbus.Conn
}

func NewBusDiscovery(bus *dbus.Conn) (*BusDiscovery, error) {
	if bus == nil {
		return nil, errors.New("nil dbus connection")
	}
	return &BusDiscovery{bus: bus}, nil
}

// Players lists every mpris service on the bus and reads its state. Per-player
// property failures degrade that player's report instead of erroring; only a
// failed ListNames call is returned as an error.
func (d *BusDiscovery) Players() ([]Player, error) {
	var names []string
	err := d.bus.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return nil, fmt.Errorf("failed to list dbus names: %w", err)
	}

	var players []Player
	for _, name := range names {
		if !strings.HasPrefix(name, mprisPrefix) {
			continue
		}
		players = append(players, d.readPlayer(name))
	}

	return players, nil
}

func (d *BusDiscovery) readPlayer(busName string) Player {
	obj := d.bus.Object(busName, mprisPath)

	p := Player{
		Identity: busName,
		BusName:  busName,
	}

	if variant, err := obj.GetProperty(mprisIface + ".Identity"); err == nil {
		if identity, ok := variant.Value().(string); ok && identity != "" {
			p.Identity = identity
		}
	}

	if variant, err := obj.GetProperty(mprisPlayerIface + ".PlaybackStatus"); err == nil {
		if status, ok := variant.Value().(string); ok {
			p.Status = ParseStatus(status)
		}
	}

	if variant, err := obj.GetProperty(mprisPlayerIface + ".Metadata"); err == nil {
		if metadata, ok := variant.Value().(map[string]dbus.Variant); ok {
			p.Track = parseMetadata(metadata)
		}
	}

	// only playing players report a meaningful position
	if p.Status == event.StatusPlaying {
		if variant, err := obj.GetProperty(mprisPlayerIface + ".Position"); err == nil {
			if micros, ok := variant.Value().(int64); ok && micros > 0 {
				p.PositionMs = micros / 1000
			}
		}
	}

	return p
}

func ParseStatus(raw string) event.PlaybackStatus {
	switch raw {
	case "Playing":
		return event.StatusPlaying
	case "Paused":
		return event.StatusPaused
	case "Stopped":
		return event.StatusStopped
	default:
		return event.StatusUnknown
	}
}

func parseMetadata(metadata map[string]dbus.Variant) *track.Info {
	info := &track.Info{
		Title:      extractString(metadata, "xesam:title"),
		Artist:     extractArtist(metadata, "xesam:artist"),
		Album:      extractString(metadata, "xesam:album"),
		ArtworkURL: extractString(metadata, "mpris:artUrl"),
		TrackID:    extractTrackID(metadata),
		LengthMs:   extractLengthMs(metadata, "mpris:length"),
	}

	if info.Title == "" && info.Artist == "" {
		return nil
	}

	return info
}

func extractString(metadata map[string]dbus.Variant, key string) string {
	if metadata == nil {
		return ""
	}

	variant, exists := metadata[key]
	if !exists {
		return ""
	}

	raw := variant.Value()
	if raw == nil {
		return ""
	}

	text, ok := raw.(string)
	if ok {
		return text
	}

	return ""
}

func extractArtist(metadata map[string]dbus.Variant, key string) string {
	if metadata == nil {
		return ""
	}

	variant, exists := metadata[key]
	if !exists {
		return ""
	}

	switch typed := variant.Value().(type) {
	case []string:
		return strings.Join(typed, ", ")
	case string:
		return typed
	default:
		return ""
	}
}

func extractTrackID(metadata map[string]dbus.Variant) string {
	variant, exists := metadata["mpris:trackid"]
	if !exists {
		return ""
	}

	switch typed := variant.Value().(type) {
	case dbus.ObjectPath:
		return string(typed)
	case string:
		return typed
	default:
		return ""
	}
}

func extractLengthMs(metadata map[string]dbus.Variant, key string) int64 {
	if metadata == nil {
		return 0
	}

	variant, exists := metadata[key]
	if !exists {
		return 0
	}

	switch typed := variant.Value().(type) {
	case int64:
		if typed <= 0 {
			return 0
		}
		return typed / 1000
	case uint64:
		return int64(typed / 1000)
	default:
		return 0
	}
}

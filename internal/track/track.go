package track

// Info describes one track as reported by a player. Fields may be empty or
// placeholder strings when a player reports incomplete metadata.
type Info struct {
	Title      string
	Artist     string
	Album      string
	LengthMs   int64
	ArtworkURL string
	// TrackID is the opaque mpris:trackid. Some players rewrite it without
	// the content changing, so it is a hint, not the change signal.
	TrackID string
}

func (t *Info) IsValid() bool {
	if t == nil {
		return false
	}
	return t.Title != ""
}

// IsSameTrack reports whether two infos describe the same song. Title and
// artist equality is the signal; ids alone are not trusted.
func (t *Info) IsSameTrack(other *Info) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Title == other.Title && t.Artist == other.Artist
}

// Key returns a stable identity for "is this still the same song" checks,
// used to tag in-flight lyric fetches.
func (t *Info) Key() string {
	if t == nil {
		return ""
	}
	return t.Title + "\x00" + t.Artist
}

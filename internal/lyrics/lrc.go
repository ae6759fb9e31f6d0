package lyrics

import (
	"strconv"
	"strings"
)

// ParseLRC parses LRC text into a document. Timestamp lines look like
// [mm:ss], [mm:ss.f], [mm:ss.ff] or [mm:ss.fff]; a line carrying several
// timestamps ("[00:12.00][01:02.00]chorus") fans its text out to one lyric
// line per timestamp, and timestamps with no text at all are dropped.
// Bracketed lines whose key is not a timestamp ([ti:...], [ar:...] and
// friends) become metadata. Anything malformed is skipped rather than
// failing the whole document.
func ParseLRC(raw string) *Document {
	meta := Metadata{Extra: make(map[string]string)}
	var lines []Line

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") {
			continue
		}

		var starts []int64
		rest := line
		for strings.HasPrefix(rest, "[") {
			end := strings.Index(rest, "]")
			if end <= 1 {
				break
			}
			startMs, ok := parseTimestamp(rest[1:end])
			if !ok {
				break
			}
			starts = append(starts, startMs)
			rest = strings.TrimSpace(rest[end+1:])
		}

		if len(starts) > 0 {
			if rest == "" {
				continue
			}
			for _, startMs := range starts {
				lines = append(lines, Line{StartTimeMs: startMs, Text: rest})
			}
			continue
		}

		end := strings.Index(line, "]")
		if end <= 1 {
			continue
		}
		if key, value, ok := strings.Cut(line[1:end], ":"); ok {
			applyMetadata(&meta, strings.TrimSpace(key), strings.TrimSpace(value))
		}
	}

	return NewDocument(meta, lines)
}

func applyMetadata(meta *Metadata, key, value string) {
	if key == "" || value == "" {
		return
	}
	switch key {
	case "ti":
		meta.Title = value
	case "ar":
		meta.Artist = value
	case "al":
		meta.Album = value
	default:
		meta.Extra[key] = value
	}
}

// parseTimestamp converts "mm:ss", with an optional fractional part of up
// to three digits, into milliseconds.
func parseTimestamp(tag string) (int64, bool) {
	minutePart, secondPart, ok := strings.Cut(tag, ":")
	if !ok {
		return 0, false
	}

	minutes, err := strconv.ParseInt(minutePart, 10, 64)
	if err != nil || minutes < 0 {
		return 0, false
	}

	secondPart, fracPart, hasFrac := strings.Cut(secondPart, ".")
	seconds, err := strconv.ParseInt(secondPart, 10, 64)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, false
	}

	var fracMs int64
	if hasFrac {
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil || frac < 0 {
			return 0, false
		}
		switch len(fracPart) {
		case 1:
			fracMs = frac * 100
		case 2:
			fracMs = frac * 10
		case 3:
			fracMs = frac
		default:
			return 0, false
		}
	}

	return minutes*60_000 + seconds*1_000 + fracMs, true
}

// Package lyrics holds the synchronized lyric document model and the
// orchestrator that keeps documents matched to what players are doing.
package lyrics

import "sort"

// Metadata carries the identifying tags of a lyric document. Extra keeps
// any LRC header tags the well-known fields do not cover.
type Metadata struct {
	Title  string
	Artist string
	Album  string
	Source string
	Extra  map[string]string
}

// Line is one synchronized lyric line. EndTimeMs is nil for the final line
// of a document, whose display window is open-ended.
type Line struct {
	StartTimeMs int64
	EndTimeMs   *int64
	Text        string
}

// Document is an immutable, time-sorted set of lyric lines. Build one with
// NewDocument; consumers only ever read it.
type Document struct {
	Metadata Metadata
	Lines    []Line
}

// NewDocument sorts lines by start time and derives each line's end time
// from its successor's start.
func NewDocument(meta Metadata, lines []Line) *Document {
	sorted := append([]Line(nil), lines...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTimeMs < sorted[j].StartTimeMs
	})

	for i := range sorted {
		if i+1 < len(sorted) {
			end := sorted[i+1].StartTimeMs
			sorted[i].EndTimeMs = &end
		} else {
			sorted[i].EndTimeMs = nil
		}
	}

	return &Document{Metadata: meta, Lines: sorted}
}

// Empty reports whether the document has no lines at all.
func (d *Document) Empty() bool {
	return d == nil || len(d.Lines) == 0
}

// LineAt returns the index of the line active at the given position.
// Positions before the first line clamp to index 0 and positions past the
// last line clamp to the last index; only an empty document returns -1.
func (d *Document) LineAt(positionMs int64) int {
	if d.Empty() {
		return -1
	}

	// first line starting after positionMs; active line is the one before
	idx := sort.Search(len(d.Lines), func(i int) bool {
		return d.Lines[i].StartTimeMs > positionMs
	})
	if idx == 0 {
		return 0
	}
	return idx - 1
}

package lyrics

import "testing"

func TestParseLRCDerivesEndTimes(t *testing.T) {
	doc := ParseLRC("[00:00.00]A\n[00:03.33]B\n[00:05.76]C\n")

	if len(doc.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(doc.Lines))
	}

	wantStarts := []int64{0, 3330, 5760}
	for i, want := range wantStarts {
		if doc.Lines[i].StartTimeMs != want {
			t.Errorf("line %d start = %d, want %d", i, doc.Lines[i].StartTimeMs, want)
		}
	}

	wantEnds := []*int64{ptr(3330), ptr(5760), nil}
	for i, want := range wantEnds {
		got := doc.Lines[i].EndTimeMs
		switch {
		case want == nil && got != nil:
			t.Errorf("line %d end = %d, want nil", i, *got)
		case want != nil && got == nil:
			t.Errorf("line %d end = nil, want %d", i, *want)
		case want != nil && *got != *want:
			t.Errorf("line %d end = %d, want %d", i, *got, *want)
		}
	}
}

func ptr(v int64) *int64 { return &v }

func TestParseLRCFractionDigits(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
	}{
		{"no fraction", "[01:02]x", 62_000},
		{"one digit", "[00:01.5]x", 1_500},
		{"two digits", "[00:01.50]x", 1_500},
		{"three digits", "[00:01.505]x", 1_505},
		{"large minutes", "[10:00.00]x", 600_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := ParseLRC(tt.raw)
			if len(doc.Lines) != 1 {
				t.Fatalf("lines = %d, want 1", len(doc.Lines))
			}
			if got := doc.Lines[0].StartTimeMs; got != tt.want {
				t.Errorf("start = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseLRCMultipleTimestamps(t *testing.T) {
	doc := ParseLRC("[00:01.00][00:05.00]chorus\n[00:03.00]verse\n")

	if len(doc.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(doc.Lines))
	}
	wantStarts := []int64{1_000, 3_000, 5_000}
	wantTexts := []string{"chorus", "verse", "chorus"}
	for i := range wantStarts {
		if doc.Lines[i].StartTimeMs != wantStarts[i] || doc.Lines[i].Text != wantTexts[i] {
			t.Errorf("line %d = {%d %q}, want {%d %q}",
				i, doc.Lines[i].StartTimeMs, doc.Lines[i].Text, wantStarts[i], wantTexts[i])
		}
	}
}

func TestParseLRCDropsEmptyText(t *testing.T) {
	doc := ParseLRC("[00:01.00]\n[00:02.00]sung\n[00:04.00][00:06.00]\n")

	if len(doc.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(doc.Lines))
	}
	if doc.Lines[0].Text != "sung" {
		t.Errorf("text = %q, want %q", doc.Lines[0].Text, "sung")
	}
}

func TestParseLRCMetadataAndJunk(t *testing.T) {
	doc := ParseLRC(`[ti:Karma Police]
[ar:Radiohead]
[al:OK Computer]
[offset:+250]
not a tagged line
[12:99.0]seconds out of range
[banana
[00:10.0]first
[00:05.0]zeroth
`)

	if doc.Metadata.Title != "Karma Police" || doc.Metadata.Artist != "Radiohead" || doc.Metadata.Album != "OK Computer" {
		t.Errorf("metadata = %+v", doc.Metadata)
	}
	if doc.Metadata.Extra["offset"] != "+250" {
		t.Errorf("extra offset = %q", doc.Metadata.Extra["offset"])
	}

	// malformed lines are dropped and the survivors come out sorted
	if len(doc.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(doc.Lines))
	}
	if doc.Lines[0].Text != "zeroth" || doc.Lines[1].Text != "first" {
		t.Errorf("order = [%q %q]", doc.Lines[0].Text, doc.Lines[1].Text)
	}
}

func TestLineAt(t *testing.T) {
	doc := ParseLRC("[00:05.00]a\n[00:10.00]b\n[00:15.00]c\n")

	tests := []struct {
		positionMs int64
		want       int
	}{
		{0, 0},
		{4_999, 0},
		{5_000, 0},
		{9_999, 0},
		{10_000, 1},
		{15_000, 2},
		{99_000, 2},
	}
	for _, tt := range tests {
		if got := doc.LineAt(tt.positionMs); got != tt.want {
			t.Errorf("LineAt(%d) = %d, want %d", tt.positionMs, got, tt.want)
		}
	}

	var empty *Document
	if got := empty.LineAt(0); got != -1 {
		t.Errorf("nil document LineAt = %d, want -1", got)
	}
}

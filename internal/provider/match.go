package provider

import "strings"

// maxDurationDeltaMs is how far a candidate's reported duration may drift
// from the player's before it stops counting as a duration match.
const maxDurationDeltaMs = 5000

// Candidate is one search result a source offers for ranking.
type Candidate struct {
	Title      string
	Artist     string
	Album      string
	DurationMs int64
}

// Sanitize lowercases and strips everything except letters and digits, so
// "Karma Police (Remastered)" and "karma police remastered" compare equal
// up to the similarity metric.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r > 127 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Similarity is the normalized Levenshtein similarity of two sanitized
// strings: 1 for identical, 0 for nothing in common.
func Similarity(a, b string) float64 {
	a, b = Sanitize(a), Sanitize(b)
	if a == "" && b == "" {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// score ranks a candidate against the query. Title similarity counts double
// because sources frequently disagree on artist formatting but rarely on
// titles.
func score(q Query, c Candidate) float64 {
	s := 2 * Similarity(q.Title, c.Title)
	s += Similarity(q.Artist, c.Artist)
	if q.Album != "" && c.Album != "" {
		s += Similarity(q.Album, c.Album)
	}
	return s
}

func durationMatches(q Query, c Candidate) bool {
	if q.DurationMs == 0 || c.DurationMs == 0 {
		return false
	}
	delta := q.DurationMs - c.DurationMs
	if delta < 0 {
		delta = -delta
	}
	return delta < maxDurationDeltaMs
}

// BestCandidate picks the index of the best match for q, or -1 for an empty
// slice. When any candidate matches the query's duration, only those
// candidates compete; text similarity alone cannot beat a duration match.
// Ties keep the earliest index, which is the source's own ranking.
func BestCandidate(q Query, candidates []Candidate) int {
	if len(candidates) == 0 {
		return -1
	}

	eligible := make([]int, 0, len(candidates))
	for i, c := range candidates {
		if durationMatches(q, c) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		for i := range candidates {
			eligible = append(eligible, i)
		}
	}

	best := eligible[0]
	bestScore := score(q, candidates[best])
	for _, i := range eligible[1:] {
		if s := score(q, candidates[i]); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// levenshtein is the classic two-row edit distance over bytes. Sanitized
// inputs are effectively ASCII so byte distance is good enough here.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

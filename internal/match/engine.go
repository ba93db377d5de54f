package match

import (
	"strings"
	"unicode/utf8"

	"github.com/StevieDC/dd-voice/internal/keyword"
)

const (
	// ThresholdPercent is the share of the longer string that may be edited.
	ThresholdPercent = 30
	// MaxWindow is the most adjacent words joined into one candidate.
	MaxWindow = 3
	// MinKeywordLen excludes short keywords, which match almost anything
	// at a distance of one.
	MinKeywordLen = 3
)

// Window is the run of transcript words that produced a match.
type Window struct {
	Start int      `json:"start"`
	Words []string `json:"words"`
}

// Candidate is the window text with the spaces removed.
func (w Window) Candidate() string {
	return strings.Join(w.Words, "")
}

// Text is the window as heard, words separated by single spaces.
func (w Window) Text() string {
	return strings.Join(w.Words, " ")
}

// Result is the outcome of one Match call. The zero value means no match.
type Result struct {
	Matched  bool            `json:"matched"`
	Keyword  keyword.Keyword `json:"keyword"`
	Window   Window          `json:"window"`
	Distance int             `json:"distance"`
}

// Match scans segment for the first keyword that approximately matches a
// window of one to MaxWindow adjacent words. Windows are visited by start
// index, then by length; keywords in set order. The first accepted pair wins.
// Match keeps no state between calls.
func Match(segment string, keywords *keyword.Set) Result {
	words := keyword.FoldWords(segment)
	if len(words) == 0 || keywords.IsEmpty() {
		return Result{}
	}
	entries := keywords.Entries()

	for i := range words {
		for l := 1; l <= MaxWindow; l++ {
			j := i + l
			if j > len(words) {
				// capped window equals the one already tried
				break
			}
			candidate := strings.Join(words[i:j], "")
			for _, k := range entries {
				if d, ok := Accept(candidate, k.Folded()); ok {
					return Result{
						Matched:  true,
						Keyword:  k,
						Window:   Window{Start: i, Words: append([]string(nil), words[i:j]...)},
						Distance: d,
					}
				}
			}
		}
	}
	return Result{}
}

// Accept reports whether candidate is close enough to the folded keyword,
// along with the computed distance. Keywords shorter than MinKeywordLen are
// rejected without computing a distance.
func Accept(candidate, folded string) (int, bool) {
	kl := utf8.RuneCountInString(folded)
	if kl < MinKeywordLen {
		return 0, false
	}
	d := Distance(candidate, folded)
	return d, d <= MaxDistance(utf8.RuneCountInString(candidate), kl)
}

// MaxDistance is floor(max(a, b) * 0.3), computed on integers.
func MaxDistance(a, b int) int {
	return max(a, b) * ThresholdPercent / 100
}

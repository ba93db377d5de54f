package keyword

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrEmptyKeywordSet is returned when a keyword list has no usable entries.
// Matching must not start without at least one keyword.
var ErrEmptyKeywordSet = errors.New("keyword list is empty: enter at least one keyword")

// Keyword is one configured keyword. The display text keeps its original
// casing; comparisons go through Folded.
type Keyword struct {
	text   string
	folded string
}

// New trims text and precomputes the comparison form.
func New(text string) Keyword {
	text = strings.TrimSpace(text)
	return Keyword{
		text:   text,
		folded: Fold(text),
	}
}

// String returns the display text used in notifications and announcements.
func (k Keyword) String() string {
	return k.text
}

// Folded returns the lowercased text with every whitespace run removed.
func (k Keyword) Folded() string {
	return k.folded
}

func (k Keyword) MarshalText() ([]byte, error) {
	return []byte(k.text), nil
}

// Fold lowercases s and strips whitespace so that "Dragon Lord" and
// "dragonlord" compare equal. It lowercases rather than applying full
// Unicode case folding, so "Maß" stays three runes long and keeps its
// match threshold.
func Fold(s string) string {
	return strings.Join(FoldWords(s), "")
}

// FoldWords lowercases s and splits it on whitespace.
func FoldWords(s string) []string {
	return strings.Fields(cases.Lower(language.Und).String(s))
}

package keyword

import (
	"fmt"
	"os"
	"strings"
)

// Set is an ordered, immutable keyword list. A new list always builds a new
// Set; callers swap the pointer rather than editing entries.
type Set struct {
	entries []Keyword
}

// Load parses newline separated raw text. Blank lines are dropped, order is
// kept and duplicates are not removed.
func Load(raw string) (*Set, error) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	entries := make([]Keyword, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, New(line))
	}
	if len(entries) == 0 {
		return nil, ErrEmptyKeywordSet
	}
	return &Set{entries: entries}, nil
}

// LoadFile reads a keyword file, one keyword per line.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyword file: %w", err)
	}
	set, err := Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Entries returns a copy of the keywords in load order.
func (s *Set) Entries() []Keyword {
	if s == nil {
		return nil
	}
	ret := make([]Keyword, len(s.entries))
	copy(ret, s.entries)
	return ret
}

// Strings returns the display text of every entry.
func (s *Set) Strings() []string {
	if s == nil {
		return []string{}
	}
	ret := make([]string, 0, len(s.entries))
	for _, k := range s.entries {
		ret = append(ret, k.String())
	}
	return ret
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// IsEmpty reports true for a nil Set as well.
func (s *Set) IsEmpty() bool {
	return s.Len() == 0
}

package match

import "github.com/antzucaro/matchr"

// Distance returns the Levenshtein edit distance between a and b, counting
// single-rune insertions, deletions and substitutions at cost 1.
func Distance(a, b string) int {
	return matchr.Levenshtein(a, b)
}

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"dragon", "dragon", 0},
		{"dragon", "dragun", 1},
		{"dragon", "drag", 2},
		{"goblin", "gobblin", 1},
		{"flaw", "lawn", 2},
		{"beholder", "beholda", 2},
		{"café", "cafe", 1},
		{"naïve", "naive", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.a, tt.b))
		})
	}
}

var distanceCorpus = []string{
	"", "a", "ab", "abc", "dragon", "drag", "on", "dragun", "wizard",
	"lizard", "troll", "trolls", "orcs", "lich", "beholder", "goblin",
	"gobbling", "sitting", "kitten", "straße", "strasse",
}

func TestDistance_Identity(t *testing.T) {
	for _, a := range distanceCorpus {
		assert.Equal(t, 0, Distance(a, a), "a=%q", a)
	}
}

func TestDistance_Symmetry(t *testing.T) {
	for _, a := range distanceCorpus {
		for _, b := range distanceCorpus {
			assert.Equal(t, Distance(a, b), Distance(b, a), "a=%q b=%q", a, b)
		}
	}
}

func TestDistance_TriangleInequality(t *testing.T) {
	for _, a := range distanceCorpus {
		for _, b := range distanceCorpus {
			for _, c := range distanceCorpus {
				if Distance(a, c) > Distance(a, b)+Distance(b, c) {
					t.Fatalf("triangle inequality broken for %q %q %q", a, b, c)
				}
			}
		}
	}
}

func TestMaxDistance(t *testing.T) {
	assert.Equal(t, 0, MaxDistance(3, 3))
	assert.Equal(t, 1, MaxDistance(4, 3))
	assert.Equal(t, 1, MaxDistance(6, 6))
	assert.Equal(t, 2, MaxDistance(7, 6))
	assert.Equal(t, 3, MaxDistance(10, 2))
	assert.Equal(t, 6, MaxDistance(20, 20))
}

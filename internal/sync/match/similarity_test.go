// internal/sync/match/similarity_test.go
package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Text Normalization Tests
// ==========================

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"McDonald's", "mcdonald s"},
		{"Thai-Metro", "thai metro"},
		{"  22  Upper   Street ", "22 upper street"},
		{"PRET A MANGER", "pret a manger"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeText(tc.in), "input %q", tc.in)
	}
}

// ==========================
// Bigram Similarity Tests
// ==========================

func TestDiceBigram(t *testing.T) {
	assert.Equal(t, 1.0, diceBigram("kitchen", "kitchen"))
	assert.Equal(t, 0.0, diceBigram("abcd", "wxyz"))
	assert.InDelta(t, 0.25, diceBigram("night", "nacht"), 0.0001)
	assert.InDelta(t, 0.8667, diceBigram("old thai house", "the old thai house"), 0.0001)
}

func TestDiceBigramShortStrings(t *testing.T) {
	assert.Equal(t, 0.0, diceBigram("a", "ab"))
	assert.Equal(t, 0.0, diceBigram("", "ab"))
	assert.Equal(t, 1.0, diceBigram("a", "a"))
}

func TestDiceBigramRepeatedBigrams(t *testing.T) {
	// Each shared bigram may only be counted once per occurrence.
	assert.InDelta(t, 0.6667, diceBigram("aaa", "aaaaa"), 0.0001)
}

// ==========================
// Jaro-Winkler Tests
// ==========================

func TestJaroSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, jaroSimilarity("martha", "martha"))
	assert.Equal(t, 0.0, jaroSimilarity("", "martha"))
	assert.Equal(t, 0.0, jaroSimilarity("abc", "xyz"))
	assert.InDelta(t, 0.9444, jaroSimilarity("martha", "marhta"), 0.0001)
}

func TestJaroWinkler(t *testing.T) {
	assert.InDelta(t, 0.9611, jaroWinkler("martha", "marhta"), 0.0001)
	assert.InDelta(t, 0.8133, jaroWinkler("dixon", "dicksonx"), 0.0001)
	assert.Equal(t, 1.0, jaroWinkler("subway", "subway"))
}

// ==========================
// Field Similarity Tests
// ==========================

func TestFieldSimilarity(t *testing.T) {
	// Normalization runs first, so punctuation and case never matter.
	assert.Equal(t, 1.0, fieldSimilarity("Thai-Metro", "thai metro"))
	assert.Equal(t, 1.0, fieldSimilarity("", ""))
	assert.Equal(t, 0.0, fieldSimilarity("Subway", ""))
	assert.InDelta(t, 0.8368, fieldSimilarity("Old Thai House", "The Old Thai House"), 0.0001)
}

// ==========================
// Combined Distance Tests
// ==========================

func TestCombinedDistanceWeights(t *testing.T) {
	// Identical fields give zero distance.
	assert.Equal(t, 0.0, combinedDistance("Subway", "7 Mill Road", "Subway", "7 Mill Road"))

	// Name mismatch with identical address leaves exactly the 0.6 name share.
	d := combinedDistance("zzzz", "7 Mill Road", "qqqq", "7 Mill Road")
	assert.InDelta(t, 0.6, d, 0.0001)

	// Address mismatch with identical name leaves exactly the 0.4 share.
	d = combinedDistance("Subway", "zzzz", "Subway", "qqqq")
	assert.InDelta(t, 0.4, d, 0.0001)
}

func TestCombinedDistanceLeadingArticle(t *testing.T) {
	d := combinedDistance(
		"Old Thai House", "5 Market Lane, Hackney, London",
		"The Old Thai House", "5 Market Lane, Hackney, London",
	)
	assert.InDelta(t, 0.0979, d, 0.001)
	assert.Less(t, d, 0.7, "should sit inside the Very Lenient threshold")
	assert.Greater(t, d, 0.05, "should sit outside the Extremely Strict threshold")
}

func TestCombinedDistanceClamped(t *testing.T) {
	d := combinedDistance("", "", "zzzz", "qqqq")
	assert.GreaterOrEqual(t, d, 0.0)
	assert.LessOrEqual(t, d, 1.0)
}

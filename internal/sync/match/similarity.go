// internal/sync/match/similarity.go

// Package match narrows the establishment corpus by postcode and runs an
// approximate name/address match against place queries.
package match

import (
	"strings"
	"unicode"
)

// normalizeText lower-cases, replaces punctuation with spaces, and collapses
// whitespace. Matching always runs over normalized strings; only the
// exact-match threshold compares raw input.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// diceBigram computes the Sørensen–Dice coefficient over character bigrams.
func diceBigram(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	counts := make(map[string]int)
	for i := 0; i+2 <= len(a); i++ {
		counts[a[i:i+2]]++
	}

	shared := 0
	for i := 0; i+2 <= len(b); i++ {
		bg := b[i : i+2]
		if counts[bg] > 0 {
			counts[bg]--
			shared++
		}
	}

	return 2 * float64(shared) / float64(len(a)+len(b)-2)
}

// jaroSimilarity computes the Jaro similarity of two strings.
func jaroSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}

	window := la
	if lb > window {
		window = lb
	}
	window = window/2 - 1
	if window < 0 {
		window = 0
	}

	aMatched := make([]bool, la)
	bMatched := make([]bool, lb)

	matches := 0
	for i := 0; i < la; i++ {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window + 1
		if hi > lb {
			hi = lb
		}
		for j := lo; j < hi; j++ {
			if bMatched[j] || a[i] != b[j] {
				continue
			}
			aMatched[i] = true
			bMatched[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	transpositions := 0
	j := 0
	for i := 0; i < la; i++ {
		if !aMatched[i] {
			continue
		}
		for !bMatched[j] {
			j++
		}
		if a[i] != b[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(la) + m/float64(lb) + (m-t)/m) / 3
}

// jaroWinkler boosts Jaro similarity for a shared prefix of up to 4 chars.
func jaroWinkler(a, b string) float64 {
	jaro := jaroSimilarity(a, b)

	prefix := 0
	for prefix < len(a) && prefix < len(b) && prefix < 4 && a[prefix] == b[prefix] {
		prefix++
	}

	return jaro + float64(prefix)*0.1*(1-jaro)
}

// fieldSimilarity blends bigram overlap and Jaro-Winkler equally over
// normalized strings.
func fieldSimilarity(a, b string) float64 {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" && nb == "" {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	return 0.5*diceBigram(na, nb) + 0.5*jaroWinkler(na, nb)
}

// combinedDistance is the match distance of a place against a candidate:
// name carries 0.6, address 0.4. Clamped to [0, 1].
func combinedDistance(queryName, queryAddr, candName, candAddr string) float64 {
	sim := 0.6*fieldSimilarity(queryName, candName) + 0.4*fieldSimilarity(queryAddr, candAddr)
	d := 1 - sim
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}

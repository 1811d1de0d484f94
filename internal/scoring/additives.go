// internal/scoring/additives.go
package scoring

import "strings"

// High-risk dyes and sweeteners cost 2 points, moderate-risk preservatives and
// flavour enhancers cost 1.
var additiveRisk = map[string]int{
	"e102": -2,
	"e110": -2,
	"e129": -2,
	"e951": -2,
	"e120": -1,
	"e122": -1,
	"e211": -1,
	"e220": -1,
	"e250": -1,
	"e621": -1,
}

// NormalizeAdditive turns "en:E102" into "e102".
func NormalizeAdditive(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	return strings.TrimPrefix(code, "en:")
}

// AdditiveRisk returns the penalty for one additive code, 0 when unlisted.
func AdditiveRisk(code string) int {
	return additiveRisk[NormalizeAdditive(code)]
}

// AdditivePenalty sums the penalty of every occurrence in codes.
func AdditivePenalty(codes []string) int {
	penalty := 0
	for _, code := range codes {
		penalty += AdditiveRisk(code)
	}
	return penalty
}

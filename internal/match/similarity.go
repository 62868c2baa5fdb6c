// Package match groups markets whose titles are lexically similar enough to
// represent the same underlying question. Matching is purely lexical; no
// semantic understanding is attempted.
package match

import (
	"strings"

	"github.com/kestrelhq/arbscope/internal/domain"
)

// DefaultFloor is the documented default confidence floor. Call sites tune
// it: broad arbitrage scans run looser (~0.35), strict opportunity pairing
// runs tighter (~0.7). The floors are deliberately per-call-site knobs.
const DefaultFloor = 0.5

// stopwords are filler words with no topical signal. Dropping them keeps
// phrasing differences ("Will X reach..." vs "X to hit...") from diluting
// the overlap between titles about the same question.
var stopwords = map[string]bool{
	"will": true, "would": true, "does": true, "the": true,
	"this": true, "that": true, "who": true, "what": true,
	"when": true, "which": true, "reach": true, "reaches": true,
	"hit": true, "hits": true, "year": true, "month": true,
	"before": true, "after": true, "until": true,
}

// aliases fold common shorthand onto one canonical token so "BTC" and
// "Bitcoin" count as the same word.
var aliases = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"potus": "president",
	"dems":  "democrats",
	"gop":   "republicans",
}

// Tokens normalizes a title into its comparison token set: lowercase, strip
// non-alphanumeric runes, split on whitespace, drop tokens of length <= 2
// and stopwords, fold known aliases.
func Tokens(title string) []string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	out := fields[:0]
	for _, f := range fields {
		if len(f) <= 2 || stopwords[f] {
			continue
		}
		if canonical, ok := aliases[f]; ok {
			f = canonical
		}
		out = append(out, f)
	}
	return out
}

// TopicKey collapses a title into an order-insensitive bucket key: the
// normalized tokens sorted alphabetically and joined. Titles with the same
// key are treated as the same topic by the exact-bucket scan path.
func TopicKey(title string) string {
	tokens := Tokens(title)
	// Insertion sort; token counts are tiny.
	for i := 1; i < len(tokens); i++ {
		for j := i; j > 0 && tokens[j] < tokens[j-1]; j-- {
			tokens[j], tokens[j-1] = tokens[j-1], tokens[j]
		}
	}
	return strings.Join(tokens, " ")
}

// Similarity returns the Jaccard index of the two titles' token sets:
// |intersection| / |union|, in [0,1]. Two empty token sets score 0.
func Similarity(a, b string) float64 {
	setA := make(map[string]bool)
	for _, t := range Tokens(a) {
		setA[t] = true
	}
	setB := make(map[string]bool)
	for _, t := range Tokens(b) {
		setB[t] = true
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// Group partitions markets into same-topic groups. Grouping is greedy:
// each unassigned market seeds a new group and pulls in every remaining
// unassigned market whose similarity to the seed meets the floor. This is
// O(n^2) pairwise comparisons, acceptable at aggregator fan-out sizes
// (tens of markets).
func Group(markets []domain.Market, floor float64) [][]domain.Market {
	assigned := make([]bool, len(markets))
	var groups [][]domain.Market

	for i := range markets {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		group := []domain.Market{markets[i]}

		for j := i + 1; j < len(markets); j++ {
			if assigned[j] {
				continue
			}
			if Similarity(markets[i].Title, markets[j].Title) >= floor {
				assigned[j] = true
				group = append(group, markets[j])
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// GroupConfidence returns the mean pairwise similarity within a group, or
// 1 for a singleton.
func GroupConfidence(group []domain.Market) float64 {
	if len(group) < 2 {
		return 1
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			sum += Similarity(group[i].Title, group[j].Title)
			pairs++
		}
	}
	return sum / float64(pairs)
}

// Topic picks the human label for a group of matched titles: the shortest
// non-empty title, on the theory that it is the most specific phrasing.
func Topic(titles ...string) string {
	topic := ""
	for _, t := range titles {
		if t == "" {
			continue
		}
		if topic == "" || len(t) < len(topic) {
			topic = t
		}
	}
	return topic
}

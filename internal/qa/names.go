package qa

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"chatqa/internal/domain"
)

// NameCutoff is the minimum similarity ratio for a fuzzy name match.
const NameCutoff = 0.45

var (
	questionToken = regexp.MustCompile(`[A-Za-z']+`)
	nonLetters    = regexp.MustCompile(`[^a-z]`)
)

// CandidateNames returns the distinct non-empty authors of records, sorted.
func CandidateNames(records []domain.Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		if a := Flatten(r).Author; a != "" {
			seen[a] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ResolveName picks the participant a question is about, or "" if none.
//
// Exact containment of the full or first name wins over token equality,
// which wins over a fuzzy match on letters only. Within a tier the first
// name in the given order wins.
func ResolveName(question string, names []string) string {
	q := strings.ToLower(Normalize(question))

	for _, n := range names {
		lower := strings.ToLower(n)
		if strings.Contains(q, lower) {
			return n
		}
		if first := firstWord(lower); first != "" && strings.Contains(q, first) {
			return n
		}
	}

	tokens := questionToken.FindAllString(q, -1)
	for _, tok := range tokens {
		for _, n := range names {
			if first := firstWord(n); first != "" && strings.EqualFold(tok, first) {
				return n
			}
		}
	}

	keys := make(map[string]string, len(names))
	possibilities := make([]string, 0, len(names))
	for _, n := range names {
		key := lettersOnly(n)
		if _, dup := keys[key]; !dup {
			possibilities = append(possibilities, key)
		}
		keys[key] = n
	}
	qnorm := lettersOnly(strings.Join(tokens, ""))
	if qnorm == "" {
		return ""
	}
	if match, ok := closestMatch(qnorm, possibilities, NameCutoff); ok {
		return keys[match]
	}
	return ""
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func lettersOnly(s string) string {
	return nonLetters.ReplaceAllString(strings.ToLower(s), "")
}

// closestMatch returns the possibility most similar to word with a ratio of
// at least cutoff. Equal ratios go to the lexicographically greater string.
func closestMatch(word string, possibilities []string, cutoff float64) (string, bool) {
	var (
		best      string
		bestScore float64
		found     bool
	)
	for _, p := range possibilities {
		score := Similarity(p, word)
		if score < cutoff {
			continue
		}
		if !found || score > bestScore || (score == bestScore && p > best) {
			best, bestScore, found = p, score, true
		}
	}
	return best, found
}

// Similarity is the sequence-matcher ratio between a and b.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

package qa

import (
	"regexp"
	"strconv"
	"strings"
)

// Keyword sets used to pick sentences out of a participant's text.
var (
	TripKeywords       = []string{"trip", "travel", "travelling", "traveling", "flight", "going to", "visit", "planning", "leave", "depart"}
	CarKeywords        = []string{"car", "cars", "vehicle", "vehicles", "truck", "sedan", "SUV", "van"}
	RestaurantKeywords = []string{"restaurant", "restaurants", "dinner", "lunch", "eat", "dine", "reservation", "reserve", "chef"}
)

var numberWords = []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}

var wordToNumber = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`(?i)\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+\d{1,2}(?:,\s*\d{4})?\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\b`),
	regexp.MustCompile(`(?i)\btomorrow\b|\bnext week\b|\bnext month\b|\bthis week\b|\bin \d+ days\b`),
}

var (
	sentenceBreak = regexp.MustCompile(`[.!?]\s+`)
	quotedName    = regexp.MustCompile(`["“](.+?)["”]`)
	atName        = regexp.MustCompile(`\bat\s+([A-Z][\w\s&\-']{2,80})`)
)

// ExtractDates returns date-like snippets found in text, pattern by pattern.
// Duplicates are kept.
func ExtractDates(text string) []string {
	var found []string
	for _, p := range datePatterns {
		found = append(found, p.FindAllString(text, -1)...)
	}
	return found
}

// SplitSentences splits text after '.', '!' or '?' followed by whitespace.
func SplitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	for _, loc := range sentenceBreak.FindAllStringIndex(text, -1) {
		out = append(out, text[start:loc[0]+1])
		start = loc[1]
	}
	return append(out, text[start:])
}

// keywordMatcher matches any of a set of keywords as a whole word,
// case-insensitively.
type keywordMatcher struct {
	keywords []string
	re       *regexp.Regexp
}

func newKeywordMatcher(keywords []string) *keywordMatcher {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return &keywordMatcher{
		keywords: keywords,
		re:       regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// Sentences returns, in order, the trimmed sentences of text that mention a
// keyword.
func (km *keywordMatcher) Sentences(text string) []string {
	var good []string
	for _, s := range SplitSentences(text) {
		if km.re.MatchString(s) {
			good = append(good, strings.TrimSpace(s))
		}
	}
	return good
}

// ContainsAny reports whether lower-cased text contains any keyword as a
// plain substring.
func (km *keywordMatcher) ContainsAny(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range km.keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// SentencesWithKeywords returns the sentences of text containing at least one
// keyword as a whole word, case-insensitively.
func SentencesWithKeywords(text string, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	return matcherFor(keywords).Sentences(text)
}

// Matchers for the built-in keyword sets are compiled once and only read
// afterwards.
var (
	sentenceMatchers = map[string]*keywordMatcher{
		keywordSetKey(TripKeywords):       newKeywordMatcher(TripKeywords),
		keywordSetKey(CarKeywords):        newKeywordMatcher(CarKeywords),
		keywordSetKey(RestaurantKeywords): newKeywordMatcher(RestaurantKeywords),
	}
	quantityMatchers = func() map[string]quantityMatcher {
		out := make(map[string]quantityMatcher, len(CarKeywords))
		for _, kw := range CarKeywords {
			out[kw] = newQuantityMatcher(kw)
		}
		return out
	}()
)

func keywordSetKey(keywords []string) string {
	return strings.Join(keywords, "\x00")
}

func matcherFor(keywords []string) *keywordMatcher {
	if km, ok := sentenceMatchers[keywordSetKey(keywords)]; ok {
		return km
	}
	return newKeywordMatcher(keywords)
}

func quantityMatcherFor(keyword string) quantityMatcher {
	if qm, ok := quantityMatchers[keyword]; ok {
		return qm
	}
	return newQuantityMatcher(keyword)
}

// quantityMatcher finds counts written next to one keyword.
type quantityMatcher struct {
	before *regexp.Regexp
	after  *regexp.Regexp
}

func newQuantityMatcher(keyword string) quantityMatcher {
	kw := regexp.QuoteMeta(keyword)
	return quantityMatcher{
		before: regexp.MustCompile(`(?i)(\d+|` + strings.Join(numberWords, "|") + `)\s+(?:\w+\s){0,3}` + kw),
		after:  regexp.MustCompile(`(?i)` + kw + `\s*[:\-]?\s*(\d+)`),
	}
}

func (qm quantityMatcher) find(text string) []int {
	var out []int
	for _, m := range qm.before.FindAllStringSubmatch(text, -1) {
		if n, ok := parseQuantity(m[1]); ok {
			out = append(out, n)
		}
	}
	for _, m := range qm.after.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func parseQuantity(tok string) (int, bool) {
	tok = strings.ToLower(tok)
	if n, err := strconv.Atoi(tok); err == nil {
		return n, true
	}
	n, ok := wordToNumber[tok]
	return n, ok
}

// NumbersNearKeyword collects quantities written up to three words before a
// keyword or right after it ("two cars", "cars: 2"), keyword by keyword.
func NumbersNearKeyword(text string, keywords []string) []int {
	var results []int
	for _, kw := range keywords {
		results = append(results, quantityMatcherFor(kw).find(text)...)
	}
	return results
}

// RestaurantNames pulls candidate venue names out of one sentence: quoted
// strings first, then capitalized phrases following "at".
func RestaurantNames(sentence string) []string {
	var names []string
	seen := make(map[string]struct{})
	add := func(n string) {
		n = strings.TrimSpace(n)
		if n == "" {
			return
		}
		if _, dup := seen[n]; dup {
			return
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	for _, m := range quotedName.FindAllStringSubmatch(sentence, -1) {
		add(m[1])
	}
	for _, m := range atName.FindAllStringSubmatch(sentence, -1) {
		add(m[1])
	}
	return names
}

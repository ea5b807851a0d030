package qa

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"chatqa/internal/domain"
)

// Answer templates for outcomes that carry no participant data.
const (
	NoTripInfo       = "No trip planning info found in the dataset."
	NoCarInfo        = "No car information found in the dataset."
	NoRestaurantInfo = "No restaurant info found in the dataset."
	NoAnswer         = "I couldn't find an answer in the messages."
)

const (
	maxTripHits         = 6
	maxOwnershipHits    = 8
	maxTopicalCarHits   = 10
	maxRestaurantHits   = 8
	genericSnippetRunes = 160
)

var (
	tripSentences = matcherFor(TripKeywords)

	ownershipPhrase = regexp.MustCompile(`(?i)\b(I|We|I've|I have|I own|I had|I'm)\b.*\b(` + strings.Join(CarKeywords, "|") + `)\b`)
	anyNumberWord   = regexp.MustCompile(`(?i)\b(` + strings.Join(numberWords, "|") + `)\b`)
	possessive      = regexp.MustCompile(`(?i)\b(I|We|I've|I have|I own|my)\b`)
	questionWords   = regexp.MustCompile(`\w+`)
)

// query is the per-call state shared by the intent handlers.
type query struct {
	lower string
	name  string
	tr    *transcript
}

// route pairs an intent with the question keywords that select it. Routes are
// tried in order and the first whose triggers appear in the question wins.
type route struct {
	intent   domain.Intent
	triggers []string
	handle   func(q *query) string
}

func defaultRoutes() []route {
	return []route{
		{
			intent:   domain.IntentTrip,
			triggers: []string{"trip", "travel", "flight", "going to", "depart", "leave", "visit"},
			handle:   answerTrip,
		},
		{
			intent:   domain.IntentCar,
			triggers: []string{"car", "cars", "vehicle", "vehicles", "owns", "own", "have a car", "have cars"},
			handle:   answerCar,
		},
		{
			intent:   domain.IntentRestaurant,
			triggers: []string{"restaurant", "restaurants", "dinner", "lunch", "eat", "dine", "reservation"},
			handle:   answerRestaurant,
		},
	}
}

func (r route) matches(lowerQuestion string) bool {
	for _, t := range r.triggers {
		if strings.Contains(lowerQuestion, t) {
			return true
		}
	}
	return false
}

func answerTrip(q *query) string {
	if q.name != "" {
		txt := q.tr.Text(q.name)
		dates := ExtractDates(txt)
		sents := SentencesWithKeywords(txt, TripKeywords)
		switch {
		case len(dates) > 0:
			return fmt.Sprintf("%s mentioned trip date(s): %s.", q.name, strings.Join(dates, ", "))
		case len(sents) > 0:
			return fmt.Sprintf("%s mentioned travel: \"%s\"", q.name, sents[0])
		}
		return fmt.Sprintf("No explicit trip date found for %s in the messages.", q.name)
	}

	var lines []string
	hits := 0
	for _, name := range q.tr.Participants() {
		txt := q.tr.Text(name)
		if !tripSentences.ContainsAny(txt) {
			continue
		}
		if hits++; hits > maxTripHits {
			break
		}
		if dates := ExtractDates(txt); len(dates) > 0 {
			lines = append(lines, fmt.Sprintf("%s: %s", name, strings.Join(dates, ", ")))
		} else if sents := SentencesWithKeywords(txt, TripKeywords); len(sents) > 0 {
			lines = append(lines, fmt.Sprintf("%s: %s", name, sents[0]))
		}
	}
	if len(lines) == 0 {
		return NoTripInfo
	}
	return strings.Join(lines, " | ")
}

// OwnershipCount infers how many cars text says its author owns. Zero means
// no ownership could be inferred.
func OwnershipCount(text string) int {
	if counts := NumbersNearKeyword(text, CarKeywords); len(counts) > 0 {
		return counts[0]
	}
	if !ownershipPhrase.MatchString(text) {
		return 0
	}
	if m := anyNumberWord.FindStringSubmatch(text); m != nil {
		return wordToNumber[strings.ToLower(m[1])]
	}
	return 1
}

func answerCar(q *query) string {
	if q.name != "" {
		txt := q.tr.Text(q.name)
		if n := OwnershipCount(txt); n > 0 {
			return fmt.Sprintf("%s has %d car(s) (in messages).", q.name, n)
		}
		sents := SentencesWithKeywords(txt, CarKeywords)
		if len(sents) == 0 {
			return fmt.Sprintf("No car information found for %s.", q.name)
		}
		for _, s := range sents {
			if possessive.MatchString(s) {
				return fmt.Sprintf("%s indicates ownership/possession: \"%s\" (no explicit count found).", q.name, s)
			}
		}
		return fmt.Sprintf("%s mentions cars (topic): \"%s\"", q.name, sents[0])
	}

	var owned, topical []string
	for _, name := range q.tr.Participants() {
		txt := q.tr.Text(name)
		if n := OwnershipCount(txt); n > 0 {
			owned = append(owned, name+": "+strconv.Itoa(n))
			continue
		}
		if sents := SentencesWithKeywords(txt, CarKeywords); len(sents) > 0 {
			topical = append(topical, fmt.Sprintf("%s: \"%s\"", name, sents[0]))
		}
	}
	switch {
	case len(owned) > 0:
		return strings.Join(limit(owned, maxOwnershipHits), " | ")
	case len(topical) > 0:
		return strings.Join(limit(topical, maxTopicalCarHits), " | ")
	}
	return NoCarInfo
}

// restaurantsIn extracts venue names from every sentence, deduplicated in
// first-seen order.
func restaurantsIn(sents []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, s := range sents {
		for _, n := range RestaurantNames(s) {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

func answerRestaurant(q *query) string {
	if q.name != "" {
		sents := SentencesWithKeywords(q.tr.Text(q.name), RestaurantKeywords)
		if names := restaurantsIn(sents); len(names) > 0 {
			return fmt.Sprintf("%s's mentioned restaurants: %s", q.name, strings.Join(names, ", "))
		}
		if len(sents) > 0 {
			return fmt.Sprintf("%s mentioned restaurants/food: \"%s\"", q.name, sents[0])
		}
		return fmt.Sprintf("No favorite-restaurant info found for %s.", q.name)
	}

	var fragments []string
	for _, name := range q.tr.Participants() {
		sents := SentencesWithKeywords(q.tr.Text(name), RestaurantKeywords)
		if len(sents) == 0 {
			continue
		}
		if names := restaurantsIn(sents); len(names) > 0 {
			fragments = append(fragments, fmt.Sprintf("%s: %s", name, strings.Join(names, ", ")))
		} else {
			fragments = append(fragments, fmt.Sprintf("%s: \"%s\"", name, sents[0]))
		}
		if len(fragments) == maxRestaurantHits {
			break
		}
	}
	if len(fragments) == 0 {
		return NoRestaurantInfo
	}
	return strings.Join(fragments, " | ")
}

// answerGeneric scores every participant by how many question words occur
// anywhere in their text and quotes the opening of the best one.
func answerGeneric(q *query) string {
	words := questionWords.FindAllString(q.lower, -1)

	var (
		best      string
		bestScore int
	)
	for _, name := range q.tr.Participants() {
		txt := q.tr.Text(name)
		if txt == "" {
			continue
		}
		lower := strings.ToLower(txt)
		score := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	if bestScore == 0 {
		return NoAnswer
	}
	return fmt.Sprintf("%s: \"%s\"", best, snippet(q.tr.Text(best)))
}

func snippet(txt string) string {
	for _, s := range SplitSentences(txt) {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	r := []rune(txt)
	if len(r) > genericSnippetRunes {
		r = r[:genericSnippetRunes]
	}
	return string(r)
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

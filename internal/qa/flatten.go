package qa

import (
	"strings"

	"chatqa/internal/domain"
)

// Field names consulted, in priority order.
var (
	authorFields = []string{"user_name", "user", "author", "name", "member_name", "member"}
	textFields   = []string{"message", "text", "body", "content", "payload"}
)

// Flatten reduces a record to its author and normalized text.
//
// The author is the first non-blank string among authorFields. The text joins
// every non-blank string among textFields; when none is present, every string
// field of the record is used instead so unknown schemas still contribute.
func Flatten(r domain.Record) domain.Message {
	if !r.Object {
		return domain.Message{}
	}

	var author string
	for _, f := range authorFields {
		if s, ok := r.String(f); ok && strings.TrimSpace(s) != "" {
			author = strings.TrimSpace(s)
			break
		}
	}

	var parts []string
	for _, f := range textFields {
		if s, ok := r.String(f); ok && strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	if len(parts) == 0 {
		for _, f := range r.Fields {
			if s, ok := f.Value.(string); ok {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
	}

	return domain.Message{
		Author: author,
		Text:   Normalize(strings.Join(parts, " ")),
	}
}

// transcript is the per-call aggregation of message text by participant.
// Participants keep the order in which they first appear.
type transcript struct {
	order        []string
	texts        map[string][]string
	unattributed []string
}

func buildTranscript(records []domain.Record) *transcript {
	t := &transcript{texts: make(map[string][]string)}
	for _, r := range records {
		m := Flatten(r)
		if !m.HasAuthor() {
			if m.Text != "" {
				t.unattributed = append(t.unattributed, m.Text)
			}
			continue
		}
		if _, seen := t.texts[m.Author]; !seen {
			t.order = append(t.order, m.Author)
			t.texts[m.Author] = nil
		}
		if m.Text != "" {
			t.texts[m.Author] = append(t.texts[m.Author], m.Text)
		}
	}
	return t
}

// Text returns the aggregated text of one participant.
func (t *transcript) Text(name string) string {
	return strings.Join(t.texts[name], " ")
}

// Unattributed returns the pooled text of messages without an author.
func (t *transcript) Unattributed() string {
	return strings.Join(t.unattributed, " ")
}

// Participants returns participant names in first-seen order.
func (t *transcript) Participants() []string {
	return t.order
}

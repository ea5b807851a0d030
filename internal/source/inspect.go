package source

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

const (
	sampleRecords = 3
	topAuthors    = 10
	unknownAuthor = "UNKNOWN"
)

var inspectAuthorFields = []string{"author", "name", "member", "user", "member_name", "user_name"}

// Report summarises a raw messages payload.
type Report struct {
	Bytes    int
	TopLevel string
	Keys     []string
	Envelope string // key the records were read from; empty for a bare array
	Count    int
	Samples  []string
	Authors  []AuthorCount
}

type AuthorCount struct {
	Name  string
	Count int
}

// Inspect describes body without answering anything: its top-level type and
// keys, how many records it holds, the first few records and who wrote most.
func Inspect(body []byte) (*Report, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON (%d bytes)", len(body))
	}
	doc := gjson.ParseBytes(body)
	r := &Report{Bytes: len(body), TopLevel: kindOf(doc)}
	if doc.IsObject() {
		doc.ForEach(func(key, _ gjson.Result) bool {
			r.Keys = append(r.Keys, key.String())
			return true
		})
	}

	list, envelope, err := unwrap(body)
	if err != nil {
		return r, err
	}
	r.Envelope = envelope
	if !list.IsArray() {
		return r, nil
	}

	counts := map[string]int{}
	elems := list.Array()
	r.Count = len(elems)
	for i, e := range elems {
		if i < sampleRecords {
			r.Samples = append(r.Samples, string(pretty.Pretty([]byte(e.Raw))))
		}
		counts[authorOf(e)]++
	}
	for name, n := range counts {
		r.Authors = append(r.Authors, AuthorCount{Name: name, Count: n})
	}
	slices.SortFunc(r.Authors, func(a, b AuthorCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Name, b.Name)
	})
	if len(r.Authors) > topAuthors {
		r.Authors = r.Authors[:topAuthors]
	}
	return r, nil
}

func authorOf(e gjson.Result) string {
	if !e.IsObject() {
		return unknownAuthor
	}
	fields := map[string]string{}
	e.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String && strings.TrimSpace(value.String()) != "" {
			fields[key.String()] = value.String()
		}
		return true
	})
	for _, f := range inspectAuthorFields {
		if name, ok := fields[f]; ok {
			return name
		}
	}
	return unknownAuthor
}

// Print writes the report in a human-readable layout.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Response bytes: %d\n", r.Bytes)
	fmt.Fprintf(w, "Top-level type: %s\n", r.TopLevel)
	if len(r.Keys) > 0 {
		fmt.Fprintf(w, "Top-level keys: %s\n", strings.Join(r.Keys, ", "))
	}
	if r.Envelope != "" {
		fmt.Fprintf(w, "Records read from: %q\n", r.Envelope)
	}
	fmt.Fprintf(w, "Total messages: %d\n", r.Count)
	for i, s := range r.Samples {
		fmt.Fprintf(w, "\n--- Message %d ---\n%s", i, s)
	}
	if len(r.Authors) > 0 {
		fmt.Fprintf(w, "\nTop authors (%d):\n", topAuthors)
		for _, a := range r.Authors {
			fmt.Fprintf(w, "%s %d\n", a.Name, a.Count)
		}
	}
}

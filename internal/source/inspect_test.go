package source

import (
	"bytes"
	"strings"
	"testing"
)

func TestInspect_Envelope(t *testing.T) {
	body := []byte(`{"total":4,"items":[
		{"user_name":"Ana","message":"a"},
		{"user_name":"Ben","message":"b"},
		{"user_name":"Ana","message":"c"},
		{"message":"orphan"}
	]}`)
	r, err := Inspect(body)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if r.TopLevel != "object" || r.Envelope != "items" || r.Count != 4 {
		t.Fatalf("unexpected report: %+v", r)
	}
	if len(r.Keys) != 2 || r.Keys[0] != "total" || r.Keys[1] != "items" {
		t.Errorf("expected keys in document order, got %v", r.Keys)
	}
	if len(r.Samples) != 3 {
		t.Errorf("expected 3 samples, got %d", len(r.Samples))
	}
	if len(r.Authors) != 3 || r.Authors[0] != (AuthorCount{Name: "Ana", Count: 2}) {
		t.Errorf("unexpected author histogram: %+v", r.Authors)
	}
	if r.Authors[1].Name != "Ben" || r.Authors[2].Name != unknownAuthor {
		t.Errorf("ties should sort by name: %+v", r.Authors)
	}
}

func TestInspect_BareArray(t *testing.T) {
	r, err := Inspect([]byte(`[{"author":"Zoe"}]`))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if r.TopLevel != "array" || r.Envelope != "" || r.Count != 1 || r.Authors[0].Name != "Zoe" {
		t.Fatalf("unexpected report: %+v", r)
	}
}

func TestInspect_InvalidJSON(t *testing.T) {
	if _, err := Inspect([]byte("<html>")); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}

func TestInspect_ScalarReportsShape(t *testing.T) {
	r, err := Inspect([]byte(`"text"`))
	if err == nil {
		t.Fatal("expected shape error")
	}
	if r == nil || r.TopLevel != "string" {
		t.Fatalf("expected partial report with top-level type, got %+v", r)
	}
}

func TestReport_Print(t *testing.T) {
	r, _ := Inspect([]byte(`{"messages":[{"user":"Ana","text":"hi"}]}`))
	var buf bytes.Buffer
	r.Print(&buf)
	out := buf.String()
	for _, want := range []string{"Top-level type: object", "Total messages: 1", "--- Message 0 ---", "Ana 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

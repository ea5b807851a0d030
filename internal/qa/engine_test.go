package qa

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"chatqa/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func groupChat() []domain.Record {
	return []domain.Record{
		msg("Layla Kawaguchi", "Planning my trip to London on 2025-11-10. Can't wait!"),
		msg("Vikram Desai", "Please book a car service to the airport."),
		msg("Amira Khan", "We had dinner at The French Laundry last night."),
		msg("Amira Khan", "I own a sedan, parked downtown."),
		msg("Vikram Desai", `Lunch was great, loved "Chez Pierre".`),
		msg("Sophia Al-Farsi", "I need a flight to Paris next month."),
		domain.RecordFromMap(map[string]any{"message": "random unattributed note about the trip"}),
		msg("Hans Muller", "Reserve a table for lunch please."),
	}
}

func TestEngine_EndToEndCarCount(t *testing.T) {
	e := NewEngine(testLogger())
	records := []domain.Record{
		domain.RecordFromMap(map[string]any{"user_name": "Ana", "message": "I have two cars and love them"}),
	}
	got, err := e.Answer("How many cars does Ana have?", records)
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if !strings.Contains(got, "Ana has 2 car(s)") {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestEngine_GroupChat(t *testing.T) {
	e := NewEngine(testLogger())
	records := groupChat()

	tests := []struct {
		question string
		want     string
	}{
		{"When is Layla planning her trip to London?", "Layla Kawaguchi mentioned trip date(s): 2025-11-10."},
		{"Who is travelling?", "Layla Kawaguchi: 2025-11-10 | Sophia Al-Farsi: next month"},
		{"How many cars does Vikram Desai have?", `Vikram Desai mentions cars (topic): "Please book a car service to the airport."`},
		{"How many cars does Amira have?", "Amira Khan has 1 car(s) (in messages)."},
		{"Who owns a car?", "Amira Khan: 1"},
		{"What are Amira's favorite restaurants?", "Amira Khan's mentioned restaurants: The French Laundry last night"},
		{"Where does Vikram like to eat?", "Vikram Desai's mentioned restaurants: Chez Pierre"},
		{"Any restaurant suggestions?", `Vikram Desai: Chez Pierre | Amira Khan: The French Laundry last night | Hans Muller: "Reserve a table for lunch please."`},
		{"Where does Hans eat?", `Hans Muller mentioned restaurants/food: "Reserve a table for lunch please."`},
		{"What does Sophia need?", `Sophia Al-Farsi: "I need a flight to Paris next month."`},
		{"paris please", `Vikram Desai: "Please book a car service to the airport."`},
		{"zzz qqq", NoAnswer},
		{"What about Hans's car?", "No car information found for Hans Muller."},
		{"How many cars does Layla have?", "No car information found for Layla Kawaguchi."},
	}
	for _, tt := range tests {
		got, err := e.Answer(tt.question, records)
		if err != nil {
			t.Fatalf("Answer(%q) failed: %v", tt.question, err)
		}
		if got != tt.want {
			t.Errorf("Answer(%q)\n got: %s\nwant: %s", tt.question, got, tt.want)
		}
	}
}

func TestEngine_TripWithoutDates(t *testing.T) {
	e := NewEngine(testLogger())
	records := []domain.Record{
		msg("Ben Kim", "Thinking about a trip somewhere warm. Any ideas?"),
		msg("Ana Lopez", "Nothing planned."),
	}

	got, _ := e.Answer("When is Ben's trip?", records)
	if got != `Ben Kim mentioned travel: "Thinking about a trip somewhere warm."` {
		t.Errorf("unexpected answer: %q", got)
	}

	got, _ = e.Answer("When does Ana travel?", records)
	if got != "No explicit trip date found for Ana Lopez in the messages." {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestEngine_TripSubstringWithoutSentenceFallsBack(t *testing.T) {
	e := NewEngine(testLogger())
	records := []domain.Record{msg("Ben Kim", "The visitors arrived.")}
	got, _ := e.Answer("who is going to travel?", records)
	if got != NoTripInfo {
		t.Errorf("expected fallback when no line can be built, got %q", got)
	}
}

func TestEngine_CarPossessionWithoutCount(t *testing.T) {
	e := NewEngine(testLogger())
	records := []domain.Record{msg("Ana Lopez", "The mechanic says my car is fine.")}
	got, _ := e.Answer("Does Ana have a car?", records)
	want := `Ana Lopez indicates ownership/possession: "The mechanic says my car is fine." (no explicit count found).`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEngine_CarTopicalWhenNobodyOwns(t *testing.T) {
	e := NewEngine(testLogger())
	records := []domain.Record{
		msg("Ana Lopez", "Book a car to the gala."),
		msg("Ben Kim", "Any news?"),
	}
	got, _ := e.Answer("who needs cars?", records)
	if got != `Ana Lopez: "Book a car to the gala."` {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestEngine_OwnershipHitsAreCapped(t *testing.T) {
	e := NewEngine(testLogger())
	var records []domain.Record
	for _, n := range []string{"A1", "B2", "C3", "D4", "E5", "F6", "G7", "H8", "I9", "J10"} {
		records = append(records, msg("Zed "+n, "I have 2 cars."))
	}
	got, _ := e.Answer("who has cars?", records)
	if parts := strings.Split(got, " | "); len(parts) != maxOwnershipHits {
		t.Errorf("expected %d hits, got %d: %q", maxOwnershipHits, len(parts), got)
	}
}

func TestEngine_TripHitsAreCapped(t *testing.T) {
	e := NewEngine(testLogger())
	records := []domain.Record{
		msg("Zed A1", "Trip on 2025-01-01."),
		msg("Zed B2", "Trip on 2025-01-02."),
		msg("Zed C3", "The visitors arrived."),
		msg("Zed D4", "Trip on 2025-01-04."),
		msg("Zed E5", "Trip on 2025-01-05."),
		msg("Zed F6", "Planning a trip soon."),
		msg("Zed G7", "Trip on 2025-01-07."),
		msg("Zed H8", "Trip on 2025-01-08."),
	}
	got, _ := e.Answer("who is travelling?", records)
	want := "Zed A1: 2025-01-01 | Zed B2: 2025-01-02 | Zed D4: 2025-01-04 | Zed E5: 2025-01-05 | Zed F6: Planning a trip soon."
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestEngine_RestaurantHitsAreCapped(t *testing.T) {
	e := NewEngine(testLogger())
	var records []domain.Record
	for _, n := range []string{"A1", "B2", "C3", "D4", "E5", "F6", "G7", "H8", "I9", "J10"} {
		records = append(records, msg("Zed "+n, "Dinner at Nobu."))
	}
	got, _ := e.Answer("any restaurant suggestions?", records)
	parts := strings.Split(got, " | ")
	if len(parts) != maxRestaurantHits {
		t.Fatalf("expected %d hits, got %d: %q", maxRestaurantHits, len(parts), got)
	}
	if parts[0] != "Zed A1: Nobu" || parts[len(parts)-1] != "Zed H8: Nobu" {
		t.Errorf("expected the first participants in order, got %q", got)
	}
}

func TestEngine_TopicalCarHitsAreCapped(t *testing.T) {
	e := NewEngine(testLogger())
	var records []domain.Record
	for _, n := range []string{"A1", "B2", "C3", "D4", "E5", "F6", "G7", "H8", "I9", "J10", "K11", "L12"} {
		records = append(records, msg("Zed "+n, "Book a car to the gala."))
	}
	got, _ := e.Answer("who needs cars?", records)
	parts := strings.Split(got, " | ")
	if len(parts) != maxTopicalCarHits {
		t.Fatalf("expected %d hits, got %d: %q", maxTopicalCarHits, len(parts), got)
	}
	if parts[len(parts)-1] != `Zed J10: "Book a car to the gala."` {
		t.Errorf("unexpected last hit: %q", parts[len(parts)-1])
	}
}

func TestEngine_EmptyMessagesNeverFail(t *testing.T) {
	e := NewEngine(testLogger())
	tests := map[string]string{
		"When is the trip?": NoTripInfo,
		"how many cars?":    NoCarInfo,
		"best restaurant?":  NoRestaurantInfo,
		"hello":             NoAnswer,
		"":                  NoAnswer,
	}
	for q, want := range tests {
		got, err := e.Answer(q, nil)
		if err != nil {
			t.Fatalf("Answer(%q) failed: %v", q, err)
		}
		if got != want {
			t.Errorf("Answer(%q) = %q, want %q", q, got, want)
		}
	}
}

func TestEngine_MalformedRecordsDegrade(t *testing.T) {
	e := NewEngine(testLogger())
	records := []domain.Record{
		{Object: false},
		domain.RecordFromMap(map[string]any{"user_name": 12, "message": []any{"x"}}),
		domain.RecordFromMap(map[string]any{"user_name": "Ana", "message": "I have a van."}),
	}
	got, err := e.Answer("How many vehicles does Ana own?", records)
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if got != "Ana has 1 car(s) (in messages)." {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestEngine_UnattributedTextIsNeverNamed(t *testing.T) {
	e := NewEngine(testLogger())
	records := []domain.Record{
		domain.RecordFromMap(map[string]any{"message": "zebra crossing notes"}),
	}
	if got, _ := e.Answer("zebra", records); got != NoAnswer {
		t.Errorf("expected no answer from unattributed text, got %q", got)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	e := NewEngine(testLogger())
	records := groupChat()
	for _, q := range []string{"Who is travelling?", "Any restaurant suggestions?", "paris please"} {
		first, _ := e.Answer(q, records)
		second, _ := e.Answer(q, records)
		if first != second {
			t.Errorf("answers differ for %q: %q vs %q", q, first, second)
		}
	}
}

func TestEngine_Classify(t *testing.T) {
	e := NewEngine(nil)
	tests := []struct {
		question string
		want     domain.Intent
	}{
		{"When is the flight?", domain.IntentTrip},
		{"Do they visit by car?", domain.IntentTrip},
		{"How many vehicles?", domain.IntentCar},
		{"Who owns a boat?", domain.IntentCar},
		{"Where is dinner?", domain.IntentRestaurant},
		{"What is the wifi password?", domain.IntentGeneric},
	}
	for _, tt := range tests {
		if got := e.Classify(tt.question); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.question, got, tt.want)
		}
	}
}

func TestEngine_AskReportsMetadata(t *testing.T) {
	e := NewEngine(testLogger())
	ans, err := e.Ask("How many cars does Amira have?", groupChat())
	if err != nil {
		t.Fatal(err)
	}
	if ans.Intent != domain.IntentCar || ans.Name != "Amira Khan" {
		t.Errorf("unexpected metadata: %+v", ans)
	}
}

func TestEngine_PanicBecomesInternalError(t *testing.T) {
	e := NewEngine(testLogger())
	e.routes = append([]route{{
		intent:   domain.IntentTrip,
		triggers: []string{"boom"},
		handle:   func(*query) string { panic("extractor exploded") },
	}}, e.routes...)

	_, err := e.Answer("boom", nil)
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

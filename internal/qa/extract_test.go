package qa

import (
	"reflect"
	"testing"
)

func TestExtractDates(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"I leave 2025-11-10 for the trip", []string{"2025-11-10"}},
		{"See you next week", []string{"next week"}},
		{
			"Flying out on March 5, 2025 and back 12th of Apr, maybe in 3 days or tomorrow",
			[]string{"March 5, 2025", "12th of Apr", "in 3 days", "tomorrow"},
		},
		{"Sept 9 or 3 December", []string{"Sept 9", "3 December"}},
		{"TOMORROW and tomorrow", []string{"TOMORROW", "tomorrow"}},
		{"no dates here", nil},
	}
	for _, tt := range tests {
		if got := ExtractDates(tt.text); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ExtractDates(%q) = %#v, want %#v", tt.text, got, tt.want)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("One. Two!  Three? Four...five")
	want := []string{"One.", "Two!", "Three?", "Four...five"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitSentences = %#v, want %#v", got, want)
	}
}

func TestSentencesWithKeywords_WholeWord(t *testing.T) {
	got := SentencesWithKeywords("I love my car. The scary van! Cars are fun? ok", CarKeywords)
	want := []string{"I love my car.", "The scary van!", "Cars are fun?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}

	if got := SentencesWithKeywords("Scary carpets everywhere.", CarKeywords); len(got) != 0 {
		t.Errorf("substring inside a word must not match, got %#v", got)
	}
}

func TestSentencesWithKeywords_MultiWordKeyword(t *testing.T) {
	got := SentencesWithKeywords("We are going to Rome. Staying home.", TripKeywords)
	if !reflect.DeepEqual(got, []string{"We are going to Rome."}) {
		t.Errorf("unexpected sentences: %#v", got)
	}
}

func TestNumbersNearKeyword(t *testing.T) {
	tests := []struct {
		text string
		want []int
	}{
		{"I have two cars", []int{2, 2}},
		{"cars: 3 and 2 vans", []int{3, 3}},
		{"we own 4 old rusty vehicles", []int{4, 4}},
		{"I like cars", nil},
		{"car-7 is parked", []int{7}},
	}
	for _, tt := range tests {
		if got := NumbersNearKeyword(tt.text, CarKeywords); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("NumbersNearKeyword(%q) = %#v, want %#v", tt.text, got, tt.want)
		}
	}
}

func TestOwnershipCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"I have two cars", 2},
		{"I have a car", 1},
		{"I rented a car yesterday", 1},
		{"We own a sedan and three bikes", 3},
		{"Please book a car service to the airport.", 0},
		{"Nice weather today", 0},
		{"my car is red", 0},
	}
	for _, tt := range tests {
		if got := OwnershipCount(tt.text); got != tt.want {
			t.Errorf("OwnershipCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestRestaurantNames(t *testing.T) {
	tests := []struct {
		sentence string
		want     []string
	}{
		{"We ate at The French Laundry", []string{"The French Laundry"}},
		{`Loved "Chez Pierre"`, []string{"Chez Pierre"}},
		{`Loved “Chez Pierre”`, []string{"Chez Pierre"}},
		{`Booked "Nobu" then lunch at Chez Pierre`, []string{"Nobu", "Chez Pierre"}},
		{`"Nobu" again at Nobu`, []string{"Nobu"}},
		{"dinner at home tonight", nil},
	}
	for _, tt := range tests {
		if got := RestaurantNames(tt.sentence); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("RestaurantNames(%q) = %#v, want %#v", tt.sentence, got, tt.want)
		}
	}
}

func TestOwnershipCount_FirstQuantityNearKeyword(t *testing.T) {
	for _, text := range []string{"cars: 3 and 2 vans", "we own 4 old rusty vehicles", "car-7 is parked"} {
		nums := NumbersNearKeyword(text, CarKeywords)
		if len(nums) == 0 {
			t.Fatalf("NumbersNearKeyword(%q) found nothing", text)
		}
		if got := OwnershipCount(text); got != nums[0] {
			t.Errorf("OwnershipCount(%q) = %d, want first quantity %d", text, got, nums[0])
		}
	}
}

func TestSentencesWithKeywords_CustomSet(t *testing.T) {
	got := SentencesWithKeywords("Bring snacks. Nothing else! Snack time?", []string{"snacks"})
	if !reflect.DeepEqual(got, []string{"Bring snacks."}) {
		t.Errorf("unexpected sentences: %#v", got)
	}
	if got := SentencesWithKeywords("anything", nil); got != nil {
		t.Errorf("expected nil for an empty keyword set, got %#v", got)
	}
}

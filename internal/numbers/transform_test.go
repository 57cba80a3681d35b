package numbers

import (
	"strings"
	"testing"
)

func TestTransformCardinalWithOrdinalSuffix(t *testing.T) {
	opts := Options{UseSeparator: true}
	got := Transform("three million five hundred and sixty second", opts)
	if got != "3,000,562nd" {
		t.Fatalf("expected 3,000,562nd, got %q", got)
	}
}

func TestTransformDigitSeries(t *testing.T) {
	got := Transform("two four six eight", Options{UseSeparator: true})
	if got != "2,468" {
		t.Fatalf("expected 2,468, got %q", got)
	}
	got = Transform("two four six eight", Options{})
	if got != "2468" {
		t.Fatalf("expected 2468 without separator, got %q", got)
	}
}

func TestTransformLeavesPlainTextUntouched(t *testing.T) {
	const text = "the quick brown fox"
	if got := Transform(text, Options{UseSeparator: true}); got != text {
		t.Fatalf("expected unchanged text, got %q", got)
	}
}

func TestTransformCardinals(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"one", "1"},
		{"twenty one", "21"},
		{"one hundred and one", "101"},
		{"three hundred and two", "302"},
		{"nine hundred and ninety nine", "999"},
		{"one thousand", "1000"},
		{"hundred", "100"},
		{"fifty five", "55"},
		{"nineteen ninety nine", "1999"},
		{"twenty twelve", "2012"},
		{"twenty twenty", "2020"},
	}
	for _, tc := range cases {
		if got := Transform(tc.in, Options{}); got != tc.want {
			t.Errorf("Transform(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTransformOrdinals(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"first", "1st"},
		{"second", "2nd"},
		{"third", "3rd"},
		{"fourth", "4th"},
		{"eleventh", "11th"},
		{"twelfth", "12th"},
		{"thirteenth", "13th"},
		{"twenty first", "21st"},
		{"sixty second", "62nd"},
		{"hundredth", "100th"},
	}
	for _, tc := range cases {
		if got := Transform(tc.in, Options{}); got != tc.want {
			t.Errorf("Transform(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTransformAmbiguousAnd(t *testing.T) {
	if got := Transform("one and two", Options{}); got != "1 and 2" {
		t.Fatalf("expected trailing and left as text, got %q", got)
	}
	if got := Transform("thirteen and fifty five", Options{}); got != "13 and 55" {
		t.Fatalf("expected 13 and 55, got %q", got)
	}
}

func TestTransformSeriesDelimiting(t *testing.T) {
	if got := Transform("one hundred two hundred", Options{}); got != "100 200" {
		t.Fatalf("expected 100 200, got %q", got)
	}
}

func TestTransformOperators(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"three point five", "3.5"},
		{"ten divided by two", "10 / 2"},
		{"six times seven", "6 * 7"},
		{"nine minus four", "9 - 4"},
		{"nine plus four", "9 + 4"},
		{"nine modulo four", "9 % 4"},
	}
	for _, tc := range cases {
		if got := Transform(tc.in, Options{}); got != tc.want {
			t.Errorf("Transform(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTransformMinValue(t *testing.T) {
	min := 10
	opts := Options{MinValue: &min}
	if got := Transform("no one was there", opts); got != "no one was there" {
		t.Fatalf("expected small value restored, got %q", got)
	}
	if got := Transform("chapter eleven", opts); got != "chapter 11" {
		t.Fatalf("expected 11 kept, got %q", got)
	}
}

func TestTransformNoSuffix(t *testing.T) {
	opts := Options{NoSuffix: true}
	if got := Transform("the first one", opts); got != "the first 1" {
		t.Fatalf("expected ordinal skipped, got %q", got)
	}
}

func TestTransformMixedSentence(t *testing.T) {
	got := Transform("call me at five five five one two one two today", Options{})
	if got != "call me at 5551212 today" {
		t.Fatalf("unexpected series grouping: %q", got)
	}
}

// Rendering a digit series and re-reading the rendered digits must
// reproduce the spoken digit sequence, for any sequence of digit words.
func TestDigitSeriesRoundTrip(t *testing.T) {
	digits := []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
	sequences := [][]int{
		{2, 4, 6, 8},
		{0, 7, 1},
		{9, 9, 9, 9, 9},
		{1, 0, 0, 1},
		{5},
	}
	for _, seq := range sequences {
		words := make([]string, len(seq))
		for i, d := range seq {
			words[i] = digits[d]
		}
		got := Transform(strings.Join(words, " "), Options{})
		want := make([]byte, len(seq))
		for i, d := range seq {
			want[i] = byte('0' + d)
		}
		if got != string(want) {
			t.Errorf("sequence %v rendered as %q, want %q", seq, got, want)
		}
	}
}

package content

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 50000), 12500},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.in); got != tc.want {
			t.Fatalf("EstimateTokens(len=%d)=%d want %d", len(tc.in), got, tc.want)
		}
	}
}

func TestEstimateTokensMonotonic(t *testing.T) {
	prev := 0
	for n := 0; n < 200; n++ {
		got := EstimateTokens(strings.Repeat("é", n))
		if got < prev {
			t.Fatalf("estimate decreased at n=%d: %d < %d", n, got, prev)
		}
		prev = got
	}
}

func TestEstimateTokensFromWords(t *testing.T) {
	if got := EstimateTokensFromWords(10, 1.3); got != 13 {
		t.Fatalf("got %d want 13", got)
	}
	if got := EstimateTokensFromWords(3, 0); got != 4 {
		t.Fatalf("default ratio: got %d want 4", got)
	}
}

func TestFitsInModel(t *testing.T) {
	if !FitsInModel(100, 100) {
		t.Fatalf("limit should be inclusive")
	}
	if FitsInModel(101, 100) {
		t.Fatalf("101 should not fit in 100")
	}
}

func TestCountWords(t *testing.T) {
	if got := CountWords("  one two\n\tthree  "); got != 3 {
		t.Fatalf("got %d want 3", got)
	}
}

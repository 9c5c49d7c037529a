package dedup

import "testing"

func TestSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"Jane", "Jane", 1},
		{"Jane", "jane", 1},
		{" Jane ", "jane", 1},
		{"Jane", "Jayne", 0.8},
		{"Jane", "", 0},
		{"", "", 1},
		{"abc", "xyz", 0},
	}
	for _, tc := range cases {
		got := similarity(tc.a, tc.b)
		if got < tc.want-0.001 || got > tc.want+0.001 {
			t.Errorf("similarity(%q, %q) = %f, want %f", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"", "abc", 3},
		{"abc", "abc", 0},
	}
	for _, tc := range cases {
		if got := levenshtein([]rune(tc.a), []rune(tc.b)); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestParseFloatDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  float64
		want float64
	}{
		{"", 1.5, 1.5},
		{"9.75", 0, 9.75},
		{"-2", 1, -2},
		{"nope", 3.25, 3.25},
	}

	for _, tc := range cases {
		if got := ParseFloatDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("ParseFloatDefault(%q, %v) = %v; want %v", tc.s, tc.def, got, tc.want)
		}
	}
}

package utils

import "testing"

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{"simple dollar price", "$19.99", 19.99, true},
		{"price with thousands separator", "AED 1,079.00", 1079.00, true},
		{"price inside longer text", "List Price: $1,219.41", 1219.41, true},
		{"integer price", "250", 250, true},
		{"no number at all", "No Price", 0, false},
		{"empty string", "", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParsePrice(tc.input)
			if ok != tc.ok {
				t.Fatalf("ParsePrice(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if got != tc.expected {
				t.Errorf("ParsePrice(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{"rating text", "4.5 out of 5 stars", 4.5, true},
		{"integer rating", "5 stars", 5, true},
		{"no number", "not rated", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseNumber(tc.input)
			if ok != tc.ok {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if got != tc.expected {
				t.Errorf("ParseNumber(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestParseCount(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected int
		ok       bool
	}{
		{"plain count", "87", 87, true},
		{"count with thousands separator", "1,234", 1234, true},
		{"no count", "no reviews yet", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseCount(tc.input)
			if ok != tc.ok {
				t.Fatalf("ParseCount(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if got != tc.expected {
				t.Errorf("ParseCount(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

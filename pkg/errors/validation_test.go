package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateStorageKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "graph", false},
		{"with dash", "my-graph", false},
		{"with dot", "graph.v2", false},
		{"uuid", "3f4e5d6c-7b8a-49f0-ae1d-2c3b4a5e6d7f", false},

		{"empty", "", true},
		{"too long", strings.Repeat("k", 300), true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"traversal", "..", true},
		{"null byte", "a\x00b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStorageKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStorageKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidKey) {
				t.Errorf("ValidateStorageKey(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidKey)
			}
		})
	}
}

func TestValidateColor(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"#94a3b8", false},
		{"#FFF", false},
		{"#000000", false},

		{"", true},
		{"94a3b8", true},
		{"#12345", true},
		{"#gggggg", true},
		{"red", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRadius(t *testing.T) {
	tests := []struct {
		input   float64
		wantErr bool
	}{
		{20, false},
		{0.5, false},
		{0, true},
		{-3, true},
		{math.NaN(), true},
		{math.Inf(1), true},
	}
	for _, tt := range tests {
		if err := ValidateRadius(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ValidateRadius(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "graphs/eco.json", false},
		{"absolute", "/tmp/eco.json", false},
		{"empty", "", true},
		{"null byte", "a\x00.json", true},
		{"too long", strings.Repeat("a", 5000), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePath(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

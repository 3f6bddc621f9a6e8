package common

import (
	"testing"
)

func TestSanitizeFolderName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain name", "Sheet1", "Sheet1"},
		{"spaces to underscores", "Annual Reports 2024", "Annual_Reports_2024"},
		{"invalid characters removed", `Vol: 3 <draft>?`, "Vol_3_draft"},
		{"path separators removed", `a/b\c`, "abc"},
		{"pipe and quotes removed", `"Misc" | Other`, "Misc__Other"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFolderName(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeFolderName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

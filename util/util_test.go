package util

import (
	"os"
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Create a temporary version.txt file
	content := "v1.0.0-test"
	err := os.WriteFile("version.txt", []byte(content), 0644)
	if err != nil {
		t.Fatalf("Failed to create test version.txt: %v", err)
	}
	defer os.Remove("version.txt")

	version := GetVersion()
	if version != content {
		t.Errorf("Expected version '%s', got '%s'", content, version)
	}
}

func TestGetNameAndVersion(t *testing.T) {
	// Create a temporary version.txt file
	content := "v1.0.0"
	err := os.WriteFile("version.txt", []byte(content), 0644)
	if err != nil {
		t.Fatalf("Failed to create test version.txt: %v", err)
	}
	defer os.Remove("version.txt")

	result := GetNameAndVersion()
	expected := "dodo / v1.0.0"

	if result != expected {
		t.Errorf("Expected '%s', got '%s'", expected, result)
	}
}

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "leading at stripped",
			input:    "@alice",
			expected: "alice",
		},
		{
			name:     "lowercased",
			input:    "ALICE",
			expected: "alice",
		},
		{
			name:     "at and case combined",
			input:    "@Alice",
			expected: "alice",
		},
		{
			name:     "surrounding whitespace",
			input:    "  @Bob  ",
			expected: "bob",
		},
		{
			name:     "already normalized",
			input:    "carol",
			expected: "carol",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeHandle(tt.input)
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestNormalizeHandleIdempotent(t *testing.T) {
	once := NormalizeHandle("@Alice")
	twice := NormalizeHandle(once)

	if once != twice {
		t.Errorf("NormalizeHandle should be idempotent: %s != %s", once, twice)
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "short text untouched",
			input:    "hello",
			maxLen:   10,
			expected: "hello",
		},
		{
			name:     "exact length untouched",
			input:    "hello",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "long text truncated with ellipsis",
			input:    "hello world",
			maxLen:   8,
			expected: "hello...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TruncateText(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestDateTimeFormat(t *testing.T) {
	format := DateTimeFormat()
	expected := "2006-01-02 15:04:05 CEST"

	if format != expected {
		t.Errorf("Expected format '%s', got '%s'", expected, format)
	}
}

func TestPrettyPrint(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{
			name:  "simple map",
			input: map[string]string{"key": "value"},
		},
		{
			name:  "nested structure",
			input: map[string]interface{}{"outer": map[string]int{"inner": 42}},
		},
		{
			name:  "array",
			input: []int{1, 2, 3, 4, 5},
		},
		{
			name:  "string",
			input: "simple string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PrettyPrint(tt.input)
			if len(result) == 0 {
				t.Error("PrettyPrint returned empty string")
			}
		})
	}
}

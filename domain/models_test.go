package domain

import (
	"testing"
	"time"
)

func TestPostRepliedToId(t *testing.T) {
	post := Post{
		Id: "100",
		Refs: []PostRef{
			{Type: RefQuoted, Id: "50"},
			{Type: RefRepliedTo, Id: "42"},
		},
	}

	if got := post.RepliedToId(); got != "42" {
		t.Errorf("Expected replied_to id '42', got '%s'", got)
	}
}

func TestPostRepliedToIdAbsent(t *testing.T) {
	post := Post{Id: "100", Refs: []PostRef{{Type: RefQuoted, Id: "50"}}}

	if got := post.RepliedToId(); got != "" {
		t.Errorf("Expected empty replied_to id, got '%s'", got)
	}
}

func TestPostIsRepost(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{
			name:     "plain repost",
			text:     "RT @bob hello",
			expected: true,
		},
		{
			name:     "normal mention",
			text:     "@alice nice work",
			expected: false,
		},
		{
			name:     "repost marker mid-text",
			text:     "not a RT @bob",
			expected: false,
		},
		{
			name:     "empty text",
			text:     "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := Post{Text: tt.text}
			if post.IsRepost() != tt.expected {
				t.Errorf("IsRepost(%q) = %v, expected %v", tt.text, post.IsRepost(), tt.expected)
			}
		})
	}
}

func TestConversationToString(t *testing.T) {
	conv := &Conversation{
		Id:        "123",
		Author:    "carol",
		Text:      "Test message",
		CreatedAt: time.Now(),
	}

	result := conv.ToString()

	if len(result) == 0 {
		t.Error("ToString() returned empty string")
	}

	if !contains(result, "carol") {
		t.Errorf("ToString() should contain author, got: %s", result)
	}

	if !contains(result, "Test message") {
		t.Errorf("ToString() should contain text, got: %s", result)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

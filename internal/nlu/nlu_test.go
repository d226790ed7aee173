package nlu

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	r := NewRewriter(Config{Commands: []string{"open", "volume up", "mute"}})

	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`{"command": "volume up", "arg": ""}`, "volume up", false},
		{`{"command": "Open", "arg": "firefox"}`, "open firefox", false},
		{` {"command": ""} `, "", false},
		{`{"command": "format disk"}`, "", true},
		{`volume up`, "", true},
	}

	for _, tt := range tests {
		got, err := r.parse(tt.raw)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("parse(%q) = %q, %v; want %q, err %v", tt.raw, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestPromptListsCommands(t *testing.T) {
	r := NewRewriter(Config{Commands: []string{"open", "sleep"}})
	if !strings.Contains(r.prompt, `- "open"`) || !strings.Contains(r.prompt, `- "sleep"`) {
		t.Fatalf("prompt missing commands:\n%s", r.prompt)
	}
}

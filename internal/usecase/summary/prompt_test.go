package summary

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/markdex/internal/domain/search/result"
)

func TestBuildPrompt(t *testing.T) {
	results := []result.Ranked{
		result.New("https://a", "A", "first", 0.9, 1),
		result.New("https://b", "B", "", 0.8, 2),
		result.New("https://c", "C", "third", 0.7, 3),
	}
	got := BuildPrompt(" css ", results, 2)

	want := "Question: css\n\nBookmarks:\n1. A (https://a): first\n2. B (https://b)\n"
	if got != want {
		t.Errorf("BuildPrompt() = %q, want %q", got, want)
	}
	if strings.Contains(got, "https://c") {
		t.Error("prompt must respect maxResults")
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"", "", false},
		{"  ", "", false},
		{"NONE", "", false},
		{"none.", "", false},
		{"\"NONE\"", "", false},
		{" Tailwind is a CSS framework. ", "Tailwind is a CSS framework.", true},
		{"NONE of these are great, but A is close.", "NONE of these are great, but A is close.", true},
	}
	for _, tt := range tests {
		got, ok := ParseReply(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseReply(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/markdex/internal/domain"
)

func TestNewDefault(t *testing.T) {
	r, err := NewDefault("  css framework  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "css framework" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.TopK() != DefaultTopK {
		t.Errorf("TopK() = %d, want %d", r.TopK(), DefaultTopK)
	}
	if r.MinScore() != DefaultMinScore {
		t.Errorf("MinScore() = %f, want %f", r.MinScore(), DefaultMinScore)
	}
}

func TestNew_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", " ", "\t\n"} {
		if _, err := New(q, 10, 0.1); !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("New(%q): expected ErrEmptyQuery, got %v", q, err)
		}
	}
}

func TestNew_InvalidArguments(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		topK     int
		minScore float64
	}{
		{"zero topK", "q", 0, 0.1},
		{"negative topK", "q", -3, 0.1},
		{"negative minScore", "q", 5, -0.01},
		{"minScore above one", "q", 5, 1.01},
		{"query too long", strings.Repeat("q", MaxQueryLength+1), 5, 0.1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.query, tc.topK, tc.minScore)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestNew_Bounds(t *testing.T) {
	if _, err := New("q", 1, 0); err != nil {
		t.Errorf("topK=1 minScore=0: %v", err)
	}
	if _, err := New("q", MaxTopK, 1); err != nil {
		t.Errorf("topK=max minScore=1: %v", err)
	}
}

func TestNew_ClampsLargeTopK(t *testing.T) {
	for _, k := range []int{MaxTopK + 1, 1000} {
		r, err := New("css", k, 0.1)
		if err != nil {
			t.Fatalf("topK=%d: %v", k, err)
		}
		if r.TopK() != MaxTopK {
			t.Errorf("topK=%d: TopK() = %d, want %d", k, r.TopK(), MaxTopK)
		}
	}
}

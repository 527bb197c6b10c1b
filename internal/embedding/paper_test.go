package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBuildPaperText(t *testing.T) {
	t.Run("title repeated before abstract and body", func(t *testing.T) {
		got := BuildPaperText("AI", "ML", "research")
		if got != "AI AI ML research" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("empty parts skipped", func(t *testing.T) {
		if got := BuildPaperText("", "abstract only", ""); got != "abstract only" {
			t.Errorf("got %q", got)
		}
		if got := BuildPaperText("T", "", ""); got != "T T" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("full text capped", func(t *testing.T) {
		long := strings.Repeat("x", 5000)
		got := BuildPaperText("", "", long)
		if len(got) != 1000 {
			t.Errorf("full text length: got %d, want 1000", len(got))
		}
	})
	t.Run("all empty", func(t *testing.T) {
		if got := BuildPaperText("", "", ""); got != "" {
			t.Errorf("got %q", got)
		}
	})
}

func TestEmbedPaper_MatchesCompositeEmbedding(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	viaPaper, err := EmbedPaper(ctx, e, "AI", "ML", "research")
	if err != nil {
		t.Fatal(err)
	}
	viaText, err := e.Embed(ctx, "AI AI ML research")
	if err != nil {
		t.Fatal(err)
	}
	for i := range viaPaper {
		if viaPaper[i] != viaText[i] {
			t.Fatal("EmbedPaper must equal embedding the composite text directly")
		}
	}
}

func TestEmbedPaper_AllEmpty(t *testing.T) {
	e := NewMockEmbedder(8)
	if _, err := EmbedPaper(context.Background(), e, "", "", ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

package analysis

import (
	"testing"
)

func TestParseSections(t *testing.T) {
	t.Run("well formed output", func(t *testing.T) {
		text := `[SUMMARY]
This paper proposes a new attention mechanism.
[KEY CONTRIBUTIONS]
1. A faster kernel.
2. Better scaling.
[METHODOLOGY]
Experiments on three benchmarks.
[NOVELTY]
First linear-time variant.
[Q&A]
Q: Does it generalize? A: Yes.`
		got := ParseSections(text)
		if len(got) != 5 {
			t.Fatalf("sections: got %d, want 5: %v", len(got), got)
		}
		if got["summary"] != "This paper proposes a new attention mechanism." {
			t.Errorf("summary: %q", got["summary"])
		}
		if got["key_contributions"] != "1. A faster kernel.\n2. Better scaling." {
			t.Errorf("key_contributions: %q", got["key_contributions"])
		}
		if got["qa"] != "Q: Does it generalize? A: Yes." {
			t.Errorf("qa: %q", got["qa"])
		}
	})

	t.Run("case insensitive markers", func(t *testing.T) {
		got := ParseSections("[summary]\nlowercase works\n[Novelty]\nmixed too")
		if got["summary"] != "lowercase works" {
			t.Errorf("summary: %q", got["summary"])
		}
		if got["novelty"] != "mixed too" {
			t.Errorf("novelty: %q", got["novelty"])
		}
	})

	t.Run("no markers falls back to summary", func(t *testing.T) {
		got := ParseSections("The model just works.")
		if len(got) != 1 || got["summary"] != "The model just works." {
			t.Errorf("fallback: %v", got)
		}
	})

	t.Run("preamble before first marker ignored", func(t *testing.T) {
		got := ParseSections("Sure, here is the analysis:\n[SUMMARY]\ncontent")
		if got["summary"] != "content" {
			t.Errorf("summary: %q", got["summary"])
		}
		if len(got) != 1 {
			t.Errorf("sections: %v", got)
		}
	})

	t.Run("empty sections dropped", func(t *testing.T) {
		got := ParseSections("[SUMMARY]\nreal text\n[METHODOLOGY]\n[NOVELTY]\nnovel")
		if _, ok := got["methodology"]; ok {
			t.Error("empty methodology section should be dropped")
		}
		if got["novelty"] != "novel" {
			t.Errorf("novelty: %q", got["novelty"])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := ParseSections("   \n"); len(got) != 0 {
			t.Errorf("empty input: %v", got)
		}
	})

	t.Run("markers out of canonical order", func(t *testing.T) {
		got := ParseSections("[NOVELTY]\nfirst\n[SUMMARY]\nsecond")
		if got["novelty"] != "first" || got["summary"] != "second" {
			t.Errorf("out of order: %v", got)
		}
	})
}

package retriever

import (
	"context"
	"testing"

	"github.com/arxivmind/arxivmind/internal/embedding"
	"github.com/arxivmind/arxivmind/internal/models"
	"github.com/arxivmind/arxivmind/internal/vector"
)

func newTestRetriever(t *testing.T) (*Retriever, *vector.MemoryIndex) {
	t.Helper()
	idx, err := vector.NewMemoryIndex(16)
	if err != nil {
		t.Fatal(err)
	}
	return New(embedding.NewMockEmbedder(16), idx), idx
}

func addPapers(t *testing.T, r *Retriever, titles map[string]string) {
	t.Helper()
	ctx := context.Background()
	for id, title := range titles {
		paper := &models.Paper{ID: id, Title: title, Abstract: "abstract of " + title}
		if err := r.AddPaper(ctx, paper); err != nil {
			t.Fatalf("AddPaper(%s): %v", id, err)
		}
	}
}

func TestRetriever_AddPaperAndFindByText(t *testing.T) {
	r, idx := newTestRetriever(t)
	ctx := context.Background()
	addPapers(t, r, map[string]string{
		"p1": "Deep Residual Learning",
		"p2": "Attention Is All You Need",
		"p3": "Random Forests",
	})
	if idx.Size() != 3 {
		t.Fatalf("index size: got %d", idx.Size())
	}

	results, err := r.FindSimilarByText(ctx, "Attention Is All You Need Attention Is All You Need abstract of Attention Is All You Need", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	// The query mirrors p2's composite text, so p2 must rank first.
	if results[0].ID != "p2" {
		t.Errorf("top result: got %s, want p2", results[0].ID)
	}
	if results[0].Title != "Attention Is All You Need" {
		t.Errorf("title from metadata: got %q", results[0].Title)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Error("results not in descending similarity order")
		}
	}
}

func TestRetriever_AddPaperUpdatesExisting(t *testing.T) {
	r, idx := newTestRetriever(t)
	ctx := context.Background()
	addPapers(t, r, map[string]string{"p1": "old title"})
	if err := r.AddPaper(ctx, &models.Paper{ID: "p1", Title: "new title", Abstract: "a"}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 1 {
		t.Errorf("size after re-add: got %d", idx.Size())
	}
	rec, err := idx.Get(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Metadata["title"] != "new title" {
		t.Errorf("metadata after re-add: %v", rec.Metadata)
	}
}

func TestRetriever_FindByTextEdgeCases(t *testing.T) {
	r, _ := newTestRetriever(t)
	ctx := context.Background()
	t.Run("k zero", func(t *testing.T) {
		results, err := r.FindSimilarByText(ctx, "anything", 0)
		if err != nil || results != nil {
			t.Errorf("k=0: %v, %v", results, err)
		}
	})
	t.Run("empty query text", func(t *testing.T) {
		if _, err := r.FindSimilarByText(ctx, "", 5); err == nil {
			t.Error("empty text should error")
		}
	})
}

func TestRetriever_FindSimilarByGroup(t *testing.T) {
	r, _ := newTestRetriever(t)
	ctx := context.Background()
	addPapers(t, r, map[string]string{
		"p1": "convolutional networks",
		"p2": "recurrent networks",
		"p3": "support vector machines",
		"p4": "transformer models",
	})

	t.Run("excludes input group", func(t *testing.T) {
		results, err := r.FindSimilarByGroup(ctx, []string{"p1", "p2"}, 4, true)
		if err != nil {
			t.Fatal(err)
		}
		for _, res := range results {
			if res.ID == "p1" || res.ID == "p2" {
				t.Errorf("group member %s leaked into results", res.ID)
			}
		}
		if len(results) != 2 {
			t.Errorf("got %d results, want 2 remaining papers", len(results))
		}
	})

	t.Run("single id excludes itself", func(t *testing.T) {
		results, err := r.FindSimilarByGroup(ctx, []string{"p1"}, 3, true)
		if err != nil {
			t.Fatal(err)
		}
		for _, res := range results {
			if res.ID == "p1" {
				t.Error("input paper must not appear in its own results")
			}
		}
		if len(results) != 3 {
			t.Errorf("got %d results", len(results))
		}
	})

	t.Run("keeps input when not excluded", func(t *testing.T) {
		results, err := r.FindSimilarByGroup(ctx, []string{"p1"}, 4, false)
		if err != nil {
			t.Fatal(err)
		}
		// p1's own vector is the centroid, so p1 ranks first.
		if len(results) == 0 || results[0].ID != "p1" {
			t.Errorf("expected p1 first, got %+v", results)
		}
	})

	t.Run("missing ids skipped", func(t *testing.T) {
		results, err := r.FindSimilarByGroup(ctx, []string{"p1", "ghost"}, 2, true)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) == 0 {
			t.Error("expected results from the surviving group member")
		}
	})

	t.Run("all ids missing", func(t *testing.T) {
		results, err := r.FindSimilarByGroup(ctx, []string{"ghost1", "ghost2"}, 2, true)
		if err != nil {
			t.Fatalf("fully missing group must not error: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected empty result, got %d", len(results))
		}
	})

	t.Run("empty group", func(t *testing.T) {
		results, err := r.FindSimilarByGroup(ctx, nil, 2, true)
		if err != nil || results != nil {
			t.Errorf("empty group: %v, %v", results, err)
		}
	})
}

func TestRetriever_RemovePaper(t *testing.T) {
	r, idx := newTestRetriever(t)
	ctx := context.Background()
	addPapers(t, r, map[string]string{"p1": "to be removed"})
	if err := r.RemovePaper(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 0 {
		t.Errorf("size after remove: got %d", idx.Size())
	}
}

// Package integration exercises the full pipeline against real storage and
// indices on disk.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arxivmind/arxivmind/internal/config"
	"github.com/arxivmind/arxivmind/internal/embedding"
	"github.com/arxivmind/arxivmind/internal/extract"
	"github.com/arxivmind/arxivmind/internal/ingest"
	"github.com/arxivmind/arxivmind/internal/keyword"
	"github.com/arxivmind/arxivmind/internal/models"
	"github.com/arxivmind/arxivmind/internal/retriever"
	"github.com/arxivmind/arxivmind/internal/search"
	"github.com/arxivmind/arxivmind/internal/storage"
	"github.com/arxivmind/arxivmind/internal/vector"
)

type stack struct {
	storage   storage.Storage
	index     *vector.MemoryIndex
	keyword   *keyword.BleveIndex
	retriever *retriever.Retriever
	ingestor  *ingest.Ingestor
	engine    *search.Engine
}

func newStack(t *testing.T, dir string) *stack {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	embedder := embedding.NewMockEmbedder(32)
	index, err := vector.NewMemoryIndex(32)
	if err != nil {
		t.Fatal(err)
	}
	kw, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kw.Close() })

	r := retriever.New(embedder, index)
	cfg := &config.SearchConfig{
		DefaultLimit:   10,
		MaxLimit:       100,
		KeywordWeight:  0.5,
		SemanticWeight: 0.5,
		TitleBoost:     5.0,
	}
	return &stack{
		storage:   store,
		index:     index,
		keyword:   kw,
		retriever: r,
		ingestor:  ingest.New(store, r, kw, extract.NewExtractor()),
		engine:    search.NewEngine(store, embedder, index, kw, cfg),
	}
}

func TestIntegration_IngestSearchSimilarDelete(t *testing.T) {
	dir := t.TempDir()
	s := newStack(t, dir)
	ctx := context.Background()

	papers := []*models.Paper{
		{ID: "p1", Title: "Attention Is All You Need", Abstract: "the transformer architecture", Source: "arxiv"},
		{ID: "p2", Title: "Scaling Laws for Neural Language Models", Abstract: "transformer scaling behavior", Source: "arxiv"},
		{ID: "p3", Title: "Playing Atari with Deep Reinforcement Learning", Abstract: "q learning from pixels", Source: "arxiv"},
	}
	for _, p := range papers {
		if err := s.ingestor.IngestPaper(ctx, p); err != nil {
			t.Fatalf("IngestPaper(%s): %v", p.ID, err)
		}
	}

	// Hybrid search finds the transformer papers.
	resp, err := s.engine.Search(ctx, &models.SearchQuery{Query: "transformer"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	found := map[string]bool{}
	for _, r := range resp.Results {
		found[r.Paper.ID] = true
	}
	if !found["p1"] || !found["p2"] {
		t.Errorf("transformer papers missing from results: %v", found)
	}

	// Group similarity around p1+p2 excludes the group itself.
	similar, err := s.retriever.FindSimilarByGroup(ctx, []string{"p1", "p2"}, 5, true)
	if err != nil {
		t.Fatalf("FindSimilarByGroup: %v", err)
	}
	for _, hit := range similar {
		if hit.ID == "p1" || hit.ID == "p2" {
			t.Errorf("group member %s returned in excluded results", hit.ID)
		}
	}

	// Delete removes the paper from every component.
	if err := s.ingestor.Delete(ctx, "p3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.storage.GetPaper(ctx, "p3"); err == nil {
		t.Error("deleted paper still in storage")
	}
	if s.index.Size() != 2 {
		t.Errorf("vector index size = %d, want 2", s.index.Size())
	}
}

func TestIntegration_FileIngestAndPersistence(t *testing.T) {
	dir := t.TempDir()
	s := newStack(t, dir)
	ctx := context.Background()

	file := filepath.Join(dir, "generative_agents.txt")
	if err := os.WriteFile(file, []byte("Generative agents simulate believable human behavior."), 0o644); err != nil {
		t.Fatal(err)
	}
	paper, err := s.ingestor.IngestFile(ctx, file)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}

	// The vector index round-trips through its on-disk format.
	vectorPath := filepath.Join(dir, "vectors.bin")
	if err := s.index.Save(vectorPath); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := vector.NewMemoryIndex(32)
	if err != nil {
		t.Fatal(err)
	}
	if err := reloaded.Load(vectorPath); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Size() != 1 {
		t.Fatalf("reloaded index size = %d, want 1", reloaded.Size())
	}
	rec, err := reloaded.Get(ctx, paper.ID)
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if rec.Metadata["title"] != paper.Title {
		t.Errorf("reloaded title = %v, want %q", rec.Metadata["title"], paper.Title)
	}
}

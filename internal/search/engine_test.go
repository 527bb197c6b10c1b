package search

import (
	"context"
	"testing"

	"github.com/arxivmind/arxivmind/internal/config"
	"github.com/arxivmind/arxivmind/internal/embedding"
	"github.com/arxivmind/arxivmind/internal/keyword"
	"github.com/arxivmind/arxivmind/internal/models"
	"github.com/arxivmind/arxivmind/internal/storage"
	"github.com/arxivmind/arxivmind/internal/vector"
)

type fakeStorage struct {
	papers map[string]*models.Paper
}

func (s *fakeStorage) UpsertPaper(ctx context.Context, p *models.Paper) error {
	s.papers[p.ID] = p
	return nil
}

func (s *fakeStorage) GetPaper(ctx context.Context, id string) (*models.Paper, error) {
	p, ok := s.papers[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (s *fakeStorage) DeletePaper(ctx context.Context, id string) error {
	delete(s.papers, id)
	return nil
}

func (s *fakeStorage) ListPapers(ctx context.Context, offset, limit int) ([]*models.Paper, error) {
	return nil, nil
}

func (s *fakeStorage) CountPapers(ctx context.Context) (int64, error) {
	return int64(len(s.papers)), nil
}

func (s *fakeStorage) SaveAnalysis(ctx context.Context, a *models.PaperAnalysis) error { return nil }

func (s *fakeStorage) GetAnalyses(ctx context.Context, paperID string) ([]*models.PaperAnalysis, error) {
	return nil, nil
}

func (s *fakeStorage) LatestAnalysis(ctx context.Context, paperID, kind string) (*models.PaperAnalysis, error) {
	return nil, storage.ErrNotFound
}

func (s *fakeStorage) CountAnalyses(ctx context.Context) (int64, error) { return 0, nil }

func (s *fakeStorage) Close() error { return nil }

func newTestEngine(t *testing.T, papers []*models.Paper) *Engine {
	t.Helper()
	ctx := context.Background()

	store := &fakeStorage{papers: make(map[string]*models.Paper)}
	embedder := embedding.NewMockEmbedder(64)
	vectorIndex, err := vector.NewMemoryIndex(64)
	if err != nil {
		t.Fatalf("NewMemoryIndex: %v", err)
	}
	keywordIndex, err := keyword.NewBleveIndex(t.TempDir() + "/keyword.bleve")
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { keywordIndex.Close() })

	for _, p := range papers {
		if err := store.UpsertPaper(ctx, p); err != nil {
			t.Fatalf("UpsertPaper: %v", err)
		}
		if err := keywordIndex.Index(ctx, p); err != nil {
			t.Fatalf("keyword Index: %v", err)
		}
		vec, err := embedder.Embed(ctx, p.Title+" "+p.Abstract)
		if err != nil {
			t.Fatalf("Embed: %v", err)
		}
		rec := &vector.Record{ID: p.ID, Vector: vec, Document: p.Abstract}
		if err := vectorIndex.Insert(ctx, rec); err != nil {
			t.Fatalf("vector Insert: %v", err)
		}
	}

	cfg := &config.SearchConfig{
		DefaultLimit:   10,
		MaxLimit:       100,
		KeywordWeight:  0.4,
		SemanticWeight: 0.6,
		TitleBoost:     5.0,
	}
	return NewEngine(store, embedder, vectorIndex, keywordIndex, cfg)
}

func testPapers() []*models.Paper {
	return []*models.Paper{
		{ID: "p1", Title: "Attention Is All You Need", Abstract: "transformer sequence model with self attention"},
		{ID: "p2", Title: "ResNet for Vision", Abstract: "residual connections improve image classification"},
		{ID: "p3", Title: "Scaling Transformers", Abstract: "large transformer training and scaling laws"},
	}
}

func TestSearchHybrid(t *testing.T) {
	engine := newTestEngine(t, testPapers())

	resp, err := engine.Search(context.Background(), &models.SearchQuery{Query: "transformer attention"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Total == 0 {
		t.Fatal("expected results")
	}
	if resp.Query != "transformer attention" {
		t.Errorf("Query = %q", resp.Query)
	}
	for i, r := range resp.Results {
		if r.Rank != i+1 {
			t.Errorf("result %d has rank %d", i, r.Rank)
		}
		if r.Paper == nil {
			t.Fatalf("result %d has nil paper", i)
		}
		if i > 0 && r.Score > resp.Results[i-1].Score {
			t.Error("results not sorted by score")
		}
	}
	if resp.Results[0].Paper.ID == "p2" {
		t.Error("irrelevant paper ranked first")
	}
}

func TestSearchKeywordOnly(t *testing.T) {
	engine := newTestEngine(t, testPapers())

	resp, err := engine.Search(context.Background(), &models.SearchQuery{
		Query:          "residual",
		KeywordEnabled: true,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(resp.Results))
	}
	if resp.Results[0].Paper.ID != "p2" {
		t.Errorf("got %s, want p2", resp.Results[0].Paper.ID)
	}
	if resp.Results[0].SemanticScore != 0 {
		t.Errorf("semantic branch should be off, got score %f", resp.Results[0].SemanticScore)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	engine := newTestEngine(t, nil)
	if _, err := engine.Search(context.Background(), &models.SearchQuery{}); err == nil {
		t.Error("expected validation error")
	}
}

func TestSearchPagination(t *testing.T) {
	engine := newTestEngine(t, testPapers())

	resp, err := engine.Search(context.Background(), &models.SearchQuery{
		Query: "transformer scaling attention residual",
		Limit: 2,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) > 2 {
		t.Errorf("limit not applied, got %d results", len(resp.Results))
	}

	page2, err := engine.Search(context.Background(), &models.SearchQuery{
		Query:  "transformer scaling attention residual",
		Limit:  2,
		Offset: 2,
	})
	if err != nil {
		t.Fatalf("Search page 2: %v", err)
	}
	if len(page2.Results) > 0 && page2.Results[0].Rank != 3 {
		t.Errorf("page 2 first rank = %d, want 3", page2.Results[0].Rank)
	}
}

func TestSearchSkipsMissingPapers(t *testing.T) {
	engine := newTestEngine(t, testPapers())
	if err := engine.storage.DeletePaper(context.Background(), "p1"); err != nil {
		t.Fatalf("DeletePaper: %v", err)
	}

	resp, err := engine.Search(context.Background(), &models.SearchQuery{Query: "attention"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range resp.Results {
		if r.Paper.ID == "p1" {
			t.Error("deleted paper returned in results")
		}
	}
}

package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arxivmind/arxivmind/internal/config"
	"github.com/arxivmind/arxivmind/internal/embedding"
	"github.com/arxivmind/arxivmind/internal/keyword"
	"github.com/arxivmind/arxivmind/internal/models"
	"github.com/arxivmind/arxivmind/internal/storage"
	"github.com/arxivmind/arxivmind/internal/vector"
)

// topKCandidates is how many hits each branch fetches before fusion. Large
// enough that papers ranked by one branch only still surface after merging.
const topKCandidates = 50

// Engine runs hybrid keyword + semantic search over indexed papers.
type Engine struct {
	storage      storage.Storage
	embedder     embedding.Embedder
	vectorIndex  vector.Index
	keywordIndex keyword.KeywordIndex
	config       *config.SearchConfig
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(
	store storage.Storage,
	embedder embedding.Embedder,
	vectorIndex vector.Index,
	keywordIndex keyword.KeywordIndex,
	cfg *config.SearchConfig,
) *Engine {
	return &Engine{
		storage:      store,
		embedder:     embedder,
		vectorIndex:  vectorIndex,
		keywordIndex: keywordIndex,
		config:       cfg,
	}
}

// Search validates the query, runs the enabled branches concurrently, fuses
// their scores, and resolves the paged results to stored papers.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		keywordResults  []*keyword.KeywordResult
		semanticResults []*vector.Result
		errChan         = make(chan error, 2)
		wg              sync.WaitGroup
	)

	if query.KeywordEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			opts := &keyword.SearchOptions{TitleBoost: e.config.TitleBoost}
			results, err := e.keywordIndex.Search(ctx, query.Query, topKCandidates, opts)
			if err != nil {
				errChan <- fmt.Errorf("keyword search failed: %w", err)
				return
			}
			keywordResults = results
		}()
	}

	if query.SemanticEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			queryEmbedding, err := e.embedder.Embed(ctx, query.Query)
			if err != nil {
				errChan <- fmt.Errorf("embedding failed: %w", err)
				return
			}
			results, err := e.vectorIndex.Query(ctx, queryEmbedding, topKCandidates)
			if err != nil {
				errChan <- fmt.Errorf("vector search failed: %w", err)
				return
			}
			semanticResults = results
		}()
	}

	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	keywordWeight, semanticWeight := e.weights(query)
	fused := Fuse(
		NormalizeKeywordScores(keywordResults),
		SemanticScores(semanticResults),
		keywordWeight,
		semanticWeight,
	)

	if query.MinScore > 0 {
		filtered := fused[:0]
		for _, r := range fused {
			if r.Score >= query.MinScore {
				filtered = append(filtered, r)
			}
		}
		fused = filtered
	}

	start := query.Offset
	end := query.Offset + query.Limit
	if start > len(fused) {
		start = len(fused)
	}
	if end > len(fused) {
		end = len(fused)
	}
	paged := fused[start:end]

	response := &models.SearchResponse{
		Results:   make([]*models.SearchResult, 0, len(paged)),
		Total:     len(fused),
		QueryTime: time.Since(startTime).Milliseconds(),
		Query:     query.Query,
	}

	for i, r := range paged {
		paper, err := e.storage.GetPaper(ctx, r.PaperID)
		if err != nil {
			// The indexes can briefly lead storage during deletes.
			continue
		}
		response.Results = append(response.Results, &models.SearchResult{
			Paper:         paper,
			Score:         r.Score,
			KeywordScore:  r.KeywordScore,
			SemanticScore: r.SemanticScore,
			Rank:          start + i + 1,
		})
	}
	return response, nil
}

// weights returns the fusion weights for the enabled branches. A disabled
// branch gets weight zero and the remaining weight moves to the other branch.
func (e *Engine) weights(query *models.SearchQuery) (keywordWeight, semanticWeight float64) {
	switch {
	case query.KeywordEnabled && query.SemanticEnabled:
		return e.config.KeywordWeight, e.config.SemanticWeight
	case query.KeywordEnabled:
		return 1.0, 0
	default:
		return 0, 1.0
	}
}

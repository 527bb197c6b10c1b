// Package retriever indexes paper embeddings and finds similar papers.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/arxivmind/arxivmind/internal/embedding"
	"github.com/arxivmind/arxivmind/internal/models"
	"github.com/arxivmind/arxivmind/internal/vector"
)

// Retriever embeds papers into a vector index and answers similarity queries.
type Retriever struct {
	embedder embedding.Embedder
	index    vector.Index
	logger   *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets a logger for debug output (papers indexed, missing group IDs, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// New creates a retriever over the given embedder and index.
func New(embedder embedding.Embedder, index vector.Index, opts ...Option) *Retriever {
	r := &Retriever{
		embedder: embedder,
		index:    index,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddPaper embeds the paper's weighted composite text and stores it in the
// index. Re-adding an existing ID replaces its vector.
func (r *Retriever) AddPaper(ctx context.Context, paper *models.Paper) error {
	if paper == nil || paper.ID == "" {
		return fmt.Errorf("paper must have an id")
	}
	emb, err := embedding.EmbedPaper(ctx, r.embedder, paper.Title, paper.Abstract, paper.Content)
	if err != nil {
		return fmt.Errorf("embed paper %s: %w", paper.ID, err)
	}
	rec := &vector.Record{
		ID:     paper.ID,
		Vector: emb,
		Metadata: map[string]interface{}{
			"title":  paper.Title,
			"source": paper.Source,
		},
		Document: paper.Abstract,
	}
	if err := r.index.Insert(ctx, rec); err != nil {
		return fmt.Errorf("index paper %s: %w", paper.ID, err)
	}
	r.logger.Debug("paper indexed", zap.String("id", paper.ID), zap.String("title", paper.Title))
	return nil
}

// RemovePaper removes the paper's vector from the index.
func (r *Retriever) RemovePaper(ctx context.Context, id string) error {
	return r.index.Delete(ctx, []string{id})
}

// FindSimilarByText returns up to k papers most similar to the free-text query.
// k <= 0 returns no results.
func (r *Retriever) FindSimilarByText(ctx context.Context, text string, k int) ([]*models.SimilarPaper, error) {
	if k <= 0 {
		return nil, nil
	}
	emb, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := r.index.Query(ctx, emb, k)
	if err != nil {
		return nil, err
	}
	return toSimilarPapers(results), nil
}

// FindSimilarByGroup averages the stored vectors for the given paper IDs and
// returns up to k papers similar to the group centroid. Vectors are fetched
// concurrently; IDs not present in the index are skipped with a warning, and
// a group with no indexed members returns an empty result rather than an
// error. When excludeInput is true, the group's own papers never appear in
// results.
func (r *Retriever) FindSimilarByGroup(ctx context.Context, ids []string, k int, excludeInput bool) ([]*models.SimilarPaper, error) {
	if k <= 0 || len(ids) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			rec, err := r.index.Get(ctx, id)
			if err != nil {
				if errors.Is(err, vector.ErrNotFound) {
					r.logger.Warn("group member not indexed, skipping", zap.String("id", id))
				} else {
					r.logger.Warn("fetch group member failed", zap.String("id", id), zap.Error(err))
				}
				return
			}
			vectors[i] = rec.Vector
		}(i, id)
	}
	wg.Wait()

	found := make([][]float32, 0, len(ids))
	for _, v := range vectors {
		if v != nil {
			found = append(found, v)
		}
	}
	if len(found) == 0 {
		r.logger.Warn("no group papers indexed, returning empty result", zap.Strings("ids", ids))
		return nil, nil
	}

	centroid := vector.Mean(found)

	// Over-fetch so results still fill k after the group itself is filtered out.
	fetchK := k
	if excludeInput {
		fetchK += len(ids)
	}
	results, err := r.index.Query(ctx, centroid, fetchK)
	if err != nil {
		return nil, err
	}

	if excludeInput {
		group := make(map[string]bool, len(ids))
		for _, id := range ids {
			group[id] = true
		}
		filtered := results[:0]
		for _, res := range results {
			if !group[res.ID] {
				filtered = append(filtered, res)
			}
		}
		results = filtered
	}
	if len(results) > k {
		results = results[:k]
	}
	return toSimilarPapers(results), nil
}

func toSimilarPapers(results []*vector.Result) []*models.SimilarPaper {
	out := make([]*models.SimilarPaper, len(results))
	for i, res := range results {
		sp := &models.SimilarPaper{ID: res.ID, Similarity: res.Similarity}
		if res.Metadata != nil {
			if title, ok := res.Metadata["title"].(string); ok {
				sp.Title = title
			}
		}
		out[i] = sp
	}
	return out
}

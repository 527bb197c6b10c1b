package keyword

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"

	"github.com/arxivmind/arxivmind/internal/models"
)

// paperDoc is the flattened form of a paper stored in the bleve index.
type paperDoc struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Authors  string `json:"authors"`
	Content  string `json:"content"`
}

// BleveIndex implements KeywordIndex using a disk-backed bleve index.
type BleveIndex struct {
	index  bleve.Index
	logger *zap.Logger
}

// BleveOption configures a BleveIndex.
type BleveOption func(*BleveIndex)

// WithLogger sets the logger used by the index.
func WithLogger(logger *zap.Logger) BleveOption {
	return func(b *BleveIndex) {
		b.logger = logger
	}
}

// NewBleveIndex opens the index at path, creating it if it does not exist.
func NewBleveIndex(path string, opts ...BleveOption) (*BleveIndex, error) {
	b := &BleveIndex{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	var (
		idx bleve.Index
		err error
	)
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating keyword index: %w", err)
		}
		b.logger.Info("created keyword index", zap.String("path", path))
	} else {
		idx, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening keyword index: %w", err)
		}
	}

	b.index = idx
	return b, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", textField)
	doc.AddFieldMappingsAt("abstract", textField)
	doc.AddFieldMappingsAt("authors", textField)
	doc.AddFieldMappingsAt("content", textField)

	m := bleve.NewIndexMapping()
	m.DefaultAnalyzer = standard.Name
	m.DefaultMapping = doc
	return m
}

// Index adds or replaces a paper in the index.
func (b *BleveIndex) Index(ctx context.Context, paper *models.Paper) error {
	if paper == nil || paper.ID == "" {
		return fmt.Errorf("paper must have an id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := paperDoc{
		Title:    paper.Title,
		Abstract: paper.Abstract,
		Authors:  strings.Join(paper.Authors, " "),
		Content:  paper.Content,
	}
	if err := b.index.Index(paper.ID, doc); err != nil {
		return fmt.Errorf("indexing paper %s: %w", paper.ID, err)
	}
	return nil
}

// Search runs a keyword query and returns up to limit results sorted by score.
// When opts.TitleBoost > 1, title matches are scored in a separate query and
// merged additively so papers matched in both title and body rank first.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit <= 0 {
		limit = 10
	}

	titleBoost := 1.0
	if opts != nil && opts.TitleBoost > 0 {
		titleBoost = opts.TitleBoost
	}
	if titleBoost <= 1.0 {
		return b.searchSingle(ctx, query, limit)
	}
	return b.searchTitleBoosted(ctx, query, limit, titleBoost)
}

func (b *BleveIndex) searchSingle(ctx context.Context, query string, limit int) ([]*KeywordResult, error) {
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return hitsToResults(res), nil
}

func (b *BleveIndex) searchTitleBoosted(ctx context.Context, query string, limit int, boost float64) ([]*KeywordResult, error) {
	// Over-fetch both queries so the merged set still has limit candidates.
	fetch := limit * 2

	titleQ := bleve.NewMatchQuery(query)
	titleQ.SetField("title")
	titleReq := bleve.NewSearchRequestOptions(titleQ, fetch, 0, false)

	titleRes, err := b.index.SearchInContext(ctx, titleReq)
	if err != nil {
		return nil, fmt.Errorf("title search: %w", err)
	}

	bodyRes, err := b.index.SearchInContext(ctx, bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), fetch, 0, false))
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	merged := make(map[string]float64)
	for _, hit := range bodyRes.Hits {
		merged[hit.ID] = hit.Score
	}
	for _, hit := range titleRes.Hits {
		merged[hit.ID] += hit.Score * boost
	}

	results := make([]*KeywordResult, 0, len(merged))
	for id, score := range merged {
		results = append(results, &KeywordResult{ID: id, Score: score})
	}
	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func sortResults(results []*KeywordResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
}

func hitsToResults(res *bleve.SearchResult) []*KeywordResult {
	results := make([]*KeywordResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		results = append(results, &KeywordResult{ID: hit.ID, Score: hit.Score})
	}
	return results
}

// Delete removes a paper from the index. Deleting an absent id is a no-op.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.index.Delete(id); err != nil {
		return fmt.Errorf("deleting paper %s: %w", id, err)
	}
	return nil
}

// DocCount returns the number of indexed papers.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close releases the underlying index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

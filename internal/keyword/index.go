// Package keyword provides keyword (BM25) indexing and search over papers.
package keyword

import (
	"context"

	"github.com/arxivmind/arxivmind/internal/models"
)

// SearchOptions are optional parameters for keyword search. Nil means defaults.
type SearchOptions struct {
	// TitleBoost multiplies the score contribution from title matches.
	// Values > 1 make title hits rank higher. Use 1.0 for no boost.
	TitleBoost float64
}

// KeywordIndex defines keyword search operations over papers.
type KeywordIndex interface {
	Index(ctx context.Context, paper *models.Paper) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error)
	Delete(ctx context.Context, id string) error
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ID    string
	Score float64
}

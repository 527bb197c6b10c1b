// Package storage defines the persistence interface for papers and analyses.
package storage

import (
	"context"
	"errors"

	"github.com/arxivmind/arxivmind/internal/models"
)

// ErrNotFound is returned when no paper or analysis exists for the given ID.
var ErrNotFound = errors.New("not found")

// Storage defines paper and analysis persistence operations.
type Storage interface {
	// Paper operations. UpsertPaper inserts or replaces by ID.
	UpsertPaper(ctx context.Context, paper *models.Paper) error
	GetPaper(ctx context.Context, id string) (*models.Paper, error)
	DeletePaper(ctx context.Context, id string) error
	ListPapers(ctx context.Context, offset, limit int) ([]*models.Paper, error)
	CountPapers(ctx context.Context) (int64, error)

	// Analysis operations. Results accumulate per paper; deleting a paper
	// removes its analyses.
	SaveAnalysis(ctx context.Context, a *models.PaperAnalysis) error
	GetAnalyses(ctx context.Context, paperID string) ([]*models.PaperAnalysis, error)
	LatestAnalysis(ctx context.Context, paperID, kind string) (*models.PaperAnalysis, error)
	CountAnalyses(ctx context.Context) (int64, error)

	Close() error
}

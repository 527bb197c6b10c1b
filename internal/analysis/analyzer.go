package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arxivmind/arxivmind/internal/models"
)

// Analyzer produces structured analyses of single papers.
type Analyzer struct {
	gen       Generator
	maxTokens int
	maxChars  int
	logger    *zap.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithAnalyzerLogger sets a logger for debug output.
func WithAnalyzerLogger(l *zap.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer creates an analyzer over gen. maxTokens caps each completion;
// maxChars caps how much paper text goes into a prompt.
func NewAnalyzer(gen Generator, maxTokens, maxChars int, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		gen:       gen,
		maxTokens: maxTokens,
		maxChars:  maxChars,
		logger:    zap.NewNop(),
	}
	if a.maxTokens <= 0 {
		a.maxTokens = 1500
	}
	if a.maxChars <= 0 {
		a.maxChars = 12000
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzePaper generates a sectioned analysis (summary, contributions,
// methodology, novelty, Q&A) of the paper.
func (a *Analyzer) AnalyzePaper(ctx context.Context, paper *models.Paper) (*models.PaperAnalysis, error) {
	return a.run(ctx, paper, models.AnalysisKindPaper, analyzePrompt(paper, a.maxChars), true)
}

// Insights generates key insights: findings, implications, and limitations.
func (a *Analyzer) Insights(ctx context.Context, paper *models.Paper) (*models.PaperAnalysis, error) {
	return a.run(ctx, paper, models.AnalysisKindInsights, insightsPrompt(paper, a.maxChars), false)
}

// Review generates a peer-review style assessment of the paper.
func (a *Analyzer) Review(ctx context.Context, paper *models.Paper) (*models.PaperAnalysis, error) {
	return a.run(ctx, paper, models.AnalysisKindReview, reviewPrompt(paper, a.maxChars), false)
}

func (a *Analyzer) run(ctx context.Context, paper *models.Paper, kind, prompt string, sectioned bool) (*models.PaperAnalysis, error) {
	if paper == nil || (paper.Title == "" && paper.Abstract == "" && paper.Content == "") {
		return nil, fmt.Errorf("paper has no text to analyze")
	}
	start := time.Now()
	text, err := a.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s of paper %s: %w", kind, paper.ID, err)
	}
	var sections map[string]string
	if sectioned {
		sections = ParseSections(text)
	} else {
		sections = map[string]string{kind: text}
	}
	a.logger.Debug("analysis generated",
		zap.String("paper_id", paper.ID),
		zap.String("kind", kind),
		zap.Int("sections", len(sections)),
		zap.Duration("took", time.Since(start)))
	return &models.PaperAnalysis{
		ID:        uuid.New().String(),
		PaperID:   paper.ID,
		Kind:      kind,
		Sections:  sections,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// generate calls the backend, retrying once on a transient failure.
func (a *Analyzer) generate(ctx context.Context, prompt string) (string, error) {
	text, err := a.gen.Generate(ctx, prompt, a.maxTokens)
	if err != nil && IsTransient(err) && ctx.Err() == nil {
		a.logger.Warn("generation failed, retrying once", zap.Error(err))
		text, err = a.gen.Generate(ctx, prompt, a.maxTokens)
	}
	return text, err
}

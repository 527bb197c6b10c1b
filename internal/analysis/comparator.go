package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arxivmind/arxivmind/internal/models"
	"github.com/arxivmind/arxivmind/internal/retriever"
)

// DefaultAspects are the comparison aspects used when none are configured.
var DefaultAspects = []string{"methodology", "results", "contributions"}

// Comparator compares groups of papers aspect by aspect and finds papers
// related to the group.
type Comparator struct {
	gen       Generator
	retriever *retriever.Retriever
	aspects   []string
	maxTokens int
	maxChars  int
	logger    *zap.Logger
}

// ComparatorOption configures a Comparator.
type ComparatorOption func(*Comparator)

// WithComparatorLogger sets a logger for debug output.
func WithComparatorLogger(l *zap.Logger) ComparatorOption {
	return func(c *Comparator) { c.logger = l }
}

// WithAspects overrides the default comparison aspects.
func WithAspects(aspects []string) ComparatorOption {
	return func(c *Comparator) {
		if len(aspects) > 0 {
			c.aspects = aspects
		}
	}
}

// NewComparator creates a comparator. r may be nil, in which case related
// papers are not computed.
func NewComparator(gen Generator, r *retriever.Retriever, maxTokens, maxChars int, opts ...ComparatorOption) *Comparator {
	c := &Comparator{
		gen:       gen,
		retriever: r,
		aspects:   DefaultAspects,
		maxTokens: maxTokens,
		maxChars:  maxChars,
		logger:    zap.NewNop(),
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 1500
	}
	if c.maxChars <= 0 {
		c.maxChars = 12000
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare generates one comparison per aspect across the given papers.
// A failed aspect is recorded in the result rather than aborting the rest;
// transient failures are retried once. Related papers are looked up from
// the group's centroid, excluding the group itself.
func (c *Comparator) Compare(ctx context.Context, papers []*models.Paper, relatedK int) (*models.ComparisonResult, error) {
	if len(papers) < 2 {
		return nil, fmt.Errorf("comparison needs at least 2 papers, got %d", len(papers))
	}

	ids := make([]string, len(papers))
	for i, p := range papers {
		ids[i] = p.ID
	}
	result := &models.ComparisonResult{
		PaperIDs:  ids,
		Aspects:   make([]*models.AspectComparison, 0, len(c.aspects)),
		CreatedAt: time.Now().UTC(),
	}

	for _, aspect := range c.aspects {
		ac := &models.AspectComparison{Aspect: aspect}
		text, err := c.generateAspect(ctx, papers, aspect)
		if err != nil {
			c.logger.Warn("aspect comparison failed",
				zap.String("aspect", aspect), zap.Error(err))
			ac.Error = err.Error()
		} else {
			ac.Text = text
		}
		result.Aspects = append(result.Aspects, ac)
		if ctx.Err() != nil {
			break
		}
	}

	if c.retriever != nil && relatedK > 0 {
		related, err := c.retriever.FindSimilarByGroup(ctx, ids, relatedK, true)
		if err != nil {
			c.logger.Warn("related papers lookup failed", zap.Error(err))
		} else {
			result.Related = related
		}
	}
	return result, nil
}

func (c *Comparator) generateAspect(ctx context.Context, papers []*models.Paper, aspect string) (string, error) {
	prompt := comparePrompt(papers, aspect, c.maxChars)
	text, err := c.gen.Generate(ctx, prompt, c.maxTokens)
	if err != nil && IsTransient(err) && ctx.Err() == nil {
		c.logger.Warn("generation failed, retrying once",
			zap.String("aspect", aspect), zap.Error(err))
		text, err = c.gen.Generate(ctx, prompt, c.maxTokens)
	}
	return text, err
}

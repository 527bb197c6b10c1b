// Package analysis generates LLM-based paper analyses, reviews, and comparisons.
package analysis

import (
	"context"
	"errors"
)

// ErrRateLimited is returned when the generation backend rejects a request
// for rate limiting. Safe to retry after a delay.
var ErrRateLimited = errors.New("generation rate limited")

// ErrTimeout is returned when generation exceeds its deadline.
var ErrTimeout = errors.New("generation timed out")

// Generator produces text from a prompt. Implementations wrap an LLM backend.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	Close() error
}

// IsTransient reports whether err is worth a single retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}

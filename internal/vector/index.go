// Package vector provides vector storage and cosine similarity search.
package vector

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned when a vector's length does not match the
// index dimension. The index is left unchanged.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// ErrNotFound is returned when no record exists for the requested ID.
var ErrNotFound = errors.New("vector not found")

// Record is a stored vector with its metadata and source document text.
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]interface{}
	Document string
}

// Result is a single similarity search hit.
type Result struct {
	ID         string
	Similarity float64 // cosine similarity in [-1, 1]
	Metadata   map[string]interface{}
	Document   string
}

// Index defines vector storage and similarity search. Inserting an existing
// ID replaces the stored record.
type Index interface {
	Insert(ctx context.Context, rec *Record) error
	Query(ctx context.Context, query []float32, k int) ([]*Result, error)
	Get(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

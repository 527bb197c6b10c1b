// Package models defines core data structures for papers, queries, and analysis results.
package models

import "time"

// Paper represents a research paper with its extracted text and metadata.
type Paper struct {
	ID         string                 `json:"id" db:"id"`
	Title      string                 `json:"title" db:"title"`
	Abstract   string                 `json:"abstract" db:"abstract"`
	Authors    []string               `json:"authors" db:"authors"`
	Categories []string               `json:"categories,omitempty" db:"categories"`
	// Source records where the paper came from: "arxiv", "upload", or "api".
	Source    string                 `json:"source" db:"source"`
	URL       string                 `json:"url,omitempty" db:"url"`
	Published string                 `json:"published,omitempty" db:"published"`
	// Content is the full text used for embedding and analysis. May be empty
	// when only the abstract is available.
	Content   string                 `json:"content,omitempty" db:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}

// PaperInput is the input for adding or updating a paper.
type PaperInput struct {
	ID       string                 `json:"id,omitempty"`
	Title    string                 `json:"title"`
	Abstract string                 `json:"abstract,omitempty"`
	Authors  []string               `json:"authors,omitempty"`
	Content  string                 `json:"content,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

package models

import "fmt"

// SearchQuery represents a search request with optional filters.
type SearchQuery struct {
	Query           string                 `json:"query"`
	Limit           int                    `json:"limit,omitempty"`
	Offset          int                    `json:"offset,omitempty"`
	KeywordEnabled  bool                   `json:"keyword_enabled,omitempty"`
	SemanticEnabled bool                   `json:"semantic_enabled,omitempty"`
	// MinScore filters out results scoring below this threshold after fusion.
	MinScore float64                `json:"min_score,omitempty"`
	Filters  map[string]interface{} `json:"filters,omitempty"`
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is empty; otherwise normalizes limit and
// enables both search types when neither was requested.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if !q.KeywordEnabled && !q.SemanticEnabled {
		q.KeywordEnabled = true
		q.SemanticEnabled = true
	}
	return nil
}

// SimilarQuery requests papers similar to free text or to a group of stored papers.
// Exactly one of Text or PaperIDs should be set.
type SimilarQuery struct {
	Text     string   `json:"text,omitempty"`
	PaperIDs []string `json:"paper_ids,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	// ExcludeInput drops the group's own papers from group-similarity results.
	ExcludeInput bool `json:"exclude_input,omitempty"`
}

// Validate checks that exactly one input mode is set and normalizes the limit.
func (q *SimilarQuery) Validate() error {
	if q.Text == "" && len(q.PaperIDs) == 0 {
		return fmt.Errorf("either text or paper_ids must be provided")
	}
	if q.Text != "" && len(q.PaperIDs) > 0 {
		return fmt.Errorf("text and paper_ids are mutually exclusive")
	}
	if q.Limit <= 0 {
		q.Limit = 5
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

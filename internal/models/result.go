package models

// SearchResult represents a single search hit with paper and scores.
type SearchResult struct {
	Paper         *Paper  `json:"paper"`
	Score         float64 `json:"score"`
	KeywordScore  float64 `json:"keyword_score"`
	SemanticScore float64 `json:"semantic_score"`
	Rank          int     `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
}

// SimilarPaper is one hit from a similarity query.
type SimilarPaper struct {
	ID         string  `json:"id"`
	Title      string  `json:"title,omitempty"`
	Similarity float64 `json:"similarity"`
}

// SimilarResponse is the response for a similarity query.
type SimilarResponse struct {
	Results []*SimilarPaper `json:"results"`
	Total   int             `json:"total"`
}

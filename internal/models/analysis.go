package models

import "time"

// PaperAnalysis holds the structured output of analyzing a single paper.
// Sections maps section names (summary, key_contributions, methodology,
// novelty, qa) to their generated text.
type PaperAnalysis struct {
	ID        string            `json:"id" db:"id"`
	PaperID   string            `json:"paper_id" db:"paper_id"`
	Kind      string            `json:"kind" db:"kind"`
	Sections  map[string]string `json:"sections" db:"sections"`
	Model     string            `json:"model,omitempty" db:"model"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// Analysis kinds stored alongside results.
const (
	AnalysisKindPaper    = "analysis"
	AnalysisKindInsights = "insights"
	AnalysisKindReview   = "review"
	AnalysisKindCompare  = "comparison"
)

// AspectComparison is the comparison text for one aspect across a paper group,
// or the error that prevented generating it.
type AspectComparison struct {
	Aspect string `json:"aspect"`
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ComparisonResult aggregates per-aspect comparisons for a group of papers
// plus papers related to the group as a whole.
type ComparisonResult struct {
	PaperIDs  []string            `json:"paper_ids"`
	Aspects   []*AspectComparison `json:"aspects"`
	Related   []*SimilarPaper     `json:"related,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Failed reports whether every aspect failed to generate.
func (c *ComparisonResult) Failed() bool {
	for _, a := range c.Aspects {
		if a.Error == "" {
			return false
		}
	}
	return len(c.Aspects) > 0
}

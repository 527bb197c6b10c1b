// Package cli provides output formatting for the arxivmind command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/arxivmind/arxivmind/internal/models"
	"github.com/arxivmind/arxivmind/pkg/utils"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes hybrid search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", response.Total, response.QueryTime)
	for _, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f (Keyword: %.4f, Semantic: %.4f)\n",
			result.Rank, result.Score, result.KeywordScore, result.SemanticScore)
		fmt.Fprintf(w, "ID: %s\n", result.Paper.ID)
		fmt.Fprintf(w, "Title: %s\n", result.Paper.Title)
		if len(result.Paper.Authors) > 0 {
			fmt.Fprintf(w, "Authors: %s\n", strings.Join(result.Paper.Authors, ", "))
		}
		if result.Paper.Abstract != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(result.Paper.Abstract, 300))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteSimilarResults writes similarity hits to w in the given format.
func WriteSimilarResults(w io.Writer, response *models.SimilarResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\n%d similar papers\n\n", response.Total)
	for i, hit := range response.Results {
		title := hit.Title
		if title == "" {
			title = "(no title)"
		}
		fmt.Fprintf(w, "%2d. %.4f  %s  %s\n", i+1, hit.Similarity, hit.ID, title)
	}
	return nil
}

// WriteAnalysis writes an analysis result section by section.
func WriteAnalysis(w io.Writer, a *models.PaperAnalysis, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, a)
	}
	fmt.Fprintf(w, "\n%s of paper %s", strings.ToUpper(a.Kind[:1])+a.Kind[1:], a.PaperID)
	if a.Model != "" {
		fmt.Fprintf(w, " (model: %s)", a.Model)
	}
	fmt.Fprintln(w)

	names := make([]string, 0, len(a.Sections))
	for name := range a.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "\n## %s\n%s\n", strings.ReplaceAll(name, "_", " "), a.Sections[name])
	}
	return nil
}

// WriteComparison writes a comparison result aspect by aspect, then the
// papers related to the group.
func WriteComparison(w io.Writer, c *models.ComparisonResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, c)
	}
	fmt.Fprintf(w, "\nComparison of %s\n", strings.Join(c.PaperIDs, ", "))
	for _, aspect := range c.Aspects {
		fmt.Fprintf(w, "\n## %s\n", aspect.Aspect)
		if aspect.Error != "" {
			fmt.Fprintf(w, "(failed: %s)\n", aspect.Error)
			continue
		}
		fmt.Fprintln(w, aspect.Text)
	}
	if len(c.Related) > 0 {
		fmt.Fprintf(w, "\n## related papers\n")
		for _, hit := range c.Related {
			fmt.Fprintf(w, "  %.4f  %s  %s\n", hit.Similarity, hit.ID, hit.Title)
		}
	}
	return nil
}

// WritePaperList writes a short one-line-per-paper listing.
func WritePaperList(w io.Writer, papers []*models.Paper, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, papers)
	}
	for _, p := range papers {
		fmt.Fprintf(w, "%s  [%s]  %s\n", p.ID, p.Source, utils.Truncate(p.Title, 80))
	}
	return nil
}

package embedding

import (
	"context"

	"github.com/arxivmind/arxivmind/pkg/utils"
)

// fullTextChars is how much of a paper's body contributes to its embedding.
// Titles and abstracts carry most of the signal; the body only disambiguates.
const fullTextChars = 1000

// BuildPaperText assembles the text used to embed a paper. The title is
// repeated to weight it above the abstract, and only the opening of the full
// text is included. Empty parts are skipped.
func BuildPaperText(title, abstract, fullText string) string {
	parts := make([]string, 0, 4)
	if title != "" {
		parts = append(parts, title, title)
	}
	if abstract != "" {
		parts = append(parts, abstract)
	}
	if fullText != "" {
		parts = append(parts, utils.TruncateRunes(fullText, fullTextChars))
	}
	var out string
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

// EmbedPaper embeds a paper's weighted composite text with e.
// Returns ErrEmptyText when title, abstract, and fullText are all empty.
func EmbedPaper(ctx context.Context, e Embedder, title, abstract, fullText string) ([]float32, error) {
	text := BuildPaperText(title, abstract, fullText)
	if text == "" {
		return nil, ErrEmptyText
	}
	return e.Embed(ctx, text)
}

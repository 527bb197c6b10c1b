package analysis

import (
	"fmt"
	"strings"

	"github.com/arxivmind/arxivmind/internal/models"
	"github.com/arxivmind/arxivmind/pkg/utils"
)

// paperPrompt renders a paper's text for inclusion in a prompt, capped at
// maxChars so a long PDF cannot blow the context window.
func paperPrompt(p *models.Paper, maxChars int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	if len(p.Authors) > 0 {
		fmt.Fprintf(&b, "Authors: %s\n", strings.Join(p.Authors, ", "))
	}
	if p.Abstract != "" {
		fmt.Fprintf(&b, "Abstract: %s\n", p.Abstract)
	}
	if p.Content != "" {
		fmt.Fprintf(&b, "Text:\n%s\n", utils.TruncateRunes(p.Content, maxChars))
	}
	return b.String()
}

func analyzePrompt(p *models.Paper, maxChars int) string {
	return fmt.Sprintf(`Analyze the following research paper. Structure your answer with exactly these section markers, each on its own line:
[SUMMARY]
[KEY CONTRIBUTIONS]
[METHODOLOGY]
[NOVELTY]
[Q&A]

Under [Q&A], list three questions a reviewer might ask, each with a short answer.

%s`, paperPrompt(p, maxChars))
}

func insightsPrompt(p *models.Paper, maxChars int) string {
	return fmt.Sprintf(`Extract the key insights from this paper: the surprising findings, practical implications, and limitations. Be specific and cite numbers from the paper where available.

%s`, paperPrompt(p, maxChars))
}

func reviewPrompt(p *models.Paper, maxChars int) string {
	return fmt.Sprintf(`Write a peer review of this paper. Cover strengths, weaknesses, soundness of the evaluation, and a recommendation (accept, minor revision, major revision, or reject) with justification.

%s`, paperPrompt(p, maxChars))
}

func comparePrompt(papers []*models.Paper, aspect string, maxChars int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Compare the following %d papers with respect to their %s. Contrast their approaches directly rather than summarizing each paper in isolation.\n\n", len(papers), aspect)
	perPaper := maxChars / len(papers)
	for i, p := range papers {
		fmt.Fprintf(&b, "--- Paper %d ---\n%s\n", i+1, paperPrompt(p, perPaper))
	}
	return b.String()
}

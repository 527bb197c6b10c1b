package analysis

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/arxivmind/arxivmind/internal/embedding"
	"github.com/arxivmind/arxivmind/internal/models"
	"github.com/arxivmind/arxivmind/internal/retriever"
	"github.com/arxivmind/arxivmind/internal/vector"
)

func TestComparator_Compare(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"methods differ", "results differ", "contributions differ"}}
	c := NewComparator(gen, nil, 0, 0)
	papers := []*models.Paper{testPaper("p1"), testPaper("p2")}

	result, err := c.Compare(context.Background(), papers, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Aspects) != 3 {
		t.Fatalf("aspects: got %d", len(result.Aspects))
	}
	if result.Aspects[0].Aspect != "methodology" || result.Aspects[0].Text != "methods differ" {
		t.Errorf("first aspect: %+v", result.Aspects[0])
	}
	if result.Failed() {
		t.Error("successful comparison should not report failed")
	}
	if len(result.PaperIDs) != 2 || result.PaperIDs[0] != "p1" {
		t.Errorf("paper ids: %v", result.PaperIDs)
	}
	if !strings.Contains(gen.prompts[0], "methodology") {
		t.Error("prompt should name the aspect")
	}
	if !strings.Contains(gen.prompts[0], "Paper p1") || !strings.Contains(gen.prompts[0], "Paper p2") {
		t.Error("prompt should contain both papers")
	}
}

func TestComparator_AspectFailureIsRecordedNotFatal(t *testing.T) {
	gen := &scriptedGenerator{
		errs:      []error{nil, fmt.Errorf("backend exploded")},
		responses: []string{"ok", "", "also ok"},
	}
	c := NewComparator(gen, nil, 0, 0)
	result, err := c.Compare(context.Background(), []*models.Paper{testPaper("p1"), testPaper("p2")}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Aspects[0].Error != "" || result.Aspects[0].Text != "ok" {
		t.Errorf("first aspect: %+v", result.Aspects[0])
	}
	if result.Aspects[1].Error == "" {
		t.Error("failed aspect should record the error")
	}
	if result.Aspects[2].Text != "also ok" {
		t.Errorf("third aspect should still run: %+v", result.Aspects[2])
	}
	if result.Failed() {
		t.Error("partial failure should not report failed")
	}
}

func TestComparator_RetriesTransientAspectOnce(t *testing.T) {
	gen := &scriptedGenerator{
		errs:      []error{ErrTimeout},
		responses: []string{"", "recovered", "r2", "r3"},
	}
	c := NewComparator(gen, nil, 0, 0)
	result, err := c.Compare(context.Background(), []*models.Paper{testPaper("p1"), testPaper("p2")}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Aspects[0].Text != "recovered" || result.Aspects[0].Error != "" {
		t.Errorf("first aspect after retry: %+v", result.Aspects[0])
	}
}

func TestComparator_CustomAspects(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"one"}}
	c := NewComparator(gen, nil, 0, 0, WithAspects([]string{"datasets"}))
	result, err := c.Compare(context.Background(), []*models.Paper{testPaper("p1"), testPaper("p2")}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Aspects) != 1 || result.Aspects[0].Aspect != "datasets" {
		t.Errorf("aspects: %+v", result.Aspects)
	}
}

func TestComparator_TooFewPapers(t *testing.T) {
	c := NewComparator(&scriptedGenerator{}, nil, 0, 0)
	if _, err := c.Compare(context.Background(), []*models.Paper{testPaper("p1")}, 0); err == nil {
		t.Error("single paper comparison should error")
	}
}

func TestComparator_RelatedPapersExcludeGroup(t *testing.T) {
	idx, err := vector.NewMemoryIndex(16)
	if err != nil {
		t.Fatal(err)
	}
	r := retriever.New(embedding.NewMockEmbedder(16), idx)
	ctx := context.Background()
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		if err := r.AddPaper(ctx, &models.Paper{ID: id, Title: "title " + id, Abstract: "abs"}); err != nil {
			t.Fatal(err)
		}
	}

	gen := &scriptedGenerator{responses: []string{"a", "b", "c"}}
	c := NewComparator(gen, r, 0, 0)
	result, err := c.Compare(ctx, []*models.Paper{{ID: "p1", Title: "t"}, {ID: "p2", Title: "t"}}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Related) == 0 {
		t.Fatal("expected related papers")
	}
	for _, rp := range result.Related {
		if rp.ID == "p1" || rp.ID == "p2" {
			t.Errorf("compared paper %s leaked into related", rp.ID)
		}
	}
}

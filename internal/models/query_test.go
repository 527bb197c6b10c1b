package models

import (
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *SearchQuery
		wantErr bool
	}{
		{"empty query", &SearchQuery{Query: ""}, true},
		{"valid query", &SearchQuery{Query: "hello"}, false},
		{"sets default limit", &SearchQuery{Query: "x", Limit: 0}, false},
		{"caps limit at 100", &SearchQuery{Query: "x", Limit: 200}, false},
		{"enables both when both false", &SearchQuery{Query: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if tt.query.Limit == 0 {
					t.Error("expected default limit to be set")
				}
				if tt.query.Limit > 100 {
					t.Errorf("expected limit capped at 100, got %d", tt.query.Limit)
				}
				if tt.name == "enables both when both false" && (!tt.query.KeywordEnabled || !tt.query.SemanticEnabled) {
					t.Error("expected both keyword and semantic enabled when both were false")
				}
			}
		})
	}
}

func TestSimilarQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *SimilarQuery
		wantErr bool
	}{
		{"neither input", &SimilarQuery{}, true},
		{"both inputs", &SimilarQuery{Text: "x", PaperIDs: []string{"a"}}, true},
		{"text only", &SimilarQuery{Text: "transformers"}, false},
		{"ids only", &SimilarQuery{PaperIDs: []string{"a", "b"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.query.Limit != 5 {
				t.Errorf("expected default limit 5, got %d", tt.query.Limit)
			}
		})
	}
}

func TestComparisonResult_Failed(t *testing.T) {
	empty := &ComparisonResult{}
	if empty.Failed() {
		t.Error("no aspects should not report failed")
	}
	partial := &ComparisonResult{Aspects: []*AspectComparison{
		{Aspect: "methodology", Text: "ok"},
		{Aspect: "results", Error: "timeout"},
	}}
	if partial.Failed() {
		t.Error("partial success should not report failed")
	}
	all := &ComparisonResult{Aspects: []*AspectComparison{
		{Aspect: "methodology", Error: "timeout"},
	}}
	if !all.Failed() {
		t.Error("all aspects failed should report failed")
	}
}

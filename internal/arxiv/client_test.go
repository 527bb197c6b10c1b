package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All
  You Need</title>
    <summary>The dominant sequence transduction models are based on complex
  recurrent or convolutional neural networks.</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <category term="cs.CL"/>
    <category term="cs.LG"/>
    <published>2017-06-12T17:57:34Z</published>
    <updated>2023-08-02T00:41:18Z</updated>
  </entry>
</feed>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(
		WithBaseURL(srv.URL),
		WithRequestInterval(time.Millisecond),
	)
}

func TestClient_Search(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Write([]byte(sampleFeed))
	})

	papers, err := c.Search(context.Background(), "attention transformers", 5)
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "all:attention transformers" {
		t.Errorf("search_query: got %q", gotQuery)
	}
	if len(papers) != 1 {
		t.Fatalf("got %d papers", len(papers))
	}
	p := papers[0]
	if p.ID != "1706.03762" {
		t.Errorf("id: got %q", p.ID)
	}
	if p.Title != "Attention Is All You Need" {
		t.Errorf("title not unwrapped: %q", p.Title)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "Ashish Vaswani" {
		t.Errorf("authors: %v", p.Authors)
	}
	if len(p.Categories) != 2 || p.Categories[0] != "cs.CL" {
		t.Errorf("categories: %v", p.Categories)
	}
	if p.Source != "arxiv" {
		t.Errorf("source: %q", p.Source)
	}
}

func TestClient_SearchEmptyQuery(t *testing.T) {
	c := NewClient()
	if _, err := c.Search(context.Background(), "  ", 5); err == nil {
		t.Error("empty query should error")
	}
}

func TestClient_FetchByIDs(t *testing.T) {
	var gotIDList string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotIDList = r.URL.Query().Get("id_list")
		w.Write([]byte(sampleFeed))
	})

	papers, err := c.FetchByIDs(context.Background(), []string{"http://arxiv.org/abs/1706.03762v7", "2301.00001"})
	if err != nil {
		t.Fatal(err)
	}
	if gotIDList != "1706.03762,2301.00001" {
		t.Errorf("id_list: got %q", gotIDList)
	}
	if len(papers) != 1 {
		t.Errorf("got %d papers", len(papers))
	}
}

func TestClient_FetchByIDsEmpty(t *testing.T) {
	c := NewClient()
	papers, err := c.FetchByIDs(context.Background(), nil)
	if err != nil || papers != nil {
		t.Errorf("empty ids: %v, %v", papers, err)
	}
}

func TestClient_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	})
	if _, err := c.Search(context.Background(), "x", 1); err == nil {
		t.Error("5xx should error")
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/abs/2301.00001v1", "2301.00001"},
		{"2301.00001v12", "2301.00001"},
		{"2301.00001", "2301.00001"},
		{"cond-mat/9901001v2", "cond-mat/9901001"},
		{"http://arxiv.org/abs/1706.03762v7", "1706.03762"},
	}
	for _, tt := range tests {
		if got := NormalizeID(tt.in); got != tt.want {
			t.Errorf("NormalizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

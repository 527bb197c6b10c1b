// Package arxiv provides a rate-limited client for the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/arxivmind/arxivmind/internal/models"
)

// DefaultBaseURL is the arXiv export API endpoint.
const DefaultBaseURL = "https://export.arxiv.org/api/query"

// DefaultRequestInterval honors arXiv's request of no more than one API
// call every three seconds.
const DefaultRequestInterval = 3 * time.Second

// Client is a rate-limited HTTP client for the arXiv API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithRequestInterval sets the minimum delay between API requests.
func WithRequestInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// NewClient creates an arXiv API client with the default rate limit.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(DefaultRequestInterval), 1),
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries arXiv with a free-text query and returns up to maxResults
// papers sorted by relevance.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]*models.Paper, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	params := url.Values{
		"search_query": {"all:" + query},
		"start":        {"0"},
		"max_results":  {fmt.Sprintf("%d", maxResults)},
		"sortBy":       {"relevance"},
	}
	return c.fetch(ctx, params)
}

// FetchByIDs retrieves papers by arXiv ID in a single API call.
// IDs may carry the abs URL prefix or a version suffix; both are stripped.
func (c *Client) FetchByIDs(ctx context.Context, ids []string) ([]*models.Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	normalized := make([]string, len(ids))
	for i, id := range ids {
		normalized[i] = NormalizeID(id)
	}
	params := url.Values{
		"id_list":     {strings.Join(normalized, ",")},
		"max_results": {fmt.Sprintf("%d", len(ids))},
	}
	return c.fetch(ctx, params)
}

func (c *Client) fetch(ctx context.Context, params url.Values) ([]*models.Paper, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv request: http %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse arxiv response: %w", err)
	}

	papers := make([]*models.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if paper := parseAtomEntry(entry); paper.ID != "" {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

// NormalizeID strips the abs URL prefix and version suffix from an arXiv ID,
// e.g. "http://arxiv.org/abs/2301.00001v2" becomes "2301.00001".
func NormalizeID(id string) string {
	if idx := strings.LastIndex(id, "/abs/"); idx >= 0 {
		id = id[idx+5:]
	}
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if isDigits(id[vIdx+1:]) {
			id = id[:vIdx]
		}
	}
	return id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Authors    []atomAuthor   `xml:"author"`
	Categories []atomCategory `xml:"category"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// parseAtomEntry converts an atom entry to a Paper.
func parseAtomEntry(entry atomEntry) *models.Paper {
	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, a.Name)
	}
	categories := make([]string, 0, len(entry.Categories))
	for _, c := range entry.Categories {
		categories = append(categories, c.Term)
	}

	now := time.Now().UTC()
	paper := &models.Paper{
		ID:         NormalizeID(entry.ID),
		Title:      collapseSpace(entry.Title),
		Abstract:   collapseSpace(entry.Summary),
		Authors:    authors,
		Categories: categories,
		Source:     "arxiv",
		URL:        entry.ID,
		Published:  entry.Published,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return paper
}

// collapseSpace trims and joins the line-wrapped text arXiv returns.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

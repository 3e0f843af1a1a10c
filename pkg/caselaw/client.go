// Package caselaw implements the case-law search capability against a
// CourtListener-style opinion search API.
package caselaw

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/counselflow/legal-research-agent/internal/httputil"
	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// DefaultBaseURL is the opinion search endpoint used when the config does
// not override it.
const DefaultBaseURL = "https://www.courtlistener.com/api/rest/v4/search/"

const defaultMaxResults = 10

// Client queries the opinion search API. It implements
// domain.CaseLawService.
type Client struct {
	baseURL    string
	apiToken   string
	maxResults int
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the search endpoint, used by tests to point at an
// httptest server
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxResults caps how many opinions a search returns
func WithMaxResults(n int) Option {
	return func(c *Client) { c.maxResults = n }
}

// NewClient creates a case-law search client. The API token may be empty
// for anonymous access at reduced rate limits.
func NewClient(apiToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiToken:   apiToken,
		maxResults: defaultMaxResults,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse mirrors the wire shape of the opinion search endpoint
type searchResponse struct {
	Count   int `json:"count"`
	Results []struct {
		CaseName     string      `json:"caseName"`
		Citation     interface{} `json:"citation"`
		Court        string      `json:"court"`
		DateFiled    string      `json:"dateFiled"`
		Snippet      string      `json:"snippet"`
		AbsoluteURL  string      `json:"absolute_url"`
		CitationList []struct {
			Cite string `json:"cite"`
		} `json:"citations"`
	} `json:"results"`
}

// SearchOpinions searches judicial opinions matching the query within the
// jurisdiction and filing date range. Zero from/to values leave the range
// unbounded on that side.
func (c *Client) SearchOpinions(ctx context.Context, query, jurisdiction string, from, to time.Time) ([]domain.Opinion, error) {
	params := url.Values{
		"q":        {query},
		"type":     {"o"},
		"order_by": {"score desc"},
	}
	if jurisdiction != "" {
		params.Set("court", jurisdiction)
	}
	if !from.IsZero() {
		params.Set("filed_after", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		params.Set("filed_before", to.Format("2006-01-02"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating case-law request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Token "+c.apiToken)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return nil, fmt.Errorf("case-law search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("case-law search returned HTTP %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing case-law response: %w", err)
	}

	opinions := make([]domain.Opinion, 0, len(sr.Results))
	for i, r := range sr.Results {
		if i >= c.maxResults {
			break
		}
		op := domain.Opinion{
			Title:   r.CaseName,
			Court:   r.Court,
			Summary: r.Snippet,
		}
		if len(r.CitationList) > 0 {
			op.Citation = r.CitationList[0].Cite
		} else if s, ok := r.Citation.(string); ok {
			op.Citation = s
		}
		if r.DateFiled != "" {
			if t, parseErr := time.Parse("2006-01-02", r.DateFiled); parseErr == nil {
				op.Date = t
			}
		}
		if r.AbsoluteURL != "" {
			op.URL = "https://www.courtlistener.com" + r.AbsoluteURL
		}
		opinions = append(opinions, op)
	}
	return opinions, nil
}

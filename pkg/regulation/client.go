// Package regulation fetches federal regulation text from an eCFR-style API.
package regulation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/counselflow/legal-research-agent/internal/httputil"
)

// DefaultBaseURL is the eCFR API root used when the config does not
// override it.
const DefaultBaseURL = "https://www.ecfr.gov/api/versioner/v1"

// Client fetches regulation text. It implements domain.RegulationService.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API root, used by tests
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a regulation text client
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sectionResponse mirrors the wire shape of the section content endpoint
type sectionResponse struct {
	Title   int    `json:"title"`
	Part    string `json:"part"`
	Section string `json:"section"`
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

// GetRegulationText fetches the current text of one CFR section, for
// example title 29, part "1614", section "105".
func (c *Client) GetRegulationText(ctx context.Context, title int, part, section string) (string, error) {
	if title <= 0 || part == "" {
		return "", fmt.Errorf("invalid CFR reference: title=%d part=%q", title, part)
	}

	params := url.Values{"part": {part}}
	if section != "" {
		params.Set("section", section)
	}
	endpoint := fmt.Sprintf("%s/full/current/title-%d.json?%s", c.baseURL, title, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating regulation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return "", fmt.Errorf("regulation text request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("no regulation found for %d CFR %s", title, partSectionRef(part, section))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("regulation API returned HTTP %d", resp.StatusCode)
	}

	var sr sectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("parsing regulation response: %w", err)
	}
	if strings.TrimSpace(sr.Text) == "" {
		return "", fmt.Errorf("regulation %d CFR %s has no text", title, partSectionRef(part, section))
	}

	if sr.Heading != "" {
		return sr.Heading + "\n\n" + sr.Text, nil
	}
	return sr.Text, nil
}

func partSectionRef(part, section string) string {
	if section == "" {
		return part
	}
	return part + "." + section
}

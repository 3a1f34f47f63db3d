package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultITunesBaseURL = "https://itunes.apple.com"

// Podcast is the subset of iTunes Search API podcast metadata used to enrich
// transcript records.
type Podcast struct {
	CollectionName string `json:"collectionName"`
	ArtistName     string `json:"artistName"`
	FeedURL        string `json:"feedUrl"`
	CollectionURL  string `json:"collectionViewUrl"`
}

// ITunesClient looks up podcast metadata from the iTunes Search API.
type ITunesClient struct {
	baseURL    string
	httpClient *http.Client
}

// ITunesOption customizes the client.
type ITunesOption func(*ITunesClient)

// WithITunesBaseURL overrides the API base (useful for tests).
func WithITunesBaseURL(base string) ITunesOption {
	return func(c *ITunesClient) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithITunesHTTPClient overrides the default HTTP client.
func WithITunesHTTPClient(client *http.Client) ITunesOption {
	return func(c *ITunesClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewITunesClient constructs an iTunes Search API client.
func NewITunesClient(opts ...ITunesOption) *ITunesClient {
	client := &ITunesClient{
		baseURL:    defaultITunesBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// SearchPodcast returns the best podcast match for the given term, or nil
// when nothing matches. Lookup failures are returned as errors; callers treat
// the whole lookup as optional enrichment.
func (c *ITunesClient) SearchPodcast(ctx context.Context, term string) (*Podcast, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	query := url.Values{}
	query.Set("media", "podcast")
	query.Set("limit", "1")
	query.Set("term", term)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("itunes search: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("itunes search: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("itunes search: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("itunes search: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload struct {
		ResultCount int       `json:"resultCount"`
		Results     []Podcast `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("itunes search: decode response: %w", err)
	}
	if payload.ResultCount == 0 || len(payload.Results) == 0 {
		return nil, nil
	}
	result := payload.Results[0]
	return &result, nil
}

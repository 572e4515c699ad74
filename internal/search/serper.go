package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const apiURL = "https://google.serper.dev/search"

// maxResults caps how many organic hits make it into a comparison summary.
const maxResults = 4

type Result struct {
	Title   string
	Snippet string
	Link    string
	Source  string
}

type ComparisonResult struct {
	Success     bool
	Query       string
	Results     []Result
	ResultCount int
	Message     string
}

// Client queries the Serper web-search API for product comparison data.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: apiURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SetTestTransport overrides the API URL, for tests.
func (c *Client) SetTestTransport(baseURL string) {
	c.baseURL = baseURL
}

// Compare runs a comparison-shaped web search for the query. A missing API
// key is a structured "service unavailable" result, not an error; transport
// and HTTP failures are errors for the caller to convert at its boundary.
func (c *Client) Compare(ctx context.Context, query string) (ComparisonResult, error) {
	if c.apiKey == "" {
		return ComparisonResult{
			Message: "Product comparison service is currently unavailable",
		}, nil
	}

	payload, err := json.Marshal(map[string]any{
		"q":   query + " comparison review features specs vs differences",
		"num": 6,
	})
	if err != nil {
		return ComparisonResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return ComparisonResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return ComparisonResult{}, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ComparisonResult{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ComparisonResult{}, fmt.Errorf("api error %d: %s", resp.StatusCode, string(body))
	}

	organic := gjson.GetBytes(body, "organic")
	if !organic.Exists() || len(organic.Array()) == 0 {
		return ComparisonResult{
			Message: "No comparison data found. Try being more specific with product names.",
		}, nil
	}

	var results []Result
	for _, hit := range organic.Array() {
		if len(results) == maxResults {
			break
		}
		results = append(results, Result{
			Title:   hit.Get("title").String(),
			Snippet: hit.Get("snippet").String(),
			Link:    hit.Get("link").String(),
			Source:  hit.Get("source").String(),
		})
	}

	return ComparisonResult{
		Success:     true,
		Query:       query,
		Results:     results,
		ResultCount: len(results),
	}, nil
}

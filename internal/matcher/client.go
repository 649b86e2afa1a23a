// Package matcher calls the image-similarity service that ranks possible
// counterparts for a listing.
package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dsmolkin/refind/internal/models"
)

// Client talks to the similarity service over HTTP.
type Client struct {
	// BaseURL is the service root, e.g. http://localhost:8000.
	BaseURL string
	// HTTPClient is used for all requests; defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// New returns a Client for the similarity service at baseURL.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: http.DefaultClient}
}

// MatchesForItem asks the service to rank counterpart candidates for the
// given listing. The service returns matches sorted by score, best first.
func (c *Client) MatchesForItem(ctx context.Context, itemID int64) ([]models.Match, error) {
	payload, _ := json.Marshal(map[string]int64{"item_id": itemID})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/match", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("matcher request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("matcher call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("matcher returned status %d", resp.StatusCode)
	}

	var result struct {
		Matches []models.Match `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("matcher decode: %w", err)
	}
	return result.Matches, nil
}

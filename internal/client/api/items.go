package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dsmolkin/refind/internal/models"
)

// NewItem is the payload for posting a lost or found listing.
type NewItem struct {
	Type         models.ItemType `json:"type"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	Location     string          `json:"location,omitempty"`
	DateReported time.Time       `json:"date_reported,omitempty"`
}

// SearchQuery narrows a listings search; zero-value fields are omitted.
type SearchQuery struct {
	Type     models.ItemType
	Category string
	Location string
	Query    string
}

// ItemDetail is a listing with its attached images.
type ItemDetail struct {
	models.Item
	Images []models.ItemImage `json:"images"`
}

// CreateItem posts a new listing under the current session.
func (c *Client) CreateItem(ctx context.Context, item NewItem) (models.Item, error) {
	var created models.Item
	err := c.postJSON(ctx, "/api/items", item, &created)
	return created, err
}

// Search returns open listings matching the query. Works without a session.
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]models.Item, error) {
	params := url.Values{}
	if q.Type != "" {
		params.Set("type", string(q.Type))
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if q.Query != "" {
		params.Set("q", q.Query)
	}

	path := "/api/items/search"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var items []models.Item
	err := c.getJSON(ctx, path, &items)
	return items, err
}

// Item fetches a single listing with its images.
func (c *Client) Item(ctx context.Context, id int64) (ItemDetail, error) {
	var detail ItemDetail
	err := c.getJSON(ctx, fmt.Sprintf("/api/items/%d", id), &detail)
	return detail, err
}

// Matches returns the ranked similarity list for a listing.
func (c *Client) Matches(ctx context.Context, id int64) ([]models.Match, error) {
	var out struct {
		Matches []models.Match `json:"matches"`
	}
	err := c.getJSON(ctx, fmt.Sprintf("/api/items/%d/matches", id), &out)
	return out.Matches, err
}

// AdminListItems returns every listing regardless of status.
func (c *Client) AdminListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := c.getJSON(ctx, "/api/admin/items", &items)
	return items, err
}

// AdminUpdateStatus moves a listing to the given lifecycle status.
func (c *Client) AdminUpdateStatus(ctx context.Context, id int64, status models.ItemStatus) error {
	body := fmt.Sprintf(`{"status":%q}`, status)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/api/admin/items/%d/status", c.baseURL, id), strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

// AdminDeleteItem removes a listing entirely.
func (c *Client) AdminDeleteItem(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/api/admin/items/%d", c.baseURL, id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// pageKey turns a title into the form used in REST paths.
func pageKey(title string) string {
	return url.PathEscape(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
}

// GetPageSource returns the latest revision of a page with its wikitext.
func (c *Client) GetPageSource(ctx context.Context, title string) (*Page, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("page title is required")
	}

	body, err := c.Get(ctx, "/v1/page/"+pageKey(title))
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse page response: %w", err)
	}

	return &page, nil
}

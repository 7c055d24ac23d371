package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client fetches the currency code to name table from openexchangerates.
type Client struct {
	http  *resty.Client
	url   string
	appID string
}

func NewClient(url, appID string) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("Accept", "application/json"),
		url:   url,
		appID: appID,
	}
}

// Fetch returns currencies keyed by code, e.g. "USD": "United States Dollar".
func (c *Client) Fetch(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"app_id":           c.appID,
			"prettyprint":      "false",
			"show_alternative": "false",
			"show_inactive":    "false",
		}).
		SetResult(&out).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch currencies: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch currencies: unexpected status %d", resp.StatusCode())
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("fetch currencies: empty response")
	}
	return out, nil
}

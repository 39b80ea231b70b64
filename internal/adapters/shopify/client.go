// Package shopify is the client for the external order system: paginated
// order reads plus the two idempotent corrective mutations the
// reconciliation engine issues (mark paid, mark delivered).
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/classify"
	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
)

const defaultPageSize = 250

// Config holds the Admin API connection settings.
type Config struct {
	StoreDomain string // e.g. "testograph.myshopify.com"
	AccessToken string
	APIVersion  string // e.g. "2024-10"
	PageSize    int
	BaseURL     string // overrides https://{StoreDomain}; used by tests
}

// Client talks to the Shopify Admin API.
type Client struct {
	httpClient *http.Client
	cfg        Config
	rules      *classify.ProductRules
	logger     *slog.Logger
}

// NewClient validates credentials and builds a client. Missing credentials
// are configuration errors: the caller must fail the run before any work.
func NewClient(cfg Config, rules *classify.ProductRules, logger *slog.Logger) (*Client, error) {
	if cfg.StoreDomain == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("shopify store domain is not configured")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("shopify access token is not configured")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-10"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if rules == nil {
		rules = classify.DefaultProductRules()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:    cfg,
		rules:  rules,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
			},
		},
	}, nil
}

func (c *Client) baseURL() string {
	if c.cfg.BaseURL != "" {
		return c.cfg.BaseURL
	}
	return "https://" + c.cfg.StoreDomain
}

// FetchAllOrders fetches every order, following the page_info cursor in the
// Link response header until no further cursor is present. The full set is
// accumulated before returning: drift detection needs all of it.
func (c *Client) FetchAllOrders(ctx context.Context) ([]*order.Record, error) {
	all := make([]*order.Record, 0, c.cfg.PageSize)
	pageInfo := ""
	pages := 0

	for {
		endpoint := fmt.Sprintf("%s/admin/api/%s/orders.json", c.baseURL(), c.cfg.APIVersion)
		q := url.Values{}
		q.Set("limit", fmt.Sprintf("%d", c.cfg.PageSize))
		if pageInfo == "" {
			q.Set("status", "any")
		} else {
			// Shopify rejects filter params alongside a cursor
			q.Set("page_info", pageInfo)
		}

		var body ordersResponse
		header, err := c.getJSON(ctx, endpoint+"?"+q.Encode(), &body)
		if err != nil {
			return nil, fmt.Errorf("fetch orders page %d: %w", pages+1, err)
		}

		for _, o := range body.Orders {
			rec, err := o.toRecord(c.rules)
			if err != nil {
				return nil, fmt.Errorf("order %d: %w", o.ID, err)
			}
			all = append(all, rec)
		}
		pages++

		pageInfo = nextPageInfo(header.Get("Link"))
		if pageInfo == "" {
			break
		}
	}

	c.logger.Debug("fetched all orders", "count", len(all), "pages", pages)
	return all, nil
}

// FetchOrder fetches a single order's current state. Used to refresh
// financial/fulfillment state immediately before attempting a mutation.
func (c *Client) FetchOrder(ctx context.Context, orderID int64) (*order.Record, error) {
	endpoint := fmt.Sprintf("%s/admin/api/%s/orders/%d.json", c.baseURL(), c.cfg.APIVersion, orderID)

	var body orderResponse
	if _, err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("fetch order %d: %w", orderID, err)
	}
	return body.Order.toRecord(c.rules)
}

// getJSON performs an authenticated GET and decodes the JSON body.
// Any non-2xx status or malformed payload surfaces as an error value.
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.cfg.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call shopify api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("shopify api status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return resp.Header, nil
}

// nextPageInfo extracts the page_info cursor for rel="next" from a Link
// header. Absence of the cursor signals the last page.
//
// Example:
//
//	<https://x.myshopify.com/admin/api/2024-10/orders.json?limit=250&page_info=abc>; rel="next"
func nextPageInfo(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	for _, part := range strings.Split(linkHeader, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start < 0 || end < 0 || end <= start {
			continue
		}
		u, err := url.Parse(part[start+1 : end])
		if err != nil {
			continue
		}
		return u.Query().Get("page_info")
	}
	return ""
}

// Package speedy is the client for the courier tracking service. A single
// bulk call resolves delivery status for a batch of tracking numbers.
package speedy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
)

// Config holds the tracking API connection settings.
type Config struct {
	Endpoint string // e.g. "https://api.speedy.bg/v1"
	APIKey   string
}

// Client talks to the Speedy tracking API.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     *slog.Logger
}

// NewClient validates credentials and builds a client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("speedy endpoint is not configured")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("speedy api key is not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:    cfg,
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

type trackRequest struct {
	APIKey  string        `json:"apiKey"`
	Parcels []trackParcel `json:"parcels"`
}

type trackParcel struct {
	ID string `json:"id"`
}

type trackResponse struct {
	Parcels []parcelStatus `json:"parcels"`
}

type parcelStatus struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	DeliveryDate *time.Time `json:"deliveryDate"`
}

// FetchStatuses resolves delivery status for a batch of tracking numbers in
// one call. The provider may omit entries for tracking numbers it does not
// know; those are simply absent from the result, not an error. An empty
// input returns an empty map without touching the network.
func (c *Client) FetchStatuses(ctx context.Context, trackingNumbers []string) (map[string]order.ShipmentStatus, error) {
	statuses := make(map[string]order.ShipmentStatus, len(trackingNumbers))
	if len(trackingNumbers) == 0 {
		return statuses, nil
	}

	reqBody := trackRequest{
		APIKey:  c.cfg.APIKey,
		Parcels: make([]trackParcel, 0, len(trackingNumbers)),
	}
	for _, tn := range trackingNumbers {
		reqBody.Parcels = append(reqBody.Parcels, trackParcel{ID: tn})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal track request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/track", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call speedy api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("speedy api status %d", resp.StatusCode)
	}

	var body trackResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for _, p := range body.Parcels {
		if p.ID == "" {
			continue
		}
		statuses[p.ID] = order.ShipmentStatus{
			TrackingNumber: p.ID,
			StatusText:     p.Status,
			DeliveredAt:    p.DeliveryDate,
		}
	}

	c.logger.Debug("fetched shipment statuses",
		"requested", len(trackingNumbers), "resolved", len(statuses))
	return statuses, nil
}

// Package predictit adapts the PredictIt API to the engine's provider
// contract. PredictIt exposes one public bulk endpoint and a per-market
// endpoint; everything else is filtered client-side.
package predictit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/kestrelhq/arbscope/internal/domain"
)

// Client is the REST client for the public PredictIt market-data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new PredictIt REST client.
//
// baseURL is the API root, e.g. "https://www.predictit.org/api/marketdata".
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// GetAll returns every listed PredictIt market with its contracts.
func (c *Client) GetAll(ctx context.Context) ([]APIMarket, error) {
	body, err := c.doGet(ctx, "/all/")
	if err != nil {
		return nil, fmt.Errorf("predictit: get all markets: %w", err)
	}

	var resp AllMarketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("predictit: decode markets: %w", err)
	}
	return resp.Markets, nil
}

// GetMarket returns a single market (with contracts) by its numeric ID.
func (c *Client) GetMarket(ctx context.Context, id int) (APIMarket, error) {
	body, err := c.doGet(ctx, "/markets/"+strconv.Itoa(id))
	if err != nil {
		return APIMarket{}, fmt.Errorf("predictit: get market %d: %w", id, err)
	}

	var market APIMarket
	if err := json.Unmarshal(body, &market); err != nil {
		return APIMarket{}, fmt.Errorf("predictit: decode market: %w", err)
	}
	return market, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	default:
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}

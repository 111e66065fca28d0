package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/external"
	"github.com/wonny/magicformula/pkg/config"
	"github.com/wonny/magicformula/pkg/httputil"
	"github.com/wonny/magicformula/pkg/logger"
)

// Client handles communication with the Finnhub basic financials API
// ⭐ SSOT: Finnhub calls only go through this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	token      string
	baseURL    string
}

// NewClient creates a new Finnhub client
func NewClient(httpClient *httputil.Client, cfg config.ProviderConfig, log *logger.Logger) *Client {
	token := cfg.APIKey
	if token == "" {
		token = config.DemoKey
	}

	return &Client{
		httpClient: httpClient,
		logger:     log.Module("finnhub"),
		token:      token,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// MetricResponse is the subset of /api/v1/stock/metric used here
type MetricResponse struct {
	Symbol string  `json:"symbol"`
	Metric *Metric `json:"metric"`
	Error  string  `json:"error"`
}

// Metric holds the basic financial ratios
type Metric struct {
	PEBasicExclExtraTTM *float64 `json:"peBasicExclExtraTTM"`
	PETTM               *float64 `json:"peTTM"`
	ROETTM              *float64 `json:"roeTTM"`
}

// Source implements contracts.Provider
func (c *Client) Source() contracts.Source {
	return contracts.SourceFinnhub
}

// FetchCurrent returns the trailing PE and ROE (as ROIC proxy) of symbol
func (c *Client) FetchCurrent(ctx context.Context, symbol string) (*contracts.FinancialMetrics, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("metric", "basic")
	params.Set("token", c.token)

	body, err := c.httpClient.GetBody(ctx, fmt.Sprintf("%s/api/v1/stock/metric?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, c.fail(symbol, err)
	}

	var resp MetricResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.fail(symbol, fmt.Errorf("%w: %v", contracts.ErrInvalidPayload, err))
	}

	pe, roe, err := parseMetric(resp)
	if err != nil {
		return nil, c.fail(symbol, err)
	}

	return &contracts.FinancialMetrics{
		Symbol:    symbol,
		PERatio:   pe,
		ROIC:      roe,
		Source:    contracts.SourceFinnhub,
		Basis:     contracts.BasisROE,
		FetchedAt: time.Now(),
	}, nil
}

// parseMetric prefers the PE excluding extraordinary items and scales ROE by 100
func parseMetric(resp MetricResponse) (float64, float64, error) {
	if resp.Error != "" {
		return 0, 0, fmt.Errorf("%w: %s", contracts.ErrProviderMessage, resp.Error)
	}
	if resp.Metric == nil {
		return 0, 0, fmt.Errorf("%w: metric object missing", contracts.ErrNoData)
	}

	var pe float64
	switch m := resp.Metric; {
	case m.PEBasicExclExtraTTM != nil && external.PositiveFinite(*m.PEBasicExclExtraTTM):
		pe = *m.PEBasicExclExtraTTM
	case m.PETTM != nil && external.PositiveFinite(*m.PETTM):
		pe = *m.PETTM
	default:
		return 0, 0, fmt.Errorf("%w: no positive PE", contracts.ErrInvalidPayload)
	}

	if resp.Metric.ROETTM == nil || !external.PositiveFinite(*resp.Metric.ROETTM) {
		return 0, 0, fmt.Errorf("%w: no positive roeTTM", contracts.ErrInvalidPayload)
	}

	return pe, *resp.Metric.ROETTM * 100, nil
}

func (c *Client) fail(symbol string, err error) error {
	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"error":  err.Error(),
	}).Debug("Finnhub request failed")

	return &contracts.ProviderError{
		Source: contracts.SourceFinnhub,
		Symbol: symbol,
		Err:    err,
	}
}

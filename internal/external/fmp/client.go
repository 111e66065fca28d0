package fmp

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

// historyLimit is how many annual ratio rows are requested
const historyLimit = 10

// Client handles communication with the Financial Modeling Prep ratios API
// ⭐ SSOT: FMP calls only go through this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	baseURL    string
}

// NewClient creates a new FMP client
func NewClient(httpClient *httputil.Client, cfg config.ProviderConfig, log *logger.Logger) *Client {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = config.DemoKey
	}

	return &Client{
		httpClient: httpClient,
		logger:     log.Module("fmp"),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// RatiosTTM is one element of /api/v3/ratios-ttm/{symbol}
type RatiosTTM struct {
	PERatioTTM                 *float64 `json:"peRatioTTM"`
	ReturnOnCapitalEmployedTTM *float64 `json:"returnOnCapitalEmployedTTM"`
	ReturnOnEquityTTM          *float64 `json:"returnOnEquityTTM"`
}

// AnnualRatios is one element of /api/v3/ratios/{symbol}
type AnnualRatios struct {
	Symbol                  string   `json:"symbol"`
	Date                    string   `json:"date"`
	PriceEarningsRatio      *float64 `json:"priceEarningsRatio"`
	ReturnOnCapitalEmployed *float64 `json:"returnOnCapitalEmployed"`
}

// errorResponse is what FMP returns instead of an array on failure
type errorResponse struct {
	ErrorMessage string `json:"Error Message"`
}

// Source implements contracts.Provider
func (c *Client) Source() contracts.Source {
	return contracts.SourceFMP
}

// FetchCurrent returns the trailing PE and return on capital employed of symbol
func (c *Client) FetchCurrent(ctx context.Context, symbol string) (*contracts.FinancialMetrics, error) {
	var rows []RatiosTTM
	if err := c.get(ctx, "/api/v3/ratios-ttm/"+url.PathEscape(symbol), nil, &rows); err != nil {
		return nil, c.fail(symbol, 0, err)
	}
	if len(rows) == 0 {
		return nil, c.fail(symbol, 0, fmt.Errorf("%w: empty ratios", contracts.ErrNoData))
	}

	pe, roce, err := pair(rows[0].PERatioTTM, rows[0].ReturnOnCapitalEmployedTTM)
	if err != nil {
		return nil, c.fail(symbol, 0, err)
	}

	return &contracts.FinancialMetrics{
		Symbol:    symbol,
		PERatio:   pe,
		ROIC:      roce,
		Source:    contracts.SourceFMP,
		Basis:     contracts.BasisROCE,
		FetchedAt: time.Now(),
	}, nil
}

// FetchHistorical returns PE and return on capital employed of symbol for the
// fiscal year ending in year
func (c *Client) FetchHistorical(ctx context.Context, symbol string, year int) (*contracts.FinancialMetrics, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprint(historyLimit))

	var rows []AnnualRatios
	if err := c.get(ctx, "/api/v3/ratios/"+url.PathEscape(symbol), params, &rows); err != nil {
		return nil, c.fail(symbol, year, err)
	}

	for _, row := range rows {
		if y, ok := external.YearOf(row.Date); !ok || y != year {
			continue
		}

		pe, roce, err := pair(row.PriceEarningsRatio, row.ReturnOnCapitalEmployed)
		if err != nil {
			return nil, c.fail(symbol, year, err)
		}

		return &contracts.FinancialMetrics{
			Symbol:    symbol,
			PERatio:   pe,
			ROIC:      roce,
			Source:    contracts.SourceFMP,
			Basis:     contracts.BasisROCE,
			Year:      year,
			FetchedAt: time.Now(),
		}, nil
	}

	return nil, c.fail(symbol, year, fmt.Errorf("%w: no ratios for %d", contracts.ErrNoData, year))
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	body, err := c.httpClient.GetBody(ctx, fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode()))
	if err != nil {
		return err
	}

	if trimmed := strings.TrimSpace(string(body)); strings.HasPrefix(trimmed, "{") {
		var e errorResponse
		if err := json.Unmarshal(body, &e); err == nil && e.ErrorMessage != "" {
			return fmt.Errorf("%w: %s", contracts.ErrProviderMessage, e.ErrorMessage)
		}
		return fmt.Errorf("%w: expected array", contracts.ErrInvalidPayload)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrInvalidPayload, err)
	}
	return nil
}

// pair validates PE and a return ratio, converting the ratio to percent
func pair(pe, ratio *float64) (float64, float64, error) {
	if pe == nil || !external.PositiveFinite(*pe) {
		return 0, 0, fmt.Errorf("%w: no positive PE", contracts.ErrInvalidPayload)
	}
	if ratio == nil || !external.PositiveFinite(*ratio) {
		return 0, 0, fmt.Errorf("%w: no positive return on capital employed", contracts.ErrInvalidPayload)
	}
	return *pe, *ratio * 100, nil
}

func (c *Client) fail(symbol string, year int, err error) error {
	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"year":   year,
		"error":  err.Error(),
	}).Debug("FMP request failed")

	return &contracts.ProviderError{
		Source: contracts.SourceFMP,
		Symbol: symbol,
		Year:   year,
		Err:    err,
	}
}

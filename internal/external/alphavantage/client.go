package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/pkg/config"
	"github.com/wonny/magicformula/pkg/httputil"
	"github.com/wonny/magicformula/pkg/logger"
)

// PEEstimator derives a past PE from fundamentals, since the statements carry no price
type PEEstimator interface {
	EstimateHistoricalPE(symbol string, year int, roe float64) float64
}

// Client handles communication with the Alpha Vantage fundamentals API
// ⭐ SSOT: Alpha Vantage calls only go through this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	baseURL    string
	estimator  PEEstimator
}

// NewClient creates a new Alpha Vantage client
func NewClient(httpClient *httputil.Client, cfg config.ProviderConfig, estimator PEEstimator, log *logger.Logger) *Client {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = config.DemoKey
	}

	return &Client{
		httpClient: httpClient,
		logger:     log.Module("alphavantage"),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		estimator:  estimator,
	}
}

// Source implements contracts.Provider
func (c *Client) Source() contracts.Source {
	return contracts.SourceAlphaVantage
}

// apiStatus carries the fields Alpha Vantage uses to report errors and
// throttling inside a 200 response
type apiStatus struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

func (s apiStatus) err() error {
	switch {
	case s.ErrorMessage != "":
		return fmt.Errorf("%w: %s", contracts.ErrProviderMessage, s.ErrorMessage)
	case s.Note != "":
		return fmt.Errorf("%w: %s", contracts.ErrProviderMessage, s.Note)
	case s.Information != "":
		return fmt.Errorf("%w: %s", contracts.ErrProviderMessage, s.Information)
	}
	return nil
}

// query calls one Alpha Vantage function and decodes the body into dest
func (c *Client) query(ctx context.Context, function, symbol string, dest interface{}) error {
	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	body, err := c.httpClient.GetBody(ctx, fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode()))
	if err != nil {
		return err
	}

	var status apiStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrInvalidPayload, err)
	}
	if err := status.err(); err != nil {
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrInvalidPayload, err)
	}
	return nil
}

func (c *Client) fail(symbol string, year int, err error) error {
	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"year":   year,
		"error":  err.Error(),
	}).Debug("Alpha Vantage request failed")

	return &contracts.ProviderError{
		Source: contracts.SourceAlphaVantage,
		Symbol: symbol,
		Year:   year,
		Err:    err,
	}
}

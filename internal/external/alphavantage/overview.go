package alphavantage

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/external"
)

// OverviewResponse is the subset of the OVERVIEW function used here
type OverviewResponse struct {
	Symbol            string `json:"Symbol"`
	PERatio           string `json:"PERatio"`
	ReturnOnEquityTTM string `json:"ReturnOnEquityTTM"` // ratio, 0.25 = 25%
}

// FetchCurrent returns the trailing PE and ROE (as ROIC proxy) of symbol
func (c *Client) FetchCurrent(ctx context.Context, symbol string) (*contracts.FinancialMetrics, error) {
	var resp OverviewResponse
	if err := c.query(ctx, "OVERVIEW", symbol, &resp); err != nil {
		return nil, c.fail(symbol, 0, err)
	}

	pe, roe, err := parseOverview(resp)
	if err != nil {
		return nil, c.fail(symbol, 0, err)
	}

	return &contracts.FinancialMetrics{
		Symbol:    symbol,
		PERatio:   pe,
		ROIC:      roe,
		Source:    contracts.SourceAlphaVantage,
		Basis:     contracts.BasisROE,
		FetchedAt: time.Now(),
	}, nil
}

// parseOverview returns PE and ROE in percent
func parseOverview(resp OverviewResponse) (float64, float64, error) {
	pe, ok := external.ParseNumber(resp.PERatio)
	if !ok || !external.PositiveFinite(pe) {
		return 0, 0, fmt.Errorf("%w: PERatio %q", contracts.ErrInvalidPayload, resp.PERatio)
	}

	roe, ok := external.ParseNumber(resp.ReturnOnEquityTTM)
	if !ok || !external.PositiveFinite(roe) {
		return 0, 0, fmt.Errorf("%w: ReturnOnEquityTTM %q", contracts.ErrInvalidPayload, resp.ReturnOnEquityTTM)
	}

	return pe, roe * 100, nil
}

package finviz

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/external"
	"github.com/wonny/magicformula/pkg/config"
	"github.com/wonny/magicformula/pkg/httputil"
	"github.com/wonny/magicformula/pkg/logger"
)

// browserUA is sent because the quote page rejects non-browser agents
const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Client scrapes the snapshot table of the Finviz quote page
// ⭐ SSOT: Finviz scraping only happens in this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Finviz client
func NewClient(httpClient *httputil.Client, cfg config.FinvizConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient.WithUserAgent(browserUA),
		logger:     log.Module("finviz"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Source implements contracts.Provider
func (c *Client) Source() contracts.Source {
	return contracts.SourceFinviz
}

// FetchCurrent returns PE and ROIC of symbol, using ROE when the page has no ROIC cell
func (c *Client) FetchCurrent(ctx context.Context, symbol string) (*contracts.FinancialMetrics, error) {
	params := url.Values{}
	params.Set("t", symbol)

	body, err := c.httpClient.GetBody(ctx, fmt.Sprintf("%s/quote.ashx?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, c.fail(symbol, err)
	}

	snapshot, err := ParseSnapshot(string(body))
	if err != nil {
		return nil, c.fail(symbol, err)
	}

	m, err := snapshot.metrics(symbol)
	if err != nil {
		return nil, c.fail(symbol, err)
	}
	return m, nil
}

// Snapshot is the label/value grid of the quote page
type Snapshot map[string]string

// ParseSnapshot reads the alternating label and value cells of the snapshot table
func ParseSnapshot(html string) (Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrInvalidPayload, err)
	}

	snapshot := Snapshot{}
	doc.Find("table.snapshot-table2 tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		for i := 0; i+1 < cells.Length(); i += 2 {
			label := strings.TrimSpace(cells.Eq(i).Text())
			value := strings.TrimSpace(cells.Eq(i + 1).Text())
			if label != "" {
				snapshot[label] = value
			}
		}
	})

	if len(snapshot) == 0 {
		return nil, fmt.Errorf("%w: snapshot table not found", contracts.ErrNoData)
	}
	return snapshot, nil
}

func (s Snapshot) percent(label string) (float64, bool) {
	v, ok := s[label]
	if !ok {
		return 0, false
	}
	return external.ParseNumber(strings.TrimSuffix(v, "%"))
}

func (s Snapshot) metrics(symbol string) (*contracts.FinancialMetrics, error) {
	pe, ok := external.ParseNumber(s["P/E"])
	if !ok || !external.PositiveFinite(pe) {
		return nil, fmt.Errorf("%w: P/E %q", contracts.ErrInvalidPayload, s["P/E"])
	}

	basis := contracts.BasisROIC
	ret, ok := s.percent("ROIC")
	if !ok {
		basis = contracts.BasisROE
		ret, ok = s.percent("ROE")
	}
	if !ok || !external.PositiveFinite(ret) {
		return nil, fmt.Errorf("%w: no positive ROIC or ROE", contracts.ErrInvalidPayload)
	}

	return &contracts.FinancialMetrics{
		Symbol:    symbol,
		PERatio:   pe,
		ROIC:      ret,
		Source:    contracts.SourceFinviz,
		Basis:     basis,
		FetchedAt: time.Now(),
	}, nil
}

func (c *Client) fail(symbol string, err error) error {
	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"error":  err.Error(),
	}).Debug("Finviz scrape failed")

	return &contracts.ProviderError{
		Source: contracts.SourceFinviz,
		Symbol: symbol,
		Err:    err,
	}
}

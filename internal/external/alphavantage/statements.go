package alphavantage

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/external"
)

// IncomeStatementResponse is the subset of the INCOME_STATEMENT function used here
type IncomeStatementResponse struct {
	Symbol        string         `json:"symbol"`
	AnnualReports []IncomeReport `json:"annualReports"`
}

// IncomeReport is one fiscal year of an income statement
type IncomeReport struct {
	FiscalDateEnding string `json:"fiscalDateEnding"`
	NetIncome        string `json:"netIncome"`
}

// BalanceSheetResponse is the subset of the BALANCE_SHEET function used here
type BalanceSheetResponse struct {
	Symbol        string          `json:"symbol"`
	AnnualReports []BalanceReport `json:"annualReports"`
}

// BalanceReport is one fiscal year of a balance sheet
type BalanceReport struct {
	FiscalDateEnding       string `json:"fiscalDateEnding"`
	TotalShareholderEquity string `json:"totalShareholderEquity"`
	LongTermDebt           string `json:"longTermDebt"`
	ShortTermDebt          string `json:"shortTermDebt"`
}

// Fundamentals is the return figures derived from one fiscal year of statements
type Fundamentals struct {
	ROE   float64
	ROIC  float64
	Basis contracts.ROICBasis
}

// FetchHistorical derives ROIC of symbol for the fiscal year ending in year
// from its annual statements and estimates PE from the result
func (c *Client) FetchHistorical(ctx context.Context, symbol string, year int) (*contracts.FinancialMetrics, error) {
	var income IncomeStatementResponse
	var balance BalanceSheetResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.query(gctx, "INCOME_STATEMENT", symbol, &income)
	})
	g.Go(func() error {
		return c.query(gctx, "BALANCE_SHEET", symbol, &balance)
	})
	if err := g.Wait(); err != nil {
		return nil, c.fail(symbol, year, err)
	}

	f, err := Derive(income.AnnualReports, balance.AnnualReports, year)
	if err != nil {
		return nil, c.fail(symbol, year, err)
	}

	return &contracts.FinancialMetrics{
		Symbol:    symbol,
		PERatio:   c.estimator.EstimateHistoricalPE(symbol, year, f.ROE),
		ROIC:      f.ROIC,
		Source:    contracts.SourceAlphaVantage,
		Basis:     f.Basis,
		Year:      year,
		FetchedAt: time.Now(),
	}, nil
}

// Derive computes ROE and ROIC from the reports of the fiscal year ending in year.
// Invested capital is equity plus long and short term debt; a missing short term
// debt counts as zero. ROIC falls back to ROE when debt is unparseable or the
// invested capital is not positive.
func Derive(income []IncomeReport, balance []BalanceReport, year int) (Fundamentals, error) {
	inc, ok := findIncome(income, year)
	if !ok {
		return Fundamentals{}, fmt.Errorf("%w: no income statement for %d", contracts.ErrNoData, year)
	}
	bal, ok := findBalance(balance, year)
	if !ok {
		return Fundamentals{}, fmt.Errorf("%w: no balance sheet for %d", contracts.ErrNoData, year)
	}

	netIncome, ok := external.ParseNumber(inc.NetIncome)
	if !ok {
		return Fundamentals{}, fmt.Errorf("%w: netIncome %q", contracts.ErrInvalidPayload, inc.NetIncome)
	}
	equity, ok := external.ParseNumber(bal.TotalShareholderEquity)
	if !ok || equity <= 0 {
		return Fundamentals{}, fmt.Errorf("%w: totalShareholderEquity %q", contracts.ErrInvalidPayload, bal.TotalShareholderEquity)
	}

	roe := netIncome / equity * 100
	f := Fundamentals{ROE: roe, ROIC: roe, Basis: contracts.BasisROE}

	longTerm, ok := external.ParseNumber(bal.LongTermDebt)
	if !ok {
		return f, nil
	}
	shortTerm := 0.0
	if bal.ShortTermDebt != "" {
		if shortTerm, ok = external.ParseNumber(bal.ShortTermDebt); !ok {
			return f, nil
		}
	}

	if invested := equity + longTerm + shortTerm; invested > 0 {
		f.ROIC = netIncome / invested * 100
		f.Basis = contracts.BasisROIC
	}
	return f, nil
}

func findIncome(reports []IncomeReport, year int) (IncomeReport, bool) {
	for _, r := range reports {
		if y, ok := external.YearOf(r.FiscalDateEnding); ok && y == year {
			return r, true
		}
	}
	return IncomeReport{}, false
}

func findBalance(reports []BalanceReport, year int) (BalanceReport, bool) {
	for _, r := range reports {
		if y, ok := external.YearOf(r.FiscalDateEnding); ok && y == year {
			return r, true
		}
	}
	return BalanceReport{}, false
}

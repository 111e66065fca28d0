package universe

import (
	"strings"

	"github.com/wonny/magicformula/internal/contracts"
)

// companies is the screened universe in its canonical order. The historical
// backtest only analyses a prefix of it, so the order is significant.
var companies = []contracts.Company{
	{Name: "Apple Inc.", Symbol: "AAPL", Exchange: "NASDAQ"},
	{Name: "Microsoft Corp.", Symbol: "MSFT", Exchange: "NASDAQ"},
	{Name: "Alphabet Inc.", Symbol: "GOOGL", Exchange: "NASDAQ"},
	{Name: "Amazon.com Inc.", Symbol: "AMZN", Exchange: "NASDAQ"},
	{Name: "Tesla Inc.", Symbol: "TSLA", Exchange: "NASDAQ"},
	{Name: "Meta Platforms Inc.", Symbol: "META", Exchange: "NASDAQ"},
	{Name: "Netflix Inc.", Symbol: "NFLX", Exchange: "NASDAQ"},
	{Name: "NVIDIA Corp.", Symbol: "NVDA", Exchange: "NASDAQ"},
	{Name: "Berkshire Hathaway", Symbol: "BRK-A", Exchange: "NYSE"},
	{Name: "Visa Inc.", Symbol: "V", Exchange: "NYSE"},
	{Name: "JPMorgan Chase", Symbol: "JPM", Exchange: "NYSE"},
	{Name: "Johnson & Johnson", Symbol: "JNJ", Exchange: "NYSE"},
	{Name: "Procter & Gamble", Symbol: "PG", Exchange: "NYSE"},
	{Name: "UnitedHealth Group", Symbol: "UNH", Exchange: "NYSE"},
	{Name: "Home Depot Inc.", Symbol: "HD", Exchange: "NYSE"},
	{Name: "Walt Disney Co.", Symbol: "DIS", Exchange: "NYSE"},
	{Name: "Verizon Communications", Symbol: "VZ", Exchange: "NYSE"},
	{Name: "PayPal Holdings", Symbol: "PYPL", Exchange: "NASDAQ"},
	{Name: "Mastercard Inc.", Symbol: "MA", Exchange: "NYSE"},
	{Name: "Coca-Cola Co.", Symbol: "KO", Exchange: "NYSE"},
	{Name: "Intel Corp.", Symbol: "INTC", Exchange: "NASDAQ"},
	{Name: "Cisco Systems", Symbol: "CSCO", Exchange: "NASDAQ"},
	{Name: "Pfizer Inc.", Symbol: "PFE", Exchange: "NYSE"},
	{Name: "Walmart Inc.", Symbol: "WMT", Exchange: "NYSE"},
	{Name: "Chevron Corp.", Symbol: "CVX", Exchange: "NYSE"},
	{Name: "Exxon Mobil Corp.", Symbol: "XOM", Exchange: "NYSE"},
	{Name: "Bank of America", Symbol: "BAC", Exchange: "NYSE"},
	{Name: "Wells Fargo", Symbol: "WFC", Exchange: "NYSE"},
	{Name: "AT&T Inc.", Symbol: "T", Exchange: "NYSE"},
	{Name: "Comcast Corp.", Symbol: "CMCSA", Exchange: "NASDAQ"},
	{Name: "Oracle Corp.", Symbol: "ORCL", Exchange: "NYSE"},
	{Name: "Salesforce Inc.", Symbol: "CRM", Exchange: "NYSE"},
	{Name: "Adobe Inc.", Symbol: "ADBE", Exchange: "NASDAQ"},
	{Name: "IBM Corp.", Symbol: "IBM", Exchange: "NYSE"},
	{Name: "McDonald's Corp.", Symbol: "MCD", Exchange: "NYSE"},
	{Name: "Nike Inc.", Symbol: "NKE", Exchange: "NYSE"},
	{Name: "Starbucks Corp.", Symbol: "SBUX", Exchange: "NASDAQ"},
	{Name: "Boeing Co.", Symbol: "BA", Exchange: "NYSE"},
	{Name: "General Electric", Symbol: "GE", Exchange: "NYSE"},
	{Name: "Ford Motor Co.", Symbol: "F", Exchange: "NYSE"},
	{Name: "General Motors", Symbol: "GM", Exchange: "NYSE"},
	{Name: "3M Co.", Symbol: "MMM", Exchange: "NYSE"},
	{Name: "Caterpillar Inc.", Symbol: "CAT", Exchange: "NYSE"},
	{Name: "American Express", Symbol: "AXP", Exchange: "NYSE"},
	{Name: "Goldman Sachs", Symbol: "GS", Exchange: "NYSE"},
	{Name: "Morgan Stanley", Symbol: "MS", Exchange: "NYSE"},
	{Name: "Citigroup Inc.", Symbol: "C", Exchange: "NYSE"},
	{Name: "Abbott Labs", Symbol: "ABT", Exchange: "NYSE"},
	{Name: "Merck & Co.", Symbol: "MRK", Exchange: "NYSE"},
	{Name: "Eli Lilly", Symbol: "LLY", Exchange: "NYSE"},
	{Name: "AbbVie Inc.", Symbol: "ABBV", Exchange: "NYSE"},
	{Name: "Bristol Myers", Symbol: "BMY", Exchange: "NYSE"},
	{Name: "Amgen Inc.", Symbol: "AMGN", Exchange: "NASDAQ"},
	{Name: "Gilead Sciences", Symbol: "GILD", Exchange: "NASDAQ"},
	{Name: "Biogen Inc.", Symbol: "BIIB", Exchange: "NASDAQ"},
	{Name: "Texas Instruments", Symbol: "TXN", Exchange: "NASDAQ"},
	{Name: "Qualcomm Inc.", Symbol: "QCOM", Exchange: "NASDAQ"},
	{Name: "Broadcom Inc.", Symbol: "AVGO", Exchange: "NASDAQ"},
	{Name: "Advanced Micro", Symbol: "AMD", Exchange: "NASDAQ"},
	{Name: "Micron Technology", Symbol: "MU", Exchange: "NASDAQ"},
	{Name: "Applied Materials", Symbol: "AMAT", Exchange: "NASDAQ"},
	{Name: "ServiceNow Inc.", Symbol: "NOW", Exchange: "NYSE"},
	{Name: "Snowflake Inc.", Symbol: "SNOW", Exchange: "NYSE"},
	{Name: "Zoom Video", Symbol: "ZM", Exchange: "NASDAQ"},
	{Name: "Shopify Inc.", Symbol: "SHOP", Exchange: "NYSE"},
	{Name: "Square Inc.", Symbol: "SQ", Exchange: "NYSE"},
	{Name: "Uber Technologies", Symbol: "UBER", Exchange: "NYSE"},
	{Name: "Lyft Inc.", Symbol: "LYFT", Exchange: "NASDAQ"},
	{Name: "Airbnb Inc.", Symbol: "ABNB", Exchange: "NASDAQ"},
	{Name: "DoorDash Inc.", Symbol: "DASH", Exchange: "NYSE"},
	{Name: "Palantir Technologies", Symbol: "PLTR", Exchange: "NYSE"},
	{Name: "Roblox Corp.", Symbol: "RBLX", Exchange: "NYSE"},
}

// Size is the number of companies in the universe
func Size() int {
	return len(companies)
}

// Companies returns a copy of the full universe
func Companies() []contracts.Company {
	out := make([]contracts.Company, len(companies))
	copy(out, companies)
	return out
}

// First returns a copy of the first n companies (all of them when n exceeds the size)
func First(n int) []contracts.Company {
	if n < 0 {
		n = 0
	}
	if n > len(companies) {
		n = len(companies)
	}
	out := make([]contracts.Company, n)
	copy(out, companies[:n])
	return out
}

// Lookup finds a company by symbol, ignoring case
func Lookup(symbol string) (contracts.Company, bool) {
	for _, c := range companies {
		if strings.EqualFold(c.Symbol, symbol) {
			return c, true
		}
	}
	return contracts.Company{}, false
}

// Filter returns the companies whose symbols are listed, in universe order.
// Unknown symbols are ignored.
func Filter(symbols []string) []contracts.Company {
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[strings.ToUpper(strings.TrimSpace(s))] = true
	}

	var out []contracts.Company
	for _, c := range companies {
		if want[c.Symbol] {
			out = append(out, c)
		}
	}
	return out
}

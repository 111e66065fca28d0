package fallback

// baselines holds approximate current PE and ROIC (percent) per symbol. They
// seed the current fallback snapshot only.
var baselines = map[string]Baseline{
	"AAPL":  {PE: 25.2, ROIC: 28.5},
	"MSFT":  {PE: 28.7, ROIC: 31.2},
	"GOOGL": {PE: 22.1, ROIC: 22.4},
	"AMZN":  {PE: 45.3, ROIC: 15.8},
	"TSLA":  {PE: 35.6, ROIC: 18.7},
	"META":  {PE: 19.8, ROIC: 24.1},
	"NFLX":  {PE: 42.1, ROIC: 13.2},
	"NVDA":  {PE: 58.4, ROIC: 35.7},
	"BRK-A": {PE: 14.2, ROIC: 16.9},
	"V":     {PE: 31.8, ROIC: 38.2},
	"JPM":   {PE: 12.4, ROIC: 14.8},
	"JNJ":   {PE: 16.5, ROIC: 19.3},
	"PG":    {PE: 24.8, ROIC: 26.7},
	"UNH":   {PE: 18.9, ROIC: 21.5},
	"HD":    {PE: 22.7, ROIC: 29.4},
	"DIS":   {PE: 84.5, ROIC: 7.2},
	"VZ":    {PE: 11.2, ROIC: 8.9},
	"PYPL":  {PE: 52.3, ROIC: 12.1},
	"MA":    {PE: 33.6, ROIC: 54.2},
	"KO":    {PE: 26.3, ROIC: 17.2},
	"INTC":  {PE: 13.8, ROIC: 18.4},
	"CSCO":  {PE: 15.2, ROIC: 12.8},
	"PFE":   {PE: 17.9, ROIC: 9.4},
	"WMT":   {PE: 26.1, ROIC: 19.8},
	"CVX":   {PE: 15.7, ROIC: 8.3},
	"XOM":   {PE: 14.3, ROIC: 11.2},
	"BAC":   {PE: 11.8, ROIC: 10.5},
	"WFC":   {PE: 12.6, ROIC: 9.8},
	"T":     {PE: 7.8, ROIC: 6.2},
	"CMCSA": {PE: 16.4, ROIC: 8.7},
	"ORCL":  {PE: 21.3, ROIC: 42.1},
	"CRM":   {PE: 85.2, ROIC: 3.8},
	"ADBE":  {PE: 39.7, ROIC: 26.3},
	"IBM":   {PE: 15.9, ROIC: 12.4},
	"MCD":   {PE: 25.8, ROIC: 43.2},
	"NKE":   {PE: 28.4, ROIC: 34.7},
	"SBUX":  {PE: 24.9, ROIC: 18.6},
	"BA":    {PE: 22.1, ROIC: 4.8},
	"GE":    {PE: 18.7, ROIC: 7.3},
	"F":     {PE: 12.4, ROIC: 5.1},
	"GM":    {PE: 6.8, ROIC: 8.9},
	"MMM":   {PE: 16.8, ROIC: 21.3},
	"CAT":   {PE: 14.2, ROIC: 18.7},
	"AXP":   {PE: 13.9, ROIC: 24.8},
	"GS":    {PE: 10.2, ROIC: 11.3},
	"MS":    {PE: 11.7, ROIC: 12.8},
	"C":     {PE: 8.9, ROIC: 7.4},
	"ABT":   {PE: 23.6, ROIC: 16.8},
	"MRK":   {PE: 16.8, ROIC: 22.4},
	"LLY":   {PE: 54.2, ROIC: 31.7},
	"ABBV":  {PE: 14.7, ROIC: 19.8},
	"BMY":   {PE: 12.3, ROIC: 8.9},
	"AMGN":  {PE: 15.8, ROIC: 12.6},
	"GILD":  {PE: 11.4, ROIC: 9.7},
	"BIIB":  {PE: 18.9, ROIC: 14.2},
	"TXN":   {PE: 22.4, ROIC: 58.3},
	"QCOM":  {PE: 16.8, ROIC: 28.9},
	"AVGO":  {PE: 18.7, ROIC: 31.4},
	"AMD":   {PE: 44.2, ROIC: 15.8},
	"MU":    {PE: 18.3, ROIC: 12.4},
	"AMAT":  {PE: 16.9, ROIC: 35.2},
	"NOW":   {PE: 89.4, ROIC: 8.7},
	"SNOW":  {PE: 185.3, ROIC: -12.4},
	"ZM":    {PE: 24.8, ROIC: 6.3},
	"SHOP":  {PE: 78.9, ROIC: 2.1},
	"SQ":    {PE: 34.7, ROIC: 4.8},
	"UBER":  {PE: 28.4, ROIC: -2.3},
	"LYFT":  {PE: 15.6, ROIC: -8.7},
	"ABNB":  {PE: 22.1, ROIC: 18.9},
	"DASH":  {PE: 48.7, ROIC: -5.2},
	"PLTR":  {PE: 89.2, ROIC: 1.4},
	"RBLX":  {PE: 45.8, ROIC: -18.9},
}

// historicalBaselines seed the synthetic historical series. Symbols not
// listed use DefaultPE and DefaultROIC.
var historicalBaselines = map[string]Baseline{
	"AAPL":  {PE: 25.2, ROIC: 28.5},
	"MSFT":  {PE: 28.7, ROIC: 31.2},
	"GOOGL": {PE: 22.1, ROIC: 22.4},
	"AMZN":  {PE: 45.3, ROIC: 15.8},
	"TSLA":  {PE: 35.6, ROIC: 18.7},
	"META":  {PE: 19.8, ROIC: 24.1},
	"NFLX":  {PE: 42.1, ROIC: 13.2},
	"NVDA":  {PE: 58.4, ROIC: 35.7},
	"BRK-A": {PE: 14.2, ROIC: 16.9},
	"V":     {PE: 31.8, ROIC: 38.2},
	"JPM":   {PE: 12.4, ROIC: 14.8},
	"JNJ":   {PE: 16.5, ROIC: 19.3},
	"PG":    {PE: 24.8, ROIC: 26.7},
	"UNH":   {PE: 18.9, ROIC: 21.5},
	"HD":    {PE: 22.7, ROIC: 29.4},
	"DIS":   {PE: 84.5, ROIC: 7.2},
	"VZ":    {PE: 11.2, ROIC: 8.9},
	"WMT":   {PE: 26.1, ROIC: 19.8},
	"CVX":   {PE: 15.7, ROIC: 8.3},
	"XOM":   {PE: 14.3, ROIC: 11.2},
}

// estimateBasePE is the current PE the historical PE estimate decays from.
// Symbols not listed use DefaultPE.
var estimateBasePE = map[string]float64{
	"AAPL":  25.2,
	"MSFT":  28.7,
	"GOOGL": 22.1,
	"AMZN":  45.3,
	"TSLA":  35.6,
	"META":  19.8,
	"NVDA":  58.4,
	"BRK-A": 14.2,
	"V":     31.8,
	"JPM":   12.4,
}

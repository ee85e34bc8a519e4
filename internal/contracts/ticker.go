package contracts

import "strings"

// Market is the listing region of a ticker
type Market string

const (
	MarketTW Market = "TW"
	MarketUS Market = "US"
)

// NormalizeTicker upper-cases and trims the symbol.
// TW 시장인데 접미사가 없으면 ".TW"를 붙임 (상장: .TW, 상櫃: .TWO)
func NormalizeTicker(ticker string, market Market) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return t
	}
	if market == MarketTW && !strings.HasSuffix(t, ".TW") && !strings.HasSuffix(t, ".TWO") {
		t += ".TW"
	}
	return t
}

// MarketOf infers the market from the symbol suffix
func MarketOf(ticker string) Market {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if strings.HasSuffix(t, ".TW") || strings.HasSuffix(t, ".TWO") {
		return MarketTW
	}
	return MarketUS
}

// StockID strips the exchange suffix: "2330.TW" → "2330"
func StockID(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if i := strings.LastIndex(t, "."); i > 0 {
		return t[:i]
	}
	return t
}

// Package assets holds the static list of cryptocurrencies the collector
// tracks. The list is defined at process start and never mutated; adding an
// asset means adding an entry here plus a migration for its table.
package assets

import "strings"

// Asset describes one tracked cryptocurrency.
type Asset struct {
	// ID is the CoinGecko coin identifier (e.g., "bitcoin").
	ID string `json:"id"`

	// Symbol is the short lowercase code used in API paths (e.g., "btc").
	Symbol string `json:"symbol"`

	// Pair is the display trading pair stored with every record.
	Pair string `json:"pair"`

	// Table is the database table holding this asset's klines.
	Table string `json:"-"`
}

// Supported is the full asset list, in collection order. The first entry is
// the primary asset served by the bare /kline endpoints.
var Supported = []Asset{
	{ID: "bitcoin", Symbol: "btc", Pair: "BTC/USDT", Table: "btc_kline"},
	{ID: "ethereum", Symbol: "eth", Pair: "ETH/USDT", Table: "eth_kline"},
	{ID: "solana", Symbol: "sol", Pair: "SOL/USDT", Table: "sol_kline"},
	{ID: "binancecoin", Symbol: "bnb", Pair: "BNB/USDT", Table: "bnb_kline"},
}

// Primary returns the default asset for unqualified queries.
func Primary() Asset {
	return Supported[0]
}

// BySymbol looks up an asset by its short code, case-insensitively.
// The second return value reports whether the symbol is configured.
func BySymbol(symbol string) (Asset, bool) {
	for _, a := range Supported {
		if strings.EqualFold(a.Symbol, symbol) {
			return a, true
		}
	}
	return Asset{}, false
}

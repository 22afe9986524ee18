// Package models defines the database records shared by storage and the API.
package models

import "time"

// Kline represents one OHLCV sample in an asset's kline table.
// (pair, timestamp) identifies a sample uniquely within a table.
type Kline struct {
	// Timestamp is the sample time, aligned to the polling interval.
	Timestamp time.Time `gorm:"column:timestamp" json:"timestamp"`

	// Open is the opening price. When the upstream payload has no separate
	// open, this carries the close of the preceding sample.
	Open float64 `gorm:"column:open" json:"open"`

	// High is the highest price seen over the sample window.
	High float64 `gorm:"column:high" json:"high"`

	// Low is the lowest price seen over the sample window.
	Low float64 `gorm:"column:low" json:"low"`

	// Close is the latest price of the sample window.
	Close float64 `gorm:"column:close" json:"close"`

	// Volume is the traded volume, 0 when the source exposes none.
	Volume float64 `gorm:"column:volume" json:"volume"`

	// Pair is the display trading pair (e.g., "BTC/USDT").
	Pair string `gorm:"column:pair" json:"pair"`
}

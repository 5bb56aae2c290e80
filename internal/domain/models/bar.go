package models

import "time"

// Bar represents one OHLCV observation for an instrument at a trading date.
// Bars are immutable once ingested; the feed owns them.
type Bar struct {
	Symbol           string
	Date             time.Time
	Open             float64
	High             float64
	Low              float64
	Close            float64
	Volume           float64
	ForeignBuyValue  float64
	ForeignSellValue float64
}

// ForeignFlow is net foreign capital for the bar (buy minus sell value).
func (b Bar) ForeignFlow() float64 {
	return b.ForeignBuyValue - b.ForeignSellValue
}

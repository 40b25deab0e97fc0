package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// StockDocument is the on-disk `{symbol}_data.json` layout.
type StockDocument struct {
	StockData       *StockData               `json:"stock_data"`
	Recommendations []DocumentRecommendation `json:"cramer_recommendations"`
}

// StockData is the price section of a StockDocument.
type StockData struct {
	Meta   SymbolMeta      `json:"meta"`
	Prices []DocumentPrice `json:"prices"`
}

// DocumentPrice is one bar as stored in a StockDocument.
type DocumentPrice struct {
	Date      string              `json:"date"`
	Timestamp int64               `json:"timestamp,omitempty"`
	Close     decimal.NullDecimal `json:"close"`
	Open      decimal.NullDecimal `json:"open"`
	High      decimal.NullDecimal `json:"high"`
	Low       decimal.NullDecimal `json:"low"`
	Volume    *int64              `json:"volume"`
	AdjClose  decimal.NullDecimal `json:"adjClose,omitempty"`
}

// DocumentRecommendation is one call as stored in a StockDocument. Performance
// carries precomputed returns some documents ship with; the engine ignores it.
type DocumentRecommendation struct {
	Ticker         string                     `json:"ticker"`
	Date           string                     `json:"date"`
	Recommendation string                     `json:"recommendation"`
	Text           string                     `json:"text,omitempty"`
	Source         string                     `json:"source,omitempty"`
	Performance    map[string]json.RawMessage `json:"performance,omitempty"`
}

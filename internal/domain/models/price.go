package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is a daily close. Date is truncated to the day.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// Bar is a full daily OHLCV record as delivered by price sources.
type Bar struct {
	Symbol   string
	Date     time.Time
	Open     decimal.NullDecimal
	High     decimal.NullDecimal
	Low      decimal.NullDecimal
	Close    decimal.Decimal
	AdjClose decimal.NullDecimal
	Volume   int64
}

// Point drops everything but the close.
func (b Bar) Point() PricePoint {
	return PricePoint{Date: b.Date, Close: b.Close}
}

// SymbolMeta describes the instrument behind a price series.
type SymbolMeta struct {
	Symbol      string `json:"symbol"`
	Currency    string `json:"currency,omitempty"`
	Exchange    string `json:"exchange,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// PriceHistory is what a price source returns for one symbol.
type PriceHistory struct {
	Meta SymbolMeta
	Bars []Bar
}

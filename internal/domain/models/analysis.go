package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VerdictRule selects how the inverse verdict is derived from the 1m means.
type VerdictRule string

const (
	// RuleLiteral is the reference rule, including the B < S fallback.
	RuleLiteral VerdictRule = "literal"
	// RuleStrict requires buys to lose and sells to gain when both are present.
	RuleStrict VerdictRule = "strict"
)

// LookupMode selects how target prices are located.
type LookupMode string

const (
	LookupExact   LookupMode = "exact"
	LookupNearest LookupMode = "nearest"
)

// AggregateResult is the mean forward return of one class at one horizon.
type AggregateResult struct {
	Class      RecommendationClass `json:"class"`
	Horizon    Horizon             `json:"horizon"`
	MeanReturn decimal.NullDecimal `json:"mean_return"`
	Samples    int                 `json:"samples"`
}

// EventReturns is an event enriched with its forward return per horizon.
type EventReturns struct {
	Event   RecommendationEvent             `json:"event"`
	Returns map[Horizon]decimal.NullDecimal `json:"returns"`
}

// Analysis is the output of the aggregation engine.
type Analysis struct {
	BuyMeans         map[Horizon]decimal.NullDecimal `json:"buy_means"`
	SellMeans        map[Horizon]decimal.NullDecimal `json:"sell_means"`
	InverseEffective bool                            `json:"inverse_effective"`
	Aggregates       []AggregateResult               `json:"aggregates"`
	Events           []EventReturns                  `json:"events"`
	BuyCount         int                             `json:"buy_count"`
	SellCount        int                             `json:"sell_count"`
}

// Means returns the per-horizon means for a class.
func (a *Analysis) Means(c RecommendationClass) map[Horizon]decimal.NullDecimal {
	if c == ClassSell {
		return a.SellMeans
	}
	return a.BuyMeans
}

// AnalysisReport is an Analysis bound to a symbol and the options it was run with.
type AnalysisReport struct {
	RunID         string      `json:"run_id"`
	Symbol        string      `json:"symbol"`
	Lookup        LookupMode  `json:"lookup"`
	MaxGapDays    int         `json:"max_gap_days,omitempty"`
	Rule          VerdictRule `json:"rule"`
	RuleVerdict   bool        `json:"rule_verdict"`
	SeriesVersion string      `json:"series_version"`
	EventsVersion string      `json:"events_version"`
	PricePoints   int         `json:"price_points"`
	ComputedAt    time.Time   `json:"computed_at"`
	Analysis
}

// AnalysisRun is a recorded summary of a past report.
type AnalysisRun struct {
	RunID            string              `json:"run_id"`
	Symbol           string              `json:"symbol"`
	Rule             VerdictRule         `json:"rule"`
	Lookup           LookupMode          `json:"lookup"`
	BuyMonthMean     decimal.NullDecimal `json:"buy_1m_mean"`
	SellMonthMean    decimal.NullDecimal `json:"sell_1m_mean"`
	InverseEffective bool                `json:"inverse_effective"`
	RuleVerdict      bool                `json:"rule_verdict"`
	BuyCount         int                 `json:"buy_count"`
	SellCount        int                 `json:"sell_count"`
	ComputedAt       time.Time           `json:"computed_at"`
}

// Run summarises the report for history storage.
func (r *AnalysisReport) Run() AnalysisRun {
	return AnalysisRun{
		RunID:            r.RunID,
		Symbol:           r.Symbol,
		Rule:             r.Rule,
		Lookup:           r.Lookup,
		BuyMonthMean:     r.BuyMeans[VerdictHorizon],
		SellMonthMean:    r.SellMeans[VerdictHorizon],
		InverseEffective: r.InverseEffective,
		RuleVerdict:      r.RuleVerdict,
		BuyCount:         r.BuyCount,
		SellCount:        r.SellCount,
		ComputedAt:       r.ComputedAt,
	}
}

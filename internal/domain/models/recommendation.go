package models

import (
	"strings"
	"time"
)

// RecommendationClass is the polarity of a call.
type RecommendationClass string

const (
	ClassBuy     RecommendationClass = "BUY"
	ClassSell    RecommendationClass = "SELL"
	ClassNeutral RecommendationClass = "NEUTRAL"
)

// ParseClass maps the lowercase strings stored in data files ("buy", "sell",
// "neutral", "hold") onto a class. Anything unrecognised is neutral.
func ParseClass(s string) RecommendationClass {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return ClassBuy
	case "sell":
		return ClassSell
	default:
		return ClassNeutral
	}
}

// Actionable reports whether the class takes part in the analysis.
func (c RecommendationClass) Actionable() bool {
	return c == ClassBuy || c == ClassSell
}

// Wire returns the lowercase form used in documents and messages.
func (c RecommendationClass) Wire() string { return strings.ToLower(string(c)) }

// RecommendationEvent is one dated call. Date is truncated to the day.
type RecommendationEvent struct {
	Date  time.Time           `json:"date"`
	Class RecommendationClass `json:"class"`
}

// Recommendation is the stored/ingested form of a call, including its source text.
type Recommendation struct {
	Ticker         string    `json:"ticker"`
	Date           time.Time `json:"date"`
	Recommendation string    `json:"recommendation"`
	Text           string    `json:"text,omitempty"`
	Source         string    `json:"source,omitempty"`
}

// Event converts the record into an analysis event. ok is false for non
// actionable records.
func (r Recommendation) Event() (RecommendationEvent, bool) {
	c := ParseClass(r.Recommendation)
	if !c.Actionable() {
		return RecommendationEvent{}, false
	}
	return RecommendationEvent{Date: r.Date, Class: c}, true
}

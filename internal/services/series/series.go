package series

import (
	"fmt"
	"sort"
	"strings"

	"ContraTrack/internal/domain/models"
	"ContraTrack/pkg/util"

	"github.com/cespare/xxhash/v2"
)

// Normalize returns a copy of points truncated to calendar days, sorted
// ascending and deduplicated by day. When two points fall on the same day the
// later one in the input wins.
func Normalize(points []models.PricePoint) []models.PricePoint {
	if len(points) == 0 {
		return nil
	}
	byDay := make(map[string]models.PricePoint, len(points))
	for _, p := range points {
		p.Date = util.TruncateDay(p.Date)
		byDay[util.DayKey(p.Date)] = p
	}
	out := make([]models.PricePoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FromBars keeps the close of each bar and normalizes the result.
func FromBars(bars []models.Bar) []models.PricePoint {
	pts := make([]models.PricePoint, 0, len(bars))
	for _, b := range bars {
		pts = append(pts, b.Point())
	}
	return Normalize(pts)
}

// FromDocument converts stored prices into a series. Rows with a null close or
// an unparseable date are skipped.
func FromDocument(prices []models.DocumentPrice) []models.PricePoint {
	pts := make([]models.PricePoint, 0, len(prices))
	for _, p := range prices {
		if !p.Close.Valid {
			continue
		}
		d, ok := util.ParseDay(p.Date)
		if !ok {
			continue
		}
		pts = append(pts, models.PricePoint{Date: d, Close: p.Close.Decimal})
	}
	return Normalize(pts)
}

// Events turns stored recommendations for symbol into analysis events, keeping
// input order. Records for other tickers, non actionable records and records
// without a date are dropped.
func Events(symbol string, recs []models.Recommendation) []models.RecommendationEvent {
	symbol = util.NormalizeSymbol(symbol)
	out := make([]models.RecommendationEvent, 0, len(recs))
	for _, r := range recs {
		if symbol != "" && util.NormalizeSymbol(r.Ticker) != symbol {
			continue
		}
		if r.Date.IsZero() {
			continue
		}
		ev, ok := r.Event()
		if !ok {
			continue
		}
		ev.Date = util.TruncateDay(ev.Date)
		out = append(out, ev)
	}
	return out
}

// Version fingerprints a normalized series. Equal series give equal versions.
func Version(points []models.PricePoint) string {
	h := xxhash.New()
	for _, p := range points {
		_, _ = h.WriteString(util.DayKey(p.Date))
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(p.Close.String())
		_, _ = h.WriteString(";")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// EventsVersion fingerprints an event list. Order matters.
func EventsVersion(events []models.RecommendationEvent) string {
	var b strings.Builder
	for _, e := range events {
		b.WriteString(util.DayKey(e.Date))
		b.WriteByte(':')
		b.WriteString(string(e.Class))
		b.WriteByte(';')
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

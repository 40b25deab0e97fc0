package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"ContraTrack/internal/domain/models"
	domrepo "ContraTrack/internal/domain/repository"
	"ContraTrack/internal/services/series"
	applogger "ContraTrack/pkg/logger"
	"ContraTrack/pkg/util"

	"github.com/shopspring/decimal"
)

// JSONStore keeps one `{symbol}_data.json` document per symbol in a directory.
// It serves documents, price series and recommendations from the same file.
type JSONStore struct {
	dir string
	mu  sync.Mutex // serialises read-modify-write cycles
	l   *applogger.Logger
}

func NewJSONStore(dir string, l *applogger.Logger) *JSONStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &JSONStore{dir: dir, l: l}
}

func (s *JSONStore) path(symbol string) string {
	return filepath.Join(s.dir, strings.ToLower(util.NormalizeSymbol(symbol))+"_data.json")
}

// GetDocument reads the raw document. A missing file is ErrNotFound.
func (s *JSONStore) GetDocument(_ context.Context, symbol string) (*models.StockDocument, error) {
	return s.read(symbol)
}

func (s *JSONStore) read(symbol string) (*models.StockDocument, error) {
	if util.NormalizeSymbol(symbol) == "" {
		return nil, fmt.Errorf("empty symbol: %w", domrepo.ErrNotFound)
	}
	p := s.path(symbol)
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("document %s: %w", symbol, domrepo.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	var doc models.StockDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		s.l.Error("json store parse error", applogger.String("path", p), applogger.Error(err))
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	return &doc, nil
}

// GetSeries returns the normalized close series of the document.
func (s *JSONStore) GetSeries(_ context.Context, symbol string) ([]models.PricePoint, error) {
	doc, err := s.read(symbol)
	if err != nil {
		return nil, err
	}
	if doc.StockData == nil {
		return nil, nil
	}
	return series.FromDocument(doc.StockData.Prices), nil
}

// GetRecommendations returns the document's calls for symbol, in file order.
// Records whose date cannot be parsed are dropped.
func (s *JSONStore) GetRecommendations(_ context.Context, symbol string) ([]models.Recommendation, error) {
	doc, err := s.read(symbol)
	if err != nil {
		return nil, err
	}
	sym := util.NormalizeSymbol(symbol)
	out := make([]models.Recommendation, 0, len(doc.Recommendations))
	for _, r := range doc.Recommendations {
		if util.NormalizeSymbol(r.Ticker) != sym {
			continue
		}
		d, ok := util.ParseDay(r.Date)
		if !ok {
			s.l.Warn("json store skipping undated recommendation",
				applogger.String("symbol", sym),
				applogger.String("date", r.Date),
			)
			continue
		}
		out = append(out, models.Recommendation{
			Ticker:         sym,
			Date:           d,
			Recommendation: r.Recommendation,
			Text:           r.Text,
			Source:         r.Source,
		})
	}
	return out, nil
}

// SaveHistory replaces the price section of the document, keeping its calls.
func (s *JSONStore) SaveHistory(_ context.Context, symbol string, h *models.PriceHistory) error {
	if h == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readOrNew(symbol)
	if err != nil {
		return err
	}
	meta := h.Meta
	if meta.Symbol == "" {
		meta.Symbol = util.NormalizeSymbol(symbol)
	}
	prices := make([]models.DocumentPrice, 0, len(h.Bars))
	for _, b := range h.Bars {
		vol := b.Volume
		prices = append(prices, models.DocumentPrice{
			Date:      util.DayKey(b.Date),
			Timestamp: b.Date.Unix(),
			Close:     decimal.NewNullDecimal(b.Close),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Volume:    &vol,
			AdjClose:  b.AdjClose,
		})
	}
	sort.SliceStable(prices, func(i, j int) bool { return prices[i].Date < prices[j].Date })
	doc.StockData = &models.StockData{Meta: meta, Prices: prices}
	return s.write(symbol, doc)
}

// dayOf returns the day key of a stored date, or the raw string when it does
// not parse.
func dayOf(raw string) string {
	if d, ok := util.ParseDay(raw); ok {
		return util.DayKey(d)
	}
	return raw
}

// SaveRecommendations merges recs into the documents of their tickers.
// Records already present (same date, call, text and source) are skipped.
func (s *JSONStore) SaveRecommendations(_ context.Context, recs []models.Recommendation) error {
	byTicker := make(map[string][]models.Recommendation)
	for _, r := range recs {
		t := util.NormalizeSymbol(r.Ticker)
		if t == "" || r.Date.IsZero() {
			continue
		}
		byTicker[t] = append(byTicker[t], r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for ticker, list := range byTicker {
		doc, err := s.readOrNew(ticker)
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(doc.Recommendations))
		for _, r := range doc.Recommendations {
			seen[recKey(dayOf(r.Date), strings.ToLower(r.Recommendation), r.Text, r.Source)] = struct{}{}
		}
		added := 0
		for _, r := range list {
			dr := models.DocumentRecommendation{
				Ticker:         ticker,
				Date:           util.DayKey(r.Date),
				Recommendation: strings.ToLower(r.Recommendation),
				Text:           r.Text,
				Source:         r.Source,
			}
			k := recKey(dr.Date, dr.Recommendation, dr.Text, dr.Source)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			doc.Recommendations = append(doc.Recommendations, dr)
			added++
		}
		if added == 0 {
			continue
		}
		sort.SliceStable(doc.Recommendations, func(i, j int) bool {
			return dayOf(doc.Recommendations[i].Date) < dayOf(doc.Recommendations[j].Date)
		})
		if err := s.write(ticker, doc); err != nil {
			return err
		}
	}
	return nil
}

func recKey(date, rec, text, source string) string {
	return date + "|" + strings.ToLower(rec) + "|" + text + "|" + source
}

func (s *JSONStore) readOrNew(symbol string) (*models.StockDocument, error) {
	doc, err := s.read(symbol)
	if errors.Is(err, domrepo.ErrNotFound) {
		return &models.StockDocument{Recommendations: []models.DocumentRecommendation{}}, nil
	}
	return doc, err
}

// write replaces the file atomically via a temp file and rename.
func (s *JSONStore) write(symbol string, doc *models.StockDocument) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", s.dir, err)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".doc-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(symbol)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename document: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ContraTrack/internal/domain/models"
	domrepo "ContraTrack/internal/domain/repository"
	"ContraTrack/internal/services/series"
	pkgch "ContraTrack/pkg/clickhouse"
	applogger "ContraTrack/pkg/logger"
	"ContraTrack/pkg/util"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"
)

const (
	tablePrices          = "prices_daily"
	tableRecommendations = "recommendations"
	tableSymbols         = "symbols"
)

// CHStore keeps prices, calls and symbol metadata in ClickHouse. Tables use
// ReplacingMergeTree so re-ingesting the same day or call is idempotent.
type CHStore struct {
	ch  *pkgch.Client
	db  *sql.DB
	dbn string
	l   *applogger.Logger
	now func() time.Time
}

func NewCHStore(ch *pkgch.Client) *CHStore {
	return &CHStore{ch: ch, db: ch.DB(), dbn: ch.Database(), now: time.Now}
}

// SetLogger injects a structured logger.
func (s *CHStore) SetLogger(l *applogger.Logger) { s.l = l }

// CHSchema returns the DDL for database db.
func CHSchema(db string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, db),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s.%s (
            symbol      LowCardinality(String),
            date        Date,
            open        Nullable(Decimal(18, 6)),
            high        Nullable(Decimal(18, 6)),
            low         Nullable(Decimal(18, 6)),
            close       Decimal(18, 6),
            adj_close   Nullable(Decimal(18, 6)),
            volume      UInt64,
            ingested_at DateTime64(3)
        ) ENGINE = ReplacingMergeTree(ingested_at)
        ORDER BY (symbol, date)`, db, tablePrices),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s.%s (
            ticker         LowCardinality(String),
            date           Date,
            recommendation LowCardinality(String),
            text           String,
            source         LowCardinality(String),
            text_hash      UInt64,
            ingested_at    DateTime64(3)
        ) ENGINE = ReplacingMergeTree(ingested_at)
        ORDER BY (ticker, date, recommendation, text_hash)`, db, tableRecommendations),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s.%s (
            symbol       String,
            currency     String,
            exchange     String,
            company_name String,
            updated_at   DateTime64(3)
        ) ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY symbol`, db, tableSymbols),
	}
}

// Init creates the tables if missing.
func (s *CHStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, CHSchema(s.dbn))
}

func (s *CHStore) table(name string) string { return s.dbn + "." + name }

func (s *CHStore) logErr(msg, table, symbol string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error(msg,
		applogger.String("table", table),
		applogger.String("symbol", symbol),
		applogger.Error(err),
	)
}

// GetSeries reads the daily closes of symbol in ascending order.
func (s *CHStore) GetSeries(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	start := time.Now()
	symbol = util.NormalizeSymbol(symbol)
	table := s.table(tablePrices)
	q := fmt.Sprintf(`
        SELECT date, close
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY date ASC`, table)
	rows, err := s.db.QueryContext(ctx, q, symbol)
	if err != nil {
		s.logErr("clickhouse get_series query error", table, symbol, err)
		return nil, fmt.Errorf("get series: %w", err)
	}
	defer rows.Close()

	out := make([]models.PricePoint, 0, 1300)
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			s.logErr("clickhouse get_series scan error", table, symbol, err)
			return nil, fmt.Errorf("scan price: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		s.logErr("clickhouse get_series rows error", table, symbol, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_series ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return series.Normalize(out), nil
}

// GetRecommendations reads every stored call for symbol ordered by date.
func (s *CHStore) GetRecommendations(ctx context.Context, symbol string) ([]models.Recommendation, error) {
	symbol = util.NormalizeSymbol(symbol)
	table := s.table(tableRecommendations)
	q := fmt.Sprintf(`
        SELECT ticker, date, recommendation, text, source
        FROM %s FINAL
        WHERE ticker = ?
        ORDER BY date ASC, ingested_at ASC`, table)
	rows, err := s.db.QueryContext(ctx, q, symbol)
	if err != nil {
		s.logErr("clickhouse get_recommendations query error", table, symbol, err)
		return nil, fmt.Errorf("get recommendations: %w", err)
	}
	defer rows.Close()

	var out []models.Recommendation
	for rows.Next() {
		var r models.Recommendation
		if err := rows.Scan(&r.Ticker, &r.Date, &r.Recommendation, &r.Text, &r.Source); err != nil {
			s.logErr("clickhouse get_recommendations scan error", table, symbol, err)
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		r.Date = util.TruncateDay(r.Date)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		s.logErr("clickhouse get_recommendations rows error", table, symbol, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// GetDocument assembles the document view from the three tables. A symbol
// with neither prices nor calls is ErrNotFound.
func (s *CHStore) GetDocument(ctx context.Context, symbol string) (*models.StockDocument, error) {
	symbol = util.NormalizeSymbol(symbol)
	meta, err := s.meta(ctx, symbol)
	if err != nil {
		return nil, err
	}
	prices, err := s.documentPrices(ctx, symbol)
	if err != nil {
		return nil, err
	}
	recs, err := s.GetRecommendations(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 && len(recs) == 0 {
		return nil, fmt.Errorf("document %s: %w", symbol, domrepo.ErrNotFound)
	}

	doc := &models.StockDocument{Recommendations: make([]models.DocumentRecommendation, 0, len(recs))}
	if len(prices) > 0 {
		doc.StockData = &models.StockData{Meta: meta, Prices: prices}
	}
	for _, r := range recs {
		doc.Recommendations = append(doc.Recommendations, models.DocumentRecommendation{
			Ticker:         r.Ticker,
			Date:           util.DayKey(r.Date),
			Recommendation: r.Recommendation,
			Text:           r.Text,
			Source:         r.Source,
		})
	}
	return doc, nil
}

func (s *CHStore) meta(ctx context.Context, symbol string) (models.SymbolMeta, error) {
	table := s.table(tableSymbols)
	q := fmt.Sprintf(`
        SELECT symbol, currency, exchange, company_name
        FROM %s FINAL
        WHERE symbol = ?
        LIMIT 1`, table)
	var m models.SymbolMeta
	err := s.db.QueryRowContext(ctx, q, symbol).Scan(&m.Symbol, &m.Currency, &m.Exchange, &m.CompanyName)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SymbolMeta{Symbol: symbol}, nil
	}
	if err != nil {
		s.logErr("clickhouse get_meta query error", table, symbol, err)
		return m, fmt.Errorf("get meta: %w", err)
	}
	return m, nil
}

func (s *CHStore) documentPrices(ctx context.Context, symbol string) ([]models.DocumentPrice, error) {
	table := s.table(tablePrices)
	q := fmt.Sprintf(`
        SELECT date, open, high, low, close, adj_close, volume
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY date ASC`, table)
	rows, err := s.db.QueryContext(ctx, q, symbol)
	if err != nil {
		s.logErr("clickhouse document_prices query error", table, symbol, err)
		return nil, fmt.Errorf("get prices: %w", err)
	}
	defer rows.Close()

	var out []models.DocumentPrice
	for rows.Next() {
		var (
			date                 time.Time
			open, high, low, adj *decimal.Decimal
			closePx              decimal.Decimal
			volume               uint64
		)
		if err := rows.Scan(&date, &open, &high, &low, &closePx, &adj, &volume); err != nil {
			s.logErr("clickhouse document_prices scan error", table, symbol, err)
			return nil, fmt.Errorf("scan price: %w", err)
		}
		vol := int64(volume)
		out = append(out, models.DocumentPrice{
			Date:      util.DayKey(date),
			Timestamp: date.Unix(),
			Close:     decimal.NewNullDecimal(closePx),
			Open:      nullFromPtr(open),
			High:      nullFromPtr(high),
			Low:       nullFromPtr(low),
			AdjClose:  nullFromPtr(adj),
			Volume:    &vol,
		})
	}
	if err := rows.Err(); err != nil {
		s.logErr("clickhouse document_prices rows error", table, symbol, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// SaveHistory upserts the bars and metadata of symbol.
func (s *CHStore) SaveHistory(ctx context.Context, symbol string, h *models.PriceHistory) error {
	if h == nil || len(h.Bars) == 0 {
		return nil
	}
	symbol = util.NormalizeSymbol(symbol)
	now := s.now().UTC()

	stmt := fmt.Sprintf(`INSERT INTO %s (symbol, date, open, high, low, close, adj_close, volume, ingested_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table(tablePrices))
	if err := s.ch.InsertBatch(ctx, stmt, priceRows(symbol, h.Bars, now)); err != nil {
		s.logErr("clickhouse insert prices error", tablePrices, symbol, err)
		return fmt.Errorf("insert prices: %w", err)
	}

	meta := h.Meta
	meta.Symbol = symbol
	mstmt := fmt.Sprintf(`INSERT INTO %s (symbol, currency, exchange, company_name, updated_at)
        VALUES (?, ?, ?, ?, ?)`, s.table(tableSymbols))
	if err := s.ch.InsertBatch(ctx, mstmt, [][]interface{}{{meta.Symbol, meta.Currency, meta.Exchange, meta.CompanyName, now}}); err != nil {
		s.logErr("clickhouse insert meta error", tableSymbols, symbol, err)
		return fmt.Errorf("insert meta: %w", err)
	}
	return nil
}

// SaveRecommendations appends calls. Replays of the same call collapse on merge.
func (s *CHStore) SaveRecommendations(ctx context.Context, recs []models.Recommendation) error {
	rows := recommendationRows(recs, s.now().UTC())
	if len(rows) == 0 {
		return nil
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (ticker, date, recommendation, text, source, text_hash, ingested_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table(tableRecommendations))
	if err := s.ch.InsertBatch(ctx, stmt, rows); err != nil {
		s.logErr("clickhouse insert recommendations error", tableRecommendations, "", err)
		return fmt.Errorf("insert recommendations: %w", err)
	}
	return nil
}

func priceRows(symbol string, bars []models.Bar, now time.Time) [][]interface{} {
	rows := make([][]interface{}, 0, len(bars))
	for _, b := range bars {
		vol := b.Volume
		if vol < 0 {
			vol = 0
		}
		rows = append(rows, []interface{}{
			symbol,
			util.TruncateDay(b.Date),
			ptrFromNull(b.Open),
			ptrFromNull(b.High),
			ptrFromNull(b.Low),
			b.Close,
			ptrFromNull(b.AdjClose),
			uint64(vol),
			now,
		})
	}
	return rows
}

func recommendationRows(recs []models.Recommendation, now time.Time) [][]interface{} {
	rows := make([][]interface{}, 0, len(recs))
	for _, r := range recs {
		ticker := util.NormalizeSymbol(r.Ticker)
		if ticker == "" || r.Date.IsZero() {
			continue
		}
		rows = append(rows, []interface{}{
			ticker,
			util.TruncateDay(r.Date),
			strings.ToLower(r.Recommendation),
			r.Text,
			r.Source,
			xxhash.Sum64String(r.Source + "\x00" + r.Text),
			now,
		})
	}
	return rows
}

func ptrFromNull(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func nullFromPtr(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

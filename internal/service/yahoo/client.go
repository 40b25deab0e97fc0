package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"ContraTrack/internal/domain/models"
	"ContraTrack/internal/domain/repository"
	"ContraTrack/internal/service/ratelimit"
	xhttp "ContraTrack/pkg/http"
	"ContraTrack/pkg/util"

	"github.com/shopspring/decimal"
)

// Client fetches bars from the Yahoo Finance chart API.
type Client struct {
	baseURL string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient swaps the transport, mainly for tests.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(y *Client) { y.http = c }
}

// WithRateLimit caps requests per second to the chart host.
func WithRateLimit(rps float64) Option {
	return func(y *Client) { y.limiter = ratelimit.New(rps, 1) }
}

// New creates a chart API client rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: xhttp.NewClient(
			xhttp.WithTimeout(timeout),
			xhttp.WithUserAgent("Mozilla/5.0 (compatible; ContraTrack/1.0)"),
		),
		limiter: ratelimit.New(0, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol       string `json:"symbol"`
		Currency     string `json:"currency"`
		ExchangeName string `json:"exchangeName"`
		ShortName    string `json:"shortName"`
		LongName     string `json:"longName"`
		GMTOffset    int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// FetchHistory downloads bars for symbol. Bars with a null close are skipped,
// dates are taken in the exchange's local offset, and the result is ascending
// with one bar per day.
func (c *Client) FetchHistory(ctx context.Context, symbol string, interval repository.Interval, rng string) (*models.PriceHistory, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("yahoo: empty symbol")
	}
	if !repository.IsValidInterval(interval) {
		interval = repository.DefaultInterval()
	}
	if rng == "" {
		rng = "5y"
	}

	host := c.baseURL
	if u, err := url.Parse(c.baseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	if err := c.limiter.Get(host).Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo rate limit: %w", err)
	}

	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol)),
		QueryParams: map[string][]string{
			"interval":             {string(interval)},
			"range":                {rng},
			"includeAdjustedClose": {"true"},
		},
	}, &resp)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("yahoo %s: %w", symbol, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	if e := resp.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, fmt.Errorf("yahoo %s: %w", symbol, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("yahoo %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, repository.ErrNotFound)
	}

	return convert(symbol, &resp.Chart.Result[0]), nil
}

func convert(symbol string, r *chartResult) *models.PriceHistory {
	name := r.Meta.ShortName
	if name == "" {
		name = r.Meta.LongName
	}
	out := &models.PriceHistory{
		Meta: models.SymbolMeta{
			Symbol:      symbol,
			Currency:    r.Meta.Currency,
			Exchange:    r.Meta.ExchangeName,
			CompanyName: name,
		},
	}
	if len(r.Indicators.Quote) == 0 {
		return out
	}
	q := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}
	loc := time.FixedZone("exchange", r.Meta.GMTOffset)

	byDay := make(map[string]models.Bar, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		cl := at(q.Close, i)
		if !cl.Valid {
			continue
		}
		b := models.Bar{
			Symbol:   symbol,
			Date:     util.TruncateDay(time.Unix(ts, 0).In(loc)),
			Open:     at(q.Open, i),
			High:     at(q.High, i),
			Low:      at(q.Low, i),
			Close:    cl.Decimal,
			AdjClose: at(adj, i),
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.Volume = *q.Volume[i]
		}
		byDay[util.DayKey(b.Date)] = b
	}

	out.Bars = make([]models.Bar, 0, len(byDay))
	for _, b := range byDay {
		out.Bars = append(out.Bars, b)
	}
	sort.Slice(out.Bars, func(i, j int) bool { return out.Bars[i].Date.Before(out.Bars[j].Date) })
	return out
}

func at(vals []*float64, i int) decimal.NullDecimal {
	if i >= len(vals) || vals[i] == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*vals[i]))
}

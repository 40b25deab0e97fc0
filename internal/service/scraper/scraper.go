package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ContraTrack/internal/domain/models"
	"ContraTrack/internal/services/sentiment"
	"ContraTrack/pkg/config"
	applogger "ContraTrack/pkg/logger"
	"ContraTrack/pkg/util"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// Scraper collects calls from HTML pages described by CSS selectors.
type Scraper struct {
	sources   []config.ScraperSource
	timeout   time.Duration
	userAgent string
	log       *applogger.Logger
	now       func() time.Time
}

// New creates a scraper over sources.
func New(sources []config.ScraperSource, timeout time.Duration, userAgent string, l *applogger.Logger) *Scraper {
	if l == nil {
		l = applogger.Nop()
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	return &Scraper{
		sources:   sources,
		timeout:   timeout,
		userAgent: userAgent,
		log:       l,
		now:       time.Now,
	}
}

func (s *Scraper) Name() string { return "scraper" }

// Collect visits every source and returns the calls found. A failing source is
// logged and skipped; the error is only returned when every source failed.
func (s *Scraper) Collect(ctx context.Context) ([]models.Recommendation, error) {
	var (
		all    []models.Recommendation
		failed int
		last   error
	)
	for _, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		recs, err := s.scrapeSource(src)
		if err != nil {
			failed++
			last = err
			s.log.Error("scrape source failed", applogger.String("source", src.Name), applogger.Error(err))
			continue
		}
		s.log.Info("scraped source",
			applogger.String("source", src.Name),
			applogger.Int("recommendations", len(recs)),
		)
		all = append(all, recs...)
	}
	if failed > 0 && failed == len(s.sources) {
		return nil, fmt.Errorf("all %d sources failed: %w", failed, last)
	}
	return all, nil
}

func (s *Scraper) scrapeSource(src config.ScraperSource) ([]models.Recommendation, error) {
	var recs []models.Recommendation
	label := src.Name
	if label == "" {
		label = src.URL
	}

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.Async(false),
	)
	if s.timeout > 0 {
		c.SetRequestTimeout(s.timeout)
	}

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", s.userAgent)
	})

	c.OnHTML(src.ItemSelector, func(e *colly.HTMLElement) {
		text := strings.TrimSpace(e.Text)
		if src.TextSelector != "" {
			text = strings.TrimSpace(e.ChildText(src.TextSelector))
		}
		if text == "" {
			return
		}
		day := util.TruncateDay(s.now())
		if d, ok := itemDate(e.DOM, src); ok {
			day = d
		}
		recs = append(recs, sentiment.Recommendations(text, day, label)...)
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("%s: status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	if err := c.Visit(src.URL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", src.URL, err)
	}
	c.Wait()
	if visitErr != nil {
		return nil, visitErr
	}
	return recs, nil
}

// itemDate reads the date from the configured attribute (e.g. <time datetime>)
// or, without an attribute, from the element text.
func itemDate(item *goquery.Selection, src config.ScraperSource) (time.Time, bool) {
	if src.DateSelector == "" {
		return time.Time{}, false
	}
	sel := item.Find(src.DateSelector).First()
	raw := strings.TrimSpace(sel.Text())
	if src.DateAttr != "" {
		raw = strings.TrimSpace(sel.AttrOr(src.DateAttr, ""))
	}
	return util.ParseDay(raw)
}

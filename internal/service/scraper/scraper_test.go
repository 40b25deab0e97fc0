package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ContraTrack/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<div class="call">
  <p class="body">Buy $AAPL, still bullish into earnings</p>
  <time datetime="2024-03-01T18:00:00-05:00">Mar 1</time>
</div>
<div class="call">
  <p class="body">Avoid $NFLX and $ROKU, bearish</p>
  <time datetime="2024-03-04">Mar 4</time>
</div>
<div class="call">
  <p class="body">$MSFT reports on Tuesday</p>
  <time datetime="2024-03-05">Mar 5</time>
</div>
<div class="call">
  <p class="body">I like $AMD</p>
</div>
</body></html>`

func TestCollect(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	s := New([]config.ScraperSource{{
		Name:         "show",
		URL:          srv.URL,
		ItemSelector: "div.call",
		TextSelector: "p.body",
		DateSelector: "time",
		DateAttr:     "datetime",
	}}, time.Second, "test-agent", nil)
	s.now = func() time.Time { return time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC) }

	recs, err := s.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-agent", ua)

	require.Len(t, recs, 4)
	assert.Equal(t, "AAPL", recs[0].Ticker)
	assert.Equal(t, "buy", recs[0].Recommendation)
	assert.Equal(t, "2024-03-01", recs[0].Date.Format("2006-01-02"))
	assert.Equal(t, "show", recs[0].Source)

	assert.Equal(t, "NFLX", recs[1].Ticker)
	assert.Equal(t, "ROKU", recs[2].Ticker)
	assert.Equal(t, "sell", recs[2].Recommendation)
	assert.Equal(t, "2024-03-04", recs[2].Date.Format("2006-01-02"))

	// undated item falls back to the collection day
	assert.Equal(t, "AMD", recs[3].Ticker)
	assert.Equal(t, "2024-03-09", recs[3].Date.Format("2006-01-02"))
}

func TestCollect_AllSourcesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New([]config.ScraperSource{{Name: "down", URL: srv.URL, ItemSelector: "div"}}, time.Second, "", nil)
	_, err := s.Collect(context.Background())
	assert.Error(t, err)
}

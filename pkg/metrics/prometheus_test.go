package metrics

import (
	"testing"

	"ContraTrack/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordAnalysis("AAPL", models.RuleLiteral, true)
	r.RecordAnalysis("AAPL", models.RuleLiteral, true)
	r.RecordIngested("yahoo", "AAPL", 250)
	r.RecordError("publish")
	r.RecordLatency("analysis", 0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.analyses.WithLabelValues("AAPL", "literal", "true")))
	assert.Equal(t, 250.0, testutil.ToFloat64(r.ingested.WithLabelValues("yahoo", "AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errors.WithLabelValues("publish")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}

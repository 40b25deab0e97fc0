package repository

import (
	"context"
	"errors"
	"testing"

	"ContraTrack/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	topics []string
	keys   []string
	values []interface{}
	err    error
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.keys = append(f.keys, string(key))
	f.values = append(f.values, value)
	return nil
}

func (f *fakeProducer) Close() error { f.closed = true; return nil }

type countingPublisher struct {
	n   int
	err error
}

func (c *countingPublisher) PublishAnalysis(context.Context, *models.AnalysisReport) error {
	c.n++
	return c.err
}

func (c *countingPublisher) Close() error { return c.err }

func TestKafkaAnalysisPublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaAnalysisPublisher(fp, "contratrack.analysis")
	r := &models.AnalysisReport{Symbol: "AAPL", RunID: "r1"}

	require.NoError(t, p.PublishAnalysis(context.Background(), r))
	require.NoError(t, p.PublishAnalysis(context.Background(), nil))
	assert.Equal(t, []string{"contratrack.analysis"}, fp.topics)
	assert.Equal(t, []string{"AAPL"}, fp.keys)
	assert.Same(t, r, fp.values[0])

	fp.err = errors.New("broker down")
	err := p.PublishAnalysis(context.Background(), r)
	assert.ErrorContains(t, err, "AAPL")
	assert.ErrorIs(t, err, fp.err)

	require.NoError(t, p.Close())
	assert.True(t, fp.closed)
}

func TestMultiPublisher(t *testing.T) {
	ok := &countingPublisher{}
	bad := &countingPublisher{err: errors.New("boom")}
	m := NewMultiPublisher(ok, nil, bad)
	assert.Equal(t, 2, m.Len())

	err := m.PublishAnalysis(context.Background(), &models.AnalysisReport{Symbol: "X"})
	assert.ErrorIs(t, err, bad.err)
	assert.Equal(t, 1, ok.n)
	assert.Equal(t, 1, bad.n)

	assert.NoError(t, NewMultiPublisher(ok).PublishAnalysis(context.Background(), nil))
	assert.Error(t, m.Close())
}

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	steps []string
	err   error
}

func (r *recorder) Run(_ context.Context, symbols []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, "ingest:"+symbols[0])
	return r.err
}

func (r *recorder) Reanalyze(_ context.Context, symbols []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, "analyze:"+symbols[0])
	return nil
}

func TestRunNowOrder(t *testing.T) {
	r := &recorder{err: errors.New("partial")}
	s := New(r, r, []string{"AAPL"}, nil)
	s.RunNow()
	// a failed ingest still re-analyzes what is stored
	assert.Equal(t, []string{"ingest:AAPL", "analyze:AAPL"}, r.steps)
}

func TestRegister(t *testing.T) {
	s := New(nil, nil, nil, nil)
	require.NoError(t, s.Register("0 30 22 * * 1-5"))
	assert.Error(t, s.Register("every tuesday"))
	s.Start()
	s.Stop()
}

package trace

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpan_DisabledIsNoop(t *testing.T) {
	require.NoError(t, Init(Config{Enabled: false}))

	ctx, span := StartSpan(context.Background(), "noop", "symbol", "AAPL")
	End(span, nil)
	assert.Empty(t, TraceID(ctx))
}

func TestInit_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Enabled: true, ServiceName: "contratrack-test", Writer: &buf}))

	ctx, span := StartSpan(context.Background(), "analysis.run", "symbol", "AAPL")
	assert.Len(t, TraceID(ctx), 32)
	End(span, errors.New("boom"))

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "analysis.run")
	assert.Contains(t, buf.String(), "AAPL")
}

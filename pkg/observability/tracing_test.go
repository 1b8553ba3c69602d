package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpansWithoutInit(t *testing.T) {
	_, span := StartSpan(context.Background(), "analyze.pass")
	span.SetAttribute("pass", "orders")
	span.RecordError(errors.New("boom"))
	assert.NotPanics(t, span.End)
}

func TestInitExportsSpans(t *testing.T) {
	var out bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Output = &out
	require.NoError(t, Init(cfg))

	ctx, parent := StartSpan(context.Background(), "analyze.run")
	_, child := StartSpan(ctx, "analyze.pass")
	child.SetAttribute("rows", uint64(42))
	child.End()
	parent.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, out.String(), "analyze.pass")
	assert.Contains(t, out.String(), "analyze.run")

	// A second shutdown has nothing to flush.
	assert.NoError(t, Shutdown(context.Background()))
}

func TestInitDisabledIsNoop(t *testing.T) {
	require.NoError(t, Init(TracingConfig{}))
	assert.NoError(t, Shutdown(context.Background()))
}

package tracer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"starbeam/internal/platform/tracer"
)

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	newCtx, span := tracer.NewNoop().Start(ctx, tracer.SpanTransfer, tracer.String(tracer.AttrAddress, "sbX"))

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)
	span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true))
	span.AddEvent("audit.emitted")
	span.End(errors.New("boom"))
}

func TestOTelTracerWithNoopProvider(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	_, span := tr.Start(context.Background(), tracer.SpanProvision,
		tracer.String(tracer.AttrIdentityKey, "abc"),
		tracer.Int64("attempt", 1),
	)
	require.NotNil(t, span)
	span.AddEvent("ledger.commit", tracer.Bool("ok", true))
	span.End(nil)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", tracer.Redact(nil))
	assert.Len(t, tracer.Redact([]byte{42}), 16)
	assert.Equal(t, tracer.Redact([]byte("42")), tracer.Redact([]byte("42")))
	assert.NotEqual(t, tracer.Redact([]byte("42")), tracer.Redact([]byte("43")))
}

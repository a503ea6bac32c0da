// Package tracer is a small tracing port so services can emit spans without
// importing OpenTelemetry directly. NoopTracer serves tests; OTelTracer
// forwards to the global OpenTelemetry provider.
package tracer

import (
	"context"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Redact shortens an identity value to a blake2b prefix so traces can be
// correlated without carrying the user's handle.
func Redact(value []byte) string {
	if len(value) == 0 {
		return ""
	}
	sum := blake2b.Sum256(value)
	return hex.EncodeToString(sum[:8])
}

const (
	SpanProvision     = "registry.provision"
	SpanLookup        = "registry.lookup"
	SpanInitialize    = "account.initialize"
	SpanTransfer      = "account.transfer"
	SpanRotateOwner   = "account.rotate_owner"
	SpanDeposit       = "account.deposit"
	SpanBoundIdentity = "account.bound_identity"
)

const (
	AttrAddress     = "account.address"
	AttrIdentityKey = "registry.identity_key"
	AttrCacheHit    = "cache.hit"
	AttrProofMode   = "proof.mode"
)

// Package requestcontext carries per-request values (request ID, authenticated
// principal, client metadata, injected clock) through context.Context.
package requestcontext

import (
	"context"
	"time"

	id "starbeam/pkg/domain"
)

type ctxKey int

const (
	keyRequestID ctxKey = iota
	keyPrincipal
	keyClientIP
	keyUserAgent
	keyTime
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID returns the request ID or "" outside an HTTP request.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// WithPrincipal records the ledger principal the caller authenticated as.
func WithPrincipal(ctx context.Context, principal id.Address) context.Context {
	return context.WithValue(ctx, keyPrincipal, principal)
}

// Principal returns the authenticated principal, if any.
func Principal(ctx context.Context) (id.Address, bool) {
	v, ok := ctx.Value(keyPrincipal).(id.Address)
	return v, ok && !v.IsNil()
}

func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP, clientIP)
	return context.WithValue(ctx, keyUserAgent, userAgent)
}

func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(keyClientIP).(string)
	return v
}

func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(keyUserAgent).(string)
	return v
}

// WithTime pins the clock for everything downstream; tests use it for determinism.
func WithTime(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, keyTime, now)
}

// Now returns the pinned time or the wall clock.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(keyTime).(time.Time); ok {
		return v
	}
	return time.Now()
}

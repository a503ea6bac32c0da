package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	dErrors "starbeam/pkg/domain-errors"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes int32
	Errors    int32
	Conflicts int32
	Rejected  int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.Conflicts + r.Rejected
}

// RunConcurrent executes fn in parallel goroutines and buckets the outcomes.
// Conflicts are "someone else got there first" codes (already provisioned,
// already initialized); Rejected are authorization failures.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, errs, conflicts, rejected atomic.Int32

	for i := range goroutines {
		wg.Go(func() {
			err := fn(i)
			switch {
			case err == nil:
				successes.Add(1)
			case isConflict(err):
				conflicts.Add(1)
			case isRejection(err):
				rejected.Add(1)
			default:
				errs.Add(1)
			}
		})
	}

	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Errors:    errs.Load(),
		Conflicts: conflicts.Load(),
		Rejected:  rejected.Load(),
	}
}

func RunConcurrentCtx(ctx context.Context, goroutines int, fn func(ctx context.Context, idx int) error) *ConcurrentResult {
	return RunConcurrent(goroutines, func(idx int) error {
		return fn(ctx, idx)
	})
}

func isConflict(err error) bool {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeAlreadyProvisioned, dErrors.CodeAlreadyInitialized, dErrors.CodeConflict:
		return true
	}
	return false
}

func isRejection(err error) bool {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInvalidProof, dErrors.CodeReplayedNonce, dErrors.CodeUnauthorized, dErrors.CodeForbidden:
		return true
	}
	return false
}

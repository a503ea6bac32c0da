// Package ledger is the execution environment the wallet runs against: a
// key-value store with atomic transactions and a native balance per principal.
//
// Every wallet operation is one Update call. A transaction either commits all
// of its writes or none of them; returning an error from the callback aborts it.
package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Tx.Get for absent keys.
	ErrNotFound = errors.New("ledger: key not found")
	// ErrInsufficientFunds is returned by Debit and Transfer when the source balance is too low.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	// ErrBalanceOverflow is returned when a credit would exceed the maximum balance.
	ErrBalanceOverflow = errors.New("ledger: balance overflow")
	// ErrReadOnly is returned by Set inside View.
	ErrReadOnly = errors.New("ledger: write in read-only transaction")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("ledger: closed")
)

// Tx is a transaction handle. It must not be used after the callback returns.
type Tx interface {
	// Get decodes the value at key into v, or returns ErrNotFound.
	Get(key []byte, v any) error
	Has(key []byte) (bool, error)
	Set(key []byte, v any) error
}

// Ledger runs transactions. Implementations may call fn more than once when a
// write conflict forces a retry, so fn must only touch state through tx.
type Ledger interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Observer receives transaction telemetry. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveLedgerTx(d time.Duration)
	IncLedgerConflict()
}

type nopObserver struct{}

func (nopObserver) ObserveLedgerTx(time.Duration) {}
func (nopObserver) IncLedgerConflict()            {}

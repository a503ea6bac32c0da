package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v2"
)

// BadgerLedger persists state in badger. Transactions are serializable;
// conflicting updates are retried a bounded number of times.
type BadgerLedger struct {
	db       *badger.DB
	codec    *Codec
	observer Observer
	retries  int
	closed   atomic.Bool
}

// DefaultBadgerOptions returns options for a ledger at dir; empty dir means in-memory.
func DefaultBadgerOptions(dir string) badger.Options {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	return opts
}

func OpenBadger(opts badger.Options, ledgerOpts ...Option) (*BadgerLedger, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open badger ledger: %w", err)
	}
	o := buildOptions(ledgerOpts)
	return &BadgerLedger{
		db:       db,
		codec:    NewCodec(),
		observer: o.observer,
		retries:  o.retries,
	}, nil
}

func (l *BadgerLedger) Update(ctx context.Context, fn func(tx Tx) error) error {
	start := time.Now()
	defer func() { l.observer.ObserveLedgerTx(time.Since(start)) }()

	for attempt := 0; ; attempt++ {
		if l.closed.Load() {
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		err := l.db.Update(func(txn *badger.Txn) error {
			if err := fn(&badgerTx{txn: txn, codec: l.codec}); err != nil {
				return err
			}
			return ctx.Err()
		})
		if errors.Is(err, badger.ErrConflict) && attempt < l.retries {
			l.observer.IncLedgerConflict()
			continue
		}
		return err
	}
}

func (l *BadgerLedger) View(ctx context.Context, fn func(tx Tx) error) error {
	if l.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn, codec: l.codec, readOnly: true})
	})
}

func (l *BadgerLedger) Ping(context.Context) error {
	if l.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (l *BadgerLedger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.db.Close()
}

type badgerTx struct {
	txn      *badger.Txn
	codec    *Codec
	readOnly bool
}

func (t *badgerTx) Get(key []byte, v any) error {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("could not get value (key: %x): %w", key, err)
	}
	err = item.Value(func(val []byte) error {
		return t.codec.Unmarshal(val, v)
	})
	if err != nil {
		return fmt.Errorf("could not decode value (key: %x): %w", key, err)
	}
	return nil
}

func (t *badgerTx) Has(key []byte) (bool, error) {
	_, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not get value (key: %x): %w", key, err)
	}
	return true, nil
}

func (t *badgerTx) Set(key []byte, v any) error {
	if t.readOnly {
		return ErrReadOnly
	}
	val, err := t.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("could not encode value (key: %x): %w", key, err)
	}
	if err := t.txn.Set(key, val); err != nil {
		return fmt.Errorf("could not set value (key: %x): %w", key, err)
	}
	return nil
}

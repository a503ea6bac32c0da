package ledger

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger keeps state in a map. Update transactions are serialized by a
// single writer lock and buffer their writes until the callback succeeds.
type MemoryLedger struct {
	codec    *Codec
	observer Observer

	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

type Option func(*options)

type options struct {
	observer Observer
	retries  int
}

// WithObserver reports transaction timings and conflicts.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observer = o
		}
	}
}

// WithConflictRetries bounds retries after a write conflict (badger only).
func WithConflictRetries(n int) Option {
	return func(opts *options) {
		if n > 0 {
			opts.retries = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{observer: nopObserver{}, retries: 16}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewMemory(opts ...Option) *MemoryLedger {
	o := buildOptions(opts)
	return &MemoryLedger{
		codec:    NewCodec(),
		observer: o.observer,
		data:     make(map[string][]byte),
	}
}

func (l *MemoryLedger) Update(ctx context.Context, fn func(tx Tx) error) error {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() { l.observer.ObserveLedgerTx(time.Since(start)) }()

	if l.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{codec: l.codec, base: l.data, writes: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for k, v := range tx.writes {
		l.data[k] = v
	}
	return nil
}

func (l *MemoryLedger) View(ctx context.Context, fn func(tx Tx) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&memTx{codec: l.codec, base: l.data, readOnly: true})
}

func (l *MemoryLedger) Ping(context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	return nil
}

func (l *MemoryLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

type memTx struct {
	codec    *Codec
	base     map[string][]byte
	writes   map[string][]byte
	readOnly bool
}

func (t *memTx) lookup(key []byte) ([]byte, bool) {
	if v, ok := t.writes[string(key)]; ok {
		return v, true
	}
	v, ok := t.base[string(key)]
	return v, ok
}

func (t *memTx) Get(key []byte, v any) error {
	raw, ok := t.lookup(key)
	if !ok {
		return ErrNotFound
	}
	return t.codec.Unmarshal(raw, v)
}

func (t *memTx) Has(key []byte) (bool, error) {
	_, ok := t.lookup(key)
	return ok, nil
}

func (t *memTx) Set(key []byte, v any) error {
	if t.readOnly {
		return ErrReadOnly
	}
	raw, err := t.codec.Marshal(v)
	if err != nil {
		return err
	}
	t.writes[string(key)] = raw
	return nil
}

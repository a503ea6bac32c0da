package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starbeam/internal/ledger"
	"starbeam/pkg/testutil"
)

func TestRecordAndLookup(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	key := testutil.IdentityKey(1)
	addr := testutil.NewKeypair(t, "instance").Address

	require.NoError(t, l.View(ctx, func(tx ledger.Tx) error {
		_, found, err := Lookup(tx, key)
		assert.False(t, found)
		return err
	}))

	require.NoError(t, l.Update(ctx, func(tx ledger.Tx) error {
		return Record(tx, key, addr)
	}))

	err := l.Update(ctx, func(tx ledger.Tx) error {
		return Record(tx, key, testutil.NewKeypair(t, "other").Address)
	})
	assert.ErrorIs(t, err, ErrEntryExists)

	require.NoError(t, l.View(ctx, func(tx ledger.Tx) error {
		got, found, err := Lookup(tx, key)
		assert.True(t, found)
		assert.Equal(t, addr, got)
		return err
	}))
}

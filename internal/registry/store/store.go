// Package store holds the identity key to instance address mapping on the ledger.
// Entries are written once and never updated or removed.
package store

import (
	"errors"

	"starbeam/internal/ledger"
	id "starbeam/pkg/domain"
)

// ErrEntryExists is returned by Record when the key is already mapped.
var ErrEntryExists = errors.New("registry entry already exists")

// Lookup returns the mapped address; found is false for unknown keys.
func Lookup(tx ledger.Tx, key id.IdentityKey) (addr id.Address, found bool, err error) {
	var raw string
	err = tx.Get(ledger.EncodeKey(ledger.PrefixRegistry, key), &raw)
	if errors.Is(err, ledger.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id.Address(raw), true, nil
}

// Record writes a new mapping. It never overwrites.
func Record(tx ledger.Tx, key id.IdentityKey, addr id.Address) error {
	exists, err := tx.Has(ledger.EncodeKey(ledger.PrefixRegistry, key))
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}
	return tx.Set(ledger.EncodeKey(ledger.PrefixRegistry, key), addr.String())
}

// Package store maps account instance state onto ledger keys. All functions
// run inside a caller-supplied ledger transaction.
package store

import (
	"crypto/ed25519"
	"errors"

	"starbeam/internal/account/models"
	"starbeam/internal/ledger"
	id "starbeam/pkg/domain"
)

// ErrInstanceExists is returned when creating an instance at an occupied address.
var ErrInstanceExists = errors.New("account instance already exists")

type instanceRecord struct {
	IdentityKey []byte `cbor:"1,keyasint"`
}

// Exists reports whether an instance was created at addr.
func Exists(tx ledger.Tx, addr id.Address) (bool, error) {
	return tx.Has(ledger.EncodeKey(ledger.PrefixInstance, addr))
}

// CreateInstance writes the instance marker with empty state.
func CreateInstance(tx ledger.Tx, addr id.Address, key id.IdentityKey) error {
	exists, err := Exists(tx, addr)
	if err != nil {
		return err
	}
	if exists {
		return ErrInstanceExists
	}
	return tx.Set(ledger.EncodeKey(ledger.PrefixInstance, addr), instanceRecord{IdentityKey: key.Bytes()})
}

// Load reads the account at addr, or ledger.ErrNotFound if no instance exists.
func Load(tx ledger.Tx, addr id.Address) (*models.Account, error) {
	var rec instanceRecord
	if err := tx.Get(ledger.EncodeKey(ledger.PrefixInstance, addr), &rec); err != nil {
		return nil, err
	}
	key, err := id.IdentityKeyFromBytes(rec.IdentityKey)
	if err != nil {
		return nil, err
	}

	var identity uint64
	err = tx.Get(ledger.EncodeKey(ledger.PrefixBoundIdentity, addr), &identity)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return models.NewAccount(addr, key, false), nil
	case err != nil:
		return nil, err
	}

	acct := models.NewAccount(addr, key, true)
	acct.BoundIdentity = id.ExternalID(identity)

	var owner string
	if err := getOptional(tx, ledger.EncodeKey(ledger.PrefixOwner, addr), &owner); err != nil {
		return nil, err
	}
	acct.Owner = id.Address(owner)

	var signer []byte
	if err := getOptional(tx, ledger.EncodeKey(ledger.PrefixSignerKey, addr), &signer); err != nil {
		return nil, err
	}
	if len(signer) > 0 {
		acct.SignerKey = ed25519.PublicKey(signer)
	}

	if err := getOptional(tx, ledger.EncodeKey(ledger.PrefixNonce, addr), &acct.Nonce); err != nil {
		return nil, err
	}
	return acct, nil
}

// SaveBinding persists the identity, owner and optional signer key of a freshly bound account.
func SaveBinding(tx ledger.Tx, acct *models.Account) error {
	if err := tx.Set(ledger.EncodeKey(ledger.PrefixBoundIdentity, acct.Address), uint64(acct.BoundIdentity)); err != nil {
		return err
	}
	if err := SaveOwner(tx, acct.Address, acct.Owner); err != nil {
		return err
	}
	if len(acct.SignerKey) == 0 {
		return nil
	}
	return tx.Set(ledger.EncodeKey(ledger.PrefixSignerKey, acct.Address), []byte(acct.SignerKey))
}

func SaveOwner(tx ledger.Tx, addr, owner id.Address) error {
	return tx.Set(ledger.EncodeKey(ledger.PrefixOwner, addr), owner.String())
}

// SaveNonce records the replay high-water mark.
func SaveNonce(tx ledger.Tx, addr id.Address, nonce uint64) error {
	return tx.Set(ledger.EncodeKey(ledger.PrefixNonce, addr), nonce)
}

func getOptional(tx ledger.Tx, key []byte, v any) error {
	err := tx.Get(key, v)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil
	}
	return err
}

package models

import (
	"crypto/ed25519"

	"github.com/holiman/uint256"

	id "starbeam/pkg/domain"
)

// State is the lifecycle label of an account instance.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateBound         State = "bound"
)

// Operation names a proof-gated action. It is part of the signed message, so a
// proof for one operation cannot be replayed against another.
type Operation string

const (
	OpTransfer    Operation = "transfer"
	OpRotateOwner Operation = "rotate_owner"
)

// Account is the persisted state of one instance as read inside a transaction.
type Account struct {
	Address       id.Address
	IdentityKey   id.IdentityKey
	BoundIdentity id.ExternalID
	Owner         id.Address
	SignerKey     ed25519.PublicKey
	Nonce         uint64
	bound         bool
}

// NewAccount builds a fresh instance view. bound reports whether an identity is stored.
func NewAccount(addr id.Address, key id.IdentityKey, bound bool) *Account {
	return &Account{Address: addr, IdentityKey: key, bound: bound}
}

func (a *Account) IsBound() bool { return a.bound }

func (a *Account) State() State {
	if a.bound {
		return StateBound
	}
	return StateUninitialized
}

// Bind moves the account to Bound. Callers check IsBound first.
func (a *Account) Bind(identity id.ExternalID, owner id.Address, signerKey ed25519.PublicKey) {
	a.BoundIdentity = identity
	a.Owner = owner
	a.SignerKey = signerKey
	a.bound = true
}

// Proof is a per-call claim that the holder of ClaimedIdentity authorizes the
// operation. It is never persisted.
type Proof struct {
	ClaimedIdentity id.ExternalID
	Nonce           uint64
	Signature       []byte
}

// Snapshot is the read model returned by Get.
type Snapshot struct {
	Address       id.Address
	State         State
	BoundIdentity *id.ExternalID
	Owner         id.Address
	HasSignerKey  bool
	Nonce         uint64
	Balance       *uint256.Int
}

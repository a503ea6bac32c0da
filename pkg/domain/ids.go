// Package domain provides type-safe identifiers to prevent mixing up the external
// identity, the registry key and ledger principals at compile time.
package domain

import (
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"

	dErrors "starbeam/pkg/domain-errors"
)

const (
	// IdentityKeySize is the byte length of a registry identity key.
	IdentityKeySize = 32
	// AddressSize is the byte length of the hash behind an Address.
	AddressSize = 32

	addressPrefix = "sb"
)

// ExternalID is the off-chain user handle (e.g. a messenger account number) an
// account instance is bound to.
type ExternalID uint64

// IdentityKey is the opaque fixed-length form of an external identity used by the
// registry. It is deliberately a distinct type from ExternalID: keeping the two
// consistent is the caller's contract.
type IdentityKey [IdentityKeySize]byte

// Address is an opaque ledger principal: either a user principal or an account
// instance. Rendered as "sb" followed by base58 of a 32-byte hash.
type Address string

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseExternalID(s string) (ExternalID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "identity cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid identity format")
	}
	return ExternalID(v), nil
}

// ParseIdentityKey accepts 64 hex characters with an optional 0x prefix.
func ParseIdentityKey(s string) (IdentityKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return IdentityKey{}, dErrors.New(dErrors.CodeInvalidInput, "identity key cannot be empty")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return IdentityKey{}, dErrors.New(dErrors.CodeInvalidInput, "invalid identity key format")
	}
	return IdentityKeyFromBytes(raw)
}

func IdentityKeyFromBytes(b []byte) (IdentityKey, error) {
	var key IdentityKey
	if len(b) != IdentityKeySize {
		return key, dErrors.New(dErrors.CodeInvalidInput, "identity key must be 32 bytes")
	}
	copy(key[:], b)
	return key, nil
}

// IdentityKeyFromExternal left-pads the big-endian identity into a registry key.
// Provisioning does not enforce this mapping; clients use it to keep both forms aligned.
func IdentityKeyFromExternal(id ExternalID) IdentityKey {
	var key IdentityKey
	binary.BigEndian.PutUint64(key[IdentityKeySize-8:], uint64(id))
	return key
}

func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	if !strings.HasPrefix(s, addressPrefix) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid address prefix")
	}
	raw, err := base58.Decode(s[len(addressPrefix):])
	if err != nil || len(raw) != AddressSize {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid address format")
	}
	return Address(s), nil
}

// NewAddress renders a 32-byte hash as an Address.
func NewAddress(sum [AddressSize]byte) Address {
	return Address(addressPrefix + base58.Encode(sum[:]))
}

// AddressFromPublicKey derives the principal address controlled by an ed25519 key.
func AddressFromPublicKey(pub ed25519.PublicKey) (Address, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid public key size")
	}
	return NewAddress(blake2b.Sum256(pub)), nil
}

// String methods - for logging and debugging.

func (id ExternalID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (k IdentityKey) String() string { return hex.EncodeToString(k[:]) }
func (a Address) String() string     { return string(a) }
func (k IdentityKey) Bytes() []byte  { return append([]byte(nil), k[:]...) }
func (k IdentityKey) IsZero() bool   { return k == IdentityKey{} }
func (a Address) IsNil() bool        { return a == "" }

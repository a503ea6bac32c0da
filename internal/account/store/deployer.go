package store

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"starbeam/internal/ledger"
	id "starbeam/pkg/domain"
)

const instanceDomain = "starbeam/instance/v1"

// Deployer creates account instances at content-addressed locations derived
// from a factory salt and the registry identity key.
type Deployer struct {
	salt []byte
}

func NewDeployer(salt []byte) *Deployer {
	return &Deployer{salt: append([]byte(nil), salt...)}
}

// AddressOf is pure: the same salt and key always yield the same address.
func (d *Deployer) AddressOf(key id.IdentityKey) id.Address {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(instanceDomain))
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(d.salt)))
	h.Write(l[:])
	h.Write(d.salt)
	h.Write(key[:])
	var sum [id.AddressSize]byte
	copy(sum[:], h.Sum(nil))
	return id.NewAddress(sum)
}

// CreateInstance writes a fresh, uninitialized account at AddressOf(key).
func (d *Deployer) CreateInstance(tx ledger.Tx, key id.IdentityKey) (id.Address, error) {
	addr := d.AddressOf(key)
	if err := CreateInstance(tx, addr, key); err != nil {
		return "", err
	}
	return addr, nil
}

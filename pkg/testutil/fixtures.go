package testutil

import (
	"crypto/ed25519"
	"crypto/sha256"
	"testing"

	id "starbeam/pkg/domain"
)

// Keypair is a deterministic ed25519 identity for tests.
type Keypair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
	Address id.Address
}

// NewKeypair derives a stable keypair from a label so fixtures are reproducible.
func NewKeypair(t testing.TB, label string) Keypair {
	t.Helper()
	seed := sha256.Sum256([]byte("starbeam-test/" + label))
	priv := ed25519.NewKeyFromSeed(seed[:])
	pub := priv.Public().(ed25519.PublicKey)
	addr, err := id.AddressFromPublicKey(pub)
	if err != nil {
		t.Fatalf("derive address: %v", err)
	}
	return Keypair{Public: pub, Private: priv, Address: addr}
}

// IdentityKey returns a key whose 32 bytes are all b.
func IdentityKey(b byte) id.IdentityKey {
	var k id.IdentityKey
	for i := range k {
		k[i] = b
	}
	return k
}

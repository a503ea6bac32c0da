package models

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/blake2b"

	id "starbeam/pkg/domain"
)

const proofDomain = "starbeam/proof/v1"

// ProofDigest is the message an identity holder signs for one operation on one
// account. Variable-length fields are length-prefixed.
func ProofDigest(addr id.Address, op Operation, claimed id.ExternalID, nonce uint64, payload []byte) [32]byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(proofDomain))
	writeField(h, []byte(addr))
	writeField(h, []byte(op))
	var n [16]byte
	binary.BigEndian.PutUint64(n[:8], uint64(claimed))
	binary.BigEndian.PutUint64(n[8:], nonce)
	h.Write(n[:])
	writeField(h, payload)
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

type writer interface{ Write([]byte) (int, error) }

func writeField(w writer, b []byte) {
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(b)))
	w.Write(l[:])
	w.Write(b)
}

// TransferPayload binds a transfer proof to its destination and amount.
func TransferPayload(destination id.Address, amount *uint256.Int) []byte {
	out := append([]byte(destination), 0)
	b := amount.Bytes32()
	return append(out, b[:]...)
}

// RotateOwnerPayload binds a rotation proof to the new owner.
func RotateOwnerPayload(newOwner id.Address) []byte {
	return []byte(newOwner)
}

// SignProof produces a proof the signature verifier accepts. Clients and tests
// use it; the server only verifies.
func SignProof(priv ed25519.PrivateKey, addr id.Address, op Operation, identity id.ExternalID, nonce uint64, payload []byte) Proof {
	digest := ProofDigest(addr, op, identity, nonce, payload)
	return Proof{
		ClaimedIdentity: identity,
		Nonce:           nonce,
		Signature:       ed25519.Sign(priv, digest[:]),
	}
}

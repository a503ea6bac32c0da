package service

import (
	"context"
	"crypto/ed25519"

	"golang.org/x/crypto/blake2b"

	id "starbeam/pkg/domain"
	dErrors "starbeam/pkg/domain-errors"
)

// ProofSize is the length of the provisioning proof blob.
const ProofSize = ed25519.SignatureSize

const attestationDomain = "starbeam/provision/v1"

// ProvisionAuthorizer decides whether a provisioning request may proceed for key.
type ProvisionAuthorizer interface {
	Name() string
	Authorize(ctx context.Context, key id.IdentityKey, proof []byte) error
}

// OpenAuthorizer accepts every request. With it, any caller can provision an
// account for any identity key; the proof is carried but ignored.
type OpenAuthorizer struct{}

func (OpenAuthorizer) Name() string { return "open" }

func (OpenAuthorizer) Authorize(context.Context, id.IdentityKey, []byte) error { return nil }

// AttestationAuthorizer requires the proof to be the identity provider's
// ed25519 signature over AttestationDigest(key).
type AttestationAuthorizer struct {
	attestor ed25519.PublicKey
}

func NewAttestationAuthorizer(attestor ed25519.PublicKey) (*AttestationAuthorizer, error) {
	if len(attestor) != ed25519.PublicKeySize {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "attestor key must be a 32-byte ed25519 public key")
	}
	return &AttestationAuthorizer{attestor: attestor}, nil
}

func (a *AttestationAuthorizer) Name() string { return "attestation" }

func (a *AttestationAuthorizer) Authorize(_ context.Context, key id.IdentityKey, proof []byte) error {
	digest := AttestationDigest(key)
	if len(proof) != ProofSize || !ed25519.Verify(a.attestor, digest[:], proof) {
		return dErrors.New(dErrors.CodeInvalidProof, "provisioning attestation does not verify")
	}
	return nil
}

// AttestationDigest is the message the identity provider signs for key.
func AttestationDigest(key id.IdentityKey) [32]byte {
	msg := make([]byte, 0, len(attestationDomain)+id.IdentityKeySize)
	msg = append(msg, attestationDomain...)
	msg = append(msg, key[:]...)
	return blake2b.Sum256(msg)
}

// SignAttestation is the identity provider's side of AttestationAuthorizer.
func SignAttestation(priv ed25519.PrivateKey, key id.IdentityKey) []byte {
	digest := AttestationDigest(key)
	return ed25519.Sign(priv, digest[:])
}

// NewAuthorizer picks the attestation authorizer when an attestor key is configured.
func NewAuthorizer(attestor ed25519.PublicKey) (ProvisionAuthorizer, error) {
	if len(attestor) == 0 {
		return OpenAuthorizer{}, nil
	}
	return NewAttestationAuthorizer(attestor)
}

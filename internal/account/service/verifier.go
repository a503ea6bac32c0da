package service

import (
	"crypto/ed25519"
	"fmt"
	"math"

	"starbeam/internal/account/models"
	"starbeam/internal/account/store"
	"starbeam/internal/ledger"
	dErrors "starbeam/pkg/domain-errors"
)

const (
	ModeCompat    = "compat"
	ModeSignature = "signature"
)

// ProofVerifier checks the cryptographic part of a proof after the service has
// confirmed the account is bound and the claimed identity matches. It runs
// inside the operation's transaction and may persist replay state through tx.
type ProofVerifier interface {
	Mode() string
	Verify(tx ledger.Tx, acct *models.Account, op models.Operation, payload []byte, proof models.Proof) error
}

// NewVerifier returns the verifier for a configured proof mode.
func NewVerifier(mode string) (ProofVerifier, error) {
	switch mode {
	case ModeCompat:
		return EqualityVerifier{}, nil
	case ModeSignature, "":
		return SignatureVerifier{}, nil
	default:
		return nil, fmt.Errorf("unknown proof mode %q", mode)
	}
}

// EqualityVerifier accepts any proof whose claimed identity matches the
// binding. Nonce and signature are carried but not checked.
type EqualityVerifier struct{}

func (EqualityVerifier) Mode() string { return ModeCompat }

func (EqualityVerifier) Verify(ledger.Tx, *models.Account, models.Operation, []byte, models.Proof) error {
	return nil
}

// SignatureVerifier requires an ed25519 signature by the signer key bound at
// initialize over ProofDigest, with a nonce strictly above the stored
// high-water mark. The mark advances in the caller's transaction, so a
// rejected operation never consumes a nonce. The maximum uint64 is refused
// so no accepted proof can leave the account without a larger nonce to use.
type SignatureVerifier struct{}

func (SignatureVerifier) Mode() string { return ModeSignature }

func (SignatureVerifier) Verify(tx ledger.Tx, acct *models.Account, op models.Operation, payload []byte, proof models.Proof) error {
	if len(acct.SignerKey) != ed25519.PublicKeySize {
		return dErrors.New(dErrors.CodeInvalidProof, "account has no signer key bound")
	}
	if proof.Nonce == math.MaxUint64 {
		return dErrors.New(dErrors.CodeInvalidProof, "nonce must be below the maximum uint64")
	}
	if proof.Nonce <= acct.Nonce {
		return dErrors.New(dErrors.CodeReplayedNonce, fmt.Sprintf("nonce must be greater than %d", acct.Nonce))
	}
	if len(proof.Signature) != ed25519.SignatureSize {
		return dErrors.New(dErrors.CodeInvalidProof, "malformed signature")
	}
	digest := models.ProofDigest(acct.Address, op, proof.ClaimedIdentity, proof.Nonce, payload)
	if !ed25519.Verify(acct.SignerKey, digest[:], proof.Signature) {
		return dErrors.New(dErrors.CodeInvalidProof, "signature does not verify")
	}
	if err := store.SaveNonce(tx, acct.Address, proof.Nonce); err != nil {
		return err
	}
	acct.Nonce = proof.Nonce
	return nil
}

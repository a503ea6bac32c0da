package handler

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"starbeam/internal/account/models"
	id "starbeam/pkg/domain"
	dErrors "starbeam/pkg/domain-errors"
	"starbeam/pkg/validation"
)

// ProofRequest is the wire form of an identity proof.
type ProofRequest struct {
	Identity  *uint64 `json:"identity" validate:"required"`
	Nonce     uint64  `json:"nonce"`
	Signature string  `json:"signature" validate:"omitempty,hexadecimal,max=256"`
}

func (p *ProofRequest) normalize() {
	p.Signature = strings.TrimPrefix(strings.TrimSpace(p.Signature), "0x")
}

func (p *ProofRequest) toModel() (models.Proof, error) {
	sig, err := hex.DecodeString(p.Signature)
	if err != nil {
		return models.Proof{}, dErrors.New(dErrors.CodeValidation, "signature must be hex encoded")
	}
	return models.Proof{
		ClaimedIdentity: id.ExternalID(*p.Identity),
		Nonce:           p.Nonce,
		Signature:       sig,
	}, nil
}

type InitializeRequest struct {
	Identity  *uint64 `json:"identity" validate:"required"`
	Owner     string  `json:"owner" validate:"required,address"`
	SignerKey string  `json:"signer_key" validate:"omitempty,hexadecimal,len=64"`

	owner     id.Address
	signerKey ed25519.PublicKey
}

func (r *InitializeRequest) Normalize() {
	if r == nil {
		return
	}
	r.Owner = strings.TrimSpace(r.Owner)
	r.SignerKey = strings.TrimPrefix(strings.TrimSpace(r.SignerKey), "0x")
}

func (r *InitializeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	r.owner = id.Address(r.Owner)
	if r.SignerKey != "" {
		key, err := hex.DecodeString(r.SignerKey)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "signer_key must be hex encoded")
		}
		r.signerKey = ed25519.PublicKey(key)
	}
	return nil
}

type TransferRequest struct {
	Proof       ProofRequest `json:"proof"`
	Destination string       `json:"destination" validate:"required,address"`
	Amount      string       `json:"amount" validate:"required"`

	proof       models.Proof
	destination id.Address
	amount      id.Amount
}

func (r *TransferRequest) Normalize() {
	if r == nil {
		return
	}
	r.Proof.normalize()
	r.Destination = strings.TrimSpace(r.Destination)
	r.Amount = strings.TrimSpace(r.Amount)
}

func (r *TransferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	amount, err := id.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	proof, err := r.Proof.toModel()
	if err != nil {
		return err
	}
	r.amount = amount
	r.proof = proof
	r.destination = id.Address(r.Destination)
	return nil
}

type RotateOwnerRequest struct {
	Proof    ProofRequest `json:"proof"`
	NewOwner string       `json:"new_owner" validate:"required,address"`

	proof    models.Proof
	newOwner id.Address
}

func (r *RotateOwnerRequest) Normalize() {
	if r == nil {
		return
	}
	r.Proof.normalize()
	r.NewOwner = strings.TrimSpace(r.NewOwner)
}

func (r *RotateOwnerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	proof, err := r.Proof.toModel()
	if err != nil {
		return err
	}
	r.proof = proof
	r.newOwner = id.Address(r.NewOwner)
	return nil
}

type DepositRequest struct {
	Amount string `json:"amount" validate:"required"`

	amount id.Amount
}

func (r *DepositRequest) Normalize() {
	if r == nil {
		return
	}
	r.Amount = strings.TrimSpace(r.Amount)
}

func (r *DepositRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	amount, err := id.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.amount = amount
	return nil
}

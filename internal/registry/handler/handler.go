package handler

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	id "starbeam/pkg/domain"
	dErrors "starbeam/pkg/domain-errors"
	"starbeam/pkg/platform/httputil"
	"starbeam/pkg/requestcontext"
	"starbeam/pkg/validation"
)

type Service interface {
	Provision(ctx context.Context, key id.IdentityKey, proof []byte) (id.Address, error)
	Lookup(ctx context.Context, key id.IdentityKey) (id.Address, bool, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the registry routes. limit throttles provisioning per requester.
func (h *Handler) Register(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/registry/accounts", h.handleProvision)
	r.Get("/registry/accounts/{identityKey}", h.handleLookup)
}

type ProvisionRequest struct {
	IdentityKey string `json:"identity_key" validate:"required,identitykey"`
	Proof       string `json:"proof" validate:"required,hexadecimal,len=128"`

	key   id.IdentityKey
	proof []byte
}

func (r *ProvisionRequest) Normalize() {
	if r == nil {
		return
	}
	r.IdentityKey = strings.TrimSpace(r.IdentityKey)
	r.Proof = strings.TrimPrefix(strings.TrimSpace(r.Proof), "0x")
}

func (r *ProvisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	key, err := id.ParseIdentityKey(r.IdentityKey)
	if err != nil {
		return err
	}
	proof, err := hex.DecodeString(r.Proof)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "proof must be hex encoded")
	}
	r.key = key
	r.proof = proof
	return nil
}

type AccountResponse struct {
	IdentityKey string `json:"identity_key"`
	Address     string `json:"address"`
}

func (h *Handler) handleProvision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ProvisionRequest](w, r, h.logger)
	if !ok {
		return
	}

	addr, err := h.service.Provision(ctx, req.key, req.proof)
	if err != nil {
		h.logger.InfoContext(ctx, "provisioning request rejected",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, AccountResponse{IdentityKey: req.key.String(), Address: addr.String()})
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, err := id.ParseIdentityKey(chi.URLParam(r, "identityKey"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	addr, found, err := h.service.Lookup(ctx, key)
	if err != nil {
		h.logger.ErrorContext(ctx, "registry lookup failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	if !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no account is provisioned for this identity key"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AccountResponse{IdentityKey: key.String(), Address: addr.String()})
}

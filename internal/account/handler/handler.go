package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"crypto/ed25519"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"starbeam/internal/account/models"
	id "starbeam/pkg/domain"
	"starbeam/pkg/platform/httputil"
	"starbeam/pkg/requestcontext"
)

// Service is the account surface the HTTP layer needs.
type Service interface {
	Initialize(ctx context.Context, addr id.Address, identity id.ExternalID, owner id.Address, signerKey ed25519.PublicKey) error
	Transfer(ctx context.Context, addr id.Address, proof models.Proof, destination id.Address, amount id.Amount) error
	RotateOwner(ctx context.Context, addr id.Address, proof models.Proof, newOwner id.Address) error
	BoundIdentity(ctx context.Context, addr id.Address) (id.ExternalID, error)
	Balance(ctx context.Context, addr id.Address) (*uint256.Int, error)
	Deposit(ctx context.Context, addr id.Address, amount id.Amount) error
	Get(ctx context.Context, addr id.Address) (*models.Snapshot, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the account routes. requirePrincipal guards the operations
// that use ledger authentication instead of an identity proof.
func (h *Handler) Register(r chi.Router, requirePrincipal func(http.Handler) http.Handler) {
	r.Route("/accounts/{address}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Get("/identity", h.handleBoundIdentity)
		r.Get("/balance", h.handleBalance)
		r.Post("/transfer", h.handleTransfer)
		r.Post("/rotate-owner", h.handleRotateOwner)
		r.With(requirePrincipal).Post("/initialize", h.handleInitialize)
		r.With(requirePrincipal).Post("/deposit", h.handleDeposit)
	})
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[InitializeRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Initialize(ctx, addr, id.ExternalID(*req.Identity), req.owner, req.signerKey); err != nil {
		h.fail(ctx, w, "initialize", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OperationResponse{Address: addr.String(), Status: "initialized"})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Transfer(ctx, addr, req.proof, req.destination, req.amount); err != nil {
		h.fail(ctx, w, "transfer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OperationResponse{Address: addr.String(), Status: "transferred"})
}

func (h *Handler) handleRotateOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RotateOwnerRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.RotateOwner(ctx, addr, req.proof, req.newOwner); err != nil {
		h.fail(ctx, w, "rotate_owner", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OperationResponse{Address: addr.String(), Status: "owner_rotated"})
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DepositRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Deposit(ctx, addr, req.amount); err != nil {
		h.fail(ctx, w, "deposit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OperationResponse{Address: addr.String(), Status: "deposited"})
}

func (h *Handler) handleBoundIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	identity, err := h.service.BoundIdentity(ctx, addr)
	if err != nil {
		h.fail(ctx, w, "bound_identity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, IdentityResponse{Address: addr.String(), Identity: uint64(identity)})
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	balance, err := h.service.Balance(ctx, addr)
	if err != nil {
		h.fail(ctx, w, "balance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Address: addr.String(), Balance: balance.Dec()})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Get(ctx, addr)
	if err != nil {
		h.fail(ctx, w, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(snap))
}

func (h *Handler) addressParam(w http.ResponseWriter, r *http.Request) (id.Address, bool) {
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return addr, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	h.logger.InfoContext(ctx, "account request rejected",
		"operation", op,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}

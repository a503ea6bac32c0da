package service

//go:generate mockgen -source=verifier.go -destination=mocks/mocks.go -package=mocks ProofVerifier

import (
	"context"
	"crypto/ed25519"
	"log/slog"

	"github.com/holiman/uint256"

	"starbeam/internal/account/models"
	"starbeam/internal/account/store"
	"starbeam/internal/audit"
	"starbeam/internal/ledger"
	"starbeam/internal/platform/metrics"
	"starbeam/internal/platform/tracer"
	id "starbeam/pkg/domain"
	dErrors "starbeam/pkg/domain-errors"
	"starbeam/pkg/requestcontext"
)

// Service runs account operations. Each call is exactly one ledger
// transaction: a failed check leaves owner, nonce and balances untouched.
type Service struct {
	ledger   ledger.Ledger
	verifier ProofVerifier
	logger   *slog.Logger
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
}

type Option func(*Service)

func WithAuditor(a *audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func NewService(l ledger.Ledger, verifier ProofVerifier, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		ledger:   l,
		verifier: verifier,
		logger:   logger,
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ProofMode reports which verifier gates privileged operations.
func (s *Service) ProofMode() string { return s.verifier.Mode() }

// Initialize binds identity and owner to an uninitialized instance. The caller
// must be authenticated as owner.
func (s *Service) Initialize(ctx context.Context, addr id.Address, identity id.ExternalID, owner id.Address, signerKey ed25519.PublicKey) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanInitialize, tracer.String(tracer.AttrAddress, addr.String()))
	defer func() { span.End(err) }()
	defer func() { s.observe(ctx, audit.ActionAccountInitialized, "initialize", addr, err) }()

	principal, ok := requestcontext.Principal(ctx)
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not authenticated")
	}
	if owner.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	if principal != owner {
		return dErrors.New(dErrors.CodeUnauthorized, "caller must authenticate as the owner")
	}
	if len(signerKey) != 0 && len(signerKey) != ed25519.PublicKeySize {
		return dErrors.New(dErrors.CodeValidation, "signer_key must be a 32-byte ed25519 public key")
	}
	if len(signerKey) == 0 && s.verifier.Mode() == ModeSignature {
		return dErrors.New(dErrors.CodeValidation, "signer_key is required when proofs are signature checked")
	}

	err = s.ledger.Update(ctx, func(tx ledger.Tx) error {
		acct, err := store.Load(tx, addr)
		if err != nil {
			return err
		}
		if acct.IsBound() {
			return dErrors.New(dErrors.CodeAlreadyInitialized, "account identity is already bound")
		}
		acct.Bind(identity, owner, signerKey)
		return store.SaveBinding(tx, acct)
	})
	return translateError(err, "failed to initialize account")
}

// Transfer moves amount from the account's custody to destination.
func (s *Service) Transfer(ctx context.Context, addr id.Address, proof models.Proof, destination id.Address, amount id.Amount) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanTransfer, tracer.String(tracer.AttrAddress, addr.String()))
	defer func() { span.End(err) }()
	defer func() { s.observe(ctx, audit.ActionFundsTransferred, "transfer", addr, err) }()

	if destination.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "destination is required")
	}
	if amount.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	value := amount.Uint256()
	payload := models.TransferPayload(destination, value)

	err = s.ledger.Update(ctx, func(tx ledger.Tx) error {
		acct, err := s.authorize(tx, addr, models.OpTransfer, payload, proof)
		if err != nil {
			return err
		}
		if acct.Owner.IsNil() {
			return dErrors.New(dErrors.CodeOwnerNotSet, "account has no owner")
		}
		return ledger.Transfer(tx, addr, destination, value)
	})
	return translateError(err, "failed to transfer funds")
}

// RotateOwner replaces the owner unconditionally once the proof checks out.
func (s *Service) RotateOwner(ctx context.Context, addr id.Address, proof models.Proof, newOwner id.Address) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRotateOwner, tracer.String(tracer.AttrAddress, addr.String()))
	defer func() { span.End(err) }()
	defer func() { s.observe(ctx, audit.ActionOwnerRotated, "rotate_owner", addr, err) }()

	if newOwner.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "new_owner is required")
	}
	payload := models.RotateOwnerPayload(newOwner)

	err = s.ledger.Update(ctx, func(tx ledger.Tx) error {
		if _, err := s.authorize(tx, addr, models.OpRotateOwner, payload, proof); err != nil {
			return err
		}
		return store.SaveOwner(tx, addr, newOwner)
	})
	return translateError(err, "failed to rotate owner")
}

// BoundIdentity is a pure read and needs no authorization.
func (s *Service) BoundIdentity(ctx context.Context, addr id.Address) (_ id.ExternalID, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanBoundIdentity, tracer.String(tracer.AttrAddress, addr.String()))
	defer func() { span.End(err) }()

	var identity id.ExternalID
	err = s.ledger.View(ctx, func(tx ledger.Tx) error {
		acct, err := store.Load(tx, addr)
		if err != nil {
			return err
		}
		if !acct.IsBound() {
			return dErrors.New(dErrors.CodeIdentityNotBound, "account identity is not bound")
		}
		identity = acct.BoundIdentity
		return nil
	})
	if err != nil {
		return 0, translateError(err, "failed to read bound identity")
	}
	return identity, nil
}

// Balance returns the native balance held in the account's custody.
func (s *Service) Balance(ctx context.Context, addr id.Address) (*uint256.Int, error) {
	var balance *uint256.Int
	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		exists, err := store.Exists(tx, addr)
		if err != nil {
			return err
		}
		if !exists {
			return ledger.ErrNotFound
		}
		balance, err = ledger.BalanceOf(tx, addr)
		return err
	})
	if err != nil {
		return nil, translateError(err, "failed to read balance")
	}
	return balance, nil
}

// Deposit funds the account from the authenticated principal's own balance.
func (s *Service) Deposit(ctx context.Context, addr id.Address, amount id.Amount) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDeposit, tracer.String(tracer.AttrAddress, addr.String()))
	defer func() { span.End(err) }()
	defer func() { s.observe(ctx, audit.ActionFundsDeposited, "deposit", addr, err) }()

	principal, ok := requestcontext.Principal(ctx)
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not authenticated")
	}
	if amount.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}

	err = s.ledger.Update(ctx, func(tx ledger.Tx) error {
		exists, err := store.Exists(tx, addr)
		if err != nil {
			return err
		}
		if !exists {
			return ledger.ErrNotFound
		}
		return ledger.Transfer(tx, principal, addr, amount.Uint256())
	})
	return translateError(err, "failed to deposit funds")
}

// Get returns a consistent snapshot of the account and its balance.
func (s *Service) Get(ctx context.Context, addr id.Address) (*models.Snapshot, error) {
	var snap *models.Snapshot
	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		acct, err := store.Load(tx, addr)
		if err != nil {
			return err
		}
		balance, err := ledger.BalanceOf(tx, addr)
		if err != nil {
			return err
		}
		snap = &models.Snapshot{
			Address:      addr,
			State:        acct.State(),
			Owner:        acct.Owner,
			HasSignerKey: len(acct.SignerKey) > 0,
			Nonce:        acct.Nonce,
			Balance:      balance,
		}
		if acct.IsBound() {
			identity := acct.BoundIdentity
			snap.BoundIdentity = &identity
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "failed to read account")
	}
	return snap, nil
}

// authorize loads the account and checks the proof against its binding.
func (s *Service) authorize(tx ledger.Tx, addr id.Address, op models.Operation, payload []byte, proof models.Proof) (*models.Account, error) {
	acct, err := store.Load(tx, addr)
	if err != nil {
		return nil, err
	}
	if !acct.IsBound() {
		return nil, dErrors.New(dErrors.CodeIdentityNotBound, "account identity is not bound")
	}
	if proof.ClaimedIdentity != acct.BoundIdentity {
		return nil, dErrors.New(dErrors.CodeInvalidProof, "claimed identity does not match the bound identity")
	}
	if err := s.verifier.Verify(tx, acct, op, payload, proof); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *Service) observe(ctx context.Context, action audit.Action, op string, addr id.Address, err error) {
	outcome := audit.OutcomeSuccess
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	if s.metrics != nil {
		s.metrics.ObserveAccountOp(op, outcome)
	}

	if err == nil {
		s.logger.InfoContext(ctx, "account operation succeeded",
			"operation", op,
			"address", addr,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.emitAudit(ctx, audit.Event{Action: action, Subject: addr.String(), Outcome: audit.OutcomeSuccess})
		return
	}

	s.logger.WarnContext(ctx, "account operation failed",
		"operation", op,
		"address", addr,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	if isProofRejection(err) {
		if s.metrics != nil {
			s.metrics.ObserveProofRejection(outcome)
		}
		s.emitAudit(ctx, audit.Event{
			Action:  audit.ActionProofRejected,
			Subject: addr.String(),
			Outcome: audit.OutcomeDenied,
			Reason:  outcome,
		})
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

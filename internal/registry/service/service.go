package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks InstanceFactory

import (
	"context"
	"errors"
	"log/slog"

	"starbeam/internal/audit"
	"starbeam/internal/ledger"
	"starbeam/internal/platform/metrics"
	"starbeam/internal/platform/tracer"
	"starbeam/internal/registry/store"
	id "starbeam/pkg/domain"
	dErrors "starbeam/pkg/domain-errors"
	platformsync "starbeam/pkg/platform/sync"
	"starbeam/pkg/requestcontext"
)

// InstanceFactory deploys account instances. CreateInstance must write the new
// instance through tx so it commits or aborts with the registry entry, and the
// address it returns must equal AddressOf(key).
type InstanceFactory interface {
	CreateInstance(tx ledger.Tx, key id.IdentityKey) (id.Address, error)
	AddressOf(key id.IdentityKey) id.Address
}

// Service provisions one account instance per identity key and resolves keys
// to instances.
type Service struct {
	ledger     ledger.Ledger
	factory    InstanceFactory
	authorizer ProvisionAuthorizer
	locks      *platformsync.ShardedMutex
	cache      *LookupCache
	logger     *slog.Logger
	auditor    *audit.Publisher
	metrics    *metrics.Metrics
	tracer     tracer.Tracer
}

type Option func(*Service)

// WithCache memoizes successful lookups.
func WithCache(c *LookupCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

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

func NewService(l ledger.Ledger, factory InstanceFactory, authorizer ProvisionAuthorizer, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		ledger:     l,
		factory:    factory,
		authorizer: authorizer,
		locks:      platformsync.NewShardedMutex(),
		logger:     logger,
		tracer:     tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Provision creates the account instance for key and records the mapping.
// A key that is already mapped fails with AlreadyProvisioned and deploys nothing.
func (s *Service) Provision(ctx context.Context, key id.IdentityKey, proof []byte) (_ id.Address, err error) {
	redacted := tracer.Redact(key[:])
	ctx, span := s.tracer.Start(ctx, tracer.SpanProvision,
		tracer.String(tracer.AttrIdentityKey, redacted),
		tracer.String(tracer.AttrProofMode, s.authorizer.Name()),
	)
	defer func() { span.End(err) }()
	defer func() { s.observeProvision(ctx, redacted, err) }()

	if len(proof) != ProofSize {
		return "", dErrors.New(dErrors.CodeValidation, "proof must be 64 bytes")
	}
	if err := s.authorizer.Authorize(ctx, key, proof); err != nil {
		return "", err
	}

	var addr id.Address
	err = s.locks.WithLock(key.String(), func() error {
		return s.ledger.Update(ctx, func(tx ledger.Tx) error {
			_, found, err := store.Lookup(tx, key)
			if err != nil {
				return err
			}
			if found {
				return dErrors.New(dErrors.CodeAlreadyProvisioned, "an account is already provisioned for this identity key")
			}
			created, err := s.factory.CreateInstance(tx, key)
			if err != nil {
				return err
			}
			if created != s.factory.AddressOf(key) {
				return dErrors.New(dErrors.CodeInvariantViolation, "instance factory returned a non-deterministic address")
			}
			addr = created
			return store.Record(tx, key, created)
		})
	})
	if err != nil {
		return "", translateError(err, "failed to provision account")
	}

	span.SetAttributes(tracer.String(tracer.AttrAddress, addr.String()))
	s.cache.Set(key, addr)
	return addr, nil
}

// Lookup resolves key. An unprovisioned key is found=false, never an error.
func (s *Service) Lookup(ctx context.Context, key id.IdentityKey) (_ id.Address, _ bool, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanLookup, tracer.String(tracer.AttrIdentityKey, tracer.Redact(key[:])))
	defer func() { span.End(err) }()

	if addr, ok := s.cache.Get(key); ok {
		span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true))
		s.observeLookup("cache")
		return addr, true, nil
	}
	span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, false))

	var (
		addr  id.Address
		found bool
	)
	err = s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		addr, found, err = store.Lookup(tx, key)
		return err
	})
	if err != nil {
		return "", false, translateError(err, "failed to look up identity key")
	}
	if !found {
		s.observeLookup("miss")
		return "", false, nil
	}
	s.observeLookup("ledger")
	s.cache.Set(key, addr)
	return addr, true, nil
}

func translateError(err error, msg string) error {
	var domainErr *dErrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, store.ErrEntryExists):
		return dErrors.Wrap(err, dErrors.CodeAlreadyProvisioned, "an account is already provisioned for this identity key")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) observeLookup(source string) {
	if s.metrics != nil {
		s.metrics.ObserveLookup(source)
	}
}

func (s *Service) observeProvision(ctx context.Context, redactedKey string, err error) {
	outcome := audit.OutcomeSuccess
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	if s.metrics != nil {
		s.metrics.ObserveProvision(outcome)
	}

	event := audit.Event{Subject: redactedKey, Outcome: audit.OutcomeSuccess, Action: audit.ActionAccountProvisioned}
	if err != nil {
		event.Action = audit.ActionProvisionRejected
		event.Outcome = audit.OutcomeDenied
		event.Reason = outcome
		s.logger.WarnContext(ctx, "provisioning rejected",
			"identity_key", redactedKey,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		s.logger.InfoContext(ctx, "account provisioned",
			"identity_key", redactedKey,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	if s.auditor == nil {
		return
	}
	if auditErr := s.auditor.Emit(ctx, event); auditErr != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", auditErr,
		)
	}
}

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"starbeam/internal/audit"
	"starbeam/internal/ledger"
	"starbeam/internal/platform/metrics"
	"starbeam/internal/platform/tracer"
	"starbeam/internal/registry/service/mocks"
	id "starbeam/pkg/domain"
	dErrors "starbeam/pkg/domain-errors"
	"starbeam/pkg/testutil"
)

// fakeFactory deploys into the transaction and counts deployments.
type fakeFactory struct {
	mu      sync.Mutex
	created map[id.IdentityKey]int
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{created: make(map[id.IdentityKey]int)}
}

func (f *fakeFactory) AddressOf(key id.IdentityKey) id.Address {
	var sum [id.AddressSize]byte
	copy(sum[:], key[:])
	sum[0] ^= 0xff
	return id.NewAddress(sum)
}

func (f *fakeFactory) CreateInstance(tx ledger.Tx, key id.IdentityKey) (id.Address, error) {
	addr := f.AddressOf(key)
	if err := tx.Set(ledger.EncodeKey(ledger.PrefixInstance, addr), key.Bytes()); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.created[key]++
	f.mu.Unlock()
	return addr, nil
}

func (f *fakeFactory) deployments(key id.IdentityKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[key]
}

type RegistrySuite struct {
	suite.Suite
	ctx        context.Context
	ledger     *ledger.MemoryLedger
	factory    *fakeFactory
	metrics    *metrics.Metrics
	auditStore *audit.InMemoryStore
	service    *Service
	proof      []byte
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = ledger.NewMemory()
	s.factory = newFakeFactory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.auditStore = audit.NewInMemoryStore()
	s.proof = make([]byte, ProofSize)
	s.service = s.newService(OpenAuthorizer{})
}

func (s *RegistrySuite) newService(authorizer ProvisionAuthorizer, opts ...Option) *Service {
	opts = append([]Option{
		WithMetrics(s.metrics),
		WithAuditor(audit.NewPublisher(s.auditStore)),
	}, opts...)
	return NewService(s.ledger, s.factory, authorizer, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func (s *RegistrySuite) TestProvisionIsOneShot() {
	key := testutil.IdentityKey(0)

	addr, err := s.service.Provision(s.ctx, key, s.proof)
	s.Require().NoError(err)
	s.Equal(s.factory.AddressOf(key), addr)

	for range 3 {
		_, err := s.service.Provision(s.ctx, key, s.proof)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyProvisioned), "got %v", err)

		got, found, err := s.service.Lookup(s.ctx, key)
		s.Require().NoError(err)
		s.True(found)
		s.Equal(addr, got)
	}

	s.Equal(1, s.factory.deployments(key))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.ProvisionsTotal.WithLabelValues(audit.OutcomeSuccess)))
	s.Equal(3.0, promtest.ToFloat64(s.metrics.ProvisionsTotal.WithLabelValues("already_provisioned")))
}

func (s *RegistrySuite) TestLookupUnknownKeyIsNotAnError() {
	addr, found, err := s.service.Lookup(s.ctx, testutil.IdentityKey(3))
	s.Require().NoError(err)
	s.False(found)
	s.Empty(addr)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.LookupsTotal.WithLabelValues("miss")))
}

func (s *RegistrySuite) TestDistinctKeysGetDistinctInstances() {
	a, err := s.service.Provision(s.ctx, testutil.IdentityKey(1), s.proof)
	s.Require().NoError(err)
	b, err := s.service.Provision(s.ctx, testutil.IdentityKey(2), s.proof)
	s.Require().NoError(err)
	s.NotEqual(a, b)
}

func (s *RegistrySuite) TestProofLengthIsChecked() {
	_, err := s.service.Provision(s.ctx, testutil.IdentityKey(1), []byte{1, 2, 3})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal(0, s.factory.deployments(testutil.IdentityKey(1)))
}

func (s *RegistrySuite) TestAttestationAuthorizer() {
	attestor := testutil.NewKeypair(s.T(), "identity-provider")
	authorizer, err := NewAttestationAuthorizer(attestor.Public)
	s.Require().NoError(err)
	svc := s.newService(authorizer)
	key := testutil.IdentityKey(7)

	s.Run("signature over another key is rejected", func() {
		_, err := svc.Provision(s.ctx, key, SignAttestation(attestor.Private, testutil.IdentityKey(8)))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))
		_, found, _ := svc.Lookup(s.ctx, key)
		s.False(found)
	})

	s.Run("signature by another signer is rejected", func() {
		impostor := testutil.NewKeypair(s.T(), "impostor")
		_, err := svc.Provision(s.ctx, key, SignAttestation(impostor.Private, key))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))
	})

	s.Run("valid attestation provisions", func() {
		addr, err := svc.Provision(s.ctx, key, SignAttestation(attestor.Private, key))
		s.Require().NoError(err)
		s.Equal(s.factory.AddressOf(key), addr)
	})

	events, err := s.auditStore.ListBySubject(s.ctx, tracer.Redact(key[:]))
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(audit.ActionProvisionRejected, events[0].Action)
	s.Equal(audit.ActionAccountProvisioned, events[2].Action)
}

func (s *RegistrySuite) TestConcurrentProvisionRace() {
	key := testutil.IdentityKey(0)

	result := testutil.RunConcurrent(50, func(int) error {
		_, err := s.service.Provision(s.ctx, key, s.proof)
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(49), result.Conflicts)
	s.Zero(result.Errors)
	s.Equal(1, s.factory.deployments(key))
}

func (s *RegistrySuite) TestLookupUsesCache() {
	cache, err := NewLookupCache(1 << 20)
	s.Require().NoError(err)
	defer cache.Close()
	svc := s.newService(OpenAuthorizer{}, WithCache(cache))
	key := testutil.IdentityKey(5)

	addr, err := svc.Provision(s.ctx, key, s.proof)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		_, ok := cache.Get(key)
		return ok
	}, time.Second, 5*time.Millisecond)

	got, found, err := svc.Lookup(s.ctx, key)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(addr, got)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.LookupsTotal.WithLabelValues("cache")))
}

func (s *RegistrySuite) TestFactoryFailureRecordsNothing() {
	ctrl := gomock.NewController(s.T())
	factory := mocks.NewMockInstanceFactory(ctrl)
	svc := NewService(s.ledger, factory, OpenAuthorizer{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	key := testutil.IdentityKey(4)

	s.Run("deployment error aborts", func() {
		factory.EXPECT().CreateInstance(gomock.Any(), key).Return(id.Address(""), errors.New("deploy failed"))
		_, err := svc.Provision(s.ctx, key, s.proof)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("address mismatch aborts", func() {
		factory.EXPECT().CreateInstance(gomock.Any(), key).Return(s.factory.AddressOf(key), nil)
		factory.EXPECT().AddressOf(key).Return(s.factory.AddressOf(testutil.IdentityKey(9)))
		_, err := svc.Provision(s.ctx, key, s.proof)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	_, found, err := svc.Lookup(s.ctx, key)
	s.Require().NoError(err)
	s.False(found)
}

func (s *RegistrySuite) TestNewAuthorizer() {
	a, err := NewAuthorizer(nil)
	s.Require().NoError(err)
	s.Equal("open", a.Name())

	a, err = NewAuthorizer(testutil.NewKeypair(s.T(), "idp").Public)
	s.Require().NoError(err)
	s.Equal("attestation", a.Name())

	_, err = NewAuthorizer([]byte{1, 2})
	s.Error(err)
}

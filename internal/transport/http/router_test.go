package httptransport

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/suite"

	accounthandler "starbeam/internal/account/handler"
	"starbeam/internal/account/models"
	accountservice "starbeam/internal/account/service"
	accountstore "starbeam/internal/account/store"
	"starbeam/internal/audit"
	jwttoken "starbeam/internal/jwt_token"
	"starbeam/internal/ledger"
	"starbeam/internal/platform/health"
	"starbeam/internal/platform/metrics"
	registryhandler "starbeam/internal/registry/handler"
	registryservice "starbeam/internal/registry/service"
	id "starbeam/pkg/domain"
	"starbeam/pkg/platform/middleware/request"
	"starbeam/pkg/testutil"
)

// ScenarioSuite drives the full wallet flow through the HTTP router against an
// in-memory ledger.
type ScenarioSuite struct {
	suite.Suite
	server   *httptest.Server
	ledger   *ledger.MemoryLedger
	tokens   *jwttoken.JWTService
	ownerA   testutil.Keypair
	ownerB   testutil.Keypair
	telegram testutil.Keypair
	dest     id.Address
}

func TestScenarioSuite(t *testing.T) {
	suite.Run(t, new(ScenarioSuite))
}

func (s *ScenarioSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	s.ledger = ledger.NewMemory(ledger.WithObserver(m))
	s.tokens = jwttoken.NewJWTService("scenario-signing-key", "starbeam", "starbeam-wallet", time.Minute)
	s.ownerA = testutil.NewKeypair(s.T(), "owner-a")
	s.ownerB = testutil.NewKeypair(s.T(), "owner-b")
	s.telegram = testutil.NewKeypair(s.T(), "telegram-42")
	s.dest = testutil.NewKeypair(s.T(), "destination").Address

	auditor := audit.NewPublisher(audit.NewInMemoryStore())
	accounts := accountservice.NewService(s.ledger, accountservice.SignatureVerifier{}, logger,
		accountservice.WithAuditor(auditor),
		accountservice.WithMetrics(m),
	)
	registry := registryservice.NewService(s.ledger, accountstore.NewDeployer([]byte("scenario")), registryservice.OpenAuthorizer{}, logger,
		registryservice.WithAuditor(auditor),
		registryservice.WithMetrics(m),
	)
	checks := health.New("test")
	checks.RegisterCheck("ledger", s.ledger.Ping)

	router := NewRouter(Dependencies{
		Logger:         logger,
		Accounts:       accounthandler.New(accounts, logger),
		Registry:       registryhandler.New(registry, logger),
		Health:         checks,
		TokenValidator: jwttoken.NewJWTServiceAdapter(s.tokens),
		RequestMetrics: request.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		RequestTimeout: 5 * time.Second,
		MaxBodyBytes:   1 << 16,
	})
	s.server = httptest.NewServer(router)
}

func (s *ScenarioSuite) TearDownTest() {
	s.server.Close()
}

func (s *ScenarioSuite) call(method, path string, body any, principal id.Address) (int, map[string]any) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if !principal.IsNil() {
		token, _, err := s.tokens.IssuePrincipalToken(context.Background(), principal)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *ScenarioSuite) proofBody(proof models.Proof) map[string]any {
	return map[string]any{
		"identity":  uint64(proof.ClaimedIdentity),
		"nonce":     proof.Nonce,
		"signature": hex.EncodeToString(proof.Signature),
	}
}

func (s *ScenarioSuite) TestProvisionInitializeTransferRotate() {
	zeroKey := "0x" + strings.Repeat("00", 32)
	provision := map[string]any{"identity_key": zeroKey, "proof": strings.Repeat("00", 64)}

	status, body := s.call(http.MethodPost, "/registry/accounts", provision, "")
	s.Require().Equal(http.StatusCreated, status, body)
	addr := id.Address(body["address"].(string))

	status, body = s.call(http.MethodGet, "/registry/accounts/"+zeroKey, nil, "")
	s.Require().Equal(http.StatusOK, status)
	s.Equal(addr.String(), body["address"])

	s.Run("initialize must be called by the owner", func() {
		init := map[string]any{"identity": 42, "owner": s.ownerA.Address, "signer_key": hex.EncodeToString(s.telegram.Public)}
		status, _ := s.call(http.MethodPost, "/accounts/"+addr.String()+"/initialize", init, "")
		s.Equal(http.StatusUnauthorized, status)
		status, _ = s.call(http.MethodPost, "/accounts/"+addr.String()+"/initialize", init, s.ownerB.Address)
		s.Equal(http.StatusUnauthorized, status)
		status, body := s.call(http.MethodPost, "/accounts/"+addr.String()+"/initialize", init, s.ownerA.Address)
		s.Require().Equal(http.StatusOK, status, body)
		status, _ = s.call(http.MethodPost, "/accounts/"+addr.String()+"/initialize", init, s.ownerA.Address)
		s.Equal(http.StatusConflict, status)
	})

	status, body = s.call(http.MethodGet, "/accounts/"+addr.String()+"/identity", nil, "")
	s.Require().Equal(http.StatusOK, status)
	s.Equal(float64(42), body["identity"])

	s.Require().NoError(s.ledger.Update(context.Background(), func(tx ledger.Tx) error {
		return ledger.Credit(tx, s.ownerA.Address, uint256.NewInt(1000))
	}))
	status, body = s.call(http.MethodPost, "/accounts/"+addr.String()+"/deposit", map[string]any{"amount": "600"}, s.ownerA.Address)
	s.Require().Equal(http.StatusOK, status, body)

	s.Run("transfer with a proof for identity 42", func() {
		proof := models.SignProof(s.telegram.Private, addr, models.OpTransfer, 42, 1,
			models.TransferPayload(s.dest, uint256.NewInt(250)))
		transfer := map[string]any{"proof": s.proofBody(proof), "destination": s.dest, "amount": "250"}

		status, body := s.call(http.MethodPost, "/accounts/"+addr.String()+"/transfer", transfer, "")
		s.Require().Equal(http.StatusOK, status, body)

		status, body = s.call(http.MethodPost, "/accounts/"+addr.String()+"/transfer", transfer, "")
		s.Equal(http.StatusForbidden, status)
		s.Equal("replayed_nonce", body["error"])
	})

	s.Run("proof for another identity is forbidden", func() {
		proof := models.SignProof(s.telegram.Private, addr, models.OpRotateOwner, 43, 2,
			models.RotateOwnerPayload(s.ownerB.Address))
		status, body := s.call(http.MethodPost, "/accounts/"+addr.String()+"/rotate-owner",
			map[string]any{"proof": s.proofBody(proof), "new_owner": s.ownerB.Address}, "")
		s.Equal(http.StatusForbidden, status)
		s.Equal("invalid_proof", body["error"])
	})

	s.Run("rotate owner to B", func() {
		proof := models.SignProof(s.telegram.Private, addr, models.OpRotateOwner, 42, 2,
			models.RotateOwnerPayload(s.ownerB.Address))
		status, body := s.call(http.MethodPost, "/accounts/"+addr.String()+"/rotate-owner",
			map[string]any{"proof": s.proofBody(proof), "new_owner": s.ownerB.Address}, "")
		s.Require().Equal(http.StatusOK, status, body)
	})

	status, body = s.call(http.MethodGet, "/accounts/"+addr.String(), nil, "")
	s.Require().Equal(http.StatusOK, status)
	s.Equal(s.ownerB.Address.String(), body["owner"])
	s.Equal("350", body["balance"])
	s.Equal("bound", body["state"])

	status, body = s.call(http.MethodGet, "/accounts/"+addr.String()+"/balance", nil, "")
	s.Require().Equal(http.StatusOK, status)
	s.Equal("350", body["balance"])

	status, body = s.call(http.MethodPost, "/registry/accounts", provision, "")
	s.Equal(http.StatusConflict, status)
	s.Equal("already_provisioned", body["error"])
}

func (s *ScenarioSuite) TestLookupNeverProvisioned() {
	status, body := s.call(http.MethodGet, "/registry/accounts/"+fmt.Sprintf("0x%s", strings.Repeat("03", 32)), nil, "")
	s.Equal(http.StatusNotFound, status)
	s.Equal("not_found", body["error"])
}

func (s *ScenarioSuite) TestUninitializedAccountOverHTTP() {
	status, body := s.call(http.MethodPost, "/registry/accounts",
		map[string]any{"identity_key": strings.Repeat("11", 32), "proof": strings.Repeat("00", 64)}, "")
	s.Require().Equal(http.StatusCreated, status)
	addr := body["address"].(string)

	status, body = s.call(http.MethodGet, "/accounts/"+addr+"/identity", nil, "")
	s.Equal(http.StatusPreconditionFailed, status)
	s.Equal("identity_not_bound", body["error"])

	status, body = s.call(http.MethodGet, "/accounts/"+addr, nil, "")
	s.Equal(http.StatusOK, status)
	s.Equal("uninitialized", body["state"])
}

func (s *ScenarioSuite) TestOpsEndpoints() {
	status, _ := s.call(http.MethodGet, "/health/ready", nil, "")
	s.Equal(http.StatusOK, status)

	resp, err := http.Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(raw), "starbeam_http_request_duration_seconds")
}

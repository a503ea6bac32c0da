package auth

import (
	"context"
	"crypto/ed25519"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	id "starbeam/pkg/domain"
	"starbeam/pkg/requestcontext"
)

type MockJWTValidator struct {
	mock.Mock
}

func (m *MockJWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

type captureHandler struct {
	called  bool
	context context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.context = r.Context()
	w.WriteHeader(http.StatusOK)
}

type RequirePrincipalSuite struct {
	suite.Suite
	validator *MockJWTValidator
	next      *captureHandler
	handler   http.Handler
	principal id.Address
}

func TestRequirePrincipalSuite(t *testing.T) {
	suite.Run(t, new(RequirePrincipalSuite))
}

func (s *RequirePrincipalSuite) SetupTest() {
	s.validator = new(MockJWTValidator)
	s.next = &captureHandler{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.handler = RequirePrincipal(s.validator, logger)(s.next)

	pub, _, err := ed25519.GenerateKey(nil)
	s.Require().NoError(err)
	s.principal, err = id.AddressFromPublicKey(pub)
	s.Require().NoError(err)
}

func (s *RequirePrincipalSuite) serve(header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/accounts/x/initialize", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *RequirePrincipalSuite) TestValidTokenSetsPrincipal() {
	s.validator.On("ValidateToken", "good").Return(&Claims{Principal: s.principal.String(), JTI: "j1"}, nil)

	w := s.serve("Bearer good")

	s.Equal(http.StatusOK, w.Code)
	s.Require().True(s.next.called)
	got, ok := requestcontext.Principal(s.next.context)
	s.True(ok)
	s.Equal(s.principal, got)
}

func (s *RequirePrincipalSuite) TestMissingHeader() {
	w := s.serve("")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(s.next.called)
	s.validator.AssertNotCalled(s.T(), "ValidateToken", mock.Anything)
}

func (s *RequirePrincipalSuite) TestWrongScheme() {
	w := s.serve("Basic Zm9vOmJhcg==")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(s.next.called)
}

func (s *RequirePrincipalSuite) TestInvalidToken() {
	s.validator.On("ValidateToken", "bad").Return(nil, errors.New("expired"))

	w := s.serve("Bearer bad")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Contains(w.Body.String(), "unauthorized")
	s.False(s.next.called)
}

func (s *RequirePrincipalSuite) TestMalformedPrincipal() {
	s.validator.On("ValidateToken", "odd").Return(&Claims{Principal: "not-an-address"}, nil)

	w := s.serve("Bearer odd")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(s.next.called)
}

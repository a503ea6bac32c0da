package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, ProofModeSignature, cfg.ProofMode)
	assert.Equal(t, LedgerMemory, cfg.LedgerBackend)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Nil(t, cfg.ProvisionAttestorKey)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	t.Setenv("PROOF_MODE", "compat")
	t.Setenv("LEDGER_BACKEND", "badger")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("PROVISION_ATTESTOR_KEY", hex.EncodeToString(pub))
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.0.0/16")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ProofModeCompat, cfg.ProofMode)
	assert.Equal(t, LedgerBadger, cfg.LedgerBackend)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, ed25519.PublicKey(pub), cfg.ProvisionAttestorKey)
	assert.Len(t, cfg.TrustedProxies, 2)
}

func TestFromEnvReportsEveryProblem(t *testing.T) {
	t.Setenv("PROOF_MODE", "trust-me")
	t.Setenv("TOKEN_TTL", "forever")
	t.Setenv("PROVISION_ATTESTOR_KEY", "abcd")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROOF_MODE")
	assert.Contains(t, err.Error(), "TOKEN_TTL")
	assert.Contains(t, err.Error(), "PROVISION_ATTESTOR_KEY")
}

func TestFromEnvRefusesDevKeyInProduction(t *testing.T) {
	t.Setenv("STARBEAM_ENV", "production")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
}

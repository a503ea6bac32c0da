package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ProofMode selects how account operations verify identity proofs.
type ProofMode string

const (
	// ProofModeCompat accepts any proof whose claimed identity equals the bound one.
	ProofModeCompat ProofMode = "compat"
	// ProofModeSignature additionally requires a fresh nonce and an ed25519 signature.
	ProofModeSignature ProofMode = "signature"
)

// LedgerBackend selects the ledger implementation.
type LedgerBackend string

const (
	LedgerMemory LedgerBackend = "memory"
	LedgerBadger LedgerBackend = "badger"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	Environment    string
	LogLevel       string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	TrustedProxies []netip.Prefix

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	TokenTTL      time.Duration

	ProofMode            ProofMode
	ProvisionAttestorKey ed25519.PublicKey
	FactorySalt          string
	ProvisionRate        float64
	ProvisionBurst       int
	LookupCacheSize      int64

	LedgerBackend LedgerBackend
	LedgerPath    string
	GenesisFile   string

	AuditAsync bool
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Server config from environment variables so main stays lean.
// Every malformed variable is reported, not only the first.
func FromEnv() (Server, error) {
	var errs *multierror.Error
	cfg := Server{
		Addr:            getenv("STARBEAM_ADDR", ":8080"),
		Environment:     getenv("STARBEAM_ENV", "local"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		JWTSigningKey:   getenv("JWT_SIGNING_KEY", devSigningKey),
		JWTIssuer:       getenv("JWT_ISSUER", "starbeam"),
		JWTAudience:     getenv("JWT_AUDIENCE", "starbeam-wallet"),
		FactorySalt:     getenv("FACTORY_SALT", "starbeam-factory-v1"),
		ProofMode:       ProofMode(getenv("PROOF_MODE", string(ProofModeSignature))),
		LedgerBackend:   LedgerBackend(getenv("LEDGER_BACKEND", string(LedgerMemory))),
		LedgerPath:      getenv("LEDGER_PATH", "data/ledger"),
		GenesisFile:     os.Getenv("GENESIS_FILE"),
		AuditAsync:      os.Getenv("AUDIT_ASYNC") == "true",
		RequestTimeout:  15 * time.Second,
		TokenTTL:        15 * time.Minute,
		MaxBodyBytes:    64 << 10,
		ProvisionRate:   5,
		ProvisionBurst:  10,
		LookupCacheSize: 1 << 20,
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		errs = appendErr(errs, "REQUEST_TIMEOUT", err)
		cfg.RequestTimeout = d
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		errs = appendErr(errs, "TOKEN_TTL", err)
		cfg.TokenTTL = d
	}
	if v := os.Getenv("PROVISION_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		errs = appendErr(errs, "PROVISION_RATE", err)
		cfg.ProvisionRate = f
	}
	if v := os.Getenv("PROVISION_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		errs = appendErr(errs, "PROVISION_BURST", err)
		cfg.ProvisionBurst = n
	}
	if v := os.Getenv("LOOKUP_CACHE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		errs = appendErr(errs, "LOOKUP_CACHE_BYTES", err)
		cfg.LookupCacheSize = n
	}
	if v := os.Getenv("PROVISION_ATTESTOR_KEY"); v != "" {
		key, err := parsePublicKey(v)
		errs = appendErr(errs, "PROVISION_ATTESTOR_KEY", err)
		cfg.ProvisionAttestorKey = key
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		for _, raw := range strings.Split(v, ",") {
			prefix, err := netip.ParsePrefix(strings.TrimSpace(raw))
			if err != nil {
				errs = appendErr(errs, "TRUSTED_PROXIES", err)
				continue
			}
			cfg.TrustedProxies = append(cfg.TrustedProxies, prefix)
		}
	}

	switch cfg.ProofMode {
	case ProofModeCompat, ProofModeSignature:
	default:
		errs = multierror.Append(errs, fmt.Errorf("PROOF_MODE: unknown mode %q", cfg.ProofMode))
	}
	switch cfg.LedgerBackend {
	case LedgerMemory, LedgerBadger:
	default:
		errs = multierror.Append(errs, fmt.Errorf("LEDGER_BACKEND: unknown backend %q", cfg.LedgerBackend))
	}
	if cfg.IsProduction() && cfg.JWTSigningKey == devSigningKey {
		errs = multierror.Append(errs, fmt.Errorf("JWT_SIGNING_KEY: must be set in production"))
	}

	return cfg, errs.ErrorOrNil()
}

// IsProduction reports whether dev defaults must be refused.
func (s Server) IsProduction() bool {
	return s.Environment == "production" || s.Environment == "prod"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func appendErr(errs *multierror.Error, key string, err error) *multierror.Error {
	if err == nil {
		return errs
	}
	return multierror.Append(errs, fmt.Errorf("%s: %w", key, err))
}

func parsePublicKey(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("want %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

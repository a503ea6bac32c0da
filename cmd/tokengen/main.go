// Package main provides a CLI for producing the credentials a local Starbeam
// deployment expects: principal tokens, identity proofs and provisioning
// attestations. Keys are derived from a passphrase and are for development only.
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/blake2b"

	"starbeam/internal/account/models"
	jwttoken "starbeam/internal/jwt_token"
	registryservice "starbeam/internal/registry/service"
	id "starbeam/pkg/domain"
)

const (
	// matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey   = "dev-secret-key-change-in-production"
	defaultIssuer   = "starbeam"
	defaultAudience = "starbeam-wallet"
	defaultTokenTTL = 15 * time.Minute
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "token":
		err = runToken(os.Args[2:], os.Stdout)
	case "keys":
		err = runKeys(os.Args[2:], os.Stdout)
	case "proof":
		err = runProof(os.Args[2:], os.Stdout)
	case "attest":
		err = runAttest(os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "tokengen:", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `tokengen - development credentials for Starbeam

WARNING: keys are derived from passphrases and tokens use the dev signing key.
         Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  token     Mint a principal bearer token
  keys      Print the address and public key derived from a seed
  proof     Sign an identity proof for transfer or rotate_owner
  attest    Sign a provisioning attestation for an identity key

Examples:
  tokengen keys --seed alice
  tokengen token --seed alice
  tokengen proof --seed telegram-42 --account sb... --identity 42 --nonce 1 \
      --op transfer --destination sb... --amount 250
  tokengen attest --seed attestor --identity-key 0x00...2a

Use "tokengen <command> -h" for more information about a command.`)
}

// keyFromSeed derives a deterministic ed25519 key from a passphrase.
func keyFromSeed(seed string) (ed25519.PrivateKey, error) {
	if seed == "" {
		return nil, fmt.Errorf("--seed is required")
	}
	sum := blake2b.Sum256([]byte(seed))
	return ed25519.NewKeyFromSeed(sum[:]), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runToken(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	seed := fs.String("seed", "", "passphrase the principal key is derived from")
	address := fs.String("address", "", "principal address (overrides --seed)")
	signingKey := fs.String("signing-key", devSigningKey, "HMAC key the server validates with")
	issuer := fs.String("issuer", defaultIssuer, "token issuer")
	audience := fs.String("audience", defaultAudience, "token audience")
	ttl := fs.Duration("ttl", defaultTokenTTL, "token time-to-live")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var principal id.Address
	if *address != "" {
		parsed, err := id.ParseAddress(*address)
		if err != nil {
			return err
		}
		principal = parsed
	} else {
		priv, err := keyFromSeed(*seed)
		if err != nil {
			return err
		}
		principal, err = id.AddressFromPublicKey(priv.Public().(ed25519.PublicKey))
		if err != nil {
			return err
		}
	}

	svc := jwttoken.NewJWTService(*signingKey, *issuer, *audience, *ttl)
	token, jti, err := svc.IssuePrincipalToken(context.Background(), principal)
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]string{
		"token":      token,
		"type":       "Bearer",
		"principal":  principal.String(),
		"jti":        jti,
		"expires_in": ttl.String(),
		"header":     "Authorization: Bearer " + token,
	})
}

func runKeys(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("keys", pflag.ContinueOnError)
	seed := fs.String("seed", "", "passphrase the key is derived from")
	if err := fs.Parse(args); err != nil {
		return err
	}
	priv, err := keyFromSeed(*seed)
	if err != nil {
		return err
	}
	pub := priv.Public().(ed25519.PublicKey)
	addr, err := id.AddressFromPublicKey(pub)
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]string{
		"address":    addr.String(),
		"public_key": hex.EncodeToString(pub),
	})
}

func runProof(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("proof", pflag.ContinueOnError)
	seed := fs.String("seed", "", "passphrase of the identity signer key")
	account := fs.String("account", "", "account instance address")
	identity := fs.Uint64("identity", 0, "bound external identity")
	nonce := fs.Uint64("nonce", 1, "proof nonce, greater than the last accepted one")
	op := fs.String("op", string(models.OpTransfer), "operation: transfer or rotate_owner")
	destination := fs.String("destination", "", "transfer destination address")
	amount := fs.String("amount", "", "transfer amount in the smallest unit")
	newOwner := fs.String("new-owner", "", "rotate_owner target address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	priv, err := keyFromSeed(*seed)
	if err != nil {
		return err
	}
	addr, err := id.ParseAddress(*account)
	if err != nil {
		return fmt.Errorf("--account: %w", err)
	}

	var payload []byte
	switch models.Operation(*op) {
	case models.OpTransfer:
		dest, err := id.ParseAddress(*destination)
		if err != nil {
			return fmt.Errorf("--destination: %w", err)
		}
		a, err := id.ParseAmount(*amount)
		if err != nil {
			return fmt.Errorf("--amount: %w", err)
		}
		payload = models.TransferPayload(dest, a.Uint256())
	case models.OpRotateOwner:
		owner, err := id.ParseAddress(*newOwner)
		if err != nil {
			return fmt.Errorf("--new-owner: %w", err)
		}
		payload = models.RotateOwnerPayload(owner)
	default:
		return fmt.Errorf("--op: unknown operation %q", *op)
	}

	proof := models.SignProof(priv, addr, models.Operation(*op), id.ExternalID(*identity), *nonce, payload)
	return writeJSON(out, map[string]any{
		"identity":  uint64(proof.ClaimedIdentity),
		"nonce":     proof.Nonce,
		"signature": hex.EncodeToString(proof.Signature),
	})
}

func runAttest(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("attest", pflag.ContinueOnError)
	seed := fs.String("seed", "", "passphrase of the provisioning attestor key")
	rawKey := fs.String("identity-key", "", "32-byte hex identity key")
	identity := fs.Uint64("identity", 0, "external identity to derive the key from when --identity-key is empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	priv, err := keyFromSeed(*seed)
	if err != nil {
		return err
	}
	key := id.IdentityKeyFromExternal(id.ExternalID(*identity))
	if *rawKey != "" {
		key, err = id.ParseIdentityKey(*rawKey)
		if err != nil {
			return fmt.Errorf("--identity-key: %w", err)
		}
	}

	return writeJSON(out, map[string]string{
		"identity_key": key.String(),
		"proof":        hex.EncodeToString(registryservice.SignAttestation(priv, key)),
		"attestor_key": hex.EncodeToString(priv.Public().(ed25519.PublicKey)),
	})
}

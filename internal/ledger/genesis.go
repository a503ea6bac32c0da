package ledger

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	id "starbeam/pkg/domain"
)

// Genesis lists the balances minted when a ledger is first created.
//
//	allocations:
//	  - public_key: 3b6a27bcceb6a42d62a3a8d02a6f0d73653215771de243a63ac048a18b59da29
//	    amount: "1000000"
//	  - address: sb4vJ9...
//	    amount: "500"
type Genesis struct {
	Allocations []Allocation `yaml:"allocations"`
}

// Allocation names its recipient by address or by the ed25519 key that controls it.
type Allocation struct {
	Address   string `yaml:"address,omitempty"`
	PublicKey string `yaml:"public_key,omitempty"`
	Amount    string `yaml:"amount"`
}

type resolvedAllocation struct {
	address id.Address
	amount  id.Amount
}

func LoadGenesisFile(path string) (*Genesis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open genesis file: %w", err)
	}
	defer f.Close()
	return LoadGenesis(f)
}

func LoadGenesis(r io.Reader) (*Genesis, error) {
	var g Genesis
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil && err != io.EOF {
		return nil, fmt.Errorf("could not decode genesis: %w", err)
	}
	if _, err := g.resolve(); err != nil {
		return nil, err
	}
	return &g, nil
}

// resolve validates every allocation and reports all problems at once.
func (g *Genesis) resolve() ([]resolvedAllocation, error) {
	var errs *multierror.Error
	out := make([]resolvedAllocation, 0, len(g.Allocations))
	for i, a := range g.Allocations {
		addr, err := a.recipient()
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("allocation %d: %w", i, err))
			continue
		}
		amount, err := id.ParseAmount(a.Amount)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("allocation %d: %w", i, err))
			continue
		}
		out = append(out, resolvedAllocation{address: addr, amount: amount})
	}
	return out, errs.ErrorOrNil()
}

func (a Allocation) recipient() (id.Address, error) {
	switch {
	case a.Address != "" && a.PublicKey != "":
		return "", fmt.Errorf("set address or public_key, not both")
	case a.Address != "":
		return id.ParseAddress(a.Address)
	case a.PublicKey != "":
		raw, err := hex.DecodeString(strings.TrimPrefix(a.PublicKey, "0x"))
		if err != nil {
			return "", fmt.Errorf("public_key: %w", err)
		}
		return id.AddressFromPublicKey(ed25519.PublicKey(raw))
	default:
		return "", fmt.Errorf("recipient is required")
	}
}

// Apply mints the allocations in one transaction. It is a no-op on a ledger
// that already carries the genesis marker, so restarts do not mint twice.
func (g *Genesis) Apply(ctx context.Context, l Ledger) (applied bool, err error) {
	allocations, err := g.resolve()
	if err != nil {
		return false, err
	}
	marker := EncodeKey(PrefixGenesis)
	err = l.Update(ctx, func(tx Tx) error {
		applied = false
		done, err := tx.Has(marker)
		if err != nil || done {
			return err
		}
		for _, a := range allocations {
			if err := Credit(tx, a.address, a.amount.Uint256()); err != nil {
				return fmt.Errorf("credit %s: %w", a.address, err)
			}
		}
		applied = true
		return tx.Set(marker, uint64(len(allocations)))
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

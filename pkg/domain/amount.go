package domain

import (
	"encoding/json"
	"strings"

	"github.com/holiman/uint256"

	dErrors "starbeam/pkg/domain-errors"
)

// maxAmount is the largest value representable by the signed 128-bit interface type.
var maxAmount = func() *uint256.Int {
	m := new(uint256.Int).Lsh(uint256.NewInt(1), 127)
	return m.SubUint64(m, 1)
}()

// Amount is a quantity of the native asset in its smallest unit.
// The zero value is a zero amount; constructors reject zero and out-of-range values.
type Amount struct {
	v uint256.Int
}

// ParseAmount parses a positive decimal amount no larger than 2^127-1.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, dErrors.New(dErrors.CodeValidation, "amount must be a positive integer")
	}
	return AmountFromUint256(v)
}

// AmountFromUint256 validates an amount produced elsewhere (e.g. ledger arithmetic).
func AmountFromUint256(v *uint256.Int) (Amount, error) {
	if v == nil || v.IsZero() {
		return Amount{}, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if v.Gt(maxAmount) {
		return Amount{}, dErrors.New(dErrors.CodeValidation, "amount exceeds the 128-bit signed range")
	}
	var a Amount
	a.v.Set(v)
	return a, nil
}

// NewAmount builds an amount from a small literal; zero yields a zero Amount.
func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// MaxAmount returns a copy of the largest permitted amount or balance.
func MaxAmount() *uint256.Int { return maxAmount.Clone() }

// Uint256 returns a copy of the underlying value.
func (a Amount) Uint256() *uint256.Int { return a.v.Clone() }

func (a Amount) IsZero() bool   { return a.v.IsZero() }
func (a Amount) String() string { return a.v.Dec() }

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.v.Dec())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return dErrors.New(dErrors.CodeValidation, "amount must be a decimal string")
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

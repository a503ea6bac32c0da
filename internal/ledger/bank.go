package ledger

import (
	"errors"

	"github.com/holiman/uint256"

	id "starbeam/pkg/domain"
)

// Native asset primitives. Balances are stored as minimal big-endian bytes and
// never exceed domain.MaxAmount.

// BalanceOf returns the balance of addr; unknown principals hold zero.
func BalanceOf(tx Tx, addr id.Address) (*uint256.Int, error) {
	var raw []byte
	err := tx.Get(EncodeKey(PrefixBalance, addr), &raw)
	if errors.Is(err, ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func setBalance(tx Tx, addr id.Address, v *uint256.Int) error {
	return tx.Set(EncodeKey(PrefixBalance, addr), v.Bytes())
}

// Credit adds amount to addr. It is also how genesis allocations are minted.
func Credit(tx Tx, addr id.Address, amount *uint256.Int) error {
	bal, err := BalanceOf(tx, addr)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow || sum.Gt(id.MaxAmount()) {
		return ErrBalanceOverflow
	}
	return setBalance(tx, addr, sum)
}

// Debit removes amount from addr or fails with ErrInsufficientFunds.
func Debit(tx Tx, addr id.Address, amount *uint256.Int) error {
	bal, err := BalanceOf(tx, addr)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return ErrInsufficientFunds
	}
	return setBalance(tx, addr, new(uint256.Int).Sub(bal, amount))
}

// Transfer moves amount from one principal to another. A self-transfer still
// requires sufficient funds and leaves the balance unchanged.
func Transfer(tx Tx, from, to id.Address, amount *uint256.Int) error {
	if err := Debit(tx, from, amount); err != nil {
		return err
	}
	return Credit(tx, to, amount)
}

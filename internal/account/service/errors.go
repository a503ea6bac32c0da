package service

import (
	"context"
	"errors"

	"starbeam/internal/ledger"
	dErrors "starbeam/pkg/domain-errors"
)

// translateError maps ledger sentinels to domain codes. Domain errors pass through.
func translateError(err error, msg string) error {
	var domainErr *dErrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, ledger.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return dErrors.Wrap(err, dErrors.CodeInsufficientFunds, "insufficient funds")
	case errors.Is(err, ledger.ErrBalanceOverflow):
		return dErrors.Wrap(err, dErrors.CodeValidation, "destination balance would exceed the maximum amount")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func isProofRejection(err error) bool {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInvalidProof, dErrors.CodeReplayedNonce, dErrors.CodeIdentityNotBound:
		return true
	}
	return false
}

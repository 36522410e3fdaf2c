package vault

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/anoideaopen/custody/core/types"
)

var (
	ErrZeroAmount            = errors.New("zero amount")
	ErrAssetNotEnabled       = errors.New("asset not enabled")
	ErrDepositsExhausted     = errors.New("deposits exhausted")
	ErrCapExceeded           = errors.New("bank cap exceeded")
	ErrWithdrawLimitExceeded = errors.New("withdraw limit exceeded")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrTransferFailed        = errors.New("transfer failed")
	ErrUnsupportedOperation  = errors.New("unsupported operation")
	ErrReentrantCall         = errors.New("reentrant call")
	ErrWrongArgsCount        = errors.New("wrong arguments count")
)

// CapExceededError reports a deposit that would lift the bank total over its cap.
type CapExceededError struct {
	Cap      *uint256.Int
	NewTotal *uint256.Int
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("%s: cap %s, new total %s", ErrCapExceeded, e.Cap.Dec(), e.NewTotal.Dec())
}

func (e *CapExceededError) Unwrap() error {
	return ErrCapExceeded
}

// WithdrawLimitError reports a native withdrawal over the per-transaction limit.
type WithdrawLimitError struct {
	Requested *uint256.Int
	Limit     *uint256.Int
}

func (e *WithdrawLimitError) Error() string {
	return fmt.Sprintf("%s: requested %s, limit %s", ErrWithdrawLimitExceeded, e.Requested.Dec(), e.Limit.Dec())
}

func (e *WithdrawLimitError) Unwrap() error {
	return ErrWithdrawLimitExceeded
}

// InsufficientBalanceError reports a withdrawal larger than the balance.
type InsufficientBalanceError struct {
	Requested *uint256.Int
	Available *uint256.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: requested %s, available %s", ErrInsufficientBalance, e.Requested.Dec(), e.Available.Dec())
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// TransferFailedError reports an asset chaincode refusing to move funds.
type TransferFailedError struct {
	Asset types.AssetID
	Err   error
}

func (e *TransferFailedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransferFailed, e.Asset, e.Err)
}

func (e *TransferFailedError) Unwrap() []error {
	return []error{ErrTransferFailed, e.Err}
}

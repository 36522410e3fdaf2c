package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
)

// State keys of the bank-wide scalars.
const (
	keyBankTotal     = "bank_total"
	keyBankCap       = "bank_cap"
	keyDepositCount  = "deposit_count"
	keyWithdrawCount = "withdraw_count"
)

var (
	ErrTotalOverflow   = errors.New("bank total overflows 256 bits")
	ErrCounterOverflow = errors.New("counter overflows uint64")
)

// State is the part of the chaincode stub the bank scalars are kept in.
type State interface {
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
}

// BankTotal returns the USD-6 value of all balances at the prices they were
// recorded with.
func BankTotal(state State) (*uint256.Int, error) {
	return getUint256(state, keyBankTotal)
}

// AddBankTotal increases the bank total by usd6 and returns the new total.
func AddBankTotal(state State, usd6 *uint256.Int) (*uint256.Int, error) {
	total, err := BankTotal(state)
	if err != nil {
		return nil, err
	}

	newTotal, overflow := new(uint256.Int).AddOverflow(total, usd6)
	if overflow {
		return nil, ErrTotalOverflow
	}

	return newTotal, putUint256(state, keyBankTotal, newTotal)
}

// SubBankTotal decreases the bank total by usd6, stopping at zero: a
// withdrawal valued at a higher price than its deposit may exceed the total.
func SubBankTotal(state State, usd6 *uint256.Int) (*uint256.Int, error) {
	total, err := BankTotal(state)
	if err != nil {
		return nil, err
	}

	newTotal := new(uint256.Int)
	if total.Gt(usd6) {
		newTotal.Sub(total, usd6)
	}

	return newTotal, putUint256(state, keyBankTotal, newTotal)
}

// BankCap returns the USD-6 ceiling of the bank total.
func BankCap(state State) (*uint256.Int, error) {
	return getUint256(state, keyBankCap)
}

// SetBankCap stores a new USD-6 ceiling.
func SetBankCap(state State, bankCap *uint256.Int) error {
	return putUint256(state, keyBankCap, bankCap)
}

// DepositCount returns the number of accepted deposits.
func DepositCount(state State) (uint64, error) {
	return getUint64(state, keyDepositCount)
}

// IncDepositCount increments the deposit counter and returns its new value.
func IncDepositCount(state State) (uint64, error) {
	return incUint64(state, keyDepositCount)
}

// WithdrawCount returns the number of completed withdrawals.
func WithdrawCount(state State) (uint64, error) {
	return getUint64(state, keyWithdrawCount)
}

// IncWithdrawCount increments the withdrawal counter and returns its new value.
func IncWithdrawCount(state State) (uint64, error) {
	return incUint64(state, keyWithdrawCount)
}

func getUint256(state State, key string) (*uint256.Int, error) {
	raw, err := state.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func putUint256(state State, key string, value *uint256.Int) error {
	raw := value.Bytes()
	if len(raw) == 0 {
		raw = []byte{0}
	}
	if err := state.PutState(key, raw); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func getUint64(state State, key string) (uint64, error) {
	raw, err := state.GetState(key)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", key, err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	if len(raw) != 8 { //nolint:gomnd
		return 0, fmt.Errorf("corrupted counter %s", key)
	}
	return binary.BigEndian.Uint64(raw), nil
}

func incUint64(state State, key string) (uint64, error) {
	current, err := getUint64(state, key)
	if err != nil {
		return 0, err
	}

	next, overflow := math.SafeAdd(current, 1)
	if overflow {
		return 0, fmt.Errorf("%w: %s", ErrCounterOverflow, key)
	}

	if err = state.PutState(key, binary.BigEndian.AppendUint64(nil, next)); err != nil {
		return 0, fmt.Errorf("writing %s: %w", key, err)
	}
	return next, nil
}

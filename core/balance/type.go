package balance

import "strconv"

// BalanceType represents different types of balance-related state keys in the ledger.
type BalanceType byte

// String returns the hexadecimal string representation of the BalanceType.
func (ot BalanceType) String() string {
	return strconv.FormatUint(uint64(ot), 16)
}

// Constants for different BalanceType values representing various balance state keys.
const (
	// BalanceTypeCustody holds amounts a user has deposited into the vault.
	BalanceTypeCustody BalanceType = 0x2b
)

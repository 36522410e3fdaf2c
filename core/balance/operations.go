package balance

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/anoideaopen/custody/core/types"
)

// Error definitions for balance operations.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceOverflow     = errors.New("balance overflows 256 bits")
)

// Add adds amount to the balance of user in asset.
//
// Returns the new balance.
func Add(
	stub shim.ChaincodeStubInterface,
	balanceType BalanceType,
	user common.Address,
	asset types.AssetID,
	amount *uint256.Int,
) (*uint256.Int, error) {
	current, err := Get(stub, balanceType, user, asset)
	if err != nil {
		return nil, err
	}

	newBalance, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return nil, ErrBalanceOverflow
	}

	return newBalance, Put(stub, balanceType, user, asset, newBalance)
}

// Sub subtracts amount from the balance of user in asset. The balance never
// goes negative: a larger amount fails with ErrInsufficientBalance.
//
// Returns the new balance.
func Sub(
	stub shim.ChaincodeStubInterface,
	balanceType BalanceType,
	user common.Address,
	asset types.AssetID,
	amount *uint256.Int,
) (*uint256.Int, error) {
	current, err := Get(stub, balanceType, user, asset)
	if err != nil {
		return nil, err
	}

	if current.Lt(amount) {
		return nil, fmt.Errorf("%w: requested %s, available %s", ErrInsufficientBalance, amount.Dec(), current.Dec())
	}

	newBalance := new(uint256.Int).Sub(current, amount)
	return newBalance, Put(stub, balanceType, user, asset, newBalance)
}

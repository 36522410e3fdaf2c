package balance

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/anoideaopen/custody/core/types"
)

// AssetBalance represents a balance entry of one user in one asset.
type AssetBalance struct {
	User    common.Address
	Asset   types.AssetID
	Balance *uint256.Int
}

// ListBalancesByUser fetches all balance entries associated with the given user.
func ListBalancesByUser(
	stub shim.ChaincodeStubInterface,
	balanceType BalanceType,
	user common.Address,
) ([]AssetBalance, error) {
	stateIterator, err := stub.GetStateByPartialCompositeKey(
		balanceType.String(),
		[]string{user.Hex()},
	)
	if err != nil {
		return nil, err
	}
	defer stateIterator.Close()

	var balances []AssetBalance
	for stateIterator.HasNext() {
		response, err := stateIterator.Next()
		if err != nil {
			return nil, err
		}

		_, components, err := stub.SplitCompositeKey(response.GetKey())
		if err != nil {
			return nil, err
		}

		if len(components) < 2 {
			continue
		}

		balances = append(balances, AssetBalance{
			User:    common.HexToAddress(components[0]),
			Asset:   types.AssetID(components[1]),
			Balance: new(uint256.Int).SetBytes(response.GetValue()),
		})
	}

	return balances, nil
}

// ListHoldersByAsset fetches all holders and their balances for a specific asset.
func ListHoldersByAsset(
	stub shim.ChaincodeStubInterface,
	balanceType BalanceType,
	asset types.AssetID,
) ([]AssetBalance, error) {
	stateIterator, err := stub.GetStateByPartialCompositeKey(
		InverseBalanceObjectType,
		[]string{balanceType.String(), asset.String()},
	)
	if err != nil {
		return nil, err
	}
	defer stateIterator.Close()

	var holders []AssetBalance
	for stateIterator.HasNext() {
		response, err := stateIterator.Next()
		if err != nil {
			return nil, err
		}

		_, components, err := stub.SplitCompositeKey(response.GetKey())
		if err != nil {
			return nil, err
		}

		if len(components) < 3 {
			continue
		}

		holders = append(holders, AssetBalance{
			Asset:   types.AssetID(components[1]),
			User:    common.HexToAddress(components[2]),
			Balance: new(uint256.Int).SetBytes(response.GetValue()),
		})
	}

	return holders, nil
}

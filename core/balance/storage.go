package balance

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/anoideaopen/custody/core/types"
)

// InverseBalanceObjectType is designed for indexing the inverse balance values to retrieve
// a list of asset holders.
const InverseBalanceObjectType = "inverse_balance"

var (
	ErrAddressMustNotBeEmpty = errors.New("address must not be empty")
	ErrAssetMustNotBeEmpty   = errors.New("asset must not be empty")
)

// Get retrieves the balance of user in asset. A missing entry is a zero balance.
func Get(
	stub shim.ChaincodeStubInterface,
	balanceType BalanceType,
	user common.Address,
	asset types.AssetID,
) (*uint256.Int, error) {
	key, err := primaryKey(stub, balanceType, user, asset)
	if err != nil {
		return nil, err
	}

	balanceBytes, err := stub.GetState(key)
	if err != nil {
		return nil, err
	}

	return new(uint256.Int).SetBytes(balanceBytes), nil
}

// Put stores the balance of user in asset under the primary key and the
// inverse (asset, user) index.
func Put(
	stub shim.ChaincodeStubInterface,
	balanceType BalanceType,
	user common.Address,
	asset types.AssetID,
	value *uint256.Int,
) error {
	key, err := primaryKey(stub, balanceType, user, asset)
	if err != nil {
		return err
	}

	// zero is a valid terminal value and stays in state
	if err = stub.PutState(key, encode(value)); err != nil {
		return err
	}

	inverseCompositeKey, err := stub.CreateCompositeKey(
		InverseBalanceObjectType,
		[]string{balanceType.String(), asset.String(), user.Hex()},
	)
	if err != nil {
		return err
	}

	return stub.PutState(inverseCompositeKey, encode(value))
}

func primaryKey(
	stub shim.ChaincodeStubInterface,
	balanceType BalanceType,
	user common.Address,
	asset types.AssetID,
) (string, error) {
	if user == (common.Address{}) {
		return "", ErrAddressMustNotBeEmpty
	}
	if asset == "" {
		return "", ErrAssetMustNotBeEmpty
	}

	return stub.CreateCompositeKey(balanceType.String(), []string{user.Hex(), asset.String()})
}

// encode keeps a zero balance distinguishable from a deleted key.
func encode(value *uint256.Int) []byte {
	if value.IsZero() {
		return []byte{0}
	}
	return value.Bytes()
}

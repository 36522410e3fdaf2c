// Package settlement moves assets between users and the vault's custody.
package settlement

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/anoideaopen/custody/registry"
)

// Asset chaincode functions used for settlement.
const (
	FnCustodyCollect = "custodyCollect"
	FnCustodyRelease = "custodyRelease"
)

var ErrRejected = errors.New("transfer rejected")

// Custodian pulls assets into custody and releases them back to users.
type Custodian interface {
	Collect(stub shim.ChaincodeStubInterface, asset registry.Asset, from common.Address, amount *uint256.Int) error
	Release(stub shim.ChaincodeStubInterface, asset registry.Asset, to common.Address, amount *uint256.Int) error
}

// ChaincodeCustodian settles through the asset's own chaincode.
type ChaincodeCustodian struct{}

// Collect invokes asset.Chaincode.custodyCollect(from, amount).
func (ChaincodeCustodian) Collect(stub shim.ChaincodeStubInterface, asset registry.Asset, from common.Address, amount *uint256.Int) error {
	return invoke(stub, asset, FnCustodyCollect, from, amount)
}

// Release invokes asset.Chaincode.custodyRelease(to, amount). The asset
// chaincode is untrusted and may call back into the vault.
func (ChaincodeCustodian) Release(stub shim.ChaincodeStubInterface, asset registry.Asset, to common.Address, amount *uint256.Int) error {
	return invoke(stub, asset, FnCustodyRelease, to, amount)
}

func invoke(stub shim.ChaincodeStubInterface, asset registry.Asset, fn string, user common.Address, amount *uint256.Int) error {
	resp := stub.InvokeChaincode(
		asset.Chaincode,
		[][]byte{[]byte(fn), []byte(user.Hex()), []byte(amount.Dec())},
		asset.Channel,
	)
	if resp.GetStatus() != shim.OK {
		return fmt.Errorf("%w: %s.%s: %s", ErrRejected, asset.Chaincode, fn, resp.GetMessage())
	}
	return nil
}

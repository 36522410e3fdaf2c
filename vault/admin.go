package vault

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/anoideaopen/custody/core/acl"
	"github.com/anoideaopen/custody/core/cachestub"
	"github.com/anoideaopen/custody/core/ledger"
	"github.com/anoideaopen/custody/core/logger"
	"github.com/anoideaopen/custody/core/types"
	"github.com/anoideaopen/custody/registry"
)

// SetAssetEnabled enables or disables a token.
func (e *Engine) SetAssetEnabled(stub shim.ChaincodeStubInterface, caller common.Address, asset types.AssetID, enabled bool) error {
	return e.admin(stub, caller, func(cache *cachestub.TxCacheStub) error {
		if _, err := registry.SetEnabled(cache, asset, enabled); err != nil {
			return err
		}

		logger.Logger().WithField("asset", asset).Infof("asset enabled: %t", enabled)
		return emit(cache, EventAssetStatusChanged, AssetStatusEvent{Asset: asset, Enabled: enabled})
	})
}

// SetAssetFeed points a token at a new price feed. The feed decimals are
// checked against the token's precision before the feed is stored.
func (e *Engine) SetAssetFeed(stub shim.ChaincodeStubInterface, caller common.Address, asset types.AssetID, feed registry.FeedRef) error {
	return e.admin(stub, caller, func(cache *cachestub.TxCacheStub) error {
		assetDecimals := e.decimals.Resolve(cache, asset, "")
		if _, err := registry.SetFeed(cache, asset, feed, assetDecimals); err != nil {
			return err
		}

		logger.Logger().WithField("asset", asset).Infof("asset feed: %s", feed.Chaincode)
		return emit(cache, EventAssetFeedChanged, AssetFeedEvent{Asset: asset, Feed: feed})
	})
}

// SetBankCap replaces the USD-6 bank cap. A cap below the current total
// blocks deposits until withdrawals bring the total under it.
func (e *Engine) SetBankCap(stub shim.ChaincodeStubInterface, caller common.Address, bankCap *uint256.Int) error {
	return e.admin(stub, caller, func(cache *cachestub.TxCacheStub) error {
		old, err := ledger.BankCap(cache)
		if err != nil {
			return err
		}
		if err = ledger.SetBankCap(cache, bankCap); err != nil {
			return err
		}

		logger.Logger().Infof("bank cap: %s -> %s", old.Dec(), bankCap.Dec())
		return emit(cache, EventBankCapChanged, BankCapEvent{Old: old.Dec(), New: bankCap.Dec()})
	})
}

func (e *Engine) admin(stub shim.ChaincodeStubInterface, caller common.Address, op func(*cachestub.TxCacheStub) error) error {
	params, err := loadParams(stub)
	if err != nil {
		return err
	}
	if err = acl.NewGate(params.Admin).CheckAdmin(caller); err != nil {
		return err
	}

	cache := cachestub.NewTxCacheStub(stub)
	if err = op(cache); err != nil {
		return err
	}
	return cache.Commit()
}

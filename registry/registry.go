// Package registry keeps the table of custody assets: whether each is
// enabled and which price feed values it.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/anoideaopen/custody/core/types"
	"github.com/anoideaopen/custody/core/usd"
)

// ObjectType is the composite key namespace of asset records.
const ObjectType = "asset"

var (
	ErrAssetNotFound   = errors.New("asset not registered")
	ErrNativeImmutable = errors.New("native asset settings are immutable")
	ErrEmptyFeed       = errors.New("feed chaincode must not be empty")
)

// FeedRef points to the price feed chaincode of an asset.
type FeedRef struct {
	Chaincode string `json:"chaincode"`
	Channel   string `json:"channel,omitempty"`
	Decimals  uint8  `json:"decimals"`
}

// Asset is a registry record.
type Asset struct {
	ID        types.AssetID `json:"id"`
	Chaincode string        `json:"chaincode"`
	Channel   string        `json:"channel,omitempty"`
	Enabled   bool          `json:"enabled"`
	Feed      *FeedRef      `json:"feed,omitempty"`
}

// Get returns the record of id or ErrAssetNotFound.
func Get(stub shim.ChaincodeStubInterface, id types.AssetID) (*Asset, error) {
	key, err := stub.CreateCompositeKey(ObjectType, []string{id.String()})
	if err != nil {
		return nil, err
	}

	raw, err := stub.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("reading asset %s: %w", id, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}

	asset := new(Asset)
	if err = json.Unmarshal(raw, asset); err != nil {
		return nil, fmt.Errorf("decoding asset %s: %w", id, err)
	}

	return asset, nil
}

// IsEnabled reports whether id is registered and enabled.
func IsEnabled(stub shim.ChaincodeStubInterface, id types.AssetID) (bool, error) {
	asset, err := Get(stub, id)
	if errors.Is(err, ErrAssetNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return asset.Enabled, nil
}

// SeedNative writes the native asset record. It is called once, on Init.
func SeedNative(stub shim.ChaincodeStubInterface, chaincode, channel string, feed FeedRef, nativeDecimals uint8) (*Asset, error) {
	if err := validateFeed(feed, nativeDecimals); err != nil {
		return nil, err
	}

	asset := &Asset{
		ID:        types.NativeAsset,
		Chaincode: chaincode,
		Channel:   channel,
		Enabled:   true,
		Feed:      &feed,
	}

	return asset, put(stub, asset)
}

// SetEnabled enables or disables a token, registering it on first use.
func SetEnabled(stub shim.ChaincodeStubInterface, id types.AssetID, enabled bool) (*Asset, error) {
	asset, err := getOrNew(stub, id)
	if err != nil {
		return nil, err
	}

	asset.Enabled = enabled
	return asset, put(stub, asset)
}

// SetFeed replaces the price feed of a token. The feed must be able to value
// an amount of assetDecimals precision in USD-6.
func SetFeed(stub shim.ChaincodeStubInterface, id types.AssetID, feed FeedRef, assetDecimals uint8) (*Asset, error) {
	if err := validateFeed(feed, assetDecimals); err != nil {
		return nil, err
	}

	asset, err := getOrNew(stub, id)
	if err != nil {
		return nil, err
	}

	asset.Feed = &feed
	return asset, put(stub, asset)
}

// List returns every registered asset in key order.
func List(stub shim.ChaincodeStubInterface) ([]Asset, error) {
	iter, err := stub.GetStateByPartialCompositeKey(ObjectType, []string{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var assets []Asset
	for iter.HasNext() {
		kv, err := iter.Next()
		if err != nil {
			return nil, err
		}

		var asset Asset
		if err = json.Unmarshal(kv.GetValue(), &asset); err != nil {
			return nil, fmt.Errorf("decoding asset record %q: %w", kv.GetKey(), err)
		}
		assets = append(assets, asset)
	}

	return assets, nil
}

func getOrNew(stub shim.ChaincodeStubInterface, id types.AssetID) (*Asset, error) {
	if id.IsNative() {
		return nil, ErrNativeImmutable
	}

	asset, err := Get(stub, id)
	if errors.Is(err, ErrAssetNotFound) {
		return &Asset{ID: id, Chaincode: id.String()}, nil
	}

	return asset, err
}

func validateFeed(feed FeedRef, assetDecimals uint8) error {
	if feed.Chaincode == "" {
		return ErrEmptyFeed
	}
	return usd.ValidateScale(assetDecimals, feed.Decimals)
}

func put(stub shim.ChaincodeStubInterface, asset *Asset) error {
	key, err := stub.CreateCompositeKey(ObjectType, []string{asset.ID.String()})
	if err != nil {
		return err
	}

	raw, err := json.Marshal(asset)
	if err != nil {
		return err
	}

	return stub.PutState(key, raw)
}

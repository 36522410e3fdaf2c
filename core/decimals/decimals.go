// Package decimals resolves the native precision of custody assets.
//
// The native settlement asset is fixed at 18 decimals. Tokens are asked for
// their precision through a Probe; when the probe fails or reports zero the
// resolver assumes DefaultDecimals. Unknown tokens are treated as 18-decimal
// instead of being rejected, and every fallback is logged.
package decimals

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/anoideaopen/custody/core/logger"
	"github.com/anoideaopen/custody/core/types"
)

const (
	// NativeDecimals is the precision of the native settlement asset.
	NativeDecimals uint8 = 18
	// DefaultDecimals is assumed for tokens whose precision can't be read.
	DefaultDecimals uint8 = 18

	// FnMetadata is the token chaincode function reporting token metadata.
	FnMetadata = "metadata"
)

var ErrNoDecimals = errors.New("token metadata has no decimals")

// Probe reads the precision a token reports about itself.
type Probe interface {
	Decimals(stub shim.ChaincodeStubInterface, chaincode, channel string) (uint8, error)
}

// ChaincodeProbe queries the token chaincode's metadata function.
type ChaincodeProbe struct{}

type metadata struct {
	Decimals *uint `json:"decimals"`
}

// Decimals invokes chaincode.metadata on channel and returns its decimals field.
func (ChaincodeProbe) Decimals(stub shim.ChaincodeStubInterface, chaincode, channel string) (uint8, error) {
	resp := stub.InvokeChaincode(chaincode, [][]byte{[]byte(FnMetadata)}, channel)
	if resp.GetStatus() != shim.OK {
		return 0, fmt.Errorf("querying %s metadata: %s", chaincode, resp.GetMessage())
	}

	var md metadata
	if err := json.Unmarshal(resp.GetPayload(), &md); err != nil {
		return 0, fmt.Errorf("decoding %s metadata: %w", chaincode, err)
	}
	if md.Decimals == nil {
		return 0, ErrNoDecimals
	}
	if *md.Decimals > 255 { //nolint:gomnd
		return 0, fmt.Errorf("%s reports %d decimals", chaincode, *md.Decimals)
	}

	return uint8(*md.Decimals), nil
}

// Resolver applies the precision policy on top of a Probe.
type Resolver struct {
	probe Probe
}

// NewResolver returns a resolver using probe, or ChaincodeProbe when probe is nil.
func NewResolver(probe Probe) *Resolver {
	if probe == nil {
		probe = ChaincodeProbe{}
	}
	return &Resolver{probe: probe}
}

// Resolve returns the precision of asset, whose token chaincode is reachable
// on channel. It never fails.
func (r *Resolver) Resolve(stub shim.ChaincodeStubInterface, asset types.AssetID, channel string) uint8 {
	if asset.IsNative() {
		return NativeDecimals
	}

	d, err := r.probe.Decimals(stub, asset.String(), channel)
	switch {
	case err != nil:
		logger.Logger().WithField("asset", asset).WithError(err).
			Warnf("decimals probe failed, assuming %d", DefaultDecimals)
		return DefaultDecimals
	case d == 0:
		logger.Logger().WithField("asset", asset).
			Warnf("token reports zero decimals, assuming %d", DefaultDecimals)
		return DefaultDecimals
	}

	return d
}

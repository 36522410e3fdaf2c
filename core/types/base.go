package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// AssetID identifies an asset held in custody. Tokens are identified by the
// name of their chaincode, the native settlement asset by NativeAsset.
type AssetID string

// NativeAsset is the reserved identifier of the native settlement asset.
// '@' is not allowed in chaincode names, so it never collides with a token.
const NativeAsset AssetID = "@native"

var chaincodeName = regexp.MustCompile(`^[a-zA-Z0-9]+([-_][a-zA-Z0-9]+)*$`)

// ErrEmptyArgument is returned when a required argument is empty.
var ErrEmptyArgument = errors.New("empty argument")

// String returns the asset identifier as a string.
func (id AssetID) String() string {
	return string(id)
}

// IsNative reports whether id is the native asset sentinel.
func (id AssetID) IsNative() bool {
	return id == NativeAsset
}

// ParseAssetID parses a chaincode name or the native asset sentinel.
func ParseAssetID(in string) (AssetID, error) {
	if in == "" {
		return "", fmt.Errorf("asset id: %w", ErrEmptyArgument)
	}
	if AssetID(in) == NativeAsset {
		return NativeAsset, nil
	}
	if !chaincodeName.MatchString(in) {
		return "", fmt.Errorf("invalid asset id '%s'", in)
	}

	return AssetID(in), nil
}

// ParseAmount parses a non-negative base-10 integer of at most 256 bits.
func ParseAmount(in string) (*uint256.Int, error) {
	if in == "" {
		return nil, fmt.Errorf("amount: %w", ErrEmptyArgument)
	}
	if strings.HasPrefix(in, "-") {
		return nil, fmt.Errorf("value %s should be positive", in)
	}

	value, err := uint256.FromDecimal(in)
	if err != nil {
		return nil, fmt.Errorf("couldn't convert %s to uint256: %w", in, err)
	}

	return value, nil
}

// ParseBool parses a boolean argument, accepting the forms of strconv.ParseBool.
func ParseBool(in string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(in))
}

// ParseUint8 parses a decimal precision argument.
func ParseUint8(in string) (uint8, error) {
	v, err := strconv.ParseUint(in, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

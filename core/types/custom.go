package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// ParseAddress parses a 0x-prefixed hex address of a vault user.
func ParseAddress(in string) (common.Address, error) {
	if in == "" {
		return common.Address{}, fmt.Errorf("address: %w", ErrEmptyArgument)
	}
	if !common.IsHexAddress(in) {
		return common.Address{}, fmt.Errorf("invalid address '%s'", in)
	}

	return common.HexToAddress(in), nil
}

// AddressFromPublicKey derives a user address from a DER-encoded
// SubjectPublicKeyInfo: the last 20 bytes of its Keccak-256 digest.
func AddressFromPublicKey(spki []byte) common.Address {
	h := sha3.NewLegacyKeccak256()
	h.Write(spki)
	return common.BytesToAddress(h.Sum(nil))
}

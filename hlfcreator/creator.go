// Package hlfcreator maps the creator of a Fabric transaction to a vault user address.
package hlfcreator

import (
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"

	"github.com/anoideaopen/custody/core/types"
)

var ErrNoCertificate = errors.New("creator has no x509 certificate")

// CallerAddress returns the address of the transaction creator: the Keccak-256
// of its certificate's public key, last 20 bytes.
func CallerAddress(stub cid.ChaincodeStubInterface) (common.Address, error) {
	cert, err := cid.GetX509Certificate(stub)
	if err != nil {
		return common.Address{}, fmt.Errorf("reading creator certificate: %w", err)
	}

	return AddressFromCertificate(cert)
}

// AddressFromCertificate derives the user address of cert.
func AddressFromCertificate(cert *x509.Certificate) (common.Address, error) {
	if cert == nil || len(cert.RawSubjectPublicKeyInfo) == 0 {
		return common.Address{}, ErrNoCertificate
	}

	return types.AddressFromPublicKey(cert.RawSubjectPublicKeyInfo), nil
}

package acl_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/anoideaopen/custody/core/acl"
)

func TestCheckAdmin(t *testing.T) {
	admin := common.HexToAddress("0x00000000000000000000000000000000000ad111")
	gate := acl.NewGate(admin)

	require.NoError(t, gate.CheckAdmin(admin))

	err := gate.CheckAdmin(common.HexToAddress("0x0000000000000000000000000000000000000b0b"))
	require.ErrorIs(t, err, acl.ErrUnauthorized)

	// zero admin admits nobody
	require.ErrorIs(t, acl.NewGate(common.Address{}).CheckAdmin(common.Address{}), acl.ErrUnauthorized)
}

package balance_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/anoideaopen/custody/core/balance"
	"github.com/anoideaopen/custody/core/types"
	"github.com/anoideaopen/custody/mock/stub"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func newStub(t *testing.T) *stub.Stub {
	t.Helper()

	s := stub.NewMockStub("vault", nil)
	s.MockTransactionStart("tx1")
	return s
}

func TestAddSub(t *testing.T) {
	t.Parallel()

	s := newStub(t)

	got, err := balance.Get(s, balance.BalanceTypeCustody, alice, types.NativeAsset)
	require.NoError(t, err)
	require.True(t, got.IsZero())

	newBalance, err := balance.Add(s, balance.BalanceTypeCustody, alice, types.NativeAsset, uint256.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, uint64(100), newBalance.Uint64())

	newBalance, err = balance.Sub(s, balance.BalanceTypeCustody, alice, types.NativeAsset, uint256.NewInt(100))
	require.NoError(t, err)
	require.True(t, newBalance.IsZero())

	got, err = balance.Get(s, balance.BalanceTypeCustody, alice, types.NativeAsset)
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestSubInsufficient(t *testing.T) {
	t.Parallel()

	s := newStub(t)

	_, err := balance.Add(s, balance.BalanceTypeCustody, alice, "usdt", uint256.NewInt(5))
	require.NoError(t, err)

	_, err = balance.Sub(s, balance.BalanceTypeCustody, alice, "usdt", uint256.NewInt(6))
	require.ErrorIs(t, err, balance.ErrInsufficientBalance)
	require.ErrorContains(t, err, "requested 6, available 5")
}

func TestAddOverflow(t *testing.T) {
	t.Parallel()

	s := newStub(t)

	_, err := balance.Add(s, balance.BalanceTypeCustody, alice, "usdt", new(uint256.Int).SetAllOne())
	require.NoError(t, err)

	_, err = balance.Add(s, balance.BalanceTypeCustody, alice, "usdt", uint256.NewInt(1))
	require.ErrorIs(t, err, balance.ErrBalanceOverflow)
}

func TestEmptyKeys(t *testing.T) {
	t.Parallel()

	s := newStub(t)

	_, err := balance.Get(s, balance.BalanceTypeCustody, common.Address{}, "usdt")
	require.ErrorIs(t, err, balance.ErrAddressMustNotBeEmpty)

	_, err = balance.Get(s, balance.BalanceTypeCustody, alice, "")
	require.ErrorIs(t, err, balance.ErrAssetMustNotBeEmpty)
}

func TestListings(t *testing.T) {
	t.Parallel()

	s := newStub(t)

	_, err := balance.Add(s, balance.BalanceTypeCustody, alice, types.NativeAsset, uint256.NewInt(10))
	require.NoError(t, err)
	_, err = balance.Add(s, balance.BalanceTypeCustody, alice, "usdt", uint256.NewInt(20))
	require.NoError(t, err)
	_, err = balance.Add(s, balance.BalanceTypeCustody, bob, "usdt", uint256.NewInt(30))
	require.NoError(t, err)

	byUser, err := balance.ListBalancesByUser(s, balance.BalanceTypeCustody, alice)
	require.NoError(t, err)
	require.Len(t, byUser, 2)

	got := map[types.AssetID]uint64{}
	for _, b := range byUser {
		require.Equal(t, alice, b.User)
		got[b.Asset] = b.Balance.Uint64()
	}
	require.Equal(t, map[types.AssetID]uint64{types.NativeAsset: 10, "usdt": 20}, got)

	holders, err := balance.ListHoldersByAsset(s, balance.BalanceTypeCustody, "usdt")
	require.NoError(t, err)
	require.Len(t, holders, 2)

	byHolder := map[common.Address]uint64{}
	for _, h := range holders {
		require.Equal(t, types.AssetID("usdt"), h.Asset)
		byHolder[h.User] = h.Balance.Uint64()
	}
	require.Equal(t, map[common.Address]uint64{alice: 20, bob: 30}, byHolder)
}

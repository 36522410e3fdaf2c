package decimals_test

import (
	"errors"
	"testing"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/require"

	"github.com/anoideaopen/custody/core/decimals"
	"github.com/anoideaopen/custody/core/types"
	"github.com/anoideaopen/custody/mock/stub"
)

type fixedProbe struct {
	decimals uint8
	err      error
}

func (p fixedProbe) Decimals(shim.ChaincodeStubInterface, string, string) (uint8, error) {
	return p.decimals, p.err
}

func TestResolverPolicy(t *testing.T) {
	t.Parallel()

	s := stub.NewMockStub("vault", nil)

	for _, tc := range []struct {
		name  string
		probe decimals.Probe
		asset types.AssetID
		want  uint8
	}{
		{name: "native is fixed", probe: fixedProbe{decimals: 6}, asset: types.NativeAsset, want: 18},
		{name: "token reports 6", probe: fixedProbe{decimals: 6}, asset: "usdt", want: 6},
		{name: "probe fails", probe: fixedProbe{err: errors.New("no such chaincode")}, asset: "usdt", want: 18},
		{name: "zero decimals", probe: fixedProbe{}, asset: "usdt", want: 18},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, decimals.NewResolver(tc.probe).Resolve(s, tc.asset, ""))
		})
	}
}

func TestChaincodeProbe(t *testing.T) {
	t.Parallel()

	s := stub.NewMockStub("vault", nil)
	s.MockPeerChaincode("usdt", stub.PeerFunc(func(args [][]byte) pb.Response {
		if string(args[0]) != decimals.FnMetadata {
			return shim.Error("unknown function")
		}
		return shim.Success([]byte(`{"name":"Tether","symbol":"USDT","decimals":6}`))
	}))
	s.MockPeerChaincodeWithChannel("gold", stub.PeerFunc(func([][]byte) pb.Response {
		return shim.Success([]byte(`{"symbol":"GOLD"}`))
	}), "metals")
	s.MockPeerChaincode("junk", stub.PeerFunc(func([][]byte) pb.Response {
		return shim.Success([]byte(`not json`))
	}))

	probe := decimals.ChaincodeProbe{}

	d, err := probe.Decimals(s, "usdt", "")
	require.NoError(t, err)
	require.Equal(t, uint8(6), d)

	_, err = probe.Decimals(s, "gold", "metals")
	require.ErrorIs(t, err, decimals.ErrNoDecimals)

	_, err = probe.Decimals(s, "junk", "")
	require.Error(t, err)

	_, err = probe.Decimals(s, "missing", "")
	require.ErrorContains(t, err, "not found")

	// nil probe falls back to the chaincode probe
	require.Equal(t, uint8(6), decimals.NewResolver(nil).Resolve(s, "usdt", ""))
	require.Equal(t, decimals.DefaultDecimals, decimals.NewResolver(nil).Resolve(s, "missing", ""))
}

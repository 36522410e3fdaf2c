package oracle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anoideaopen/custody/mock"
	"github.com/anoideaopen/custody/mock/stub"
	"github.com/anoideaopen/custody/oracle"
	"github.com/anoideaopen/custody/registry"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T, feed *mock.FeedChaincode) *stub.Stub {
	t.Helper()

	s := stub.NewMockStub("vault", nil)
	s.SetTxTime(now)
	s.MockTransactionStart("tx1")
	s.MockPeerChaincodeWithChannel("eth-usd", feed, "oracles")

	_, err := registry.SeedNative(s, "native", "", registry.FeedRef{Chaincode: "eth-usd", Channel: "oracles", Decimals: 6}, 18)
	require.NoError(t, err)

	return s
}

func TestUSDPrice(t *testing.T) {
	t.Parallel()

	s := setup(t, mock.NewFeedChaincode("2000000000", now.Add(-time.Minute)))

	quote, err := oracle.NewAdapter(nil).USDPrice(s, "@native")
	require.NoError(t, err)
	require.Equal(t, "2000000000", quote.Price.Dec())
	require.Equal(t, uint8(6), quote.Decimals)
	require.True(t, now.Add(-time.Minute).Equal(quote.AsOf))
}

func TestUSDPriceStaleness(t *testing.T) {
	t.Parallel()

	feed := mock.NewFeedChaincode("2000000000", now.Add(-oracle.Heartbeat))
	s := setup(t, feed)
	adapter := oracle.NewAdapter(nil)

	// exactly one heartbeat old is still fresh
	_, err := adapter.USDPrice(s, "@native")
	require.NoError(t, err)

	feed.SetAnswer("2000000000", now.Add(-oracle.Heartbeat-time.Second))
	_, err = adapter.USDPrice(s, "@native")
	require.ErrorIs(t, err, oracle.ErrStalePrice)

	// clock skew between feeder and peer
	feed.SetAnswer("2000000000", now.Add(time.Minute))
	_, err = adapter.USDPrice(s, "@native")
	require.NoError(t, err)
}

func TestUSDPriceCompromised(t *testing.T) {
	t.Parallel()

	feed := mock.NewFeedChaincode("0", now)
	s := setup(t, feed)
	adapter := oracle.NewAdapter(nil)

	for _, answer := range []string{"0", "-1", "12.5", "price"} {
		feed.SetAnswer(answer, now)
		_, err := adapter.USDPrice(s, "@native")
		require.ErrorIs(t, err, oracle.ErrOracleCompromised, answer)
	}
}

func TestUSDPriceUnavailable(t *testing.T) {
	t.Parallel()

	feed := mock.NewFeedChaincode("2000000000", now)
	s := setup(t, feed)
	adapter := oracle.NewAdapter(nil)

	_, err := adapter.USDPrice(s, "usdt")
	require.ErrorIs(t, err, oracle.ErrOracleUnavailable)

	_, err = registry.SetEnabled(s, "usdt", true)
	require.NoError(t, err)
	_, err = adapter.USDPrice(s, "usdt")
	require.ErrorIs(t, err, oracle.ErrOracleUnavailable)

	feed.Fail("feed is down")
	_, err = adapter.USDPrice(s, "@native")
	require.ErrorIs(t, err, oracle.ErrOracleUnavailable)
	require.ErrorContains(t, err, "feed is down")
}

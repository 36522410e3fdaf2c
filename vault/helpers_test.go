package vault_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/anoideaopen/custody/core/types"
	"github.com/anoideaopen/custody/mock"
	"github.com/anoideaopen/custody/mock/stub"
	"github.com/anoideaopen/custody/registry"
	"github.com/anoideaopen/custody/vault"
)

var (
	now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	admin = common.HexToAddress("0x00000000000000000000000000000000000ad111")
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

const (
	// 2000.000000 USD per native unit
	nativePrice = "2000000000"
	// 1.00000000 USD per USDT
	usdtPrice = "100000000"

	milliNative = 1_000_000_000_000_000
	oneNative   = 1_000_000_000_000_000_000
)

type settings struct {
	admin         common.Address
	bankCap       string
	withdrawLimit string
	minAmount     string
	threshold     uint64
}

func defaultSettings() settings {
	return settings{
		admin:         admin,
		bankCap:       "1000000000000", // 1 000 000 USD
		withdrawLimit: "1000000000000000000",
		threshold:     100,
	}
}

func (s settings) json() []byte {
	minAmount := ""
	if s.minAmount != "" {
		minAmount = fmt.Sprintf(`,"minAmount":%q`, s.minAmount)
	}

	return []byte(fmt.Sprintf(`{
		"symbol": "VAULT",
		"admin": %q,
		"native": {
			"chaincode": "native",
			"feed": {"chaincode": "eth-usd", "channel": "oracles", "decimals": 6}
		},
		"bankCap": %q,
		"withdrawLimit": %q,
		"depositThreshold": %d%s
	}`, s.admin.Hex(), s.bankCap, s.withdrawLimit, s.threshold, minAmount))
}

type env struct {
	t          *testing.T
	stub       *stub.Stub
	cc         *vault.Chaincode
	engine     *vault.Engine
	native     *mock.TokenChaincode
	usdt       *mock.TokenChaincode
	nativeFeed *mock.FeedChaincode
	usdtFeed   *mock.FeedChaincode
}

// newEnv initializes a vault holding nothing, with alice and bob owning
// 10 native units and 1000 USDT each in their wallets.
func newEnv(t *testing.T, mutate func(*settings), opts ...vault.Option) *env {
	t.Helper()

	cfg := defaultSettings()
	if mutate != nil {
		mutate(&cfg)
	}

	e := &env{
		t:          t,
		cc:         vault.NewChaincode(opts...),
		engine:     vault.NewEngine(opts...),
		native:     mock.NewTokenChaincode("NATIVE", 18),
		usdt:       mock.NewTokenChaincode("USDT", 6),
		nativeFeed: mock.NewFeedChaincode(nativePrice, now.Add(-time.Minute)),
		usdtFeed:   mock.NewFeedChaincode(usdtPrice, now.Add(-time.Minute)),
	}

	e.stub = stub.NewMockStub("vault", e.cc)
	e.stub.SetTxTime(now)
	e.stub.MockPeerChaincode("native", e.native)
	e.stub.MockPeerChaincode("usdt", e.usdt)
	e.stub.MockPeerChaincodeWithChannel("eth-usd", e.nativeFeed, "oracles")
	e.stub.MockPeerChaincodeWithChannel("usdt-usd", e.usdtFeed, "oracles")

	for _, user := range []common.Address{alice, bob} {
		e.native.Mint(user, uint256.MustFromDecimal("10000000000000000000"))
		e.usdt.Mint(user, uint256.NewInt(1_000_000_000))
	}

	resp := e.stub.MockInit(uuid.NewString(), [][]byte{cfg.json()})
	require.Equal(t, int32(200), resp.GetStatus(), resp.GetMessage())

	return e
}

// enableUSDT registers the usdt token with its 8-decimal feed.
func (e *env) enableUSDT() {
	e.t.Helper()

	e.begin()
	require.NoError(e.t, e.engine.SetAssetEnabled(e.stub, admin, "usdt", true))
	e.begin()
	require.NoError(e.t, e.engine.SetAssetFeed(e.stub, admin, "usdt", registry.FeedRef{
		Chaincode: "usdt-usd",
		Channel:   "oracles",
		Decimals:  8,
	}))
}

func (e *env) begin() {
	e.stub.MockTransactionStart(uuid.NewString())
}

func (e *env) deposit(asset types.AssetID, user common.Address, amount uint64) error {
	e.begin()
	return e.engine.Deposit(e.stub, asset, user, uint256.NewInt(amount))
}

func (e *env) withdraw(asset types.AssetID, user common.Address, amount uint64) error {
	e.begin()
	return e.engine.Withdraw(e.stub, asset, user, uint256.NewInt(amount))
}

func (e *env) balance(asset types.AssetID, user common.Address) uint64 {
	e.t.Helper()

	b, err := e.engine.BalanceOf(e.stub, asset, user)
	require.NoError(e.t, err)
	return b.Uint64()
}

func (e *env) bank() vault.Bank {
	e.t.Helper()

	b, err := e.engine.Bank(e.stub)
	require.NoError(e.t, err)
	return b
}

func (e *env) lastEvent() string {
	if len(e.stub.Events) == 0 {
		return ""
	}
	return e.stub.Events[len(e.stub.Events)-1].GetEventName()
}

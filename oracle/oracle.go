// Package oracle reads USD prices of custody assets from their feed
// chaincodes and rejects quotes that can't be trusted.
package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/shopspring/decimal"

	"github.com/anoideaopen/custody/core/types"
	"github.com/anoideaopen/custody/registry"
)

// Heartbeat is the maximum age of a usable quote.
const Heartbeat = time.Hour

// FnLatestRoundData is the feed chaincode function returning the latest round.
const FnLatestRoundData = "latestRoundData"

var (
	ErrOracleUnavailable = errors.New("oracle unavailable")
	ErrOracleCompromised = errors.New("oracle compromised")
	ErrStalePrice        = errors.New("stale price")
)

// Round is the latest answer of a feed. Answer is a signed base-10 integer
// scaled by the feed decimals, UpdatedAt and StartedAt are unix seconds.
type Round struct {
	RoundID         uint64 `json:"roundId"`
	Answer          string `json:"answer"`
	StartedAt       int64  `json:"startedAt"`
	UpdatedAt       int64  `json:"updatedAt"`
	AnsweredInRound uint64 `json:"answeredInRound"`
}

// Feed returns the latest round of a feed.
type Feed interface {
	LatestRound(stub shim.ChaincodeStubInterface, ref registry.FeedRef) (Round, error)
}

// ChaincodeFeed queries feed chaincodes, possibly on other channels.
type ChaincodeFeed struct{}

// LatestRound invokes ref.Chaincode.latestRoundData.
func (ChaincodeFeed) LatestRound(stub shim.ChaincodeStubInterface, ref registry.FeedRef) (Round, error) {
	resp := stub.InvokeChaincode(ref.Chaincode, [][]byte{[]byte(FnLatestRoundData)}, ref.Channel)
	if resp.GetStatus() != shim.OK {
		return Round{}, fmt.Errorf("querying feed %s: %s", ref.Chaincode, resp.GetMessage())
	}

	var round Round
	if err := json.Unmarshal(resp.GetPayload(), &round); err != nil {
		return Round{}, fmt.Errorf("decoding round of feed %s: %w", ref.Chaincode, err)
	}

	return round, nil
}

// Quote is a validated USD price.
type Quote struct {
	Price    *uint256.Int
	Decimals uint8
	AsOf     time.Time
}

// Adapter validates feed answers. It keeps no state between calls.
type Adapter struct {
	feed Feed
}

// NewAdapter returns an adapter reading feed, or ChaincodeFeed when feed is nil.
func NewAdapter(feed Feed) *Adapter {
	if feed == nil {
		feed = ChaincodeFeed{}
	}
	return &Adapter{feed: feed}
}

// USDPrice returns the latest quote of the feed configured for asset.
func (a *Adapter) USDPrice(stub shim.ChaincodeStubInterface, asset types.AssetID) (Quote, error) {
	rec, err := registry.Get(stub, asset)
	if errors.Is(err, registry.ErrAssetNotFound) {
		return Quote{}, fmt.Errorf("%w: no feed for %s", ErrOracleUnavailable, asset)
	}
	if err != nil {
		return Quote{}, err
	}
	if rec.Feed == nil {
		return Quote{}, fmt.Errorf("%w: no feed for %s", ErrOracleUnavailable, asset)
	}

	round, err := a.feed.LatestRound(stub, *rec.Feed)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}

	price, err := parseAnswer(round.Answer)
	if err != nil {
		return Quote{}, err
	}

	ts, err := stub.GetTxTimestamp()
	if err != nil {
		return Quote{}, fmt.Errorf("reading tx timestamp: %w", err)
	}

	now := ts.AsTime()
	asOf := time.Unix(round.UpdatedAt, 0).UTC()
	if age := now.Sub(asOf); age > Heartbeat {
		return Quote{}, fmt.Errorf("%w: %s updated %s ago", ErrStalePrice, rec.Feed.Chaincode, age.Truncate(time.Second))
	}

	return Quote{Price: price, Decimals: rec.Feed.Decimals, AsOf: asOf}, nil
}

func parseAnswer(answer string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(answer)
	if err != nil || !d.IsInteger() {
		return nil, fmt.Errorf("%w: malformed answer %q", ErrOracleCompromised, answer)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("%w: answer %s", ErrOracleCompromised, answer)
	}

	price, overflow := uint256.FromBig(d.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: answer %s", ErrOracleCompromised, answer)
	}

	return price, nil
}

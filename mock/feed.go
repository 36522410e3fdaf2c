package mock

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	pb "github.com/hyperledger/fabric-protos-go/peer"

	"github.com/anoideaopen/custody/oracle"
)

// FeedChaincode is an in-memory price feed chaincode answering latestRoundData.
type FeedChaincode struct {
	mu    sync.Mutex
	round oracle.Round
	fail  string
}

// NewFeedChaincode returns a feed whose latest round is answer, updated at updatedAt.
func NewFeedChaincode(answer string, updatedAt time.Time) *FeedChaincode {
	f := &FeedChaincode{}
	f.SetAnswer(answer, updatedAt)
	return f
}

// SetAnswer publishes a new round.
func (f *FeedChaincode) SetAnswer(answer string, updatedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.round = oracle.Round{
		RoundID:         f.round.RoundID + 1,
		Answer:          answer,
		StartedAt:       updatedAt.Unix(),
		UpdatedAt:       updatedAt.Unix(),
		AnsweredInRound: f.round.RoundID + 1,
	}
}

// Fail makes every query fail with msg. An empty msg restores the feed.
func (f *FeedChaincode) Fail(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fail = msg
}

// MockInvoke implements stub.Peer.
func (f *FeedChaincode) MockInvoke(_ string, args [][]byte) pb.Response {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail != "" {
		return shim.Error(f.fail)
	}
	if len(args) == 0 || string(args[0]) != oracle.FnLatestRoundData {
		return shim.Error("unknown function")
	}

	raw, err := json.Marshal(f.round)
	if err != nil {
		return shim.Error(err.Error())
	}
	return shim.Success(raw)
}

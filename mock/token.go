package mock

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	pb "github.com/hyperledger/fabric-protos-go/peer"

	"github.com/anoideaopen/custody/core/decimals"
	"github.com/anoideaopen/custody/core/types"
	"github.com/anoideaopen/custody/settlement"
)

// TokenChaincode is an in-memory asset chaincode. It keeps wallet balances
// and the quantity held in custody by the vault.
type TokenChaincode struct {
	mu            sync.Mutex
	symbol        string
	decimals      uint
	wallets       map[common.Address]*uint256.Int
	held          *uint256.Int
	rejectRelease bool
	metadataFails bool
}

// NewTokenChaincode returns a token reporting decimals in its metadata.
func NewTokenChaincode(symbol string, decimals uint) *TokenChaincode {
	return &TokenChaincode{
		symbol:   symbol,
		decimals: decimals,
		wallets:  make(map[common.Address]*uint256.Int),
		held:     new(uint256.Int),
	}
}

// Mint credits amount to the wallet of user.
func (t *TokenChaincode) Mint(user common.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.wallet(user).Add(t.wallet(user), amount)
}

// Wallet returns the balance user holds outside the vault.
func (t *TokenChaincode) Wallet(user common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return new(uint256.Int).Set(t.wallet(user))
}

// Held returns the quantity in custody.
func (t *TokenChaincode) Held() *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return new(uint256.Int).Set(t.held)
}

// RejectRelease makes custodyRelease fail, like a recipient refusing a transfer.
func (t *TokenChaincode) RejectRelease(reject bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rejectRelease = reject
}

// FailMetadata makes the metadata query fail.
func (t *TokenChaincode) FailMetadata(fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.metadataFails = fail
}

// MockInvoke implements stub.Peer.
func (t *TokenChaincode) MockInvoke(_ string, args [][]byte) pb.Response {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(args) == 0 {
		return shim.Error("no function")
	}

	switch fn := string(args[0]); fn {
	case decimals.FnMetadata:
		if t.metadataFails {
			return shim.Error("metadata unavailable")
		}
		raw, err := json.Marshal(map[string]any{"symbol": t.symbol, "decimals": t.decimals})
		if err != nil {
			return shim.Error(err.Error())
		}
		return shim.Success(raw)
	case settlement.FnCustodyCollect, settlement.FnCustodyRelease:
		user, amount, err := parseTransfer(args[1:])
		if err != nil {
			return shim.Error(err.Error())
		}
		if fn == settlement.FnCustodyCollect {
			return t.move(t.wallet(user), t.held, amount)
		}
		if t.rejectRelease {
			return shim.Error("recipient rejected transfer")
		}
		return t.move(t.held, t.wallet(user), amount)
	default:
		return shim.Error(fmt.Sprintf("unknown function %s", fn))
	}
}

func (t *TokenChaincode) wallet(user common.Address) *uint256.Int {
	w, ok := t.wallets[user]
	if !ok {
		w = new(uint256.Int)
		t.wallets[user] = w
	}
	return w
}

func (t *TokenChaincode) move(from, to, amount *uint256.Int) pb.Response {
	if from.Lt(amount) {
		return shim.Error(fmt.Sprintf("insufficient funds: %s < %s", from.Dec(), amount.Dec()))
	}
	from.Sub(from, amount)
	to.Add(to, amount)
	return shim.Success(nil)
}

func parseTransfer(args [][]byte) (common.Address, *uint256.Int, error) {
	if len(args) != 2 { //nolint:gomnd
		return common.Address{}, nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}

	user, err := types.ParseAddress(string(args[0]))
	if err != nil {
		return common.Address{}, nil, err
	}

	amount, err := types.ParseAmount(string(args[1]))
	if err != nil {
		return common.Address{}, nil, err
	}

	return user, amount, nil
}

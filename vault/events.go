package vault

import (
	"encoding/json"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/anoideaopen/custody/core/types"
	"github.com/anoideaopen/custody/registry"
)

// Chaincode event names.
const (
	EventDeposit            = "Deposit"
	EventWithdraw           = "Withdraw"
	EventAssetStatusChanged = "AssetStatusChanged"
	EventAssetFeedChanged   = "AssetFeedChanged"
	EventBankCapChanged     = "BankCapChanged"
)

// TransferEvent is the payload of Deposit and Withdraw events.
type TransferEvent struct {
	Asset     types.AssetID `json:"asset"`
	User      string        `json:"user"`
	Amount    string        `json:"amount"`
	USD6      string        `json:"usd6"`
	BankTotal string        `json:"bankTotal"`
}

type AssetStatusEvent struct {
	Asset   types.AssetID `json:"asset"`
	Enabled bool          `json:"enabled"`
}

type AssetFeedEvent struct {
	Asset types.AssetID    `json:"asset"`
	Feed  registry.FeedRef `json:"feed"`
}

type BankCapEvent struct {
	Old string `json:"old"`
	New string `json:"new"`
}

func emit(stub shim.ChaincodeStubInterface, name string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return stub.SetEvent(name, raw)
}

package vault

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/anoideaopen/custody/core/balance"
	"github.com/anoideaopen/custody/core/ledger"
	"github.com/anoideaopen/custody/core/types"
	"github.com/anoideaopen/custody/core/usd"
	"github.com/anoideaopen/custody/oracle"
	"github.com/anoideaopen/custody/registry"
)

// Quote is the USD value of an amount at the current feed price.
type Quote struct {
	Asset  types.AssetID `json:"asset"`
	Amount string        `json:"amount"`
	USD6   string        `json:"usd6"`
	USD    string        `json:"usd"`
}

// Bank is a snapshot of the bank-wide state and limits.
type Bank struct {
	Total            string `json:"total"`
	TotalUSD         string `json:"totalUsd"`
	Cap              string `json:"cap"`
	CapUSD           string `json:"capUsd"`
	DepositCount     uint64 `json:"depositCount"`
	WithdrawCount    uint64 `json:"withdrawCount"`
	DepositThreshold uint64 `json:"depositThreshold"`
	WithdrawLimit    string `json:"withdrawLimit"`
	MinAmount        string `json:"minAmount"`
}

// BalanceOf returns the custody balance of user in asset.
func (e *Engine) BalanceOf(stub shim.ChaincodeStubInterface, asset types.AssetID, user common.Address) (*uint256.Int, error) {
	return balance.Get(stub, balance.BalanceTypeCustody, user, asset)
}

// BalancesOf returns every balance of user by asset.
func (e *Engine) BalancesOf(stub shim.ChaincodeStubInterface, user common.Address) (map[types.AssetID]string, error) {
	entries, err := balance.ListBalancesByUser(stub, balance.BalanceTypeCustody, user)
	if err != nil {
		return nil, err
	}

	res := make(map[types.AssetID]string, len(entries))
	for _, b := range entries {
		res[b.Asset] = b.Balance.Dec()
	}
	return res, nil
}

// HoldersOf returns the balance of every holder of asset by address.
func (e *Engine) HoldersOf(stub shim.ChaincodeStubInterface, asset types.AssetID) (map[string]string, error) {
	entries, err := balance.ListHoldersByAsset(stub, balance.BalanceTypeCustody, asset)
	if err != nil {
		return nil, err
	}

	res := make(map[string]string, len(entries))
	for _, b := range entries {
		res[b.User.Hex()] = b.Balance.Dec()
	}
	return res, nil
}

// QuoteUSD values amount of asset without touching state. The feed is
// queried even for a zero amount, so an unusable feed fails the quote.
func (e *Engine) QuoteUSD(stub shim.ChaincodeStubInterface, asset types.AssetID, amount *uint256.Int) (Quote, error) {
	rec, err := registry.Get(stub, asset)
	if errors.Is(err, registry.ErrAssetNotFound) {
		return Quote{}, fmt.Errorf("%w: no feed for %s", oracle.ErrOracleUnavailable, asset)
	}
	if err != nil {
		return Quote{}, err
	}

	usd6, err := e.valuate(stub, rec, amount)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		Asset:  asset,
		Amount: amount.Dec(),
		USD6:   usd6.Dec(),
		USD:    usd.Format(usd6),
	}, nil
}

// Bank returns the bank totals, counters and limits.
func (e *Engine) Bank(stub shim.ChaincodeStubInterface) (Bank, error) {
	params, err := loadParams(stub)
	if err != nil {
		return Bank{}, err
	}

	total, err := ledger.BankTotal(stub)
	if err != nil {
		return Bank{}, err
	}
	bankCap, err := ledger.BankCap(stub)
	if err != nil {
		return Bank{}, err
	}
	deposits, err := ledger.DepositCount(stub)
	if err != nil {
		return Bank{}, err
	}
	withdrawals, err := ledger.WithdrawCount(stub)
	if err != nil {
		return Bank{}, err
	}

	return Bank{
		Total:            total.Dec(),
		TotalUSD:         usd.Format(total),
		Cap:              bankCap.Dec(),
		CapUSD:           usd.Format(bankCap),
		DepositCount:     deposits,
		WithdrawCount:    withdrawals,
		DepositThreshold: params.DepositThreshold,
		WithdrawLimit:    params.WithdrawLimit.Dec(),
		MinAmount:        params.MinAmount.Dec(),
	}, nil
}

// Assets lists the asset registry.
func (e *Engine) Assets(stub shim.ChaincodeStubInterface) ([]registry.Asset, error) {
	return registry.List(stub)
}

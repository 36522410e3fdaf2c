// Package vault implements the custody ledger: per-user balances of the
// native asset and registered tokens, valued in USD-6 and bounded by a bank
// cap, a native withdraw limit and a lifetime deposit count.
package vault

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/sirupsen/logrus"

	"github.com/anoideaopen/custody/core/balance"
	"github.com/anoideaopen/custody/core/cachestub"
	"github.com/anoideaopen/custody/core/config"
	"github.com/anoideaopen/custody/core/decimals"
	"github.com/anoideaopen/custody/core/ledger"
	"github.com/anoideaopen/custody/core/logger"
	"github.com/anoideaopen/custody/core/types"
	"github.com/anoideaopen/custody/core/usd"
	"github.com/anoideaopen/custody/oracle"
	"github.com/anoideaopen/custody/registry"
	"github.com/anoideaopen/custody/settlement"
)

// Engine is the only writer of balances, the bank total and the counters.
type Engine struct {
	oracle    *oracle.Adapter
	decimals  *decimals.Resolver
	custodian settlement.Custodian
	guard     *guard
}

// Option configures an Engine.
type Option func(*Engine)

// WithFeed replaces the chaincode price feed.
func WithFeed(feed oracle.Feed) Option {
	return func(e *Engine) {
		e.oracle = oracle.NewAdapter(feed)
	}
}

// WithProbe replaces the chaincode decimals probe.
func WithProbe(probe decimals.Probe) Option {
	return func(e *Engine) {
		e.decimals = decimals.NewResolver(probe)
	}
}

// WithCustodian replaces the chaincode custodian.
func WithCustodian(custodian settlement.Custodian) Option {
	return func(e *Engine) {
		e.custodian = custodian
	}
}

// NewEngine returns an engine talking to feed, token and asset chaincodes
// unless opts replace them.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		oracle:    oracle.NewAdapter(nil),
		decimals:  decimals.NewResolver(nil),
		custodian: settlement.ChaincodeCustodian{},
		guard:     newGuard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Deposit moves amount of asset from user into custody and credits it.
func (e *Engine) Deposit(stub shim.ChaincodeStubInterface, asset types.AssetID, user common.Address, amount *uint256.Int) error {
	return e.guarded(stub, func(cache *cachestub.TxCacheStub) error {
		return e.deposit(cache, asset, user, amount)
	})
}

// Withdraw debits amount of asset from user and releases it from custody.
func (e *Engine) Withdraw(stub shim.ChaincodeStubInterface, asset types.AssetID, user common.Address, amount *uint256.Int) error {
	return e.guarded(stub, func(cache *cachestub.TxCacheStub) error {
		return e.withdraw(cache, asset, user, amount)
	})
}

// Receive handles value sent to the vault without an explicit operation.
// It is a native deposit unless no value came with it.
func (e *Engine) Receive(stub shim.ChaincodeStubInterface, user common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: no value and no operation", ErrUnsupportedOperation)
	}
	return e.Deposit(stub, types.NativeAsset, user, amount)
}

// guarded runs op inside the non-reentrant section on a write cache and
// commits the cache only if op succeeds.
func (e *Engine) guarded(stub shim.ChaincodeStubInterface, op func(*cachestub.TxCacheStub) error) error {
	leave, err := e.guard.enter(stub.GetTxID())
	if err != nil {
		return err
	}
	defer leave()

	cache := cachestub.NewTxCacheStub(stub)
	if err = op(cache); err != nil {
		return err
	}

	return cache.Commit()
}

func (e *Engine) deposit(stub shim.ChaincodeStubInterface, asset types.AssetID, user common.Address, amount *uint256.Int) error {
	params, err := loadParams(stub)
	if err != nil {
		return err
	}

	if err = checkAmount(amount, params.MinAmount); err != nil {
		return err
	}

	rec, err := enabledAsset(stub, asset)
	if err != nil {
		return err
	}

	count, err := ledger.DepositCount(stub)
	if err != nil {
		return err
	}
	if count >= params.DepositThreshold {
		return fmt.Errorf("%w: %d of %d", ErrDepositsExhausted, count, params.DepositThreshold)
	}

	usd6, err := e.valuate(stub, rec, amount)
	if err != nil {
		return err
	}

	total, err := ledger.BankTotal(stub)
	if err != nil {
		return err
	}
	bankCap, err := ledger.BankCap(stub)
	if err != nil {
		return err
	}
	newTotal, overflow := new(uint256.Int).AddOverflow(total, usd6)
	if overflow {
		return ledger.ErrTotalOverflow
	}
	if newTotal.Gt(bankCap) {
		return &CapExceededError{Cap: bankCap, NewTotal: newTotal}
	}

	if err = e.custodian.Collect(stub, *rec, user, amount); err != nil {
		return &TransferFailedError{Asset: asset, Err: err}
	}

	if _, err = balance.Add(stub, balance.BalanceTypeCustody, user, asset, amount); err != nil {
		return err
	}
	if _, err = ledger.AddBankTotal(stub, usd6); err != nil {
		return err
	}
	if _, err = ledger.IncDepositCount(stub); err != nil {
		return err
	}

	entry(stub, asset, user, amount).WithField("usd6", usd6.Dec()).Info("deposit")

	return emit(stub, EventDeposit, TransferEvent{
		Asset:     asset,
		User:      user.Hex(),
		Amount:    amount.Dec(),
		USD6:      usd6.Dec(),
		BankTotal: newTotal.Dec(),
	})
}

func (e *Engine) withdraw(stub shim.ChaincodeStubInterface, asset types.AssetID, user common.Address, amount *uint256.Int) error {
	params, err := loadParams(stub)
	if err != nil {
		return err
	}

	if err = checkAmount(amount, params.MinAmount); err != nil {
		return err
	}

	var rec *registry.Asset
	if asset.IsNative() {
		if amount.Gt(params.WithdrawLimit) {
			return &WithdrawLimitError{Requested: amount, Limit: params.WithdrawLimit}
		}
		// the native asset is always enabled
		if rec, err = registry.Get(stub, asset); err != nil {
			return err
		}
	} else if rec, err = enabledAsset(stub, asset); err != nil {
		return err
	}

	available, err := balance.Get(stub, balance.BalanceTypeCustody, user, asset)
	if err != nil {
		return err
	}
	if available.Lt(amount) {
		return &InsufficientBalanceError{Requested: amount, Available: available}
	}

	usd6, err := e.valuate(stub, rec, amount)
	if err != nil {
		return err
	}

	// state first, then the transfer out
	if _, err = balance.Sub(stub, balance.BalanceTypeCustody, user, asset, amount); err != nil {
		return err
	}
	newTotal, err := ledger.SubBankTotal(stub, usd6)
	if err != nil {
		return err
	}
	if _, err = ledger.IncWithdrawCount(stub); err != nil {
		return err
	}

	if err = e.custodian.Release(stub, *rec, user, amount); err != nil {
		entry(stub, asset, user, amount).WithError(err).Warn("release rejected")
		return &TransferFailedError{Asset: asset, Err: err}
	}

	entry(stub, asset, user, amount).WithField("usd6", usd6.Dec()).Info("withdraw")

	return emit(stub, EventWithdraw, TransferEvent{
		Asset:     asset,
		User:      user.Hex(),
		Amount:    amount.Dec(),
		USD6:      usd6.Dec(),
		BankTotal: newTotal.Dec(),
	})
}

// valuate converts amount of rec into USD-6 at the current feed price.
func (e *Engine) valuate(stub shim.ChaincodeStubInterface, rec *registry.Asset, amount *uint256.Int) (*uint256.Int, error) {
	quote, err := e.oracle.USDPrice(stub, rec.ID)
	if err != nil {
		return nil, err
	}

	assetDecimals := e.decimals.Resolve(stub, rec.ID, rec.Channel)
	return usd.Convert(amount, assetDecimals, quote.Price, quote.Decimals)
}

func checkAmount(amount, minAmount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrZeroAmount
	}
	if amount.Lt(minAmount) {
		return fmt.Errorf("%w: %s is below minimum %s", ErrZeroAmount, amount.Dec(), minAmount.Dec())
	}
	return nil
}

func enabledAsset(stub shim.ChaincodeStubInterface, asset types.AssetID) (*registry.Asset, error) {
	enabled, err := registry.IsEnabled(stub, asset)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotEnabled, asset)
	}
	return registry.Get(stub, asset)
}

func loadParams(stub shim.ChaincodeStubInterface) (config.Params, error) {
	cfg, err := config.Load(stub)
	if err != nil {
		return config.Params{}, err
	}
	return cfg.Params()
}

func entry(stub shim.ChaincodeStubInterface, asset types.AssetID, user common.Address, amount *uint256.Int) *logrus.Entry {
	return logger.Logger().WithFields(logrus.Fields{
		"tx":     stub.GetTxID(),
		"asset":  asset,
		"user":   user.Hex(),
		"amount": amount.Dec(),
	})
}

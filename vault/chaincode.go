package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/peer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/anoideaopen/custody/core/config"
	"github.com/anoideaopen/custody/core/decimals"
	"github.com/anoideaopen/custody/core/ledger"
	"github.com/anoideaopen/custody/core/logger"
	"github.com/anoideaopen/custody/core/telemetry"
	"github.com/anoideaopen/custody/core/types"
	"github.com/anoideaopen/custody/hlfcreator"
	"github.com/anoideaopen/custody/registry"
	"github.com/anoideaopen/custody/version"
)

// Chaincode functions.
const (
	FnDepositNative       = "depositNative"
	FnDepositAsset        = "depositAsset"
	FnWithdrawNative      = "withdrawNative"
	FnWithdrawAsset       = "withdrawAsset"
	FnReceive             = "receive"
	FnBalanceOf           = "balanceOf"
	FnBalancesOf          = "balancesOf"
	FnHoldersOf           = "holdersOf"
	FnQuoteUSD            = "quoteUsd"
	FnBank                = "bank"
	FnAssets              = "assets"
	FnSetAssetEnabled     = "setAssetEnabled"
	FnSetAssetFeed        = "setAssetFeed"
	FnSetBankCap          = "setBankCap"
	FnBuildInfo           = "buildInfo"
	FnCoreChaincodeIDName = "coreChaincodeIdName"
	FnSystemEnv           = "systemEnv"
)

// TransientValue is the transient map field carrying the value of a bare transfer.
const TransientValue = "value"

type handler struct {
	kind  telemetry.MethodTypeNum
	nargs int
	call  func(stub shim.ChaincodeStubInterface, args []string) ([]byte, error)
}

// Chaincode exposes an Engine as a Fabric chaincode.
type Chaincode struct {
	engine   *Engine
	handlers map[string]handler

	tracingOnce sync.Once
	tracing     *telemetry.TracingHandler
}

// NewChaincode returns the vault chaincode. opts configure its Engine.
func NewChaincode(opts ...Option) *Chaincode {
	cc := &Chaincode{engine: NewEngine(opts...)}
	cc.handlers = map[string]handler{
		FnDepositNative:       {telemetry.MethodTx, 1, cc.depositNative},
		FnDepositAsset:        {telemetry.MethodTx, 2, cc.depositAsset},
		FnWithdrawNative:      {telemetry.MethodTx, 1, cc.withdrawNative},
		FnWithdrawAsset:       {telemetry.MethodTx, 2, cc.withdrawAsset},
		FnReceive:             {telemetry.MethodTx, 0, cc.receive},
		FnBalanceOf:           {telemetry.MethodQuery, 2, cc.balanceOf},
		FnBalancesOf:          {telemetry.MethodQuery, 1, cc.balancesOf},
		FnHoldersOf:           {telemetry.MethodQuery, 1, cc.holdersOf},
		FnQuoteUSD:            {telemetry.MethodQuery, 2, cc.quoteUSD},
		FnBank:                {telemetry.MethodQuery, 0, cc.bank},
		FnAssets:              {telemetry.MethodQuery, 0, cc.assets},
		FnSetAssetEnabled:     {telemetry.MethodAdmin, 2, cc.setAssetEnabled},
		FnSetAssetFeed:        {telemetry.MethodAdmin, 4, cc.setAssetFeed},
		FnSetBankCap:          {telemetry.MethodAdmin, 1, cc.setBankCap},
		FnBuildInfo:           {telemetry.MethodQuery, 0, buildInfo},
		FnCoreChaincodeIDName: {telemetry.MethodQuery, 0, coreChaincodeIDName},
		FnSystemEnv:           {telemetry.MethodQuery, 0, systemEnv},
	}
	return cc
}

// Init is called during chaincode instantiation to initialize any data. Note that upgrade
// also calls this function to reset or to migrate data.
func (cc *Chaincode) Init(stub shim.ChaincodeStubInterface) peer.Response {
	args := stub.GetStringArgs()
	if !config.IsJSON(args) {
		return shim.Error("init: expected a single JSON config argument")
	}

	cfgBytes := []byte(args[0])
	cfg, err := config.FromBytes(cfgBytes)
	if err != nil {
		return shim.Error("init: validating config: " + err.Error())
	}

	params, err := cfg.Params()
	if err != nil {
		return shim.Error("init: parsing config: " + err.Error())
	}

	if err = config.Save(stub, cfgBytes); err != nil {
		return shim.Error("init: saving config: " + err.Error())
	}

	// an upgrade keeps the cap the admin has set since
	_, err = registry.Get(stub, types.NativeAsset)
	switch {
	case errors.Is(err, registry.ErrAssetNotFound):
		if err = ledger.SetBankCap(stub, params.BankCap); err != nil {
			return shim.Error("init: saving bank cap: " + err.Error())
		}
	case err != nil:
		return shim.Error("init: reading native asset: " + err.Error())
	}

	feed := registry.FeedRef{
		Chaincode: cfg.Native.Feed.Chaincode,
		Channel:   cfg.Native.Feed.Channel,
		Decimals:  cfg.Native.Feed.Decimals,
	}
	if _, err = registry.SeedNative(stub, cfg.Native.Chaincode, cfg.Native.Channel, feed, decimals.NativeDecimals); err != nil {
		return shim.Error("init: registering native asset: " + err.Error())
	}

	return shim.Success(nil)
}

// Invoke is called to update or query the ledger in a proposal transaction. Given the
// function name, it delegates the execution to the respective handler. Unknown
// functions are bare transfers and go to receive.
func (cc *Chaincode) Invoke(stub shim.ChaincodeStubInterface) (r peer.Response) {
	r = shim.Error("panic invoke")
	log := logger.Logger()
	defer func() {
		if rc := recover(); rc != nil {
			log.Errorf("panic invoke\nrc: %v\nstack: %s\n", rc, debug.Stack())
		}
	}()

	start := time.Now()

	cfg, err := config.Load(stub)
	if err != nil {
		return shim.Error("invoke: loading config: " + err.Error())
	}

	th := cc.tracingHandler(cfg)
	traceCtx := th.ContextFromStub(stub)
	_, span := th.StartNewSpan(traceCtx, "vault.Invoke")

	transactionID := stub.GetTxID()
	function, args := stub.GetFunctionAndParameters()

	h, ok := cc.handlers[function]
	if !ok {
		h = cc.handlers[FnReceive]
	}

	span.SetAttributes(attribute.String("channel", stub.GetChannelID()))
	span.SetAttributes(telemetry.TxID(transactionID))
	span.SetAttributes(telemetry.MethodName(function))
	span.SetAttributes(telemetry.MethodType(h.kind))
	defer func() {
		log.Debugf("tx id: %s, name: %s, elapsed: %s", transactionID, function, time.Since(start))
		span.End()
	}()

	if ok && len(args) != h.nargs {
		err = fmt.Errorf("%w: get: %d, want: %d", ErrWrongArgsCount, len(args), h.nargs)
	} else {
		var payload []byte
		if payload, err = h.call(stub, args); err == nil {
			span.SetStatus(codes.Ok, "")
			return shim.Success(payload)
		}
	}

	errMsg := function + ": " + err.Error()
	log.WithField("tx", transactionID).Warn(errMsg)
	span.SetStatus(codes.Error, errMsg)
	return shim.Error(errMsg)
}

func (cc *Chaincode) tracingHandler(cfg *config.Config) *telemetry.TracingHandler {
	cc.tracingOnce.Do(func() {
		serviceName := "chaincode-" + cfg.Symbol
		telemetry.InstallTraceProvider(cfg.Tracing, serviceName)
		cc.tracing = telemetry.NewTracingHandler(serviceName)
	})
	return cc.tracing
}

func (cc *Chaincode) depositNative(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	return nil, cc.transfer(stub, cc.engine.Deposit, types.NativeAsset, args[0])
}

func (cc *Chaincode) depositAsset(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	asset, err := parseToken(args[0])
	if err != nil {
		return nil, err
	}
	return nil, cc.transfer(stub, cc.engine.Deposit, asset, args[1])
}

func (cc *Chaincode) withdrawNative(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	return nil, cc.transfer(stub, cc.engine.Withdraw, types.NativeAsset, args[0])
}

func (cc *Chaincode) withdrawAsset(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	asset, err := parseToken(args[0])
	if err != nil {
		return nil, err
	}
	return nil, cc.transfer(stub, cc.engine.Withdraw, asset, args[1])
}

// parseToken parses the asset argument of the token entry points. The native
// asset moves only through depositNative and withdrawNative.
func parseToken(in string) (types.AssetID, error) {
	asset, err := types.ParseAssetID(in)
	if err != nil {
		return "", err
	}
	if asset.IsNative() {
		return "", fmt.Errorf("%w: %s", ErrAssetNotEnabled, asset)
	}
	return asset, nil
}

type transferFunc func(shim.ChaincodeStubInterface, types.AssetID, common.Address, *uint256.Int) error

func (cc *Chaincode) transfer(stub shim.ChaincodeStubInterface, op transferFunc, asset types.AssetID, amountArg string) error {
	amount, err := types.ParseAmount(amountArg)
	if err != nil {
		return err
	}
	caller, err := hlfcreator.CallerAddress(stub)
	if err != nil {
		return err
	}
	return op(stub, asset, caller, amount)
}

func (cc *Chaincode) receive(stub shim.ChaincodeStubInterface, _ []string) ([]byte, error) {
	transient, err := stub.GetTransient()
	if err != nil {
		return nil, err
	}

	amount := new(uint256.Int)
	if raw, ok := transient[TransientValue]; ok && len(raw) > 0 {
		if amount, err = types.ParseAmount(string(raw)); err != nil {
			return nil, err
		}
	}

	caller, err := hlfcreator.CallerAddress(stub)
	if err != nil {
		return nil, err
	}

	return nil, cc.engine.Receive(stub, caller, amount)
}

func (cc *Chaincode) balanceOf(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	asset, err := types.ParseAssetID(args[0])
	if err != nil {
		return nil, err
	}
	user, err := types.ParseAddress(args[1])
	if err != nil {
		return nil, err
	}

	amount, err := cc.engine.BalanceOf(stub, asset, user)
	if err != nil {
		return nil, err
	}
	return json.Marshal(amount.Dec())
}

func (cc *Chaincode) balancesOf(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	user, err := types.ParseAddress(args[0])
	if err != nil {
		return nil, err
	}

	return marshal(cc.engine.BalancesOf(stub, user))
}

func (cc *Chaincode) holdersOf(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	asset, err := types.ParseAssetID(args[0])
	if err != nil {
		return nil, err
	}

	return marshal(cc.engine.HoldersOf(stub, asset))
}

func (cc *Chaincode) quoteUSD(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	asset, err := types.ParseAssetID(args[0])
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(args[1])
	if err != nil {
		return nil, err
	}

	return marshal(cc.engine.QuoteUSD(stub, asset, amount))
}

func (cc *Chaincode) bank(stub shim.ChaincodeStubInterface, _ []string) ([]byte, error) {
	return marshal(cc.engine.Bank(stub))
}

func (cc *Chaincode) assets(stub shim.ChaincodeStubInterface, _ []string) ([]byte, error) {
	return marshal(cc.engine.Assets(stub))
}

func (cc *Chaincode) setAssetEnabled(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	asset, err := types.ParseAssetID(args[0])
	if err != nil {
		return nil, err
	}
	enabled, err := types.ParseBool(args[1])
	if err != nil {
		return nil, err
	}
	caller, err := hlfcreator.CallerAddress(stub)
	if err != nil {
		return nil, err
	}

	return nil, cc.engine.SetAssetEnabled(stub, caller, asset, enabled)
}

func (cc *Chaincode) setAssetFeed(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	asset, err := types.ParseAssetID(args[0])
	if err != nil {
		return nil, err
	}
	feedDecimals, err := types.ParseUint8(args[3])
	if err != nil {
		return nil, err
	}
	caller, err := hlfcreator.CallerAddress(stub)
	if err != nil {
		return nil, err
	}

	feed := registry.FeedRef{Chaincode: args[1], Channel: args[2], Decimals: feedDecimals}
	return nil, cc.engine.SetAssetFeed(stub, caller, asset, feed)
}

func (cc *Chaincode) setBankCap(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	bankCap, err := types.ParseAmount(args[0])
	if err != nil {
		return nil, err
	}
	caller, err := hlfcreator.CallerAddress(stub)
	if err != nil {
		return nil, err
	}

	return nil, cc.engine.SetBankCap(stub, caller, bankCap)
}

func buildInfo(shim.ChaincodeStubInterface, []string) ([]byte, error) {
	return marshal(version.BuildInfo())
}

func coreChaincodeIDName(shim.ChaincodeStubInterface, []string) ([]byte, error) {
	return json.Marshal(version.CoreChaincodeIDName())
}

func systemEnv(shim.ChaincodeStubInterface, []string) ([]byte, error) {
	return json.Marshal(version.SystemEnv())
}

func marshal[T any](v T, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

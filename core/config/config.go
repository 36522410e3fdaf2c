package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/holiman/uint256"

	"github.com/anoideaopen/custody/core/types"
)

// keyConfig is a key for storing a configuration data in json format.
const keyConfig = "__config"

// DefaultMinAmount is the dust threshold used when the config omits one.
const DefaultMinAmount = "1000"

var ErrCfgBytesEmpty = errors.New("config bytes is empty")

var validate = validator.New()

type State interface {
	// GetState returns the value of the specified `key` from the
	// ledger. If the key does not exist in the state database, (nil, nil) is returned.
	GetState(key string) ([]byte, error)

	// PutState puts the specified `key` and `value` into the transaction's
	// Write Set as a data-write proposal.
	PutState(key string, value []byte) error
}

// Config is the vault configuration passed as the single Init argument.
type Config struct {
	// Symbol names the vault in logs and traces.
	Symbol string `json:"symbol" validate:"required"`
	// Admin is the only address allowed to change assets, feeds and the cap.
	Admin  string `json:"admin" validate:"required,eth_addr"`
	Native Native `json:"native"`
	// BankCap is the initial USD-6 ceiling of the bank total.
	BankCap string `json:"bankCap" validate:"required,number"`
	// WithdrawLimit bounds a single withdrawal of the native asset.
	WithdrawLimit string `json:"withdrawLimit" validate:"required,number"`
	// DepositThreshold is the number of deposits the vault accepts over its lifetime.
	DepositThreshold uint64 `json:"depositThreshold" validate:"gt=0"`
	// MinAmount is the dust threshold for deposits and withdrawals of any asset.
	MinAmount string   `json:"minAmount,omitempty" validate:"omitempty,number"`
	Tracing   *Tracing `json:"tracing,omitempty"`
}

// Native describes the chaincode settling the native asset and its price feed.
type Native struct {
	Chaincode string `json:"chaincode" validate:"required"`
	Channel   string `json:"channel,omitempty"`
	Feed      Feed   `json:"feed"`
}

// Feed references a price feed chaincode.
type Feed struct {
	Chaincode string `json:"chaincode" validate:"required"`
	Channel   string `json:"channel,omitempty"`
	Decimals  uint8  `json:"decimals"`
}

// Tracing holds the OTLP collector settings.
type Tracing struct {
	Endpoint                 string `json:"endpoint" validate:"required,hostname_port"`
	AuthorizationHeaderKey   string `json:"authorizationHeaderKey,omitempty"`
	AuthorizationHeaderValue string `json:"authorizationHeaderValue,omitempty"`
	// TLSCA is a base64 PEM bundle; the exporter is insecure without it.
	TLSCA string `json:"tlsCa,omitempty" validate:"omitempty,base64"`
}

// Params are the numeric limits of Config, parsed.
type Params struct {
	Admin            common.Address
	BankCap          *uint256.Int
	WithdrawLimit    *uint256.Int
	MinAmount        *uint256.Int
	DepositThreshold uint64
}

// Validate checks the struct tags of cfg.
func (cfg *Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Params parses the addresses and amounts of cfg.
func (cfg *Config) Params() (Params, error) {
	admin, err := types.ParseAddress(cfg.Admin)
	if err != nil {
		return Params{}, fmt.Errorf("admin: %w", err)
	}

	bankCap, err := types.ParseAmount(cfg.BankCap)
	if err != nil {
		return Params{}, fmt.Errorf("bankCap: %w", err)
	}

	withdrawLimit, err := types.ParseAmount(cfg.WithdrawLimit)
	if err != nil {
		return Params{}, fmt.Errorf("withdrawLimit: %w", err)
	}

	minAmount := cfg.MinAmount
	if minAmount == "" {
		minAmount = DefaultMinAmount
	}
	minValue, err := types.ParseAmount(minAmount)
	if err != nil {
		return Params{}, fmt.Errorf("minAmount: %w", err)
	}

	return Params{
		Admin:            admin,
		BankCap:          bankCap,
		WithdrawLimit:    withdrawLimit,
		MinAmount:        minValue,
		DepositThreshold: cfg.DepositThreshold,
	}, nil
}

// Save saves configuration data to the state.
//
// If the provided cfgBytes slice is empty, the function returns an ErrCfgBytesEmpty error.
func Save(state State, cfgBytes []byte) error {
	if len(cfgBytes) == 0 {
		return ErrCfgBytesEmpty
	}

	if err := state.PutState(keyConfig, cfgBytes); err != nil {
		return fmt.Errorf("putting config data to state: %w", err)
	}

	return nil
}

// Load retrieves and parses the configuration saved by Init.
//
// If the retrieved configuration data is empty, the function returns an ErrCfgBytesEmpty error.
func Load(state State) (*Config, error) {
	cfgBytes, err := state.GetState(keyConfig)
	if err != nil {
		return nil, fmt.Errorf("loading raw config: %w", err)
	}

	if len(cfgBytes) == 0 {
		return nil, ErrCfgBytesEmpty
	}

	return FromBytes(cfgBytes)
}

// FromBytes parses and validates JSON-encoded configuration.
func FromBytes(cfgBytes []byte) (*Config, error) {
	if len(cfgBytes) == 0 {
		return nil, ErrCfgBytesEmpty
	}

	cfg := new(Config)
	if err := json.Unmarshal(cfgBytes, cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsJSON checks if the provided arguments represent a valid JSON configuration.
//
// The function returns true if there is exactly one argument in the initialization args slice,
// and if the content of that argument is a valid JSON.
func IsJSON(args []string) bool {
	return len(args) == 1 && json.Valid([]byte(args[0]))
}

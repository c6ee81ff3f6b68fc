// Package extension provides the Forge extension adapter for alloc.
//
// It implements the forge.Extension interface to integrate the allocation
// ledger into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.alloc" or "alloc" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/alloc"
	"github.com/xraph/alloc/store"
	"github.com/xraph/alloc/store/memory"
	"github.com/xraph/alloc/token/erc20"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "alloc"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Access-controlled token allocation ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// dialTimeout bounds the JSON-RPC handshake during Register.
const dialTimeout = 10 * time.Second

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the allocation ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *alloc.Ledger
	store      store.Store
	client     *ethclient.Client
	ledgerOpts []alloc.Option
}

// New creates a new alloc Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *alloc.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	deployer, opts, err := e.buildLedgerOpts()
	if err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	s := e.store
	if e.config.DisableMigrate {
		s = noMigrate{s}
	}

	e.engine = alloc.New(s, deployer, opts...)

	return vessel.Provide(fapp.Container(), func() (*alloc.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("alloc: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	defer e.MarkStopped()

	if e.client != nil {
		e.client.Close()
	}
	if e.engine != nil {
		return e.engine.Stop()
	}
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("alloc: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs alloc.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() (common.Address, []alloc.Option, error) {
	cfg := e.config

	deployer, err := parseAddress("deployer", cfg.Deployer)
	if err != nil {
		return common.Address{}, nil, err
	}
	if deployer == (common.Address{}) {
		return common.Address{}, nil, errors.New("alloc: deployer address is required")
	}

	opts := make([]alloc.Option, 0, len(e.ledgerOpts)+4)
	opts = append(opts, alloc.WithHookTimeout(cfg.HookTimeout))

	address, err := parseAddress("address", cfg.Address)
	if err != nil {
		return common.Address{}, nil, err
	}
	if cfg.TokenAddress != "" {
		tokenAddr, err := parseAddress("token_address", cfg.TokenAddress)
		if err != nil {
			return common.Address{}, nil, err
		}
		opts = append(opts, alloc.WithTokenAddr(tokenAddr))
	}

	if cfg.RPCURL != "" {
		signer, rpcOpts, err := e.dialRPC()
		if err != nil {
			return common.Address{}, nil, err
		}
		if signer != (common.Address{}) {
			if address != (common.Address{}) && address != signer {
				return common.Address{}, nil, fmt.Errorf("alloc: signer %s does not match address %s", signer.Hex(), address.Hex())
			}
			address = signer
		}
		opts = append(opts, rpcOpts...)
	}

	if address != (common.Address{}) {
		opts = append(opts, alloc.WithAddress(address))
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return deployer, opts, nil
}

// dialRPC connects to the configured node and returns the signer address,
// zero when the token is read-only.
func (e *Extension) dialRPC() (common.Address, []alloc.Option, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	client, err := erc20.Dial(ctx, e.config.RPCURL)
	if err != nil {
		return common.Address{}, nil, err
	}
	e.client = client

	var (
		signer   common.Address
		erc20Opt []erc20.Option
	)
	if e.config.SignerKey != "" {
		auth, err := erc20.NewTransactor(ctx, client, e.config.SignerKey)
		if err != nil {
			return common.Address{}, nil, err
		}
		signer = auth.From
		erc20Opt = append(erc20Opt,
			erc20.WithTransactor(auth),
			erc20.WithReceiptTimeout(e.config.ReceiptTimeout),
		)
	}

	e.Logger().Debug("alloc: resolving tokens over json-rpc",
		forge.F("rpc_url", e.config.RPCURL),
		forge.F("signer", signer.Hex()),
	)

	return signer, []alloc.Option{alloc.WithTokenResolver(erc20.NewResolver(client, erc20Opt...))}, nil
}

func parseAddress(field, s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("alloc: %s: invalid address %q", field, s)
	}
	return common.HexToAddress(s), nil
}

// noMigrate skips schema migration for stores managed elsewhere.
type noMigrate struct {
	store.Store
}

func (noMigrate) Migrate(context.Context) error { return nil }

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("alloc: configuration is required but not found in config files; " +
				"ensure 'extensions.alloc' or 'alloc' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("alloc: configuration loaded",
		forge.F("deployer", e.config.Deployer),
		forge.F("address", e.config.Address),
		forge.F("token_address", e.config.TokenAddress),
		forge.F("rpc_url", e.config.RPCURL),
		forge.F("hook_timeout", e.config.HookTimeout),
		forge.F("disable_migrate", e.config.DisableMigrate),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.alloc", "alloc"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("alloc: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("alloc: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = DefaultConfig().HookTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&yamlConfig.Deployer, programmaticConfig.Deployer)
	fill(&yamlConfig.Address, programmaticConfig.Address)
	fill(&yamlConfig.TokenAddress, programmaticConfig.TokenAddress)
	fill(&yamlConfig.RPCURL, programmaticConfig.RPCURL)
	fill(&yamlConfig.SignerKey, programmaticConfig.SignerKey)

	if yamlConfig.HookTimeout == 0 {
		yamlConfig.HookTimeout = programmaticConfig.HookTimeout
	}
	if yamlConfig.ReceiptTimeout == 0 {
		yamlConfig.ReceiptTimeout = programmaticConfig.ReceiptTimeout
	}

	return mergeWithDefaults(yamlConfig)
}

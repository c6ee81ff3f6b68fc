package extension

import (
	"time"

	"github.com/xraph/alloc"
	"github.com/xraph/alloc/plugin"
	"github.com/xraph/alloc/store"
)

// Option configures the alloc Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes an alloc.Option through to the underlying engine.
func WithLedgerOption(opt alloc.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, alloc.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDeployer sets the first administrator.
func WithDeployer(hexAddr string) Option {
	return func(e *Extension) { e.config.Deployer = hexAddr }
}

// WithTokenAddress sets the initially bound token.
func WithTokenAddress(hexAddr string) Option {
	return func(e *Extension) { e.config.TokenAddress = hexAddr }
}

// WithRPC resolves tokens through a JSON-RPC endpoint, signing transfers
// with signerKey when it is not empty.
func WithRPC(url, signerKey string) Option {
	return func(e *Extension) {
		e.config.RPCURL = url
		e.config.SignerKey = signerKey
	}
}

// WithHookTimeout bounds a single plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.HookTimeout = d }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

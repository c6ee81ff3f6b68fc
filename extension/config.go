package extension

import "time"

// Config holds the alloc extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.alloc" or "alloc" keys).
type Config struct {
	// Deployer is the hex address of the first administrator.
	Deployer string `json:"deployer" mapstructure:"deployer" yaml:"deployer"`

	// Address overrides the ledger's spender address. Empty means the
	// address the deployer would create at nonce 0.
	Address string `json:"address" mapstructure:"address" yaml:"address"`

	// TokenAddress overrides the initially bound token.
	TokenAddress string `json:"token_address" mapstructure:"token_address" yaml:"token_address"`

	// RPCURL is an Ethereum JSON-RPC endpoint. When set, bound token
	// addresses resolve to live ERC20 contracts.
	RPCURL string `json:"rpc_url" mapstructure:"rpc_url" yaml:"rpc_url"`

	// SignerKey is the hex private key that signs transferFrom calls. It
	// must control Address. Without it the live token is read-only.
	SignerKey string `json:"-" mapstructure:"signer_key" yaml:"signer_key"`

	// ReceiptTimeout bounds the wait for a transferFrom receipt on the live
	// token (default: erc20.DefaultReceiptTimeout).
	ReceiptTimeout time.Duration `json:"receipt_timeout" mapstructure:"receipt_timeout" yaml:"receipt_timeout"`

	// HookTimeout bounds a single plugin hook call (default: 5s).
	HookTimeout time.Duration `json:"hook_timeout" mapstructure:"hook_timeout" yaml:"hook_timeout"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		HookTimeout: 5 * time.Second,
	}
}

// Package erc20 binds token.Token to a deployed ERC20 contract over an
// Ethereum JSON-RPC endpoint.
package erc20

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/xraph/alloc/token"
	"github.com/xraph/alloc/types"
)

// ABI is the ERC20 subset the ledger calls.
const ABI = `[
{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transferFrom","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var (
	// ErrReadOnly is returned by TransferFrom on a token bound without a transactor.
	ErrReadOnly = errors.New("erc20: no transactor configured")
	// ErrReverted is returned when a transferFrom transaction was mined but failed.
	ErrReverted = errors.New("erc20: transaction reverted")
	// ErrOutcomeUnknown is returned when a transferFrom transaction was sent
	// but no receipt arrived within the receipt timeout.
	ErrOutcomeUnknown = token.ErrOutcomeUnknown
)

// DefaultReceiptTimeout bounds the wait for a transferFrom receipt.
const DefaultReceiptTimeout = 2 * time.Minute

var parsedABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(ABI))
	if err != nil {
		panic(fmt.Sprintf("erc20: parse abi: %v", err))
	}
	return parsed
}

// Backend is what the binding needs from a node connection.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Option configures a Token or Resolver.
type Option func(*config)

type config struct {
	auth           *bind.TransactOpts
	receiptTimeout time.Duration
}

// WithTransactor signs transferFrom transactions with auth. The transactor's
// address must be the ledger address, since ERC20 charges the allowance of
// the transaction sender.
func WithTransactor(auth *bind.TransactOpts) Option {
	return func(c *config) { c.auth = auth }
}

// WithReceiptTimeout bounds how long TransferFrom waits for a mined receipt
// once the transaction is sent. Non-positive values keep DefaultReceiptTimeout.
func WithReceiptTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.receiptTimeout = d
		}
	}
}

var _ token.Token = (*Token)(nil)

// Token is a live ERC20 contract.
type Token struct {
	address  common.Address
	backend  Backend
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	timeout  time.Duration
}

// New binds the contract at addr.
func New(addr common.Address, backend Backend, opts ...Option) *Token {
	cfg := config{receiptTimeout: DefaultReceiptTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Token{
		address:  addr,
		backend:  backend,
		contract: bind.NewBoundContract(addr, parsedABI, backend, backend, backend),
		auth:     cfg.auth,
		timeout:  cfg.receiptTimeout,
	}
}

// Address returns the contract address.
func (t *Token) Address() common.Address { return t.address }

func (t *Token) call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("erc20: %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("erc20: %s: empty result", method)
	}
	return out[0], nil
}

func (t *Token) callAmount(ctx context.Context, method string, args ...interface{}) (types.Amount, error) {
	out, err := t.call(ctx, method, args...)
	if err != nil {
		return types.Amount{}, err
	}
	v := *abi.ConvertType(out, new(*big.Int)).(**big.Int)
	return types.AmountFromBig(v)
}

// BalanceOf implements token.Token.
func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (types.Amount, error) {
	return t.callAmount(ctx, "balanceOf", owner)
}

// Allowance implements token.Token.
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (types.Amount, error) {
	return t.callAmount(ctx, "allowance", owner, spender)
}

// TotalSupply implements token.Token.
func (t *Token) TotalSupply(ctx context.Context) (types.Amount, error) {
	return t.callAmount(ctx, "totalSupply")
}

// Decimals implements token.Token.
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out, new(uint8)).(*uint8), nil
}

// Name implements token.Token.
func (t *Token) Name(ctx context.Context) (string, error) {
	out, err := t.call(ctx, "name")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out, new(string)).(*string), nil
}

// Symbol implements token.Token.
func (t *Token) Symbol(ctx context.Context) (string, error) {
	out, err := t.call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out, new(string)).(*string), nil
}

// TransferFrom sends a transferFrom transaction and waits for it to be mined.
// A mined but reverted transaction is reported as ErrReverted.
//
// Once the transaction is sent, the wait no longer follows ctx: it runs
// until a receipt arrives or the receipt timeout passes, in which case
// ErrOutcomeUnknown is returned.
func (t *Token) TransferFrom(ctx context.Context, spender, from, to common.Address, amount types.Amount) error {
	if t.auth == nil {
		return ErrReadOnly
	}
	if spender != t.auth.From {
		return fmt.Errorf("erc20: spender %s is not the transactor %s", spender.Hex(), t.auth.From.Hex())
	}

	opts := *t.auth
	opts.Context = ctx
	tx, err := t.contract.Transact(&opts, "transferFrom", from, to, amount.Big())
	if err != nil {
		return fmt.Errorf("erc20: transferFrom: %w", err)
	}

	return awaitReceipt(ctx, t.backend, tx.Hash(), t.timeout)
}

func awaitReceipt(ctx context.Context, backend bind.DeployBackend, hash common.Hash, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	receipt, err := bind.WaitMinedHash(waitCtx, backend, hash)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutcomeUnknown, hash.Hex(), err)
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s", ErrReverted, hash.Hex())
	}
	return nil
}

// Resolver binds any address with deployed code to a Token.
type Resolver struct {
	backend Backend
	opts    []Option
}

var _ token.Resolver = (*Resolver)(nil)

// NewResolver creates a resolver; opts are applied to every Token it returns.
func NewResolver(backend Backend, opts ...Option) *Resolver {
	return &Resolver{backend: backend, opts: opts}
}

// Resolve implements token.Resolver.
func (r *Resolver) Resolve(ctx context.Context, addr common.Address) (token.Token, error) {
	code, err := r.backend.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("erc20: code at %s: %w", addr.Hex(), err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: %s", token.ErrUnknownToken, addr.Hex())
	}
	return New(addr, r.backend, r.opts...), nil
}

// Dial connects to a JSON-RPC endpoint.
func Dial(ctx context.Context, rawURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("erc20: dial %s: %w", rawURL, err)
	}
	return client, nil
}

// NewTransactor builds a signer for hexKey on the chain the client is
// connected to. The signer address is auth.From.
func NewTransactor(ctx context.Context, client *ethclient.Client, hexKey string) (*bind.TransactOpts, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("erc20: parse key: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("erc20: chain id: %w", err)
	}
	return KeyedTransactor(key, chainID)
}

// KeyedTransactor builds a signer for key on chainID.
func KeyedTransactor(key *ecdsa.PrivateKey, chainID *big.Int) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("erc20: transactor: %w", err)
	}
	return auth, nil
}

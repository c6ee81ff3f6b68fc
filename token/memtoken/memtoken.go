// Package memtoken is an in-process ERC20 token. It mirrors the OpenZeppelin
// ERC20 guards and is used for tests and embedded deployments that have no
// chain to talk to.
package memtoken

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/token"
	"github.com/xraph/alloc/types"
)

var _ token.Token = (*Token)(nil)

var (
	ErrTransferFromZero      = errors.New("ERC20: transfer from the zero address")
	ErrTransferToZero        = errors.New("ERC20: transfer to the zero address")
	ErrExceedsBalance        = errors.New("ERC20: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("ERC20: insufficient allowance")
	ErrMintToZero            = errors.New("ERC20: mint to the zero address")
	ErrApproveZero           = errors.New("ERC20: approve to the zero address")
)

// Token is an in-memory ERC20 ledger.
type Token struct {
	mu sync.RWMutex

	name     string
	symbol   string
	decimals uint8
	supply   types.Amount

	balances   map[common.Address]types.Amount
	allowances map[common.Address]map[common.Address]types.Amount
}

// New creates a token with no supply.
func New(name, symbol string, decimals uint8) *Token {
	return &Token{
		name:       name,
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[common.Address]types.Amount),
		allowances: make(map[common.Address]map[common.Address]types.Amount),
	}
}

// Mint creates amount tokens for to.
func (t *Token) Mint(to common.Address, amount types.Amount) error {
	if to == (common.Address{}) {
		return ErrMintToZero
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.supply = t.supply.Add(amount)
	t.balances[to] = t.balances[to].Add(amount)
	return nil
}

// Approve sets spender's allowance over owner's tokens.
func (t *Token) Approve(owner, spender common.Address, amount types.Amount) error {
	if owner == (common.Address{}) || spender == (common.Address{}) {
		return ErrApproveZero
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setAllowance(owner, spender, amount)
	return nil
}

func (t *Token) setAllowance(owner, spender common.Address, amount types.Amount) {
	m, ok := t.allowances[owner]
	if !ok {
		m = make(map[common.Address]types.Amount)
		t.allowances[owner] = m
	}
	m[spender] = amount
}

// Transfer moves amount from from to to without touching allowances.
func (t *Token) Transfer(from, to common.Address, amount types.Amount) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transfer(from, to, amount)
}

// BalanceOf implements token.Token.
func (t *Token) BalanceOf(_ context.Context, owner common.Address) (types.Amount, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balances[owner], nil
}

// Allowance implements token.Token.
func (t *Token) Allowance(_ context.Context, owner, spender common.Address) (types.Amount, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allowances[owner][spender], nil
}

// TransferFrom implements token.Token.
func (t *Token) TransferFrom(_ context.Context, spender, from, to common.Address, amount types.Amount) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.allowances[from][spender]
	if allowed.LessThan(amount) {
		return ErrInsufficientAllowance
	}
	if err := t.transfer(from, to, amount); err != nil {
		return err
	}
	t.setAllowance(from, spender, allowed.Sub(amount))
	return nil
}

func (t *Token) transfer(from, to common.Address, amount types.Amount) error {
	if from == (common.Address{}) {
		return ErrTransferFromZero
	}
	if to == (common.Address{}) {
		return ErrTransferToZero
	}
	bal := t.balances[from]
	if bal.LessThan(amount) {
		return ErrExceedsBalance
	}
	t.balances[from] = bal.Sub(amount)
	t.balances[to] = t.balances[to].Add(amount)
	return nil
}

// Decimals implements token.Token.
func (t *Token) Decimals(context.Context) (uint8, error) { return t.decimals, nil }

// Name implements token.Token.
func (t *Token) Name(context.Context) (string, error) { return t.name, nil }

// Symbol implements token.Token.
func (t *Token) Symbol(context.Context) (string, error) { return t.symbol, nil }

// TotalSupply implements token.Token.
func (t *Token) TotalSupply(context.Context) (types.Amount, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.supply, nil
}

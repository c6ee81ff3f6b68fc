// Package token defines the ERC20-shaped token the ledger draws payments
// from, and the resolver that binds a token address to an implementation.
package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/types"
)

//go:generate mockgen -destination=mocktoken/mock.go -package=mocktoken github.com/xraph/alloc/token Token

// ErrUnknownToken is returned by resolvers when nothing is deployed at an address.
var ErrUnknownToken = errors.New("token: no token at address")

// ErrOutcomeUnknown is returned by TransferFrom when the transfer was
// submitted but it could not be established whether it took effect.
var ErrOutcomeUnknown = errors.New("token: transfer outcome unknown")

// Token is the subset of ERC20 the ledger uses.
//
// TransferFrom moves amount from from to to on behalf of spender, consuming
// spender's allowance. Implementations must leave all balances untouched when
// they return an error.
type Token interface {
	BalanceOf(ctx context.Context, owner common.Address) (types.Amount, error)
	Allowance(ctx context.Context, owner, spender common.Address) (types.Amount, error)
	TransferFrom(ctx context.Context, spender, from, to common.Address, amount types.Amount) error
	Decimals(ctx context.Context) (uint8, error)
	Name(ctx context.Context) (string, error)
	Symbol(ctx context.Context) (string, error)
	TotalSupply(ctx context.Context) (types.Amount, error)
}

// Resolver binds a token address to a Token.
type Resolver interface {
	Resolve(ctx context.Context, addr common.Address) (Token, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, addr common.Address) (Token, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, addr common.Address) (Token, error) {
	return f(ctx, addr)
}

// Info is the token metadata snapshot.
type Info struct {
	Address     common.Address `json:"address"`
	Decimals    uint8          `json:"decimals"`
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	TotalSupply types.Amount   `json:"total_supply"`
}

// ReadInfo queries every metadata field of t.
func ReadInfo(ctx context.Context, addr common.Address, t Token) (Info, error) {
	info := Info{Address: addr}

	var err error
	if info.Decimals, err = t.Decimals(ctx); err != nil {
		return Info{}, fmt.Errorf("token: decimals: %w", err)
	}
	if info.Name, err = t.Name(ctx); err != nil {
		return Info{}, fmt.Errorf("token: name: %w", err)
	}
	if info.Symbol, err = t.Symbol(ctx); err != nil {
		return Info{}, fmt.Errorf("token: symbol: %w", err)
	}
	if info.TotalSupply, err = t.TotalSupply(ctx); err != nil {
		return Info{}, fmt.Errorf("token: total supply: %w", err)
	}
	return info, nil
}

package token_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/token"
	"github.com/xraph/alloc/token/memtoken"
	"github.com/xraph/alloc/types"
)

func TestRegistryResolve(t *testing.T) {
	ctx := context.Background()
	addr := common.HexToAddress("0x753f470F3a283A8e99e5dacf9dD0eDf7F64a9F80")
	usdc := memtoken.New("Dev USDC (DEVUSDC)", "USDC-Test", 6)

	reg := token.NewRegistry()
	if _, err := reg.Resolve(ctx, addr); !errors.Is(err, token.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}

	reg.Register(addr, usdc)
	got, err := reg.Resolve(ctx, addr)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != usdc {
		t.Error("resolved a different token")
	}

	reg.Unregister(addr)
	if _, err := reg.Resolve(ctx, addr); !errors.Is(err, token.ErrUnknownToken) {
		t.Errorf("expected ErrUnknownToken after unregister, got %v", err)
	}
}

func TestReadInfo(t *testing.T) {
	ctx := context.Background()
	owner := common.HexToAddress("0x1")
	addr := common.HexToAddress("0x2")

	usdc := memtoken.New("Dev USDC (DEVUSDC)", "USDC-Test", 6)
	if err := usdc.Mint(owner, types.MustAmount("10000000000000")); err != nil {
		t.Fatal(err)
	}

	info, err := token.ReadInfo(ctx, addr, usdc)
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	want := token.Info{
		Address:     addr,
		Decimals:    6,
		Name:        "Dev USDC (DEVUSDC)",
		Symbol:      "USDC-Test",
		TotalSupply: types.MustAmount("10000000000000"),
	}
	if info.Address != want.Address || info.Decimals != want.Decimals ||
		info.Name != want.Name || info.Symbol != want.Symbol ||
		!info.TotalSupply.Equal(want.TotalSupply) {
		t.Errorf("ReadInfo = %+v, want %+v", info, want)
	}
}

func TestResolverFunc(t *testing.T) {
	called := false
	r := token.ResolverFunc(func(context.Context, common.Address) (token.Token, error) {
		called = true
		return nil, token.ErrUnknownToken
	})
	if _, err := r.Resolve(context.Background(), common.Address{}); !errors.Is(err, token.ErrUnknownToken) {
		t.Errorf("unexpected error %v", err)
	}
	if !called {
		t.Error("function not called")
	}
}

package memtoken_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/token/memtoken"
	"github.com/xraph/alloc/types"
)

var (
	owner   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	spender = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	payee   = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func newFunded(t *testing.T, balance uint64) *memtoken.Token {
	t.Helper()
	tok := memtoken.New("Dev USDC (DEVUSDC)", "USDC-Test", 6)
	if err := tok.Mint(owner, types.NewAmount(balance)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	return tok
}

func balance(t *testing.T, tok *memtoken.Token, a common.Address) types.Amount {
	t.Helper()
	b, err := tok.BalanceOf(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestTransferFrom(t *testing.T) {
	tests := []struct {
		name      string
		balance   uint64
		allowance uint64
		to        common.Address
		amount    uint64
		wantErr   error
	}{
		{"ok", 100, 100, payee, 60, nil},
		{"exact", 100, 100, payee, 100, nil},
		{"allowance short", 100, 50, payee, 60, memtoken.ErrInsufficientAllowance},
		{"balance short", 50, 100, payee, 60, memtoken.ErrExceedsBalance},
		{"zero recipient", 100, 100, common.Address{}, 10, memtoken.ErrTransferToZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tok := newFunded(t, tt.balance)
			if err := tok.Approve(owner, spender, types.NewAmount(tt.allowance)); err != nil {
				t.Fatal(err)
			}

			err := tok.TransferFrom(ctx, spender, owner, tt.to, types.NewAmount(tt.amount))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TransferFrom error = %v, want %v", err, tt.wantErr)
			}

			allowance, _ := tok.Allowance(ctx, owner, spender)
			if tt.wantErr != nil {
				if !balance(t, tok, owner).Equal(types.NewAmount(tt.balance)) {
					t.Error("balance changed on failed transfer")
				}
				if !allowance.Equal(types.NewAmount(tt.allowance)) {
					t.Error("allowance changed on failed transfer")
				}
				return
			}
			if !balance(t, tok, owner).Equal(types.NewAmount(tt.balance - tt.amount)) {
				t.Errorf("owner balance = %s", balance(t, tok, owner))
			}
			if !balance(t, tok, tt.to).Equal(types.NewAmount(tt.amount)) {
				t.Errorf("payee balance = %s", balance(t, tok, tt.to))
			}
			if !allowance.Equal(types.NewAmount(tt.allowance - tt.amount)) {
				t.Errorf("allowance = %s", allowance)
			}
		})
	}
}

func TestMintAndSupply(t *testing.T) {
	tok := newFunded(t, 10)
	if err := tok.Mint(payee, types.NewAmount(5)); err != nil {
		t.Fatal(err)
	}
	supply, _ := tok.TotalSupply(context.Background())
	if !supply.Equal(types.NewAmount(15)) {
		t.Errorf("TotalSupply = %s, want 15", supply)
	}
	if err := tok.Mint(common.Address{}, types.NewAmount(1)); !errors.Is(err, memtoken.ErrMintToZero) {
		t.Errorf("expected ErrMintToZero, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	tok := newFunded(t, 10)
	if err := tok.Transfer(owner, payee, types.NewAmount(4)); err != nil {
		t.Fatal(err)
	}
	if !balance(t, tok, payee).Equal(types.NewAmount(4)) {
		t.Errorf("payee balance = %s", balance(t, tok, payee))
	}
	if err := tok.Transfer(owner, payee, types.NewAmount(7)); !errors.Is(err, memtoken.ErrExceedsBalance) {
		t.Errorf("expected ErrExceedsBalance, got %v", err)
	}
}

func TestApproveZero(t *testing.T) {
	tok := newFunded(t, 1)
	if err := tok.Approve(owner, common.Address{}, types.NewAmount(1)); !errors.Is(err, memtoken.ErrApproveZero) {
		t.Errorf("expected ErrApproveZero, got %v", err)
	}
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	tok := memtoken.New("Dev USDC (DEVUSDC)", "USDC-Test", 6)
	if d, _ := tok.Decimals(ctx); d != 6 {
		t.Errorf("Decimals = %d", d)
	}
	if n, _ := tok.Name(ctx); n != "Dev USDC (DEVUSDC)" {
		t.Errorf("Name = %q", n)
	}
	if s, _ := tok.Symbol(ctx); s != "USDC-Test" {
		t.Errorf("Symbol = %q", s)
	}
}

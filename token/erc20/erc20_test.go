package erc20

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/xraph/alloc/token"

	"github.com/xraph/alloc/types"
)

func TestABIMethods(t *testing.T) {
	for _, name := range []string{"balanceOf", "allowance", "transferFrom", "decimals", "name", "symbol", "totalSupply"} {
		if _, ok := parsedABI.Methods[name]; !ok {
			t.Errorf("ABI missing method %s", name)
		}
	}
}

func TestTransferFromRequiresTransactor(t *testing.T) {
	tok := New(common.HexToAddress("0x753f470F3a283A8e99e5dacf9dD0eDf7F64a9F80"), nil)
	err := tok.TransferFrom(context.Background(), common.Address{}, common.Address{}, common.Address{}, types.NewAmount(1))
	if !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestTransferFromSpenderMismatch(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	auth, err := KeyedTransactor(key, big.NewInt(1337))
	if err != nil {
		t.Fatal(err)
	}
	if auth.From != crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatalf("transactor address %s does not match key", auth.From.Hex())
	}

	tok := New(common.HexToAddress("0x1"), nil, WithTransactor(auth))
	other := common.HexToAddress("0x2")
	err = tok.TransferFrom(context.Background(), other, other, other, types.NewAmount(1))
	if err == nil || errors.Is(err, ErrReadOnly) {
		t.Errorf("expected spender mismatch error, got %v", err)
	}
}

type receiptBackend struct {
	receipt *gethtypes.Receipt
	err     error
}

func (b receiptBackend) TransactionReceipt(context.Context, common.Hash) (*gethtypes.Receipt, error) {
	return b.receipt, b.err
}

func (b receiptBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return nil, nil
}

func TestAwaitReceipt(t *testing.T) {
	hash := common.HexToHash("0xabc")

	tests := []struct {
		name    string
		backend receiptBackend
		wantErr error
	}{
		{"mined", receiptBackend{receipt: &gethtypes.Receipt{Status: gethtypes.ReceiptStatusSuccessful}}, nil},
		{"reverted", receiptBackend{receipt: &gethtypes.Receipt{Status: gethtypes.ReceiptStatusFailed}}, ErrReverted},
		{"lookup failing", receiptBackend{err: errors.New("connection reset")}, ErrOutcomeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := awaitReceipt(context.Background(), tt.backend, hash, 50*time.Millisecond)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAwaitReceiptOutlivesCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := receiptBackend{receipt: &gethtypes.Receipt{Status: gethtypes.ReceiptStatusSuccessful}}
	if err := awaitReceipt(ctx, backend, common.HexToHash("0xabc"), time.Second); err != nil {
		t.Fatalf("canceled caller context aborted the wait: %v", err)
	}

	err := awaitReceipt(ctx, receiptBackend{err: errors.New("timeout")}, common.HexToHash("0xabc"), 50*time.Millisecond)
	if !errors.Is(err, token.ErrOutcomeUnknown) {
		t.Fatalf("expected token.ErrOutcomeUnknown, got %v", err)
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("wait followed the caller context: %v", err)
	}
}

package extension

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc"
	"github.com/xraph/alloc/store/memory"
)

const (
	deployerHex = "0x00000000000000000000000000000000000000d0"
	tokenHex    = "0x00000000000000000000000000000000000000ff"
	addressHex  = "0x00000000000000000000000000000000000000ee"
)

func TestMergeConfigurations(t *testing.T) {
	yamlCfg := Config{Deployer: deployerHex}
	programmatic := Config{
		Deployer:       "0x0000000000000000000000000000000000000001",
		TokenAddress:   tokenHex,
		HookTimeout:    time.Second,
		ReceiptTimeout: time.Minute,
		DisableMigrate: true,
	}

	got := mergeConfigurations(yamlCfg, programmatic)

	if got.Deployer != deployerHex {
		t.Errorf("Deployer = %s, YAML should win", got.Deployer)
	}
	if got.TokenAddress != tokenHex {
		t.Errorf("TokenAddress = %s, programmatic should fill the gap", got.TokenAddress)
	}
	if got.HookTimeout != time.Second || got.ReceiptTimeout != time.Minute || !got.DisableMigrate {
		t.Errorf("got %+v", got)
	}
}

func TestMergeWithDefaults(t *testing.T) {
	if got := mergeWithDefaults(Config{}); got.HookTimeout != DefaultConfig().HookTimeout {
		t.Errorf("HookTimeout = %s", got.HookTimeout)
	}
}

func TestBuildLedgerOpts(t *testing.T) {
	e := New(
		WithConfig(Config{Address: addressHex}),
		WithDeployer(deployerHex),
		WithTokenAddress(tokenHex),
	)

	deployer, opts, err := e.buildLedgerOpts()
	if err != nil {
		t.Fatal(err)
	}
	if deployer != common.HexToAddress(deployerHex) {
		t.Errorf("deployer = %s", deployer.Hex())
	}

	l := alloc.New(memory.New(), deployer, opts...)
	if l.Address() != common.HexToAddress(addressHex) {
		t.Errorf("Address = %s", l.Address().Hex())
	}
	if l.TokenAddr() != common.HexToAddress(tokenHex) {
		t.Errorf("TokenAddr = %s", l.TokenAddr().Hex())
	}
}

func TestBuildLedgerOptsErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"missing deployer", Config{}, "deployer address is required"},
		{"bad deployer", Config{Deployer: "nope"}, "deployer: invalid address"},
		{"bad address", Config{Deployer: deployerHex, Address: "0x12"}, "address: invalid address"},
		{"bad token", Config{Deployer: deployerHex, TokenAddress: "zz"}, "token_address: invalid address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(WithConfig(tt.cfg))
			_, _, err := e.buildLedgerOpts()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestNoMigrate(t *testing.T) {
	s := noMigrate{memory.New()}
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	l := alloc.New(s, common.HexToAddress(deployerHex))
	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
}

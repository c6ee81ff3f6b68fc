package alloc

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Address identifies a principal.
type Address = common.Address

// Amount is re-exported from types package.
type Amount = types.Amount

// Re-export Amount constructors
var (
	NewAmount   = types.NewAmount
	ParseAmount = types.ParseAmount
	MustAmount  = types.MustAmount
	Units       = types.Units
	Sum         = types.Sum
)

// HexToAddress is re-exported from go-ethereum.
var HexToAddress = common.HexToAddress

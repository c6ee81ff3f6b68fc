package store

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/level"
	"github.com/xraph/alloc/sale"
)

// Store is the durable journal behind an alloc.Ledger. The ledger's
// in-memory state is authoritative while running; a Store only has to
// remember what it was told, and hand it back on start.
//
// Allocation records are append-only: there is no update or delete.
type Store interface {
	admin.Store
	level.Store
	sale.Store
	allocation.Store

	// Token binding
	SetTokenAddr(ctx context.Context, addr common.Address) error
	GetTokenAddr(ctx context.Context) (common.Address, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

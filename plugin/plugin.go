// Package plugin provides an extensible plugin system for alloc.
// Plugins hook into configuration changes and allocations to add audit
// trails, metrics or event fan-out without touching the core.
//
// Hooks run while the ledger holds its lock. A hook must not call back into
// the Ledger that invoked it.
package plugin

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/sale"
	"github.com/xraph/alloc/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts. l is the *alloc.Ledger.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Configuration hooks
// ──────────────────────────────────────────────────

// OnAdminModified is called after an administrator was added or deleted.
type OnAdminModified interface {
	Plugin
	OnAdminModified(ctx context.Context, change *admin.Change) error
}

// OnTokenBound is called after the bound token address changed.
type OnTokenBound interface {
	Plugin
	OnTokenBound(ctx context.Context, oldAddr, newAddr common.Address) error
}

// OnLevelMinChanged is called after a level threshold was overwritten.
type OnLevelMinChanged interface {
	Plugin
	OnLevelMinChanged(ctx context.Context, level uint64, minAmount types.Amount) error
}

// OnSaleModified is called after a sale was created or overwritten.
type OnSaleModified interface {
	Plugin
	OnSaleModified(ctx context.Context, s *sale.Sale) error
}

// OnSaleDisabled is called after a sale's disabled flag was set.
type OnSaleDisabled interface {
	Plugin
	OnSaleDisabled(ctx context.Context, saleID uint64, disabled bool) error
}

// ──────────────────────────────────────────────────
// Allocation hooks
// ──────────────────────────────────────────────────

// OnAllocated is called after an allocation was committed.
type OnAllocated interface {
	Plugin
	OnAllocated(ctx context.Context, ev *allocation.Event) error
}

// OnAllocationRejected is called when an allocation failed validation or
// the token transfer failed. Nothing was recorded.
type OnAllocationRejected interface {
	Plugin
	OnAllocationRejected(ctx context.Context, saleID, level uint64, payer common.Address, reason error) error
}

// OnJournalFailed is called when the store could not persist a change the
// ledger already applied, and when a token transfer was submitted but its
// outcome is unknown (op "transfer").
type OnJournalFailed interface {
	Plugin
	OnJournalFailed(ctx context.Context, op string, err error) error
}

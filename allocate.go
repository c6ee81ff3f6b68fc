package alloc

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/block"
	"github.com/xraph/alloc/token"
	"github.com/xraph/alloc/types"
)

// Allocate moves amount of the bound token from the caller to the recipient
// of sale saleID and records the allocation on behalf of beneficiary.
//
// Either everything happens or nothing does: a rejected call leaves the
// token balances and every index untouched. The one exception is
// ErrTransferUnconfirmed: the transfer was submitted but its outcome is
// unknown, so nothing is recorded even though the payer may have paid.
func (l *Ledger) Allocate(ctx context.Context, saleID, lvl uint64, beneficiary common.Address, amount types.Amount) (*allocation.Record, error) {
	payer, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.commit(ctx, payer, saleID, lvl, beneficiary, amount)
	if errors.Is(err, ErrTransferUnconfirmed) {
		l.logger.Error("allocation transfer unconfirmed",
			"sale", saleID,
			"level", lvl,
			"payer", payer.Hex(),
			"amount", amount.String(),
			"error", err,
		)
		l.plugins.EmitJournalFailed(ctx, "transfer", err)
		return nil, err
	}
	if err != nil {
		l.logger.Debug("allocation rejected",
			"sale", saleID,
			"level", lvl,
			"payer", payer.Hex(),
			"amount", amount.String(),
			"error", err,
		)
		l.plugins.EmitAllocationRejected(ctx, saleID, lvl, payer, err)
		return nil, err
	}

	if err := l.flushJournal(ctx); err != nil {
		l.logger.Error("allocation journal failed",
			"allocation_id", rec.ID,
			"pending", l.index.Count()-l.journaled,
			"error", err,
		)
		l.plugins.EmitJournalFailed(ctx, "allocate", err)
	}

	l.logger.Info("allocation committed",
		"allocation_id", rec.ID,
		"sale", rec.Sale,
		"level", rec.Level,
		"payer", rec.Payer.Hex(),
		"beneficiary", rec.Beneficiary.Hex(),
		"amount", rec.Amount.String(),
	)
	l.plugins.EmitAllocated(ctx, allocation.NewEvent(rec))

	return &rec, nil
}

// commit validates, transfers and appends. Nothing is mutated unless the
// transfer succeeded. Callers hold l.mu.
func (l *Ledger) commit(ctx context.Context, payer common.Address, saleID, lvl uint64, beneficiary common.Address, amount types.Amount) (allocation.Record, error) {
	s, ok := l.sales[saleID]
	if ok && s.Disabled {
		return allocation.Record{}, ErrSaleDisabled
	}

	tok, err := l.resolver.Resolve(ctx, l.tokenAddr)
	if err != nil {
		return allocation.Record{}, fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}

	balance, err := tok.BalanceOf(ctx, payer)
	if err != nil {
		return allocation.Record{}, fmt.Errorf("%w: balance: %w", ErrTokenUnavailable, err)
	}
	if balance.LessThan(amount) {
		return allocation.Record{}, ErrInsufficientBalance
	}

	allowance, err := tok.Allowance(ctx, payer, l.address)
	if err != nil {
		return allocation.Record{}, fmt.Errorf("%w: allowance: %w", ErrTokenUnavailable, err)
	}
	if allowance.LessThan(amount) {
		return allocation.Record{}, ErrInsufficientAllowance
	}

	if amount.LessThan(l.levelMins[lvl]) {
		return allocation.Record{}, ErrBelowThreshold
	}

	var recipient common.Address
	if ok {
		recipient = s.Recipient
	}
	if err := tok.TransferFrom(ctx, l.address, payer, recipient, amount); err != nil {
		if errors.Is(err, token.ErrOutcomeUnknown) {
			return allocation.Record{}, fmt.Errorf("%w: %w", ErrTransferUnconfirmed, err)
		}
		return allocation.Record{}, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	next := l.blocks.Next(l.lastStamp)
	stamp := block.Advance(l.lastStamp, next)
	if stamp != next {
		l.logger.Warn("block source went backwards",
			"previous_height", l.lastStamp.Height,
			"previous_time", l.lastStamp.Time,
			"height", next.Height,
			"time", next.Time,
		)
	}
	rec := l.index.Append(allocation.Record{
		Sale:        saleID,
		Level:       lvl,
		BlockHeight: stamp.Height,
		BlockTime:   stamp.Time,
		Payer:       payer,
		Beneficiary: beneficiary,
		Amount:      amount,
	})
	l.lastStamp = stamp
	return rec, nil
}

// flushJournal appends every record past the journal watermark, in order,
// stopping at the first failure so the store never holds a gap. A record
// the store already has counts as written. Callers hold l.mu.
func (l *Ledger) flushJournal(ctx context.Context) error {
	for next := l.journaled + 1; next <= l.index.Count(); next++ {
		r := l.index.Record(next)
		if err := l.store.AppendAllocation(ctx, &r); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return err
		}
		l.journaled = next
	}
	return nil
}

// Unjournaled returns how many committed allocations the store has not yet
// acknowledged. They are retried on the next Allocate and on Stop.
func (l *Ledger) Unjournaled() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.Count() - l.journaled
}

// ──────────────────────────────────────────────────
// Read accessors
// ──────────────────────────────────────────────────

// AllocCount returns the number of committed allocations.
func (l *Ledger) AllocCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.Count()
}

// AllocAmount returns the sum of all committed allocations.
func (l *Ledger) AllocAmount() types.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.Amount()
}

// AllocInfo returns allocation allocID, or the zero record.
func (l *Ledger) AllocInfo(allocID uint64) allocation.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.Record(allocID)
}

func (l *Ledger) bySale(saleID uint64) allocation.Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.BySale(saleID)
}

func (l *Ledger) bySaleLevel(saleID, lvl uint64) allocation.Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.BySaleLevel(saleID, lvl)
}

func (l *Ledger) byBuyer(addr common.Address) allocation.Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.ByBuyer(addr)
}

func (l *Ledger) byBuyerSale(addr common.Address, saleID uint64) allocation.Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.ByBuyerSale(addr, saleID)
}

func (l *Ledger) byBuyerSaleLevel(addr common.Address, saleID, lvl uint64) allocation.Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.ByBuyerSaleLevel(addr, saleID, lvl)
}

// AllocSaleCount returns the number of allocations into saleID.
func (l *Ledger) AllocSaleCount(saleID uint64) uint64 { return l.bySale(saleID).Count }

// AllocSaleAmount returns the amount allocated into saleID.
func (l *Ledger) AllocSaleAmount(saleID uint64) types.Amount { return l.bySale(saleID).Amount }

// AllocSaleID returns the global id of the idx-th (1-based) allocation into
// saleID, or 0.
func (l *Ledger) AllocSaleID(saleID, idx uint64) uint64 { return l.bySale(saleID).ID(idx) }

// AllocSaleLevelCount returns the number of allocations into saleID at lvl.
func (l *Ledger) AllocSaleLevelCount(saleID, lvl uint64) uint64 {
	return l.bySaleLevel(saleID, lvl).Count
}

// AllocSaleLevelAmount returns the amount allocated into saleID at lvl.
func (l *Ledger) AllocSaleLevelAmount(saleID, lvl uint64) types.Amount {
	return l.bySaleLevel(saleID, lvl).Amount
}

// AllocSaleLevelID returns the global id of the idx-th allocation into
// saleID at lvl, or 0.
func (l *Ledger) AllocSaleLevelID(saleID, lvl, idx uint64) uint64 {
	return l.bySaleLevel(saleID, lvl).ID(idx)
}

// BuyerCount returns the number of allocations made for addr.
func (l *Ledger) BuyerCount(addr common.Address) uint64 { return l.byBuyer(addr).Count }

// BuyerAmount returns the amount allocated for addr.
func (l *Ledger) BuyerAmount(addr common.Address) types.Amount { return l.byBuyer(addr).Amount }

// BuyerID returns the global id of addr's idx-th allocation, or 0.
func (l *Ledger) BuyerID(addr common.Address, idx uint64) uint64 { return l.byBuyer(addr).ID(idx) }

// BuyerSaleCount returns the number of allocations for addr into saleID.
func (l *Ledger) BuyerSaleCount(addr common.Address, saleID uint64) uint64 {
	return l.byBuyerSale(addr, saleID).Count
}

// BuyerSaleAmount returns the amount allocated for addr into saleID.
func (l *Ledger) BuyerSaleAmount(addr common.Address, saleID uint64) types.Amount {
	return l.byBuyerSale(addr, saleID).Amount
}

// BuyerSaleID returns the global id of addr's idx-th allocation into
// saleID, or 0.
func (l *Ledger) BuyerSaleID(addr common.Address, saleID, idx uint64) uint64 {
	return l.byBuyerSale(addr, saleID).ID(idx)
}

// BuyerSaleLevelCount returns the number of allocations for addr into
// saleID at lvl.
func (l *Ledger) BuyerSaleLevelCount(addr common.Address, saleID, lvl uint64) uint64 {
	return l.byBuyerSaleLevel(addr, saleID, lvl).Count
}

// BuyerSaleLevelAmount returns the amount allocated for addr into saleID
// at lvl.
func (l *Ledger) BuyerSaleLevelAmount(addr common.Address, saleID, lvl uint64) types.Amount {
	return l.byBuyerSaleLevel(addr, saleID, lvl).Amount
}

// BuyerSaleLevelID returns the global id of addr's idx-th allocation into
// saleID at lvl, or 0.
func (l *Ledger) BuyerSaleLevelID(addr common.Address, saleID, lvl, idx uint64) uint64 {
	return l.byBuyerSaleLevel(addr, saleID, lvl).ID(idx)
}

// Package allocation implements the append-only allocation log and its
// derived per-sale, per-level and per-buyer indices.
package allocation

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/id"
	"github.com/xraph/alloc/types"
)

// Record is one completed allocation. Records are immutable once appended.
type Record struct {
	ID          uint64         `json:"id"`
	Sale        uint64         `json:"sale"`
	Level       uint64         `json:"level"`
	BlockHeight uint64         `json:"block_height"`
	BlockTime   int64          `json:"block_time"`
	Payer       common.Address `json:"payer"`
	Beneficiary common.Address `json:"beneficiary"`
	Amount      types.Amount   `json:"amount"`
}

// IsZero reports whether r is the zero record returned for unknown ids.
func (r Record) IsZero() bool { return r.ID == 0 }

// Event is emitted after an allocation has been committed.
type Event struct {
	ID           id.ID          `json:"id"`
	AllocationID uint64         `json:"allocation_id"`
	Payer        common.Address `json:"payer"`
	Addr         common.Address `json:"addr"`
	Sale         uint64         `json:"sale"`
	Level        uint64         `json:"level"`
	Amount       types.Amount   `json:"amount"`
	BlockHeight  uint64         `json:"block_height"`
	BlockTime    int64          `json:"block_time"`
}

// NewEvent builds the event for a committed record.
func NewEvent(r Record) *Event {
	return &Event{
		ID:           id.NewAllocationID(),
		AllocationID: r.ID,
		Payer:        r.Payer,
		Addr:         r.Beneficiary,
		Sale:         r.Sale,
		Level:        r.Level,
		Amount:       r.Amount,
		BlockHeight:  r.BlockHeight,
		BlockTime:    r.BlockTime,
	}
}

// Totals aggregates the records of one index key.
type Totals struct {
	Count  uint64       `json:"count"`
	Amount types.Amount `json:"amount"`
	IDs    []uint64     `json:"ids"`
}

// ID returns the global record id at 1-based position idx, or 0 when idx is
// out of range.
func (t Totals) ID(idx uint64) uint64 {
	if idx == 0 || idx > uint64(len(t.IDs)) {
		return 0
	}
	return t.IDs[idx-1]
}

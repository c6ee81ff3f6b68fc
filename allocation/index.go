package allocation

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/types"
)

type saleLevelKey struct {
	sale, level uint64
}

type buyerSaleKey struct {
	buyer common.Address
	sale  uint64
}

type buyerSaleLevelKey struct {
	buyer       common.Address
	sale, level uint64
}

// dimension is one derived index keyed by K.
type dimension[K comparable] map[K]*Totals

func (d dimension[K]) add(k K, r *Record) {
	t, ok := d[k]
	if !ok {
		t = &Totals{}
		d[k] = t
	}
	t.Count++
	t.Amount = t.Amount.Add(r.Amount)
	t.IDs = append(t.IDs, r.ID)
}

// get returns a snapshot of the totals for k. The id slice is clipped so a
// later append never shows through.
func (d dimension[K]) get(k K) Totals {
	t, ok := d[k]
	if !ok {
		return Totals{}
	}
	return Totals{Count: t.Count, Amount: t.Amount, IDs: t.IDs[:len(t.IDs):len(t.IDs)]}
}

// Index is the allocation log plus its derived indices. Every append updates
// all dimensions exactly once; nothing is ever recomputed by scanning.
//
// Index is not safe for concurrent use. The ledger serializes access.
type Index struct {
	log    []Record
	amount types.Amount

	bySale           dimension[uint64]
	bySaleLevel      dimension[saleLevelKey]
	byBuyer          dimension[common.Address]
	byBuyerSale      dimension[buyerSaleKey]
	byBuyerSaleLevel dimension[buyerSaleLevelKey]
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		bySale:           make(dimension[uint64]),
		bySaleLevel:      make(dimension[saleLevelKey]),
		byBuyer:          make(dimension[common.Address]),
		byBuyerSale:      make(dimension[buyerSaleKey]),
		byBuyerSaleLevel: make(dimension[buyerSaleLevelKey]),
	}
}

// Append assigns the next id to r, records it and returns the stored copy.
// Buyer dimensions are keyed by the beneficiary, not the payer.
func (ix *Index) Append(r Record) Record {
	r.ID = ix.Count() + 1
	ix.add(r)
	return r
}

// Restore re-appends a persisted record. Its id must be the next one.
func (ix *Index) Restore(r Record) error {
	if want := ix.Count() + 1; r.ID != want {
		return fmt.Errorf("allocation: restore id %d out of order, want %d", r.ID, want)
	}
	ix.add(r)
	return nil
}

func (ix *Index) add(r Record) {
	ix.log = append(ix.log, r)
	ix.amount = ix.amount.Add(r.Amount)

	ix.bySale.add(r.Sale, &r)
	ix.bySaleLevel.add(saleLevelKey{r.Sale, r.Level}, &r)
	ix.byBuyer.add(r.Beneficiary, &r)
	ix.byBuyerSale.add(buyerSaleKey{r.Beneficiary, r.Sale}, &r)
	ix.byBuyerSaleLevel.add(buyerSaleLevelKey{r.Beneficiary, r.Sale, r.Level}, &r)
}

// Count returns the number of records in the log.
func (ix *Index) Count() uint64 { return uint64(len(ix.log)) }

// Amount returns the sum of all record amounts.
func (ix *Index) Amount() types.Amount { return ix.amount }

// Record returns the record with the given id, or the zero record.
func (ix *Index) Record(recordID uint64) Record {
	if recordID == 0 || recordID > ix.Count() {
		return Record{}
	}
	return ix.log[recordID-1]
}

// Last returns the most recent record, if any.
func (ix *Index) Last() (Record, bool) {
	if len(ix.log) == 0 {
		return Record{}, false
	}
	return ix.log[len(ix.log)-1], true
}

// BySale returns the totals for a sale.
func (ix *Index) BySale(sale uint64) Totals { return ix.bySale.get(sale) }

// BySaleLevel returns the totals for a level of a sale.
func (ix *Index) BySaleLevel(sale, level uint64) Totals {
	return ix.bySaleLevel.get(saleLevelKey{sale, level})
}

// ByBuyer returns the totals for a beneficiary across all sales.
func (ix *Index) ByBuyer(buyer common.Address) Totals { return ix.byBuyer.get(buyer) }

// ByBuyerSale returns the totals for a beneficiary within a sale.
func (ix *Index) ByBuyerSale(buyer common.Address, sale uint64) Totals {
	return ix.byBuyerSale.get(buyerSaleKey{buyer, sale})
}

// ByBuyerSaleLevel returns the totals for a beneficiary within a level of a sale.
func (ix *Index) ByBuyerSaleLevel(buyer common.Address, sale, level uint64) Totals {
	return ix.byBuyerSaleLevel.get(buyerSaleLevelKey{buyer, sale, level})
}

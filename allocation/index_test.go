package allocation_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/types"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x00000000000000000000000000000000000ca401")
)

func rec(sale, level uint64, payer, to common.Address, amount uint64) allocation.Record {
	return allocation.Record{
		Sale:        sale,
		Level:       level,
		Payer:       payer,
		Beneficiary: to,
		Amount:      types.NewAmount(amount),
	}
}

func TestAppendAssignsSequentialIDs(t *testing.T) {
	ix := allocation.NewIndex()
	for want := uint64(1); want <= 5; want++ {
		got := ix.Append(rec(0, 0, alice, bob, 10))
		if got.ID != want {
			t.Fatalf("append #%d: got id %d", want, got.ID)
		}
	}
	if ix.Count() != 5 {
		t.Errorf("Count() = %d, want 5", ix.Count())
	}
	if !ix.Amount().Equal(types.NewAmount(50)) {
		t.Errorf("Amount() = %s, want 50", ix.Amount())
	}
}

func TestAppendIgnoresCallerID(t *testing.T) {
	ix := allocation.NewIndex()
	r := rec(0, 0, alice, bob, 1)
	r.ID = 42
	if got := ix.Append(r); got.ID != 1 {
		t.Errorf("got id %d, want 1", got.ID)
	}
}

func TestRecordLookup(t *testing.T) {
	ix := allocation.NewIndex()
	ix.Append(rec(3, 1, alice, bob, 7))

	got := ix.Record(1)
	if got.Sale != 3 || got.Level != 1 || got.Payer != alice || got.Beneficiary != bob {
		t.Errorf("unexpected record %+v", got)
	}

	for _, missing := range []uint64{0, 2, 1000} {
		if r := ix.Record(missing); !r.IsZero() || !r.Amount.IsZero() {
			t.Errorf("Record(%d) = %+v, want zero", missing, r)
		}
	}
}

func TestDimensions(t *testing.T) {
	ix := allocation.NewIndex()
	ix.Append(rec(0, 0, alice, bob, 25)) // 1
	ix.Append(rec(0, 1, alice, bob, 30)) // 2
	ix.Append(rec(1, 0, carol, bob, 5))  // 3
	ix.Append(rec(0, 0, bob, carol, 25)) // 4
	ix.Append(rec(0, 0, alice, bob, 25)) // 5

	tests := []struct {
		name   string
		totals allocation.Totals
		count  uint64
		amount uint64
		ids    []uint64
	}{
		{"sale 0", ix.BySale(0), 4, 105, []uint64{1, 2, 4, 5}},
		{"sale 1", ix.BySale(1), 1, 5, []uint64{3}},
		{"sale 0 level 0", ix.BySaleLevel(0, 0), 3, 75, []uint64{1, 4, 5}},
		{"sale 0 level 1", ix.BySaleLevel(0, 1), 1, 30, []uint64{2}},
		{"buyer bob", ix.ByBuyer(bob), 4, 85, []uint64{1, 2, 3, 5}},
		{"buyer carol", ix.ByBuyer(carol), 1, 25, []uint64{4}},
		{"buyer alice", ix.ByBuyer(alice), 0, 0, nil},
		{"bob in sale 0", ix.ByBuyerSale(bob, 0), 3, 80, []uint64{1, 2, 5}},
		{"bob in sale 1", ix.ByBuyerSale(bob, 1), 1, 5, []uint64{3}},
		{"bob in sale 0 level 0", ix.ByBuyerSaleLevel(bob, 0, 0), 2, 50, []uint64{1, 5}},
		{"unknown sale", ix.BySale(99), 0, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.totals.Count != tt.count {
				t.Errorf("Count = %d, want %d", tt.totals.Count, tt.count)
			}
			if !tt.totals.Amount.Equal(types.NewAmount(tt.amount)) {
				t.Errorf("Amount = %s, want %d", tt.totals.Amount, tt.amount)
			}
			if uint64(len(tt.totals.IDs)) != tt.totals.Count {
				t.Errorf("len(IDs) = %d, Count = %d", len(tt.totals.IDs), tt.totals.Count)
			}
			for i, want := range tt.ids {
				if got := tt.totals.ID(uint64(i + 1)); got != want {
					t.Errorf("ID(%d) = %d, want %d", i+1, got, want)
				}
			}
		})
	}
}

func TestTotalsIDOutOfRange(t *testing.T) {
	ix := allocation.NewIndex()
	ix.Append(rec(0, 0, alice, bob, 1))
	ix.Append(rec(0, 0, alice, bob, 1))

	totals := ix.BySale(0)
	for _, idx := range []uint64{0, 3, 1 << 40} {
		if got := totals.ID(idx); got != 0 {
			t.Errorf("ID(%d) = %d, want 0", idx, got)
		}
	}
	if got := ix.BySale(7).ID(1); got != 0 {
		t.Errorf("empty sale ID(1) = %d, want 0", got)
	}
}

func TestTotalsAmountMatchesRecords(t *testing.T) {
	ix := allocation.NewIndex()
	for i := uint64(1); i <= 20; i++ {
		to := bob
		if i%3 == 0 {
			to = carol
		}
		ix.Append(rec(i%2, i%4, alice, to, i*1000))
	}

	for _, buyer := range []common.Address{bob, carol} {
		totals := ix.ByBuyer(buyer)
		sum := types.Amount{}
		for _, rid := range totals.IDs {
			sum = sum.Add(ix.Record(rid).Amount)
		}
		if !sum.Equal(totals.Amount) {
			t.Errorf("%s: sum of records %s != totals %s", buyer.Hex(), sum, totals.Amount)
		}
	}
}

func TestSnapshotIsolation(t *testing.T) {
	ix := allocation.NewIndex()
	ix.Append(rec(0, 0, alice, bob, 1))
	snap := ix.BySale(0)

	ix.Append(rec(0, 0, alice, bob, 1))
	if snap.Count != 1 || len(snap.IDs) != 1 {
		t.Errorf("snapshot changed after append: %+v", snap)
	}
	if ix.BySale(0).Count != 2 {
		t.Errorf("live totals not updated")
	}
}

func TestRestore(t *testing.T) {
	ix := allocation.NewIndex()
	r := rec(0, 0, alice, bob, 9)
	r.ID = 1
	if err := ix.Restore(r); err != nil {
		t.Fatalf("Restore(1): %v", err)
	}

	r.ID = 3
	if err := ix.Restore(r); err == nil {
		t.Error("expected error restoring id 3 after 1")
	}
	if ix.Count() != 1 {
		t.Errorf("Count() = %d after failed restore, want 1", ix.Count())
	}

	last, ok := ix.Last()
	if !ok || last.ID != 1 {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
}

func TestLastEmpty(t *testing.T) {
	if _, ok := allocation.NewIndex().Last(); ok {
		t.Error("expected no last record on empty index")
	}
}

func TestNewEvent(t *testing.T) {
	ix := allocation.NewIndex()
	r := ix.Append(rec(2, 1, alice, bob, 300))
	ev := allocation.NewEvent(r)
	if ev.AllocationID != 1 || ev.Payer != alice || ev.Addr != bob || ev.Sale != 2 || ev.Level != 1 {
		t.Errorf("unexpected event %+v", ev)
	}
	if !ev.Amount.Equal(types.NewAmount(300)) {
		t.Errorf("event amount = %s", ev.Amount)
	}
	if ev.ID.IsNil() {
		t.Error("expected event id")
	}
}

func BenchmarkAppend(b *testing.B) {
	ix := allocation.NewIndex()
	r := rec(0, 1, alice, bob, 25_000_000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Append(r)
	}
}

package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc"
	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/sale"
	"github.com/xraph/alloc/store/memory"
	"github.com/xraph/alloc/types"
)

func TestAdmins(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	a := common.HexToAddress("0x2")
	b := common.HexToAddress("0x1")

	for _, addr := range []common.Address{a, b} {
		if err := s.AddAdmin(ctx, &admin.Admin{Addr: addr}); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.ListAdmins(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Addr != b || list[1].Addr != a {
		t.Fatalf("unexpected admins %+v", list)
	}

	if err := s.DeleteAdmin(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteAdmin(ctx, a); !errors.Is(err, alloc.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSettingsNotFoundUntilSet(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	if _, err := s.GetTokenAddr(ctx); !errors.Is(err, alloc.ErrNotFound) {
		t.Errorf("GetTokenAddr: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetSaleMax(ctx); !errors.Is(err, alloc.ErrNotFound) {
		t.Errorf("GetSaleMax: expected ErrNotFound, got %v", err)
	}

	// The zero address is a valid binding.
	if err := s.SetTokenAddr(ctx, common.Address{}); err != nil {
		t.Fatal(err)
	}
	if got, err := s.GetTokenAddr(ctx); err != nil || got != (common.Address{}) {
		t.Errorf("GetTokenAddr = %s, %v", got.Hex(), err)
	}
	if err := s.SetSaleMax(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if got, err := s.GetSaleMax(ctx); err != nil || got != 0 {
		t.Errorf("GetSaleMax = %d, %v", got, err)
	}
}

func TestLevelsAndSales(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_ = s.SetLevelMin(ctx, 3, types.NewAmount(5000))
	_ = s.SetLevelMin(ctx, 1, types.NewAmount(300))
	_ = s.SetLevelMin(ctx, 1, types.NewAmount(25))

	levels, err := s.ListLevelMins(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 2 || levels[0].Level != 1 || !levels[0].Min.Equal(types.NewAmount(25)) {
		t.Errorf("unexpected levels %+v", levels)
	}

	sl := &sale.Sale{ID: 4, Name: "Sale"}
	_ = s.PutSale(ctx, sl)
	sl.Name = "mutated"
	sales, _ := s.ListSales(ctx)
	if len(sales) != 1 || sales[0].Name != "Sale" {
		t.Errorf("store must keep its own copy, got %+v", sales)
	}
}

func TestAllocations(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	for i := uint64(1); i <= 5; i++ {
		if err := s.AppendAllocation(ctx, &allocation.Record{ID: i, Amount: types.NewAmount(i)}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if err := s.AppendAllocation(ctx, &allocation.Record{ID: 3}); !errors.Is(err, alloc.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if err := s.AppendAllocation(ctx, &allocation.Record{ID: 9}); !errors.Is(err, alloc.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	tests := []struct {
		name string
		opts allocation.ListOpts
		ids  []uint64
	}{
		{"all", allocation.ListOpts{}, []uint64{1, 2, 3, 4, 5}},
		{"after 2", allocation.ListOpts{AfterID: 2}, []uint64{3, 4, 5}},
		{"page", allocation.ListOpts{AfterID: 1, Limit: 2}, []uint64{2, 3}},
		{"past end", allocation.ListOpts{AfterID: 10}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListAllocations(ctx, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.ids) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.ids))
			}
			for i, r := range got {
				if r.ID != tt.ids[i] {
					t.Errorf("record %d: id %d, want %d", i, r.ID, tt.ids[i])
				}
			}
		})
	}
}

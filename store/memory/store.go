// Package memory is a Store kept entirely in process memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc"
	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/level"
	"github.com/xraph/alloc/sale"
	"github.com/xraph/alloc/store"
	"github.com/xraph/alloc/types"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	admins map[common.Address]*admin.Admin
	levels map[uint64]types.Amount
	sales  map[uint64]*sale.Sale

	tokenAddr    *common.Address
	saleMax      uint64
	saleMaxIsSet bool

	allocations []allocation.Record
}

func New() *Store {
	return &Store{
		admins: make(map[common.Address]*admin.Admin),
		levels: make(map[uint64]types.Amount),
		sales:  make(map[uint64]*sale.Sale),
	}
}

// Admin Store implementation
func (s *Store) AddAdmin(_ context.Context, a *admin.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.admins[a.Addr] = &cp
	return nil
}

func (s *Store) DeleteAdmin(_ context.Context, addr common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admins[addr]; !ok {
		return alloc.ErrNotFound
	}
	delete(s.admins, addr)
	return nil
}

func (s *Store) ListAdmins(_ context.Context) ([]*admin.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*admin.Admin, 0, len(s.admins))
	for _, a := range s.admins {
		cp := *a
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Addr.Cmp(result[j].Addr) < 0
	})
	return result, nil
}

// Level Store implementation
func (s *Store) SetLevelMin(_ context.Context, lvl uint64, minAmount types.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.levels[lvl] = minAmount
	return nil
}

func (s *Store) ListLevelMins(_ context.Context) ([]*level.Threshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*level.Threshold, 0, len(s.levels))
	for lvl, m := range s.levels {
		result = append(result, &level.Threshold{Level: lvl, Min: m})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Level < result[j].Level })
	return result, nil
}

// Sale Store implementation
func (s *Store) PutSale(_ context.Context, sl *sale.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sl
	s.sales[sl.ID] = &cp
	return nil
}

func (s *Store) ListSales(_ context.Context) ([]*sale.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*sale.Sale, 0, len(s.sales))
	for _, sl := range s.sales {
		cp := *sl
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) SetSaleMax(_ context.Context, saleMax uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saleMax = saleMax
	s.saleMaxIsSet = true
	return nil
}

func (s *Store) GetSaleMax(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.saleMaxIsSet {
		return 0, alloc.ErrNotFound
	}
	return s.saleMax, nil
}

// Token binding
func (s *Store) SetTokenAddr(_ context.Context, addr common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokenAddr = &addr
	return nil
}

func (s *Store) GetTokenAddr(_ context.Context) (common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tokenAddr == nil {
		return common.Address{}, alloc.ErrNotFound
	}
	return *s.tokenAddr, nil
}

// Allocation Store implementation
func (s *Store) AppendAllocation(_ context.Context, r *allocation.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if want := uint64(len(s.allocations)) + 1; r.ID != want {
		if r.ID < want {
			return alloc.ErrAlreadyExists
		}
		return alloc.ErrInvalidInput
	}
	s.allocations = append(s.allocations, *r)
	return nil
}

func (s *Store) ListAllocations(_ context.Context, opts allocation.ListOpts) ([]*allocation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := opts.AfterID
	if start > uint64(len(s.allocations)) {
		start = uint64(len(s.allocations))
	}
	end := uint64(len(s.allocations))
	if opts.Limit > 0 && start+uint64(opts.Limit) < end {
		end = start + uint64(opts.Limit)
	}

	result := make([]*allocation.Record, 0, end-start)
	for i := start; i < end; i++ {
		r := s.allocations[i]
		result = append(result, &r)
	}
	return result, nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error { return nil }
func (s *Store) Ping(_ context.Context) error    { return nil }
func (s *Store) Close() error                    { return nil }

package alloc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/block"
	"github.com/xraph/alloc/id"
	"github.com/xraph/alloc/level"
	"github.com/xraph/alloc/plugin"
	"github.com/xraph/alloc/sale"
	"github.com/xraph/alloc/store"
	"github.com/xraph/alloc/token"
	"github.com/xraph/alloc/types"
)

// DefaultTokenAddr is the token a new ledger is bound to.
var DefaultTokenAddr = common.HexToAddress("0x753f470F3a283A8e99e5dacf9dD0eDf7F64a9F80")

// loadPageSize bounds a single ListAllocations call during Start.
const loadPageSize = 1000

// Ledger is the allocation engine.
//
// A single RWMutex serializes every mutating operation for its whole
// duration, external token calls included. Read accessors share the read
// lock and always observe a state between two complete operations.
type Ledger struct {
	mu sync.RWMutex

	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	resolver token.Resolver
	blocks   block.Source

	deployer common.Address
	address  common.Address

	admins    map[common.Address]struct{}
	levelMins map[uint64]types.Amount
	tokenAddr common.Address
	sales     map[uint64]*sale.Sale
	saleMax   uint64
	index     *allocation.Index
	lastStamp block.Stamp
	journaled uint64
}

// New creates a ledger deployed by deployer. The deployer is the first
// administrator. State lives in memory until Start loads or seeds s.
func New(s store.Store, deployer common.Address, opts ...Option) *Ledger {
	l := &Ledger{
		store:     s,
		plugins:   plugin.NewRegistry(),
		logger:    slog.Default(),
		resolver:  token.NewRegistry(),
		blocks:    block.NewSequencer(),
		deployer:  deployer,
		address:   crypto.CreateAddress(deployer, 0),
		admins:    map[common.Address]struct{}{deployer: {}},
		levelMins: make(map[uint64]types.Amount),
		tokenAddr: DefaultTokenAddr,
		sales:     make(map[uint64]*sale.Sale),
		index:     allocation.NewIndex(),
	}
	for _, t := range level.Defaults() {
		l.levelMins[t.Level] = t.Min
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithHookTimeout bounds each plugin hook call. Non-positive values keep
// plugin.DefaultTimeout.
func WithHookTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.plugins.WithTimeout(d)
		}
	}
}

// WithTokenResolver sets how the bound token address is turned into a token.
func WithTokenResolver(r token.Resolver) Option {
	return func(l *Ledger) {
		l.resolver = r
	}
}

// WithBlockSource sets the source of allocation stamps.
func WithBlockSource(src block.Source) Option {
	return func(l *Ledger) {
		l.blocks = src
	}
}

// WithAddress overrides the ledger's own address, the spender that payers
// approve. It defaults to the contract address the deployer would create
// at nonce 0.
func WithAddress(addr common.Address) Option {
	return func(l *Ledger) {
		l.address = addr
	}
}

// WithTokenAddr overrides the initially bound token.
func WithTokenAddr(addr common.Address) Option {
	return func(l *Ledger) {
		l.tokenAddr = addr
	}
}

// WithLevelMins replaces the default level thresholds.
func WithLevelMins(mins map[uint64]types.Amount) Option {
	return func(l *Ledger) {
		l.levelMins = make(map[uint64]types.Amount, len(mins))
		for lvl, m := range mins {
			l.levelMins[lvl] = m
		}
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Start migrates the store and loads the ledger state from it. An empty
// store is seeded with the current in-memory state instead.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreNotReady, err)
	}
	if err := l.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	l.mu.Lock()
	seeded, err := l.load(ctx)
	l.mu.Unlock()
	if err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("alloc ledger started",
		"address", l.address.Hex(),
		"token", l.TokenAddr().Hex(),
		"allocations", l.AllocCount(),
		"seeded", seeded,
	)

	return nil
}

// Stop shuts down the Ledger. Allocations the store has not acknowledged
// are written one last time before the store is closed.
func (l *Ledger) Stop() error {
	ctx := context.Background()

	l.mu.Lock()
	flushErr := l.flushJournal(ctx)
	pending := l.index.Count() - l.journaled
	l.mu.Unlock()
	if flushErr != nil {
		l.logger.Error("allocation journal incomplete at shutdown",
			"pending", pending,
			"error", flushErr,
		)
		l.plugins.EmitJournalFailed(ctx, "allocate", flushErr)
		flushErr = fmt.Errorf("alloc: %d allocations not journaled: %w", pending, flushErr)
	}

	l.plugins.EmitShutdown(ctx)

	l.logger.Info("alloc ledger stopped")
	return errors.Join(flushErr, l.store.Close())
}

// load replaces the in-memory state with the store's, or seeds a fresh
// store. The token binding is written last, so a store with a token address
// is a fully seeded one.
func (l *Ledger) load(ctx context.Context) (bool, error) {
	tokenAddr, err := l.store.GetTokenAddr(ctx)
	if errors.Is(err, ErrNotFound) {
		return true, l.seed(ctx)
	}
	if err != nil {
		return false, fmt.Errorf("alloc: load token: %w", err)
	}

	admins, err := l.store.ListAdmins(ctx)
	if err != nil {
		return false, fmt.Errorf("alloc: load admins: %w", err)
	}
	levels, err := l.store.ListLevelMins(ctx)
	if err != nil {
		return false, fmt.Errorf("alloc: load levels: %w", err)
	}
	sales, err := l.store.ListSales(ctx)
	if err != nil {
		return false, fmt.Errorf("alloc: load sales: %w", err)
	}
	saleMax, err := l.store.GetSaleMax(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("alloc: load sale max: %w", err)
	}

	index := allocation.NewIndex()
	for {
		page, err := l.store.ListAllocations(ctx, allocation.ListOpts{AfterID: index.Count(), Limit: loadPageSize})
		if err != nil {
			return false, fmt.Errorf("alloc: load allocations: %w", err)
		}
		for _, r := range page {
			if err := index.Restore(*r); err != nil {
				return false, fmt.Errorf("alloc: load allocations: %w", err)
			}
		}
		if len(page) < loadPageSize {
			break
		}
	}

	l.tokenAddr = tokenAddr
	l.saleMax = saleMax
	l.admins = make(map[common.Address]struct{}, len(admins))
	for _, a := range admins {
		l.admins[a.Addr] = struct{}{}
	}
	l.levelMins = make(map[uint64]types.Amount, len(levels))
	for _, t := range levels {
		l.levelMins[t.Level] = t.Min
	}
	l.sales = make(map[uint64]*sale.Sale, len(sales))
	for _, s := range sales {
		l.sales[s.ID] = s
	}
	l.index = index
	l.journaled = index.Count()
	l.lastStamp = block.Stamp{}
	if last, ok := index.Last(); ok {
		l.lastStamp = block.Stamp{Height: last.BlockHeight, Time: last.BlockTime}
	}
	return false, nil
}

func (l *Ledger) seed(ctx context.Context) error {
	now := time.Now().UTC()
	for addr := range l.admins {
		a := &admin.Admin{Addr: addr, AddedBy: l.deployer, CreatedAt: now}
		if err := l.store.AddAdmin(ctx, a); err != nil {
			return fmt.Errorf("alloc: seed admins: %w", err)
		}
	}
	for lvl, m := range l.levelMins {
		if err := l.store.SetLevelMin(ctx, lvl, m); err != nil {
			return fmt.Errorf("alloc: seed levels: %w", err)
		}
	}
	for _, s := range l.sales {
		if err := l.store.PutSale(ctx, s); err != nil {
			return fmt.Errorf("alloc: seed sales: %w", err)
		}
	}
	if err := l.store.SetSaleMax(ctx, l.saleMax); err != nil {
		return fmt.Errorf("alloc: seed sale max: %w", err)
	}
	if err := l.flushJournal(ctx); err != nil {
		return fmt.Errorf("alloc: seed allocations: %w", err)
	}
	if err := l.store.SetTokenAddr(ctx, l.tokenAddr); err != nil {
		return fmt.Errorf("alloc: seed token: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Access control
// ──────────────────────────────────────────────────

// requireAdmin returns the caller if it is an administrator. Callers hold l.mu.
func (l *Ledger) requireAdmin(ctx context.Context) (common.Address, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if _, ok := l.admins[caller]; !ok {
		return caller, ErrAccessDenied
	}
	return caller, nil
}

// IsAdmin reports whether addr is an administrator.
func (l *Ledger) IsAdmin(addr common.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.admins[addr]
	return ok
}

// Admins returns all administrators in address order.
func (l *Ledger) Admins() []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]common.Address, 0, len(l.admins))
	for a := range l.admins {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Cmp(result[j]) < 0 })
	return result
}

// AdminAdd makes addr an administrator.
func (l *Ledger) AdminAdd(ctx context.Context, addr common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	caller, err := l.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if _, ok := l.admins[addr]; ok {
		return ErrAlreadyAdmin
	}

	a := &admin.Admin{Addr: addr, AddedBy: caller, CreatedAt: time.Now().UTC()}
	if err := l.store.AddAdmin(ctx, a); err != nil {
		return fmt.Errorf("alloc: persist admin: %w", err)
	}
	l.admins[addr] = struct{}{}

	l.logger.Info("admin added", "addr", addr.Hex(), "by", caller.Hex())
	l.plugins.EmitAdminModified(ctx, &admin.Change{
		ID:   id.NewAdminChangeID(),
		Txt:  admin.TxtAdded,
		Addr: addr,
		By:   caller,
		At:   a.CreatedAt,
	})
	return nil
}

// AdminDel revokes addr. An administrator can never revoke itself.
func (l *Ledger) AdminDel(ctx context.Context, addr common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	caller, err := l.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if caller == addr {
		return ErrSelfRemoval
	}
	if _, ok := l.admins[addr]; !ok {
		return ErrNotAdmin
	}

	if err := l.store.DeleteAdmin(ctx, addr); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("alloc: persist admin removal: %w", err)
	}
	delete(l.admins, addr)

	l.logger.Info("admin deleted", "addr", addr.Hex(), "by", caller.Hex())
	l.plugins.EmitAdminModified(ctx, &admin.Change{
		ID:   id.NewAdminChangeID(),
		Txt:  admin.TxtDeleted,
		Addr: addr,
		By:   caller,
		At:   time.Now().UTC(),
	})
	return nil
}

// ──────────────────────────────────────────────────
// Level thresholds
// ──────────────────────────────────────────────────

// LevelMinChange overwrites the minimum allocation amount for level.
func (l *Ledger) LevelMinChange(ctx context.Context, lvl uint64, minAmount types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	caller, err := l.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if err := l.store.SetLevelMin(ctx, lvl, minAmount); err != nil {
		return fmt.Errorf("alloc: persist level min: %w", err)
	}
	l.levelMins[lvl] = minAmount

	l.logger.Info("level min changed", "level", lvl, "min", minAmount.String(), "by", caller.Hex())
	l.plugins.EmitLevelMinChanged(ctx, lvl, minAmount)
	return nil
}

// LevelMin returns the minimum allocation amount for level; zero when unset.
func (l *Ledger) LevelMin(lvl uint64) types.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.levelMins[lvl]
}

// ──────────────────────────────────────────────────
// Token binding
// ──────────────────────────────────────────────────

// TokenAddrSet rebinds the payment token. Any address is accepted.
func (l *Ledger) TokenAddrSet(ctx context.Context, addr common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	caller, err := l.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if err := l.store.SetTokenAddr(ctx, addr); err != nil {
		return fmt.Errorf("alloc: persist token: %w", err)
	}
	old := l.tokenAddr
	l.tokenAddr = addr

	l.logger.Info("token bound", "old", old.Hex(), "new", addr.Hex(), "by", caller.Hex())
	l.plugins.EmitTokenBound(ctx, old, addr)
	return nil
}

// TokenAddr returns the bound token address.
func (l *Ledger) TokenAddr() common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tokenAddr
}

// Address returns the ledger's own address, the spender payers approve.
func (l *Ledger) Address() common.Address { return l.address }

// Deployer returns the principal the ledger was created by.
func (l *Ledger) Deployer() common.Address { return l.deployer }

// TokenAllowance returns how much addr has approved the ledger to spend.
// It is zero when the bound token cannot be reached.
func (l *Ledger) TokenAllowance(ctx context.Context, addr common.Address) types.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tok, err := l.resolver.Resolve(ctx, l.tokenAddr)
	if err != nil {
		l.logger.Debug("token allowance: resolve failed", "token", l.tokenAddr.Hex(), "error", err)
		return types.Amount{}
	}
	allowance, err := tok.Allowance(ctx, addr, l.address)
	if err != nil {
		l.logger.Debug("token allowance: query failed", "token", l.tokenAddr.Hex(), "error", err)
		return types.Amount{}
	}
	return allowance
}

// TokenInfo reads the bound token's metadata.
func (l *Ledger) TokenInfo(ctx context.Context) (token.Info, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tok, err := l.resolver.Resolve(ctx, l.tokenAddr)
	if err != nil {
		return token.Info{}, fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}
	info, err := token.ReadInfo(ctx, l.tokenAddr, tok)
	if err != nil {
		return token.Info{}, fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}
	return info, nil
}

// ──────────────────────────────────────────────────
// Sales
// ──────────────────────────────────────────────────

// SaleModify creates or overwrites sale saleID, keeping its disabled flag.
// SaleMax only ever grows.
func (l *Ledger) SaleModify(ctx context.Context, saleID uint64, name, description string, recipient common.Address, reserved types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	caller, err := l.requireAdmin(ctx)
	if err != nil {
		return err
	}

	s := &sale.Sale{
		ID:          saleID,
		Name:        name,
		Description: description,
		Recipient:   recipient,
		Reserved:    reserved,
	}
	if prev, ok := l.sales[saleID]; ok {
		s.Disabled = prev.Disabled
	}
	saleMax := max(l.saleMax, saleID)

	if err := l.store.PutSale(ctx, s); err != nil {
		return fmt.Errorf("alloc: persist sale: %w", err)
	}
	if saleMax != l.saleMax {
		if err := l.store.SetSaleMax(ctx, saleMax); err != nil {
			return fmt.Errorf("alloc: persist sale max: %w", err)
		}
	}
	l.sales[saleID] = s
	l.saleMax = saleMax

	l.logger.Info("sale modified", "sale", saleID, "recipient", recipient.Hex(), "by", caller.Hex())
	cp := *s
	l.plugins.EmitSaleModified(ctx, &cp)
	return nil
}

// SaleDisable sets only the disabled flag of saleID, creating an empty sale
// if none exists. SaleMax is left alone.
func (l *Ledger) SaleDisable(ctx context.Context, saleID uint64, disabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	caller, err := l.requireAdmin(ctx)
	if err != nil {
		return err
	}

	s := &sale.Sale{ID: saleID}
	if prev, ok := l.sales[saleID]; ok {
		cp := *prev
		s = &cp
	}
	s.Disabled = disabled

	if err := l.store.PutSale(ctx, s); err != nil {
		return fmt.Errorf("alloc: persist sale: %w", err)
	}
	l.sales[saleID] = s

	l.logger.Info("sale disabled flag set", "sale", saleID, "disabled", disabled, "by", caller.Hex())
	l.plugins.EmitSaleDisabled(ctx, saleID, disabled)
	return nil
}

// Sale returns sale saleID, or an empty enabled sale with that id.
func (l *Ledger) Sale(saleID uint64) sale.Sale {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if s, ok := l.sales[saleID]; ok {
		return *s
	}
	return sale.Sale{ID: saleID}
}

// SaleMax returns the highest id ever passed to SaleModify.
func (l *Ledger) SaleMax() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.saleMax
}

// SaleDisabled reports whether saleID is disabled.
func (l *Ledger) SaleDisabled(saleID uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.sales[saleID]
	return ok && s.Disabled
}

package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/sale"
	"github.com/xraph/alloc/types"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onAdminModified      []OnAdminModified
	onTokenBound         []OnTokenBound
	onLevelMinChanged    []OnLevelMinChanged
	onSaleModified       []OnSaleModified
	onSaleDisabled       []OnSaleDisabled
	onAllocated          []OnAllocated
	onAllocationRejected []OnAllocationRejected
	onJournalFailed      []OnJournalFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnAdminModified); ok {
		r.onAdminModified = append(r.onAdminModified, v)
	}
	if v, ok := p.(OnTokenBound); ok {
		r.onTokenBound = append(r.onTokenBound, v)
	}
	if v, ok := p.(OnLevelMinChanged); ok {
		r.onLevelMinChanged = append(r.onLevelMinChanged, v)
	}
	if v, ok := p.(OnSaleModified); ok {
		r.onSaleModified = append(r.onSaleModified, v)
	}
	if v, ok := p.(OnSaleDisabled); ok {
		r.onSaleDisabled = append(r.onSaleDisabled, v)
	}
	if v, ok := p.(OnAllocated); ok {
		r.onAllocated = append(r.onAllocated, v)
	}
	if v, ok := p.(OnAllocationRejected); ok {
		r.onAllocationRejected = append(r.onAllocationRejected, v)
	}
	if v, ok := p.(OnJournalFailed); ok {
		r.onJournalFailed = append(r.onJournalFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	typ  reflect.Type
	name string
}{
	{reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit"},
	{reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown"},
	{reflect.TypeOf((*OnAdminModified)(nil)).Elem(), "OnAdminModified"},
	{reflect.TypeOf((*OnTokenBound)(nil)).Elem(), "OnTokenBound"},
	{reflect.TypeOf((*OnLevelMinChanged)(nil)).Elem(), "OnLevelMinChanged"},
	{reflect.TypeOf((*OnSaleModified)(nil)).Elem(), "OnSaleModified"},
	{reflect.TypeOf((*OnSaleDisabled)(nil)).Elem(), "OnSaleDisabled"},
	{reflect.TypeOf((*OnAllocated)(nil)).Elem(), "OnAllocated"},
	{reflect.TypeOf((*OnAllocationRejected)(nil)).Elem(), "OnAllocationRejected"},
	{reflect.TypeOf((*OnJournalFailed)(nil)).Elem(), "OnJournalFailed"},
}

// implementedInterfaces returns the hook interfaces implemented by p.
func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit calls fn for every plugin in hooks, logging failures.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, hooks []T, fn func(T) error) {
	for _, p := range hooks {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, l interface{}) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()

	emit(ctx, r, "OnInit", hooks, func(p OnInit) error {
		return p.OnInit(ctx, l)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()

	emit(ctx, r, "OnShutdown", hooks, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitAdminModified emits an administrator change.
func (r *Registry) EmitAdminModified(ctx context.Context, change *admin.Change) {
	r.mu.RLock()
	hooks := r.onAdminModified
	r.mu.RUnlock()

	emit(ctx, r, "OnAdminModified", hooks, func(p OnAdminModified) error {
		return p.OnAdminModified(ctx, change)
	})
}

// EmitTokenBound emits a token rebinding.
func (r *Registry) EmitTokenBound(ctx context.Context, oldAddr, newAddr common.Address) {
	r.mu.RLock()
	hooks := r.onTokenBound
	r.mu.RUnlock()

	emit(ctx, r, "OnTokenBound", hooks, func(p OnTokenBound) error {
		return p.OnTokenBound(ctx, oldAddr, newAddr)
	})
}

// EmitLevelMinChanged emits a threshold change.
func (r *Registry) EmitLevelMinChanged(ctx context.Context, level uint64, minAmount types.Amount) {
	r.mu.RLock()
	hooks := r.onLevelMinChanged
	r.mu.RUnlock()

	emit(ctx, r, "OnLevelMinChanged", hooks, func(p OnLevelMinChanged) error {
		return p.OnLevelMinChanged(ctx, level, minAmount)
	})
}

// EmitSaleModified emits a sale upsert.
func (r *Registry) EmitSaleModified(ctx context.Context, s *sale.Sale) {
	r.mu.RLock()
	hooks := r.onSaleModified
	r.mu.RUnlock()

	emit(ctx, r, "OnSaleModified", hooks, func(p OnSaleModified) error {
		return p.OnSaleModified(ctx, s)
	})
}

// EmitSaleDisabled emits a disabled flag change.
func (r *Registry) EmitSaleDisabled(ctx context.Context, saleID uint64, disabled bool) {
	r.mu.RLock()
	hooks := r.onSaleDisabled
	r.mu.RUnlock()

	emit(ctx, r, "OnSaleDisabled", hooks, func(p OnSaleDisabled) error {
		return p.OnSaleDisabled(ctx, saleID, disabled)
	})
}

// EmitAllocated emits a committed allocation.
func (r *Registry) EmitAllocated(ctx context.Context, ev *allocation.Event) {
	r.mu.RLock()
	hooks := r.onAllocated
	r.mu.RUnlock()

	emit(ctx, r, "OnAllocated", hooks, func(p OnAllocated) error {
		return p.OnAllocated(ctx, ev)
	})
}

// EmitAllocationRejected emits a rejected allocation attempt.
func (r *Registry) EmitAllocationRejected(ctx context.Context, saleID, level uint64, payer common.Address, reason error) {
	r.mu.RLock()
	hooks := r.onAllocationRejected
	r.mu.RUnlock()

	emit(ctx, r, "OnAllocationRejected", hooks, func(p OnAllocationRejected) error {
		return p.OnAllocationRejected(ctx, saleID, level, payer, reason)
	})
}

// EmitJournalFailed emits a persistence failure.
func (r *Registry) EmitJournalFailed(ctx context.Context, op string, err error) {
	r.mu.RLock()
	hooks := r.onJournalFailed
	r.mu.RUnlock()

	emit(ctx, r, "OnJournalFailed", hooks, func(p OnJournalFailed) error {
		return p.OnJournalFailed(ctx, op, err)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the allocation pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Package eventbus republishes ledger hooks as topics on an
// asaskevich/EventBus bus, so that several consumers can follow allocations
// and configuration changes without registering their own plugins.
//
// Handlers subscribed with Subscribe run synchronously inside the ledger's
// hook, and must not call back into the Ledger. Use SubscribeAsync for
// handlers that do slow work.
package eventbus

import (
	"context"

	evbus "github.com/asaskevich/EventBus"
	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/plugin"
	"github.com/xraph/alloc/sale"
	"github.com/xraph/alloc/types"
)

// Topics published by the plugin. The handler signature for each topic is
// listed next to it.
const (
	TopicAdminModify      = "alloc:admin_modify"      // func(*admin.Change)
	TopicTokenBound       = "alloc:token_bound"       // func(old, new common.Address)
	TopicLevelMinChanged  = "alloc:level_min_changed" // func(level uint64, min types.Amount)
	TopicSaleModified     = "alloc:sale_modified"     // func(*sale.Sale)
	TopicSaleDisabled     = "alloc:sale_disabled"     // func(saleID uint64, disabled bool)
	TopicAllocate         = "alloc:allocate"          // func(*allocation.Event)
	TopicAllocationReject = "alloc:allocation_reject" // func(saleID, level uint64, payer common.Address, reason error)
	TopicJournalFailed    = "alloc:journal_failed"    // func(op string, err error)
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Plugin)(nil)
	_ plugin.OnShutdown           = (*Plugin)(nil)
	_ plugin.OnAdminModified      = (*Plugin)(nil)
	_ plugin.OnTokenBound         = (*Plugin)(nil)
	_ plugin.OnLevelMinChanged    = (*Plugin)(nil)
	_ plugin.OnSaleModified       = (*Plugin)(nil)
	_ plugin.OnSaleDisabled       = (*Plugin)(nil)
	_ plugin.OnAllocated          = (*Plugin)(nil)
	_ plugin.OnAllocationRejected = (*Plugin)(nil)
	_ plugin.OnJournalFailed      = (*Plugin)(nil)
)

// Plugin bridges ledger hooks to an event bus.
type Plugin struct {
	bus evbus.Bus
}

// New creates a Plugin with its own bus.
func New() *Plugin {
	return &Plugin{bus: evbus.New()}
}

// NewWithBus publishes onto an existing bus.
func NewWithBus(bus evbus.Bus) *Plugin {
	return &Plugin{bus: bus}
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "eventbus" }

// Bus returns the underlying bus.
func (p *Plugin) Bus() evbus.Bus { return p.bus }

// Subscribe registers a synchronous handler for topic.
func (p *Plugin) Subscribe(topic string, fn interface{}) error {
	return p.bus.Subscribe(topic, fn)
}

// SubscribeAsync registers a handler run on its own goroutine. With
// transactional set, calls for the same handler are serialized.
func (p *Plugin) SubscribeAsync(topic string, fn interface{}, transactional bool) error {
	return p.bus.SubscribeAsync(topic, fn, transactional)
}

// Unsubscribe removes a handler.
func (p *Plugin) Unsubscribe(topic string, fn interface{}) error {
	return p.bus.Unsubscribe(topic, fn)
}

// WaitAsync blocks until every async handler has returned.
func (p *Plugin) WaitAsync() { p.bus.WaitAsync() }

// OnShutdown drains async handlers.
func (p *Plugin) OnShutdown(context.Context) error {
	p.bus.WaitAsync()
	return nil
}

// OnAdminModified implements plugin.OnAdminModified.
func (p *Plugin) OnAdminModified(_ context.Context, change *admin.Change) error {
	p.publish(TopicAdminModify, change)
	return nil
}

// OnTokenBound implements plugin.OnTokenBound.
func (p *Plugin) OnTokenBound(_ context.Context, oldAddr, newAddr common.Address) error {
	p.publish(TopicTokenBound, oldAddr, newAddr)
	return nil
}

// OnLevelMinChanged implements plugin.OnLevelMinChanged.
func (p *Plugin) OnLevelMinChanged(_ context.Context, level uint64, minAmount types.Amount) error {
	p.publish(TopicLevelMinChanged, level, minAmount)
	return nil
}

// OnSaleModified implements plugin.OnSaleModified.
func (p *Plugin) OnSaleModified(_ context.Context, s *sale.Sale) error {
	p.publish(TopicSaleModified, s)
	return nil
}

// OnSaleDisabled implements plugin.OnSaleDisabled.
func (p *Plugin) OnSaleDisabled(_ context.Context, saleID uint64, disabled bool) error {
	p.publish(TopicSaleDisabled, saleID, disabled)
	return nil
}

// OnAllocated implements plugin.OnAllocated.
func (p *Plugin) OnAllocated(_ context.Context, ev *allocation.Event) error {
	p.publish(TopicAllocate, ev)
	return nil
}

// OnAllocationRejected implements plugin.OnAllocationRejected.
func (p *Plugin) OnAllocationRejected(_ context.Context, saleID, level uint64, payer common.Address, reason error) error {
	p.publish(TopicAllocationReject, saleID, level, payer, reason)
	return nil
}

// OnJournalFailed implements plugin.OnJournalFailed.
func (p *Plugin) OnJournalFailed(_ context.Context, op string, err error) error {
	p.publish(TopicJournalFailed, op, err)
	return nil
}

// publish skips topics nobody listens to; evbus reflects over every argument.
func (p *Plugin) publish(topic string, args ...interface{}) {
	if !p.bus.HasCallback(topic) {
		return
	}
	p.bus.Publish(topic, args...)
}

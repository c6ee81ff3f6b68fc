// Package observability provides a metrics extension for the allocation
// ledger that records hook counts through a MetricFactory.
package observability

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc"
	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/plugin"
	"github.com/xraph/alloc/sale"
	"github.com/xraph/alloc/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnAdminModified      = (*MetricsExtension)(nil)
	_ plugin.OnTokenBound         = (*MetricsExtension)(nil)
	_ plugin.OnLevelMinChanged    = (*MetricsExtension)(nil)
	_ plugin.OnSaleModified       = (*MetricsExtension)(nil)
	_ plugin.OnSaleDisabled       = (*MetricsExtension)(nil)
	_ plugin.OnAllocated          = (*MetricsExtension)(nil)
	_ plugin.OnAllocationRejected = (*MetricsExtension)(nil)
	_ plugin.OnJournalFailed      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger activity.
// Register it as a Ledger plugin to track allocations and configuration.
type MetricsExtension struct {
	factory MetricFactory

	// Configuration metrics
	AdminAdded      Counter
	AdminDeleted    Counter
	TokenBound      Counter
	LevelMinChanged Counter
	SaleModified    Counter
	SaleDisabled    Counter

	// Allocation metrics
	Allocated        Counter
	AllocationAmount Histogram

	// Rejection metrics, one per reason
	RejectedSaleDisabled     Counter
	RejectedBalance          Counter
	RejectedAllowance        Counter
	RejectedThreshold        Counter
	RejectedTransfer         Counter
	RejectedTokenUnavailable Counter
	RejectedOther            Counter

	// Error metrics
	JournalErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		AdminAdded:      factory.Counter("alloc.admin.added"),
		AdminDeleted:    factory.Counter("alloc.admin.deleted"),
		TokenBound:      factory.Counter("alloc.token.bound"),
		LevelMinChanged: factory.Counter("alloc.level.min_changed"),
		SaleModified:    factory.Counter("alloc.sale.modified"),
		SaleDisabled:    factory.Counter("alloc.sale.disabled"),

		Allocated:        factory.Counter("alloc.allocation.committed"),
		AllocationAmount: factory.Histogram("alloc.allocation.amount"),

		RejectedSaleDisabled:     factory.Counter("alloc.rejected.sale_disabled"),
		RejectedBalance:          factory.Counter("alloc.rejected.balance"),
		RejectedAllowance:        factory.Counter("alloc.rejected.allowance"),
		RejectedThreshold:        factory.Counter("alloc.rejected.threshold"),
		RejectedTransfer:         factory.Counter("alloc.rejected.transfer"),
		RejectedTokenUnavailable: factory.Counter("alloc.rejected.token_unavailable"),
		RejectedOther:            factory.Counter("alloc.rejected.other"),

		JournalErrors: factory.Counter("alloc.journal.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit. Factories that can register collectors
// get a state collector over the started ledger.
func (m *MetricsExtension) OnInit(_ context.Context, l interface{}) error {
	reg, ok := m.factory.(CollectorRegisterer)
	if !ok {
		return nil
	}
	src, ok := l.(StateSource)
	if !ok {
		return nil
	}
	return reg.RegisterCollector(NewStateCollector(src))
}

// ──────────────────────────────────────────────────
// Configuration hooks
// ──────────────────────────────────────────────────

// OnAdminModified implements plugin.OnAdminModified.
func (m *MetricsExtension) OnAdminModified(_ context.Context, change *admin.Change) error {
	if change.Added() {
		m.AdminAdded.Inc()
	} else {
		m.AdminDeleted.Inc()
	}
	return nil
}

// OnTokenBound implements plugin.OnTokenBound.
func (m *MetricsExtension) OnTokenBound(_ context.Context, _, _ common.Address) error {
	m.TokenBound.Inc()
	return nil
}

// OnLevelMinChanged implements plugin.OnLevelMinChanged.
func (m *MetricsExtension) OnLevelMinChanged(_ context.Context, _ uint64, _ types.Amount) error {
	m.LevelMinChanged.Inc()
	return nil
}

// OnSaleModified implements plugin.OnSaleModified.
func (m *MetricsExtension) OnSaleModified(_ context.Context, _ *sale.Sale) error {
	m.SaleModified.Inc()
	return nil
}

// OnSaleDisabled implements plugin.OnSaleDisabled.
func (m *MetricsExtension) OnSaleDisabled(_ context.Context, _ uint64, disabled bool) error {
	if disabled {
		m.SaleDisabled.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Allocation hooks
// ──────────────────────────────────────────────────

// OnAllocated implements plugin.OnAllocated.
func (m *MetricsExtension) OnAllocated(_ context.Context, ev *allocation.Event) error {
	m.Allocated.Inc()
	f, _ := new(big.Float).SetInt(ev.Amount.Big()).Float64()
	m.AllocationAmount.Observe(f)
	return nil
}

// OnAllocationRejected implements plugin.OnAllocationRejected.
func (m *MetricsExtension) OnAllocationRejected(_ context.Context, _, _ uint64, _ common.Address, reason error) error {
	switch {
	case errors.Is(reason, alloc.ErrSaleDisabled):
		m.RejectedSaleDisabled.Inc()
	case errors.Is(reason, alloc.ErrInsufficientBalance):
		m.RejectedBalance.Inc()
	case errors.Is(reason, alloc.ErrInsufficientAllowance):
		m.RejectedAllowance.Inc()
	case errors.Is(reason, alloc.ErrBelowThreshold):
		m.RejectedThreshold.Inc()
	case errors.Is(reason, alloc.ErrTransferFailed):
		m.RejectedTransfer.Inc()
	case errors.Is(reason, alloc.ErrTokenUnavailable):
		m.RejectedTokenUnavailable.Inc()
	default:
		m.RejectedOther.Inc()
	}
	return nil
}

// OnJournalFailed implements plugin.OnJournalFailed.
func (m *MetricsExtension) OnJournalFailed(_ context.Context, _ string, _ error) error {
	m.JournalErrors.Inc()
	return nil
}

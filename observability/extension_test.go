package observability_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/alloc"
	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/observability"
	"github.com/xraph/alloc/store/memory"
	"github.com/xraph/alloc/types"
)

var deployer = common.HexToAddress("0x00000000000000000000000000000000000000d0")

// gather returns every sample value by metric name. Histograms report
// their sample count.
func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	out := make(map[string]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[mf.GetName()] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[mf.GetName()] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestRejectionReasons(t *testing.T) {
	tests := []struct {
		reason error
		metric string
	}{
		{alloc.ErrSaleDisabled, "alloc_rejected_sale_disabled"},
		{alloc.ErrInsufficientBalance, "alloc_rejected_balance"},
		{alloc.ErrInsufficientAllowance, "alloc_rejected_allowance"},
		{alloc.ErrBelowThreshold, "alloc_rejected_threshold"},
		{fmt.Errorf("%w: %w", alloc.ErrTransferFailed, errors.New("revert")), "alloc_rejected_transfer"},
		{fmt.Errorf("%w: down", alloc.ErrTokenUnavailable), "alloc_rejected_token_unavailable"},
		{errors.New("other"), "alloc_rejected_other"},
	}
	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			m := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))
			if err := m.OnAllocationRejected(context.Background(), 1, 1, deployer, tt.reason); err != nil {
				t.Fatal(err)
			}
			if got := gather(t, reg)[tt.metric]; got != 1 {
				t.Errorf("%s = %v, want 1", tt.metric, got)
			}
		})
	}
}

func TestHookCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))
	ctx := context.Background()

	_ = m.OnAdminModified(ctx, &admin.Change{Txt: admin.TxtAdded})
	_ = m.OnAdminModified(ctx, &admin.Change{Txt: admin.TxtAdded})
	_ = m.OnAdminModified(ctx, &admin.Change{Txt: admin.TxtDeleted})
	_ = m.OnSaleDisabled(ctx, 1, true)
	_ = m.OnSaleDisabled(ctx, 1, false)
	_ = m.OnAllocated(ctx, &allocation.Event{Amount: types.Units(25, 6)})
	_ = m.OnJournalFailed(ctx, "allocate", errors.New("disk full"))

	got := gather(t, reg)
	want := map[string]float64{
		"alloc_admin_added":          2,
		"alloc_admin_deleted":        1,
		"alloc_sale_disabled":        1,
		"alloc_allocation_committed": 1,
		"alloc_allocation_amount":    1,
		"alloc_journal_errors":       1,
	}
	for name, w := range want {
		if got[name] != w {
			t.Errorf("%s = %v, want %v", name, got[name], w)
		}
	}
}

func TestFactoryReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := observability.NewPrometheusFactory(reg)

	a := f.Counter("alloc.test.total")
	b := f.Counter("alloc.test.total")
	a.Inc()
	b.Inc()

	if got := gather(t, reg)["alloc_test_total"]; got != 2 {
		t.Errorf("alloc_test_total = %v, want 2", got)
	}

	// A second extension on the same registry must not panic.
	observability.NewMetricsExtension(f)
	observability.NewMetricsExtension(f)
}

func TestStateCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))

	l := alloc.New(memory.New(), deployer,
		alloc.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		alloc.WithPlugin(m),
	)
	ctx := context.Background()
	if err := l.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.SaleModify(alloc.WithCaller(ctx, deployer), 9, "Seed", "", deployer, types.Amount{}); err != nil {
		t.Fatal(err)
	}

	got := gather(t, reg)
	if got["alloc_sale_max"] != 9 || got["alloc_admins"] != 1 || got["alloc_allocations"] != 0 {
		t.Errorf("state = %v", got)
	}
	if got["alloc_sale_modified"] != 1 {
		t.Errorf("alloc_sale_modified = %v", got["alloc_sale_modified"])
	}

	// A restarted ledger replaces the collector instead of failing.
	if err := l.Start(ctx); err != nil {
		t.Fatal(err)
	}
}

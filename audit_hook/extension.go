// Package audithook bridges ledger hooks to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc"
	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/plugin"
	"github.com/xraph/alloc/sale"
	"github.com/xraph/alloc/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnAdminModified      = (*Extension)(nil)
	_ plugin.OnTokenBound         = (*Extension)(nil)
	_ plugin.OnLevelMinChanged    = (*Extension)(nil)
	_ plugin.OnSaleModified       = (*Extension)(nil)
	_ plugin.OnSaleDisabled       = (*Extension)(nil)
	_ plugin.OnAllocated          = (*Extension)(nil)
	_ plugin.OnAllocationRejected = (*Extension)(nil)
	_ plugin.OnJournalFailed      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger hooks to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Configuration hooks
// ──────────────────────────────────────────────────

// OnAdminModified implements plugin.OnAdminModified.
func (e *Extension) OnAdminModified(ctx context.Context, change *admin.Change) error {
	action := ActionAdminDeleted
	if change.Added() {
		action = ActionAdminAdded
	}
	return e.record(ctx, action, SeverityWarning, OutcomeSuccess,
		ResourceAdmin, change.Addr.Hex(), CategoryAccess, nil,
		"event_id", change.ID.String(),
		"txt", change.Txt,
	)
}

// OnTokenBound implements plugin.OnTokenBound.
func (e *Extension) OnTokenBound(ctx context.Context, oldAddr, newAddr common.Address) error {
	return e.record(ctx, ActionTokenBound, SeverityWarning, OutcomeSuccess,
		ResourceToken, newAddr.Hex(), CategoryConfig, nil,
		"previous", oldAddr.Hex(),
	)
}

// OnLevelMinChanged implements plugin.OnLevelMinChanged.
func (e *Extension) OnLevelMinChanged(ctx context.Context, level uint64, minAmount types.Amount) error {
	return e.record(ctx, ActionLevelMinChanged, SeverityInfo, OutcomeSuccess,
		ResourceLevel, strconv.FormatUint(level, 10), CategoryConfig, nil,
		"min", minAmount.String(),
	)
}

// OnSaleModified implements plugin.OnSaleModified.
func (e *Extension) OnSaleModified(ctx context.Context, s *sale.Sale) error {
	return e.record(ctx, ActionSaleModified, SeverityInfo, OutcomeSuccess,
		ResourceSale, strconv.FormatUint(s.ID, 10), CategoryConfig, nil,
		"name", s.Name,
		"recipient", s.Recipient.Hex(),
		"reserved", s.Reserved.String(),
	)
}

// OnSaleDisabled implements plugin.OnSaleDisabled.
func (e *Extension) OnSaleDisabled(ctx context.Context, saleID uint64, disabled bool) error {
	action := ActionSaleEnabled
	if disabled {
		action = ActionSaleDisabled
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceSale, strconv.FormatUint(saleID, 10), CategoryConfig, nil,
	)
}

// ──────────────────────────────────────────────────
// Allocation hooks
// ──────────────────────────────────────────────────

// OnAllocated implements plugin.OnAllocated.
func (e *Extension) OnAllocated(ctx context.Context, ev *allocation.Event) error {
	return e.record(ctx, ActionAllocated, SeverityInfo, OutcomeSuccess,
		ResourceAllocation, strconv.FormatUint(ev.AllocationID, 10), CategoryAllocation, nil,
		"event_id", ev.ID.String(),
		"payer", ev.Payer.Hex(),
		"beneficiary", ev.Addr.Hex(),
		"sale", ev.Sale,
		"level", ev.Level,
		"amount", ev.Amount.String(),
	)
}

// OnAllocationRejected implements plugin.OnAllocationRejected. Token
// failures are raised to warning.
func (e *Extension) OnAllocationRejected(ctx context.Context, saleID, level uint64, payer common.Address, reason error) error {
	severity := SeverityInfo
	if errors.Is(reason, alloc.ErrTransferFailed) || errors.Is(reason, alloc.ErrTokenUnavailable) {
		severity = SeverityWarning
	}
	return e.record(ctx, ActionAllocationRejected, severity, OutcomeFailure,
		ResourceSale, strconv.FormatUint(saleID, 10), CategoryAllocation, reason,
		"payer", payer.Hex(),
		"level", level,
	)
}

// OnJournalFailed implements plugin.OnJournalFailed.
func (e *Extension) OnJournalFailed(ctx context.Context, op string, err error) error {
	return e.record(ctx, ActionJournalFailed, SeverityCritical, OutcomeFailure,
		ResourceJournal, op, CategoryStorage, err,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}
	if caller, ok := alloc.CallerFrom(ctx); ok {
		evt.Actor = caller.Hex()
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

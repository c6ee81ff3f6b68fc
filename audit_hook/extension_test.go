package audithook_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc"
	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	audithook "github.com/xraph/alloc/audit_hook"
	"github.com/xraph/alloc/id"
	"github.com/xraph/alloc/types"
)

var (
	deployer = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	payer    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

type sink struct {
	events []*audithook.AuditEvent
}

func (s *sink) Record(_ context.Context, ev *audithook.AuditEvent) error {
	s.events = append(s.events, ev)
	return nil
}

func TestAdminModified(t *testing.T) {
	tests := []struct {
		txt        string
		wantAction string
	}{
		{admin.TxtAdded, audithook.ActionAdminAdded},
		{admin.TxtDeleted, audithook.ActionAdminDeleted},
	}
	for _, tt := range tests {
		t.Run(tt.txt, func(t *testing.T) {
			s := &sink{}
			ext := audithook.New(s)
			ctx := alloc.WithCaller(context.Background(), deployer)

			err := ext.OnAdminModified(ctx, &admin.Change{ID: id.NewAdminChangeID(), Txt: tt.txt, Addr: payer, By: deployer})
			if err != nil {
				t.Fatal(err)
			}
			if len(s.events) != 1 {
				t.Fatalf("events = %d", len(s.events))
			}
			ev := s.events[0]
			if ev.Action != tt.wantAction || ev.ResourceID != payer.Hex() || ev.Actor != deployer.Hex() {
				t.Errorf("event = %+v", ev)
			}
		})
	}
}

func TestAllocationRejectedSeverity(t *testing.T) {
	tests := []struct {
		reason       error
		wantSeverity string
	}{
		{alloc.ErrBelowThreshold, audithook.SeverityInfo},
		{fmt.Errorf("%w: %w", alloc.ErrTransferFailed, errors.New("revert")), audithook.SeverityWarning},
		{alloc.ErrTokenUnavailable, audithook.SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.reason.Error(), func(t *testing.T) {
			s := &sink{}
			ext := audithook.New(s)
			if err := ext.OnAllocationRejected(context.Background(), 2, 1, payer, tt.reason); err != nil {
				t.Fatal(err)
			}
			ev := s.events[0]
			if ev.Severity != tt.wantSeverity || ev.Outcome != audithook.OutcomeFailure || ev.Reason != tt.reason.Error() {
				t.Errorf("event = %+v", ev)
			}
			if ev.ResourceID != "2" || ev.Metadata["payer"] != payer.Hex() {
				t.Errorf("event = %+v", ev)
			}
		})
	}
}

func TestEnabledActions(t *testing.T) {
	s := &sink{}
	ext := audithook.New(s, audithook.WithEnabledActions(audithook.ActionAllocated))
	ctx := context.Background()

	_ = ext.OnSaleDisabled(ctx, 1, true)
	_ = ext.OnAllocated(ctx, allocation.NewEvent(allocation.Record{ID: 1, Amount: types.NewAmount(300)}))

	if len(s.events) != 1 || s.events[0].Action != audithook.ActionAllocated {
		t.Fatalf("events = %+v", s.events)
	}
	if s.events[0].Metadata["amount"] != "300" {
		t.Errorf("metadata = %v", s.events[0].Metadata)
	}
}

func TestDisabledActions(t *testing.T) {
	s := &sink{}
	ext := audithook.New(s, audithook.WithDisabledActions(audithook.ActionLevelMinChanged))
	ctx := context.Background()

	_ = ext.OnLevelMinChanged(ctx, 1, types.NewAmount(1))
	_ = ext.OnJournalFailed(ctx, "allocate", errors.New("disk full"))

	if len(s.events) != 1 || s.events[0].Action != audithook.ActionJournalFailed {
		t.Fatalf("events = %+v", s.events)
	}
	if s.events[0].Severity != audithook.SeverityCritical {
		t.Errorf("severity = %s", s.events[0].Severity)
	}
}

func TestRecorderErrorIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))
	if err := ext.OnTokenBound(context.Background(), deployer, payer); err != nil {
		t.Fatalf("err = %v", err)
	}
}

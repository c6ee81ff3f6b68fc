package block_test

import (
	"testing"
	"time"

	"github.com/xraph/alloc/block"
)

func TestSequencerNext(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	seq := block.NewSequencerWithClock(func() time.Time { return fixed })

	tests := []struct {
		name string
		prev block.Stamp
		want block.Stamp
	}{
		{"genesis", block.Stamp{}, block.Stamp{Height: 1, Time: 1_700_000_000}},
		{"clock ahead", block.Stamp{Height: 9, Time: 1_600_000_000}, block.Stamp{Height: 10, Time: 1_700_000_000}},
		{"same second", block.Stamp{Height: 3, Time: 1_700_000_000}, block.Stamp{Height: 4, Time: 1_700_000_001}},
		{"clock behind", block.Stamp{Height: 3, Time: 1_800_000_000}, block.Stamp{Height: 4, Time: 1_800_000_001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seq.Next(tt.prev)
			if got != tt.want {
				t.Errorf("Next(%+v) = %+v, want %+v", tt.prev, got, tt.want)
			}
			if !got.After(tt.prev) {
				t.Errorf("%+v is not after %+v", got, tt.prev)
			}
		})
	}
}

func TestSequencerStrictlyIncreasing(t *testing.T) {
	seq := block.NewSequencer()
	prev := block.Stamp{}
	for i := 0; i < 1000; i++ {
		next := seq.Next(prev)
		if !next.After(prev) {
			t.Fatalf("step %d: %+v not after %+v", i, next, prev)
		}
		prev = next
	}
}

func TestStampAfter(t *testing.T) {
	a := block.Stamp{Height: 2, Time: 10}
	if (block.Stamp{Height: 3, Time: 10}).After(a) {
		t.Error("equal time must not count as after")
	}
	if (block.Stamp{Height: 2, Time: 11}).After(a) {
		t.Error("equal height must not count as after")
	}
}

func TestAdvance(t *testing.T) {
	prev := block.Stamp{Height: 10, Time: 500}

	tests := []struct {
		name string
		next block.Stamp
		want block.Stamp
	}{
		{"already later", block.Stamp{Height: 12, Time: 600}, block.Stamp{Height: 12, Time: 600}},
		{"height stuck", block.Stamp{Height: 10, Time: 600}, block.Stamp{Height: 11, Time: 600}},
		{"time behind", block.Stamp{Height: 11, Time: 400}, block.Stamp{Height: 11, Time: 501}},
		{"both behind", block.Stamp{Height: 2, Time: 3}, block.Stamp{Height: 11, Time: 501}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := block.Advance(prev, tt.next)
			if got != tt.want {
				t.Errorf("Advance(%+v, %+v) = %+v, want %+v", prev, tt.next, got, tt.want)
			}
			if !got.After(prev) {
				t.Errorf("%+v is not after %+v", got, prev)
			}
		})
	}
}

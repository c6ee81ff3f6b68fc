// Package block supplies the (height, time) stamps recorded with every
// allocation.
package block

import "time"

// Stamp positions an allocation in the ledger's history.
type Stamp struct {
	Height uint64 `json:"height"`
	Time   int64  `json:"time"`
}

// After reports whether s is strictly later than prev in both height and time.
func (s Stamp) After(prev Stamp) bool {
	return s.Height > prev.Height && s.Time > prev.Time
}

// Advance returns next, with each component raised to one past prev's
// where it does not already exceed it.
func Advance(prev, next Stamp) Stamp {
	if next.Height <= prev.Height {
		next.Height = prev.Height + 1
	}
	if next.Time <= prev.Time {
		next.Time = prev.Time + 1
	}
	return next
}

// Source produces the stamp following prev.
type Source interface {
	Next(prev Stamp) Stamp
}

// Sequencer stamps allocations with a counter height and wall-clock seconds,
// nudged forward so both components always increase.
type Sequencer struct {
	now func() time.Time
}

// NewSequencer returns a Sequencer reading the system clock.
func NewSequencer() *Sequencer {
	return &Sequencer{now: time.Now}
}

// NewSequencerWithClock returns a Sequencer reading the given clock.
func NewSequencerWithClock(now func() time.Time) *Sequencer {
	return &Sequencer{now: now}
}

// Next implements Source.
func (s *Sequencer) Next(prev Stamp) Stamp {
	return Advance(prev, Stamp{Height: prev.Height + 1, Time: s.now().Unix()})
}

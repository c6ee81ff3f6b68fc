// Package level holds per-level minimum allocation amounts.
package level

import "github.com/xraph/alloc/types"

// Threshold is the minimum amount a single allocation must carry for a level.
type Threshold struct {
	Level uint64       `json:"level"`
	Min   types.Amount `json:"min"`
}

// Defaults returns the thresholds a freshly deployed ledger starts with.
// Levels not listed read as zero.
func Defaults() []*Threshold {
	return []*Threshold{
		{Level: 1, Min: types.NewAmount(300)},
		{Level: 2, Min: types.NewAmount(3000)},
		{Level: 3, Min: types.NewAmount(5000)},
	}
}

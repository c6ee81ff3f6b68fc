package level

import (
	"context"

	"github.com/xraph/alloc/types"
)

type Store interface {
	SetLevelMin(ctx context.Context, level uint64, minAmount types.Amount) error
	ListLevelMins(ctx context.Context) ([]*Threshold, error)
}

package allocation

import "context"

type Store interface {
	AppendAllocation(ctx context.Context, r *Record) error
	ListAllocations(ctx context.Context, opts ListOpts) ([]*Record, error)
}

// ListOpts pages through the log in id order.
type ListOpts struct {
	AfterID uint64
	Limit   int
}

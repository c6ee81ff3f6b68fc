package alloc

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type callerKey struct{}

// WithCaller returns a context carrying the principal performing the call.
// Every mutating Ledger operation reads it.
func WithCaller(ctx context.Context, caller common.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the principal stored by WithCaller.
func CallerFrom(ctx context.Context) (common.Address, bool) {
	caller, ok := ctx.Value(callerKey{}).(common.Address)
	return caller, ok
}

func callerOf(ctx context.Context) (common.Address, error) {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return common.Address{}, ErrNoCaller
	}
	return caller, nil
}

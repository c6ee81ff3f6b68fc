package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a Resolver over a fixed set of known tokens.
type Registry struct {
	mu     sync.RWMutex
	tokens map[common.Address]Token
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tokens: make(map[common.Address]Token)}
}

// Register binds addr to t, replacing any previous binding.
func (r *Registry) Register(addr common.Address, t Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[addr] = t
}

// Unregister removes the binding for addr.
func (r *Registry) Unregister(addr common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, addr)
}

// Resolve implements Resolver.
func (r *Registry) Resolve(_ context.Context, addr common.Address) (Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, addr.Hex())
	}
	return t, nil
}

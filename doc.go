// Package alloc provides an access-controlled allocation ledger for Go
// applications.
//
// Alloc is designed as a library, not a service. A Ledger keeps a set of
// administrators, per-level minimum amounts, a bound ERC20-style token and a
// registry of sales. Any caller can allocate tokens into a sale: the ledger
// pulls the amount from the caller through the token's transferFrom and
// records the allocation under six indices (global, per sale, per sale and
// level, per buyer, per buyer and sale, per buyer, sale and level).
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/alloc"
//	    "github.com/xraph/alloc/store/memory"
//	    "github.com/xraph/alloc/token"
//	    "github.com/xraph/alloc/token/memtoken"
//	)
//
//	tokens := token.NewRegistry()
//	usdt := memtoken.New("Tether USD", "USDT", 6)
//	tokens.Register(alloc.DefaultTokenAddr, usdt)
//
//	l := alloc.New(memory.New(), deployer, alloc.WithTokenResolver(tokens))
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Callers
//
// Every mutating operation acts on behalf of the principal carried by the
// context:
//
//	admin := alloc.WithCaller(ctx, deployer)
//	err := l.SaleModify(admin, 1, "Seed", "Seed round", treasury, alloc.Units(1_000_000, 6))
//
//	buyer := alloc.WithCaller(ctx, payer)
//	rec, err := l.Allocate(buyer, 1, 1, payer, alloc.Units(300, 6))
//
// Before allocating, the payer approves the ledger's Address as spender on
// the token.
//
// # Rejections
//
// Allocate checks, in order: the sale is enabled, the payer's balance, the
// payer's allowance, the level minimum. A rejected or failed transfer leaves
// no trace. Use IsRejection to tell validation failures from access errors.
//
// # Persistence
//
// Stores in store/memory, store/sqlite, store/postgres and store/mongo keep a
// journal of configuration and allocation records. Start loads it back and
// rebuilds every index, so accessors survive a restart. Allocations the
// store failed to take are retried, in order, on the next Allocate and on
// Stop.
package alloc

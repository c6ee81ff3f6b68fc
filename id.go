package alloc

import "github.com/xraph/alloc/id"

// ID is the identifier type for ledger events.
type ID = id.ID

// Prefix identifies the event type encoded in a TypeID.
type Prefix = id.Prefix

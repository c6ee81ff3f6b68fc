// Package id defines the TypeID identifiers stamped on emitted alloc events.
//
// Allocation records and sales are keyed by plain integers. The events
// announcing admin changes and allocations additionally carry a K-sortable
// ID ("adm_..." or "alloc_...") so plugins can deduplicate and correlate them.
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the event kind encoded in an ID.
type Prefix string

const (
	PrefixAdminChange Prefix = "adm"
	PrefixAllocation  Prefix = "alloc"
)

// ID is an event identifier. The zero value is Nil.
//
//nolint:recvcheck // UnmarshalText needs a pointer receiver.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero ID.
var Nil ID

// New generates an ID with prefix. An invalid prefix is a programming
// error and panics.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

// NewAdminChangeID generates an admin change event ID.
func NewAdminChangeID() ID { return New(PrefixAdminChange) }

// NewAllocationID generates an allocation event ID.
func NewAllocationID() ID { return New(PrefixAllocation) }

// Parse reads the "prefix_suffix" form produced by String.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the event kind, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool { return !i.valid }

// MarshalText encodes i as its string form, so events serialize with a
// readable "id" field.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

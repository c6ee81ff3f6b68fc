// Package sale holds sale records.
package sale

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/types"
)

// Sale is a named allocation campaign. A zero Recipient means none was set.
type Sale struct {
	ID          uint64         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Recipient   common.Address `json:"recipient"`
	Reserved    types.Amount   `json:"reserved"`
	Disabled    bool           `json:"disabled"`
}

// HasRecipient reports whether the sale forwards payments to a non-zero address.
func (s *Sale) HasRecipient() bool {
	return s.Recipient != (common.Address{})
}

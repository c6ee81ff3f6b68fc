// Package admin holds the administrator set records.
package admin

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/alloc/id"
)

// Change texts carried by admin modification events.
const (
	TxtAdded   = "Admin added"
	TxtDeleted = "Admin deleted"
)

// Admin is a persisted administrator.
type Admin struct {
	Addr      common.Address `json:"addr"`
	AddedBy   common.Address `json:"added_by"`
	CreatedAt time.Time      `json:"created_at"`
}

// Change is emitted whenever the administrator set changes.
type Change struct {
	ID   id.ID          `json:"id"`
	Txt  string         `json:"txt"`
	Addr common.Address `json:"addr"`
	By   common.Address `json:"by"`
	At   time.Time      `json:"at"`
}

// Added reports whether the change added an administrator.
func (c *Change) Added() bool { return c.Txt == TxtAdded }

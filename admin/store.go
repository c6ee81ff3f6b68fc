package admin

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type Store interface {
	AddAdmin(ctx context.Context, a *Admin) error
	DeleteAdmin(ctx context.Context, addr common.Address) error
	ListAdmins(ctx context.Context) ([]*Admin, error)
}

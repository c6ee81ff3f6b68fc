package sqlite

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xraph/grove"

	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/level"
	"github.com/xraph/alloc/sale"
	"github.com/xraph/alloc/types"
)

// Settings rows.
const (
	settingTokenAddr = "token_addr"
	settingSaleMax   = "sale_max"
)

// ==================== Admin models ====================

type adminModel struct {
	grove.BaseModel `grove:"table:alloc_admins"`

	Addr      string    `grove:"addr,pk"`
	AddedBy   string    `grove:"added_by"`
	CreatedAt time.Time `grove:"created_at"`
}

func toAdminModel(a *admin.Admin) *adminModel {
	return &adminModel{
		Addr:      a.Addr.Hex(),
		AddedBy:   a.AddedBy.Hex(),
		CreatedAt: a.CreatedAt,
	}
}

func fromAdminModel(m *adminModel) *admin.Admin {
	return &admin.Admin{
		Addr:      common.HexToAddress(m.Addr),
		AddedBy:   common.HexToAddress(m.AddedBy),
		CreatedAt: m.CreatedAt,
	}
}

// ==================== Level models ====================

type levelModel struct {
	grove.BaseModel `grove:"table:alloc_levels"`

	Level     int64     `grove:"level,pk"`
	MinAmount string    `grove:"min_amount"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func fromLevelModel(m *levelModel) (*level.Threshold, error) {
	minAmount, err := types.ParseAmount(m.MinAmount)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", m.Level, err)
	}
	return &level.Threshold{Level: uint64(m.Level), Min: minAmount}, nil
}

// ==================== Setting models ====================

type settingModel struct {
	grove.BaseModel `grove:"table:alloc_settings"`

	Name      string    `grove:"name,pk"`
	Value     string    `grove:"value"`
	UpdatedAt time.Time `grove:"updated_at"`
}

// ==================== Sale models ====================

type saleModel struct {
	grove.BaseModel `grove:"table:alloc_sales"`

	ID          int64     `grove:"id,pk"`
	Name        string    `grove:"name"`
	Description string    `grove:"description"`
	Recipient   string    `grove:"recipient"`
	Reserved    string    `grove:"reserved"`
	Disabled    bool      `grove:"disabled"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toSaleModel(s *sale.Sale) *saleModel {
	return &saleModel{
		ID:          int64(s.ID), //nolint:gosec // sale ids are small counters
		Name:        s.Name,
		Description: s.Description,
		Recipient:   s.Recipient.Hex(),
		Reserved:    s.Reserved.String(),
		Disabled:    s.Disabled,
		UpdatedAt:   now(),
	}
}

func fromSaleModel(m *saleModel) (*sale.Sale, error) {
	reserved, err := types.ParseAmount(m.Reserved)
	if err != nil {
		return nil, fmt.Errorf("sale %d: %w", m.ID, err)
	}
	return &sale.Sale{
		ID:          uint64(m.ID),
		Name:        m.Name,
		Description: m.Description,
		Recipient:   common.HexToAddress(m.Recipient),
		Reserved:    reserved,
		Disabled:    m.Disabled,
	}, nil
}

// ==================== Allocation models ====================

type allocationModel struct {
	grove.BaseModel `grove:"table:alloc_allocations"`

	ID          int64     `grove:"id,pk"`
	Sale        int64     `grove:"sale"`
	Level       int64     `grove:"level"`
	BlockHeight int64     `grove:"block_height"`
	BlockTime   int64     `grove:"block_time"`
	Payer       string    `grove:"payer"`
	Beneficiary string    `grove:"beneficiary"`
	Amount      string    `grove:"amount"`
	CreatedAt   time.Time `grove:"created_at"`
}

//nolint:gosec // ids, sales, levels and heights stay far below 2^63
func toAllocationModel(r *allocation.Record) *allocationModel {
	return &allocationModel{
		ID:          int64(r.ID),
		Sale:        int64(r.Sale),
		Level:       int64(r.Level),
		BlockHeight: int64(r.BlockHeight),
		BlockTime:   r.BlockTime,
		Payer:       r.Payer.Hex(),
		Beneficiary: r.Beneficiary.Hex(),
		Amount:      r.Amount.String(),
		CreatedAt:   now(),
	}
}

func fromAllocationModel(m *allocationModel) (*allocation.Record, error) {
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, fmt.Errorf("allocation %d: %w", m.ID, err)
	}
	return &allocation.Record{
		ID:          uint64(m.ID),
		Sale:        uint64(m.Sale),
		Level:       uint64(m.Level),
		BlockHeight: uint64(m.BlockHeight),
		BlockTime:   m.BlockTime,
		Payer:       common.HexToAddress(m.Payer),
		Beneficiary: common.HexToAddress(m.Beneficiary),
		Amount:      amount,
	}, nil
}

package mongo

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

// ==================== Admin models ====================

type adminModel struct {
	grove.BaseModel `grove:"table:alloc_admins"`

	Addr      string    `grove:"addr,pk"    bson:"_id"`
	AddedBy   string    `grove:"added_by"   bson:"added_by"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
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

	Level     int64     `grove:"level,pk"   bson:"_id"`
	MinAmount string    `grove:"min_amount" bson:"min_amount"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
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

	Name      string    `grove:"name,pk"    bson:"_id"`
	Value     string    `grove:"value"      bson:"value"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

// ==================== Sale models ====================

type saleModel struct {
	grove.BaseModel `grove:"table:alloc_sales"`

	ID          int64     `grove:"id,pk"       bson:"_id"`
	Name        string    `grove:"name"        bson:"name"`
	Description string    `grove:"description" bson:"description"`
	Recipient   string    `grove:"recipient"   bson:"recipient"`
	Reserved    string    `grove:"reserved"    bson:"reserved"`
	Disabled    bool      `grove:"disabled"    bson:"disabled"`
	UpdatedAt   time.Time `grove:"updated_at"  bson:"updated_at"`
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

	ID          int64     `grove:"id,pk"        bson:"_id"`
	Sale        int64     `grove:"sale"         bson:"sale"`
	Level       int64     `grove:"level"        bson:"level"`
	BlockHeight int64     `grove:"block_height" bson:"block_height"`
	BlockTime   int64     `grove:"block_time"   bson:"block_time"`
	Payer       string    `grove:"payer"        bson:"payer"`
	Beneficiary string    `grove:"beneficiary"  bson:"beneficiary"`
	Amount      string    `grove:"amount"       bson:"amount"`
	CreatedAt   time.Time `grove:"created_at"   bson:"created_at"`
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

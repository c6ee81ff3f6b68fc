package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/alloc"
	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/level"
	"github.com/xraph/alloc/sale"
	allocstore "github.com/xraph/alloc/store"
	"github.com/xraph/alloc/types"
)

// compile-time interface check
var _ allocstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("alloc/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("alloc/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Admin Store ====================

func (s *Store) AddAdmin(ctx context.Context, a *admin.Admin) error {
	m := toAdminModel(a)
	_, err := s.pg.NewInsert(m).
		OnConflict("(addr) DO UPDATE").
		Set("added_by = EXCLUDED.added_by").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("alloc/postgres: add admin: %w", err)
	}
	return nil
}

func (s *Store) DeleteAdmin(ctx context.Context, addr common.Address) error {
	res, err := s.pg.NewDelete((*adminModel)(nil)).
		Where("addr = $1", addr.Hex()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("alloc/postgres: delete admin: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return alloc.ErrNotFound
	}
	return nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]*admin.Admin, error) {
	var models []adminModel
	if err := s.pg.NewSelect(&models).OrderExpr("addr ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("alloc/postgres: list admins: %w", err)
	}
	result := make([]*admin.Admin, len(models))
	for i := range models {
		result[i] = fromAdminModel(&models[i])
	}
	return result, nil
}

// ==================== Level Store ====================

func (s *Store) SetLevelMin(ctx context.Context, lvl uint64, minAmount types.Amount) error {
	m := &levelModel{
		Level:     int64(lvl), //nolint:gosec // level numbers are small
		MinAmount: minAmount.String(),
		UpdatedAt: now(),
	}
	_, err := s.pg.NewInsert(m).
		OnConflict("(level) DO UPDATE").
		Set("min_amount = EXCLUDED.min_amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("alloc/postgres: set level min: %w", err)
	}
	return nil
}

func (s *Store) ListLevelMins(ctx context.Context) ([]*level.Threshold, error) {
	var models []levelModel
	if err := s.pg.NewSelect(&models).OrderExpr("level ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("alloc/postgres: list levels: %w", err)
	}
	result := make([]*level.Threshold, len(models))
	for i := range models {
		t, err := fromLevelModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("alloc/postgres: %w", err)
		}
		result[i] = t
	}
	return result, nil
}

// ==================== Sale Store ====================

func (s *Store) PutSale(ctx context.Context, sl *sale.Sale) error {
	m := toSaleModel(sl)
	_, err := s.pg.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("description = EXCLUDED.description").
		Set("recipient = EXCLUDED.recipient").
		Set("reserved = EXCLUDED.reserved").
		Set("disabled = EXCLUDED.disabled").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("alloc/postgres: put sale: %w", err)
	}
	return nil
}

func (s *Store) ListSales(ctx context.Context) ([]*sale.Sale, error) {
	var models []saleModel
	if err := s.pg.NewSelect(&models).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("alloc/postgres: list sales: %w", err)
	}
	result := make([]*sale.Sale, len(models))
	for i := range models {
		sl, err := fromSaleModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("alloc/postgres: %w", err)
		}
		result[i] = sl
	}
	return result, nil
}

func (s *Store) SetSaleMax(ctx context.Context, saleMax uint64) error {
	return s.setSetting(ctx, settingSaleMax, strconv.FormatUint(saleMax, 10))
}

func (s *Store) GetSaleMax(ctx context.Context) (uint64, error) {
	v, err := s.getSetting(ctx, settingSaleMax)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("alloc/postgres: parse sale max %q: %w", v, err)
	}
	return n, nil
}

// ==================== Token binding ====================

func (s *Store) SetTokenAddr(ctx context.Context, addr common.Address) error {
	return s.setSetting(ctx, settingTokenAddr, addr.Hex())
}

func (s *Store) GetTokenAddr(ctx context.Context) (common.Address, error) {
	v, err := s.getSetting(ctx, settingTokenAddr)
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("alloc/postgres: invalid token address %q", v)
	}
	return common.HexToAddress(v), nil
}

// ==================== Allocation Store ====================

func (s *Store) AppendAllocation(ctx context.Context, r *allocation.Record) error {
	m := toAllocationModel(r)
	_, err := s.pg.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("alloc/postgres: append allocation %d: %w", r.ID, err)
	}
	return nil
}

func (s *Store) ListAllocations(ctx context.Context, opts allocation.ListOpts) ([]*allocation.Record, error) {
	var models []allocationModel
	q := s.pg.NewSelect(&models).
		Where("id > $1", int64(opts.AfterID)). //nolint:gosec // allocation ids stay below 2^63
		OrderExpr("id ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("alloc/postgres: list allocations: %w", err)
	}

	result := make([]*allocation.Record, len(models))
	for i := range models {
		r, err := fromAllocationModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("alloc/postgres: %w", err)
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Helpers ====================

func (s *Store) setSetting(ctx context.Context, name, value string) error {
	m := &settingModel{Name: name, Value: value, UpdatedAt: now()}
	_, err := s.pg.NewInsert(m).
		OnConflict("(name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("alloc/postgres: set %s: %w", name, err)
	}
	return nil
}

func (s *Store) getSetting(ctx context.Context, name string) (string, error) {
	m := new(settingModel)
	err := s.pg.NewSelect(m).
		Where("name = $1", name).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return "", alloc.ErrNotFound
		}
		return "", fmt.Errorf("alloc/postgres: get %s: %w", name, err)
	}
	return m.Value, nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

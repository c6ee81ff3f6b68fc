package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/alloc"
	"github.com/xraph/alloc/admin"
	"github.com/xraph/alloc/allocation"
	"github.com/xraph/alloc/level"
	"github.com/xraph/alloc/sale"
	allocstore "github.com/xraph/alloc/store"
	"github.com/xraph/alloc/types"
)

// Collection name constants.
const (
	colAdmins      = "alloc_admins"
	colLevels      = "alloc_levels"
	colSettings    = "alloc_settings"
	colSales       = "alloc_sales"
	colAllocations = "alloc_allocations"
)

// Settings documents.
const (
	settingTokenAddr = "token_addr"
	settingSaleMax   = "sale_max"
)

// compile-time interface check
var _ allocstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all alloc collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("alloc/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Addr}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":        m.Addr,
			"added_by":   m.AddedBy,
			"created_at": m.CreatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("alloc/mongo: add admin: %w", err)
	}
	return nil
}

func (s *Store) DeleteAdmin(ctx context.Context, addr common.Address) error {
	res, err := s.mdb.NewDelete((*adminModel)(nil)).
		Filter(bson.M{"_id": addr.Hex()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("alloc/mongo: delete admin: %w", err)
	}
	if res.DeletedCount() == 0 {
		return alloc.ErrNotFound
	}
	return nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]*admin.Admin, error) {
	var models []adminModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("alloc/mongo: list admins: %w", err)
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
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Level}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":        m.Level,
			"min_amount": m.MinAmount,
			"updated_at": m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("alloc/mongo: set level min: %w", err)
	}
	return nil
}

func (s *Store) ListLevelMins(ctx context.Context) ([]*level.Threshold, error) {
	var models []levelModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("alloc/mongo: list levels: %w", err)
	}
	result := make([]*level.Threshold, len(models))
	for i := range models {
		t, err := fromLevelModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("alloc/mongo: %w", err)
		}
		result[i] = t
	}
	return result, nil
}

// ==================== Sale Store ====================

func (s *Store) PutSale(ctx context.Context, sl *sale.Sale) error {
	m := toSaleModel(sl)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":         m.ID,
			"name":        m.Name,
			"description": m.Description,
			"recipient":   m.Recipient,
			"reserved":    m.Reserved,
			"disabled":    m.Disabled,
			"updated_at":  m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("alloc/mongo: put sale: %w", err)
	}
	return nil
}

func (s *Store) ListSales(ctx context.Context) ([]*sale.Sale, error) {
	var models []saleModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("alloc/mongo: list sales: %w", err)
	}
	result := make([]*sale.Sale, len(models))
	for i := range models {
		sl, err := fromSaleModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("alloc/mongo: %w", err)
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
		return 0, fmt.Errorf("alloc/mongo: parse sale max %q: %w", v, err)
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
		return common.Address{}, fmt.Errorf("alloc/mongo: invalid token address %q", v)
	}
	return common.HexToAddress(v), nil
}

// ==================== Allocation Store ====================

func (s *Store) AppendAllocation(ctx context.Context, r *allocation.Record) error {
	m := toAllocationModel(r)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("alloc/mongo: append allocation %d: %w", r.ID, alloc.ErrAlreadyExists)
		}
		return fmt.Errorf("alloc/mongo: append allocation %d: %w", r.ID, err)
	}
	return nil
}

func (s *Store) ListAllocations(ctx context.Context, opts allocation.ListOpts) ([]*allocation.Record, error) {
	var models []allocationModel
	q := s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$gt": int64(opts.AfterID)}}). //nolint:gosec // allocation ids stay below 2^63
		Sort(bson.D{{Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("alloc/mongo: list allocations: %w", err)
	}

	result := make([]*allocation.Record, len(models))
	for i := range models {
		r, err := fromAllocationModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("alloc/mongo: %w", err)
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Helpers ====================

func (s *Store) setSetting(ctx context.Context, name, value string) error {
	m := &settingModel{Name: name, Value: value, UpdatedAt: now()}
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Name}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":        m.Name,
			"value":      m.Value,
			"updated_at": m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("alloc/mongo: set %s: %w", name, err)
	}
	return nil
}

func (s *Store) getSetting(ctx context.Context, name string) (string, error) {
	var m settingModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return "", alloc.ErrNotFound
		}
		return "", fmt.Errorf("alloc/mongo: get %s: %w", name, err)
	}
	return m.Value, nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for the alloc collections.
// Primary keys live in _id, so only the secondary lookups need indexes.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAdmins:   nil,
		colLevels:   nil,
		colSettings: nil,
		colSales:    nil,
		colAllocations: {
			{Keys: bson.D{{Key: "sale", Value: 1}, {Key: "level", Value: 1}}},
			{Keys: bson.D{{Key: "beneficiary", Value: 1}, {Key: "sale", Value: 1}, {Key: "level", Value: 1}}},
			{Keys: bson.D{{Key: "payer", Value: 1}}},
			{
				Keys:    bson.D{{Key: "block_height", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}

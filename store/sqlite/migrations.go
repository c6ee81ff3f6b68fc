package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the alloc store (SQLite).
var Migrations = migrate.NewGroup("alloc")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_alloc_admins",
			Version: "20240601000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS alloc_admins (
    addr       TEXT PRIMARY KEY,
    added_by   TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS alloc_admins`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_alloc_levels",
			Version: "20240601000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS alloc_levels (
    level      INTEGER PRIMARY KEY,
    min_amount TEXT NOT NULL DEFAULT '0',
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS alloc_levels`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_alloc_settings",
			Version: "20240601000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS alloc_settings (
    name       TEXT PRIMARY KEY,
    value      TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS alloc_settings`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_alloc_sales",
			Version: "20240601000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS alloc_sales (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    recipient   TEXT NOT NULL DEFAULT '',
    reserved    TEXT NOT NULL DEFAULT '0',
    disabled    INTEGER NOT NULL DEFAULT 0,
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS alloc_sales`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_alloc_allocations",
			Version: "20240601000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS alloc_allocations (
    id           INTEGER PRIMARY KEY,
    sale         INTEGER NOT NULL,
    level        INTEGER NOT NULL,
    block_height INTEGER NOT NULL,
    block_time   INTEGER NOT NULL,
    payer        TEXT NOT NULL,
    beneficiary  TEXT NOT NULL,
    amount       TEXT NOT NULL,
    created_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_alloc_allocations_sale ON alloc_allocations (sale, level);
CREATE INDEX IF NOT EXISTS idx_alloc_allocations_beneficiary ON alloc_allocations (beneficiary, sale, level);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS alloc_allocations`)
				return err
			},
		},
	)
}

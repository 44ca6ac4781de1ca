// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/golang-migrate/migrate/v4/database"
)

// sqliteDriver adapts golang-migrate's database.Driver interface to a
// modernc.org/sqlite-backed *sql.DB. golang-migrate's bundled "sqlite3"
// driver imports github.com/mattn/go-sqlite3, which requires cgo; this
// project deliberately uses the pure-Go modernc.org/sqlite driver instead
// (see DESIGN.md), so migration application is wired through this minimal
// adapter rather than the bundled driver. It still rides golang-migrate's
// versioned-migration orchestration and the iofs source reader — only the
// low-level "run one migration file against the database" step is
// reimplemented.
type sqliteDriver struct {
	db *sql.DB
}

var _ database.Driver = (*sqliteDriver)(nil)

func newSQLiteDriver(db *sql.DB) (*sqliteDriver, error) {
	d := &sqliteDriver{db: db}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL PRIMARY KEY, dirty BOOLEAN NOT NULL)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}
	return d, nil
}

func (d *sqliteDriver) Open(_ string) (database.Driver, error) {
	return nil, fmt.Errorf("sqliteDriver.Open not supported; construct via newSQLiteDriver")
}

func (d *sqliteDriver) Close() error { return nil }

// Lock and Unlock are no-ops: the embedded catalog is single-process, and
// migrations run once at startup before any other goroutine touches the
// database handle.
func (d *sqliteDriver) Lock() error   { return nil }
func (d *sqliteDriver) Unlock() error { return nil }

func (d *sqliteDriver) Run(migration io.Reader) error {
	body, err := io.ReadAll(migration)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := d.db.Exec(string(body)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (d *sqliteDriver) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM schema_migrations`); err != nil {
		return err
	}
	if version >= 0 {
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, dirty) VALUES (?, ?)`, version, dirty); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *sqliteDriver) Version() (version int, dirty bool, err error) {
	row := d.db.QueryRow(`SELECT version, dirty FROM schema_migrations LIMIT 1`)
	err = row.Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		return database.NilVersion, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, dirty, nil
}

func (d *sqliteDriver) Drop() error {
	rows, err := d.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	_ = rows.Close()

	for _, t := range tables {
		if _, err := d.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, t)); err != nil {
			return err
		}
	}
	return nil
}

package dtx

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements SettingsStorage using SQLite. Suitable for a
// single process; use ":memory:" for a throwaway database.
type SQLiteStorage struct {
	sqlStore
	path string
}

// SQLiteStorageDriver is the driver for creating SQLiteStorage instances.
type SQLiteStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameSQLite, &SQLiteStorageDriver{})
}

// Open creates a new SQLiteStorage instance.
// The connection string is the database file path.
func (d *SQLiteStorageDriver) Open(connectionString string) (SettingsStorage, error) {
	return NewSQLiteStorage(connectionString)
}

var sqliteDialect = sqlDialect{
	name:     StorageDriverNameSQLite,
	numbered: false,
	migrationsTableDDL: `
		CREATE TABLE IF NOT EXISTS %s (
			version     INTEGER PRIMARY KEY,
			applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			description TEXT
		)`,
	migrations: func(prefix string) []sqlMigration {
		return []sqlMigration{
			{
				Version:     1,
				Description: "Settings and access alert tables",
				SQL: fmt.Sprintf(`
					CREATE TABLE IF NOT EXISTS %[1]ssettings (
						id                   INTEGER PRIMARY KEY,
						post_meta_allow_keys TEXT NOT NULL DEFAULT '',
						user_data_allow_keys TEXT NOT NULL DEFAULT '',
						post_meta_allow_all  BOOLEAN NOT NULL DEFAULT 0,
						user_data_allow_all  BOOLEAN NOT NULL DEFAULT 0,
						scan_status          TEXT NOT NULL DEFAULT '',
						updated_at           DATETIME
					);

					CREATE TABLE IF NOT EXISTS %[1]saccess_alerts (
						domain     TEXT NOT NULL,
						alert_key  TEXT NOT NULL,
						tag        TEXT NOT NULL DEFAULT '',
						raw        TEXT NOT NULL DEFAULT '',
						created_at DATETIME,
						PRIMARY KEY (domain, alert_key)
					);

					CREATE INDEX IF NOT EXISTS idx_%[1]saccess_alerts_created_at ON %[1]saccess_alerts(created_at);
				`, prefix),
			},
		}
	},
}

// NewSQLiteStorage opens (creating if needed) the database at path and
// applies migrations.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path == "" {
		return nil, &StorageError{Message: ErrMsgSQLEmptyConnString, Name: StorageDriverNameSQLite}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, NewStorageIOError(ErrMsgSQLConnectionFailed, path, err)
	}
	if path == SQLiteMemoryDSN {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), SQLiteDefaultQueryTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, NewStorageIOError(ErrMsgSQLConnectionFailed, path, err)
	}

	storage := &SQLiteStorage{
		sqlStore: sqlStore{
			db:      db,
			dialect: sqliteDialect,
			prefix:  SQLiteTablePrefix,
			timeout: SQLiteDefaultQueryTimeout,
		},
		path: path,
	}

	if err := storage.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return storage, nil
}

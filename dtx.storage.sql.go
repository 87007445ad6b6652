package dtx

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// sqlDialect captures what differs between the SQL drivers.
type sqlDialect struct {
	name string
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
	// migrationsTableDDL creates the migrations table; %s is the table name
	migrationsTableDDL string
	// migrations returns the schema migrations for a table prefix
	migrations func(prefix string) []sqlMigration
}

// sqlMigration is one schema migration.
type sqlMigration struct {
	Version     int
	Description string
	SQL         string
}

// sqlStore implements SettingsStorage on database/sql. The postgres and
// sqlite storages embed it.
type sqlStore struct {
	db      *sql.DB
	dialect sqlDialect
	prefix  string
	timeout time.Duration
	mu      sync.RWMutex
	closed  bool
}

func (s *sqlStore) settingsTable() string   { return s.prefix + "settings" }
func (s *sqlStore) alertsTable() string     { return s.prefix + "access_alerts" }
func (s *sqlStore) migrationsTable() string { return s.prefix + "schema_migrations" }

// rebind rewrites ? placeholders for dialects with numbered parameters.
func (s *sqlStore) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

func (s *sqlStore) queryFailed(cause error) error {
	return NewStorageIOError(ErrMsgSQLQueryFailed, s.dialect.name, cause)
}

// Load reads the settings row. A missing row yields DefaultSettings.
func (s *sqlStore) Load(ctx context.Context) (*Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.rebind(fmt.Sprintf(`
		SELECT post_meta_allow_keys, user_data_allow_keys,
		       post_meta_allow_all, user_data_allow_all,
		       scan_status, updated_at
		FROM %s
		WHERE id = ?`, s.settingsTable()))

	var (
		settings  Settings
		status    string
		updatedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, settingsRowID).Scan(
		&settings.PostMetaAllowList, &settings.UserDataAllowList,
		&settings.PostMetaAllowAll, &settings.UserDataAllowAll,
		&status, &updatedAt)
	if err == sql.ErrNoRows {
		return DefaultSettings(), nil
	}
	if err != nil {
		return nil, s.queryFailed(err)
	}

	settings.ScanStatus = ParseScanStatus(status)
	if updatedAt.Valid {
		settings.UpdatedAt = updatedAt.Time.UTC()
	}
	return &settings, nil
}

// Save upserts the settings row.
func (s *sqlStore) Save(ctx context.Context, settings *Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if settings == nil {
		return &StorageError{Message: ErrMsgStorageNilSettings}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.rebind(fmt.Sprintf(`
		INSERT INTO %s (id, post_meta_allow_keys, user_data_allow_keys,
		                post_meta_allow_all, user_data_allow_all, scan_status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			post_meta_allow_keys = excluded.post_meta_allow_keys,
			user_data_allow_keys = excluded.user_data_allow_keys,
			post_meta_allow_all  = excluded.post_meta_allow_all,
			user_data_allow_all  = excluded.user_data_allow_all,
			scan_status          = excluded.scan_status,
			updated_at           = excluded.updated_at`, s.settingsTable()))

	_, err := s.db.ExecContext(ctx, query, settingsRowID,
		settings.PostMetaAllowList, settings.UserDataAllowList,
		settings.PostMetaAllowAll, settings.UserDataAllowAll,
		string(settings.ScanStatus), timeNow())
	if err != nil {
		return s.queryFailed(err)
	}
	return nil
}

// RecordAlert inserts alert unless its domain and key exist.
func (s *sqlStore) RecordAlert(ctx context.Context, alert *AccessAlert) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.rebind(fmt.Sprintf(`
		INSERT INTO %s (domain, alert_key, tag, raw, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (domain, alert_key) DO NOTHING`, s.alertsTable()))

	res, err := s.db.ExecContext(ctx, query,
		string(alert.Domain), alert.Key, alert.Tag, alert.Raw, alert.At)
	if err != nil {
		return false, s.queryFailed(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.queryFailed(err)
	}
	return n > 0, nil
}

// ListAlerts returns the alerts, oldest first.
func (s *sqlStore) ListAlerts(ctx context.Context) ([]*AccessAlert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT domain, alert_key, tag, raw, created_at
		FROM %s
		ORDER BY created_at, domain, alert_key`, s.alertsTable()))
	if err != nil {
		return nil, s.queryFailed(err)
	}
	defer rows.Close()

	alerts := []*AccessAlert{}
	for rows.Next() {
		var (
			a      AccessAlert
			domain string
		)
		if err := rows.Scan(&domain, &a.Key, &a.Tag, &a.Raw, &a.At); err != nil {
			return nil, s.queryFailed(err)
		}
		a.Domain = AccessDomain(domain)
		a.At = a.At.UTC()
		alerts = append(alerts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryFailed(err)
	}
	return alerts, nil
}

// ClearAlerts deletes every alert.
func (s *sqlStore) ClearAlerts(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.alertsTable())); err != nil {
		return s.queryFailed(err)
	}
	return nil
}

// Close releases database connections.
func (s *sqlStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &StorageError{Message: ErrMsgSQLAlreadyClosed, Name: s.dialect.name}
	}

	s.closed = true
	return s.db.Close()
}

// RunMigrations applies pending database migrations.
func (s *sqlStore) RunMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(s.dialect.migrationsTableDDL, s.migrationsTable())); err != nil {
		return s.migrationFailed(err)
	}

	applied := make(map[int]bool)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT version FROM %s", s.migrationsTable()))
	if err != nil {
		return s.migrationFailed(err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return s.migrationFailed(err)
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range s.dialect.migrations(s.prefix) {
		if applied[m.Version] {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return s.migrationFailed(err)
		}

		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback()
			return s.migrationFailed(fmt.Errorf("migration %d failed: %w", m.Version, err))
		}

		if _, err := tx.ExecContext(ctx,
			s.rebind(fmt.Sprintf("INSERT INTO %s (version, description) VALUES (?, ?)", s.migrationsTable())),
			m.Version, m.Description); err != nil {
			_ = tx.Rollback()
			return s.migrationFailed(err)
		}

		if err := tx.Commit(); err != nil {
			return s.migrationFailed(err)
		}
	}

	return nil
}

// CurrentSchemaVersion returns the current schema version.
func (s *sqlStore) CurrentSchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT MAX(version) FROM %s", s.migrationsTable())).Scan(&version)
	if err != nil {
		return 0, s.queryFailed(err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func (s *sqlStore) migrationFailed(cause error) error {
	return NewStorageIOError(ErrMsgSQLMigrationFailed, s.dialect.name, cause)
}

// SQL storage error messages
const (
	ErrMsgSQLConnectionFailed = "failed to connect to database"
	ErrMsgSQLQueryFailed      = "database query failed"
	ErrMsgSQLMigrationFailed  = "database migration failed"
	ErrMsgSQLEmptyConnString  = "database connection string is empty"
	ErrMsgSQLAlreadyClosed    = "database storage is already closed"
)

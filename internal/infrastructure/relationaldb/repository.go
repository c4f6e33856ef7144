// Package relationaldb stores the change log, sync status, entity content and
// entity types in a SQL database. SQLite (modernc) and Postgres (lib/pq) are
// supported through the same queries.
package relationaldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // Postgres driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/lore-sync/internal/infrastructure/config"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements the pipeline's storage ports on database/sql.
type Repository struct {
	db      *sql.DB
	q       querier
	dialect dialect
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type dialect struct {
	name      string
	timestamp string
	serial    string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:      DriverSQLite,
		timestamp: "TIMESTAMP",
		serial:    "INTEGER PRIMARY KEY AUTOINCREMENT",
	},
	DriverPostgres: {
		name:      DriverPostgres,
		timestamp: "TIMESTAMPTZ",
		serial:    "BIGSERIAL PRIMARY KEY",
	},
}

// NewRepository opens the database described by cfg. For SQLite, cfg.Path
// must already be resolved (see config.Config.DatabasePath).
func NewRepository(cfg config.StorageConfig) (*Repository, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}

	source := cfg.Path
	if driver == DriverPostgres {
		source = cfg.DSN
	}
	if source == "" {
		return nil, fmt.Errorf("%s connection source is required", driver)
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		if err := configureSQLite(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Repository{db: db, q: db, dialect: d}, nil
}

func configureSQLite(db *sql.DB) error {
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	pragmas := []struct {
		stmt string
		what string
	}{
		{"PRAGMA journal_mode = WAL", "enabling WAL mode"},
		{"PRAGMA busy_timeout = 5000", "setting busy timeout"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			return fmt.Errorf("%s: %w", p.what, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Driver returns the name of the active driver.
func (r *Repository) Driver() string {
	return r.dialect.name
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// EnsureSchema creates the tables if they don't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ts := r.dialect.timestamp
	statements := []string{
		`CREATE TABLE IF NOT EXISTS change_log (
			seq ` + r.dialect.serial + `,
			id TEXT NOT NULL UNIQUE,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			before_data TEXT,
			after_data TEXT,
			metadata TEXT,
			reversible BOOLEAN NOT NULL,
			reversed_at ` + ts + `,
			reversed_by TEXT,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_change_log_entity ON change_log(entity_type, entity_id)`,

		`CREATE TABLE IF NOT EXISTS sync_status (
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			status TEXT NOT NULL,
			last_synced_at ` + ts + ` NOT NULL,
			PRIMARY KEY (entity_type, entity_id)
		)`,

		`CREATE TABLE IF NOT EXISTS content (
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at ` + ts + ` NOT NULL,
			PRIMARY KEY (entity_type, entity_id)
		)`,

		`CREATE TABLE IF NOT EXISTS entity_types (
			name TEXT PRIMARY KEY,
			description TEXT,
			created_at ` + ts + ` NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// inTx runs fn against a copy of the repository whose queries all go
// through one transaction. SQLite allows a single open connection, so fn
// must not touch r itself.
func (r *Repository) inTx(ctx context.Context, fn func(tx *Repository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(&Repository{db: r.db, q: tx, dialect: r.dialect}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.q.ExecContext(ctx, r.rebind(query), args...)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.q.QueryContext(ctx, r.rebind(query), args...)
}

func (r *Repository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q.QueryRowContext(ctx, r.rebind(query), args...)
}

// rebind rewrites "?" placeholders to "$n" for Postgres.
func (r *Repository) rebind(query string) string {
	if r.dialect.name != DriverPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// encodeData stores nil maps as NULL so "no record" survives a round trip.
func encodeData(data map[string]any) (sql.NullString, error) {
	if data == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeData(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw.String), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

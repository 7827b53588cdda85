package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a site record does not exist.
var ErrNotFound = errors.New("not found")

// Driver names a storage backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverMongo    Driver = "mongo"
)

// Valid reports whether d is a supported backend.
func (d Driver) Valid() bool {
	switch d {
	case DriverSQLite, DriverPostgres, DriverMySQL, DriverMongo:
		return true
	}
	return false
}

// Options selects and addresses a backend. DSN wins over the discrete fields.
type Options struct {
	Driver   Driver
	DSN      string
	Path     string // sqlite file
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

// DB wraps a SQL connection and knows the dialect it speaks.
type DB struct {
	conn   *sql.DB
	driver Driver
}

// Open connects to the SQL backend named by opts and runs the migrations.
func Open(opts Options) (*DB, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var (
		conn *sql.DB
		err  error
	)
	switch driver {
	case DriverSQLite:
		path := opts.DSN
		if path == "" {
			path = opts.Path
		}
		if path == "" {
			return nil, fmt.Errorf("open sqlite: no database path")
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
		conn, err = sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// single writer, avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	case DriverPostgres:
		conn, err = sql.Open("postgres", PostgresDSN(opts))
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	case DriverMySQL:
		conn, err = sql.Open("mysql", MySQLDSN(opts))
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
	default:
		return nil, fmt.Errorf("open %q: unsupported sql driver", driver)
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the dialect of the connection.
func (db *DB) Driver() Driver {
	return db.driver
}

// Rebind rewrites ? placeholders for dialects that number them.
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// upsert builds an insert that overwrites the listed columns on key conflict.
func (db *DB) upsert(table, key string, cols, update []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), marks)
	sets := make([]string, len(update))
	if db.driver == DriverMySQL {
		for i, c := range update {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
		}
		return db.Rebind(q + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", "))
	}
	for i, c := range update {
		sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}
	return db.Rebind(fmt.Sprintf("%s ON CONFLICT(%s) DO UPDATE SET %s", q, key, strings.Join(sets, ", ")))
}

type columnTypes struct {
	key, text, ts string
}

func (db *DB) columnTypes() columnTypes {
	switch db.driver {
	case DriverPostgres:
		return columnTypes{key: "VARCHAR(64)", text: "TEXT", ts: "TIMESTAMPTZ"}
	case DriverMySQL:
		return columnTypes{key: "VARCHAR(64)", text: "LONGTEXT", ts: "DATETIME(6)"}
	}
	return columnTypes{key: "TEXT", text: "TEXT", ts: "DATETIME"}
}

func (db *DB) migrate() error {
	t := db.columnTypes()
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sites (
			id %[1]s PRIMARY KEY,
			student_name VARCHAR(255) NOT NULL DEFAULT '',
			student_email VARCHAR(255) NOT NULL DEFAULT '',
			student_class VARCHAR(255) NOT NULL DEFAULT '',
			blocks_json %[2]s NOT NULL,
			settings_json %[2]s NOT NULL,
			email_sent INTEGER NOT NULL DEFAULT 0,
			created_at %[3]s NOT NULL,
			updated_at %[3]s NOT NULL
		)`, t.key, t.text, t.ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS history_nodes (
			id %[1]s PRIMARY KEY,
			site_id %[1]s NOT NULL,
			seq INTEGER NOT NULL,
			snapshot_json %[2]s NOT NULL,
			created_at %[3]s NOT NULL
		)`, t.key, t.text, t.ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS history_state (
			site_id %[1]s PRIMARY KEY,
			current_index INTEGER NOT NULL DEFAULT 0
		)`, t.key),
		`CREATE INDEX idx_history_nodes_site ON history_nodes(site_id, seq)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			// indexes have no IF NOT EXISTS on every dialect
			if strings.HasPrefix(m, "CREATE INDEX") && isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", firstLine(m), err)
		}
	}
	return nil
}

func isDuplicateIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate key name")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

package db

import (
	"database/sql"
	"embed"
	"fmt"
	"log"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite3"
)

type DB struct {
	conn   *sql.DB
	driver string
}

// Connect opens PostgreSQL for postgres:// and postgresql:// URLs, and SQLite
// for sqlite://<path> or file: URLs.
func Connect(dsn string) (*DB, error) {
	driver, source, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == driverSQLite {
		// One writer at a time; also keeps :memory: databases on one connection.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	log.Printf("[DB] Connected to %s\n", driver)
	return &DB{conn: conn, driver: driver}, nil
}

func parseDSN(dsn string) (driver, source string, err error) {
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("database url is required")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return driverPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return driverSQLite, strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.HasPrefix(dsn, "file:"):
		return driverSQLite, dsn, nil
	}
	return "", "", fmt.Errorf("unsupported database url %q", dsn)
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) Ping() error {
	return d.conn.Ping()
}

func (d *DB) Driver() string {
	return d.driver
}

var placeholder = regexp.MustCompile(`\$\d+`)

// rebind rewrites $n placeholders for drivers that only take "?". Queries
// must use each placeholder once, in order.
func (d *DB) rebind(query string) string {
	if d.driver != driverSQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?")
}

func (d *DB) Migrate() error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations dir: %w", err)
	}

	for _, entry := range entries {
		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		if _, err := d.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", entry.Name(), err)
		}
		log.Printf("[DB] Applied migration: %s\n", entry.Name())
	}
	return nil
}

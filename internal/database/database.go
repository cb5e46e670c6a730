package database

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// InitDB opens the database and brings the schema up to date with the
// migrations found in migrationsDir. The returned teardown releases any
// resources other than the *sql.DB itself.
func InitDB(dbPath string, primaryUrl string, authToken string, migrationsDir string) (*sql.DB, func(), error) {
	db, err := open(dbPath, primaryUrl, authToken)
	if err != nil {
		return nil, nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err = migrate(db, migrationsDir); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("Database initialized successfully")
	return db, func() {}, nil
}

func open(dbPath string, primaryUrl string, authToken string) (*sql.DB, error) {
	if primaryUrl != "" {
		log.Info("Initializing Turso database", "url", primaryUrl)
		db, err := sql.Open("libsql", primaryUrl+"?authToken="+authToken)
		if err != nil {
			return nil, fmt.Errorf("failed to open db %s: %w", primaryUrl, err)
		}
		return db, nil
	}

	log.Info("Initializing local-only SQLite database", "path", dbPath)
	dsn := "file:" + dbPath + "?_busy_timeout=5000&_foreign_keys=on"
	if dbPath == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	// SQLite allows a single writer; an in-memory database also only lives as
	// long as its one connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

func migrate(db *sql.DB, migrationsDir string) error {
	goose.SetLogger(log.Default())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, migrationsDir)
}

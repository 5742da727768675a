package db

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
)

type Options struct {
	// Path of the database file; empty opens an in-memory database.
	Path string
	// JSON installs and loads the json extension, needed for
	// newline-delimited JSON inputs.
	JSON bool
}

// Open returns a DuckDB handle owned by the caller, who must Close it.
func Open(opts Options) (*sql.DB, error) {
	db, err := sql.Open("duckdb", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Unordered scans then return rows in file order.
	if _, err := db.Exec("SET preserve_insertion_order = true"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to preserve insertion order: %w", err)
	}

	if opts.JSON {
		if _, err := db.Exec("INSTALL json"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to install JSON extension: %w", err)
		}

		if _, err := db.Exec("LOAD json"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load JSON extension: %w", err)
		}
	}

	return db, nil
}

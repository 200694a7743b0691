// Package progress stores the last-read page of every document the user has
// opened, keyed by the document's file name.
package progress

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// FileName is the name of the progress database inside the data directory.
const FileName = "leaf.db"

// ErrCorrupt is returned by Load when the database file exists but cannot be
// decoded.
var ErrCorrupt = errors.New("progress database is corrupt")

// Row is the saved position for a single document.
type Row struct {
	File        string
	Filename    string
	CurrentPage int
}

// DB is an ordered table of rows with at most one row per Filename.
//
// A DB is not safe for concurrent use. It is owned by the state store and
// copies of its rows are handed to other goroutines.
type DB struct {
	rows []Row
}

// fileFormat is the on-disk shape. Changing it changes the file format.
type fileFormat struct {
	Rows []Row
}

// New returns a DB holding a copy of rows.
func New(rows []Row) *DB {
	return &DB{rows: cloneRows(rows)}
}

// Load reads the database at path. When the file does not exist an empty
// database is created and written before returning.
func Load(path string) (*DB, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		db := New(nil)
		if err := Save(path, db.Rows()); err != nil {
			return nil, err
		}
		return db, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress database: %w", err)
	}

	var f fileFormat
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}
	return New(f.Rows), nil
}

// Save replaces the file at path with rows.
func Save(path string, rows []Row) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(fileFormat{Rows: rows}); err != nil {
		return fmt.Errorf("encode progress database: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("write progress database: %w", err)
	}
	return nil
}

// Upsert replaces the row with a matching filename in place, or appends a new
// row when none exists.
func (db *DB) Upsert(filename, file string, currentPage int) {
	row := Row{File: file, Filename: filename, CurrentPage: currentPage}
	for i := range db.rows {
		if db.rows[i].Filename == filename {
			db.rows[i] = row
			return
		}
	}
	db.rows = append(db.rows, row)
}

// Lookup returns the row whose Filename matches the base name of file. Files
// with the same name in different directories share a row.
func (db *DB) Lookup(file string) (Row, bool) {
	name := filepath.Base(file)
	for _, row := range db.rows {
		if row.Filename == name {
			return row, true
		}
	}
	return Row{}, false
}

// Rows returns a copy of the table in order.
func (db *DB) Rows() []Row {
	return cloneRows(db.rows)
}

// Len returns the number of rows.
func (db *DB) Len() int {
	return len(db.rows)
}

func cloneRows(rows []Row) []Row {
	dup := make([]Row, len(rows))
	copy(dup, rows)
	return dup
}

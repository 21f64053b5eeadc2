/*
 * sqlite.go, part of mdcontacts.
 *
 * Copyright 2024 The mdcontacts authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 */

package table

import (
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"os"

	_ "modernc.org/sqlite"
)

// SQLiteBatch is the number of rows inserted per transaction.
const SQLiteBatch = 10000

const schema = `CREATE TABLE distances (
	resi_i   INTEGER NOT NULL,
	resi_j   INTEGER NOT NULL,
	name_i   TEXT NOT NULL,
	name_j   TEXT NOT NULL,
	distance REAL NOT NULL,
	frame    INTEGER NOT NULL
)`

func openDB(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode on %s: %w", path, err)
	}
	return conn, nil
}

// SQLiteWriter writes rows to the distances table of an SQLite database.
// Rows are inserted in transactions of SQLiteBatch rows.
type SQLiteWriter struct {
	name    string
	db      *sql.DB
	tx      *sql.Tx
	stmt    *sql.Stmt
	pending int
	rows    int
}

// NewSQLiteWriter opens (or creates) the database in path and creates its distances
// table. A distances table already in the database is replaced, so running twice
// to the same file doesn't duplicate rows. Other tables are left alone.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("DROP TABLE IF EXISTS distances"); err != nil {
		db.Close()
		return nil, fmt.Errorf("dropping old distances table in %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating distances table in %s: %w", path, err)
	}
	return &SQLiteWriter{name: path, db: db}, nil
}

func (S *SQLiteWriter) begin() error {
	var err error
	if S.tx, err = S.db.Begin(); err != nil {
		return fmt.Errorf("starting transaction in %s: %w", S.name, err)
	}
	S.stmt, err = S.tx.Prepare("INSERT INTO distances (resi_i, resi_j, name_i, name_j, distance, frame) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		S.tx.Rollback()
		S.tx = nil
		return fmt.Errorf("preparing insert in %s: %w", S.name, err)
	}
	return nil
}

func (S *SQLiteWriter) commit() error {
	if S.tx == nil {
		return nil
	}
	S.stmt.Close()
	err := S.tx.Commit()
	S.tx, S.stmt, S.pending = nil, nil, 0
	if err != nil {
		return fmt.Errorf("committing rows to %s: %w", S.name, err)
	}
	return nil
}

// Write appends r to the table.
func (S *SQLiteWriter) Write(r Row) error {
	if S.tx == nil {
		if err := S.begin(); err != nil {
			return err
		}
	}
	if _, err := S.stmt.Exec(r.ResI, r.ResJ, r.NameI, r.NameJ, r.Distance, r.Frame); err != nil {
		return fmt.Errorf("inserting into %s: %w", S.name, err)
	}
	S.rows++
	S.pending++
	if S.pending >= SQLiteBatch {
		return S.commit()
	}
	return nil
}

// Rows returns the number of rows written.
func (S *SQLiteWriter) Rows() int {
	return S.rows
}

// Close commits the pending rows and closes the database.
func (S *SQLiteWriter) Close() error {
	err := S.commit()
	if err2 := S.db.Close(); err == nil && err2 != nil {
		err = fmt.Errorf("closing %s: %w", S.name, err2)
	}
	return err
}

// SQLiteReader reads the distances table of an SQLite database, in insertion order.
type SQLiteReader struct {
	name  string
	db    *sql.DB
	last  int64 //rowid of the last row read
	query *sql.Stmt
}

// NewSQLiteReader opens the database in path, read-only. A missing file is an
// error, and is not created.
func NewSQLiteReader(path string) (*SQLiteReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	dsn := "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	q, err := db.Prepare("SELECT rowid, resi_i, resi_j, name_i, name_j, distance, frame FROM distances WHERE rowid > ? ORDER BY rowid LIMIT ?")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("reading distances from %s: %w", path, err)
	}
	return &SQLiteReader{name: path, db: db, query: q}, nil
}

// ReadChunk returns the next n rows, or fewer at the end of the table. After
// the last row it returns no rows and io.EOF.
func (S *SQLiteReader) ReadChunk(n int) ([]Row, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d", n)
	}
	res, err := S.query.Query(S.last, n)
	if err != nil {
		return nil, fmt.Errorf("reading distances from %s: %w", S.name, err)
	}
	defer res.Close()
	rows := make([]Row, 0, n)
	for res.Next() {
		var r Row
		if err := res.Scan(&S.last, &r.ResI, &r.ResJ, &r.NameI, &r.NameJ, &r.Distance, &r.Frame); err != nil {
			return rows, fmt.Errorf("reading distances from %s: %w", S.name, err)
		}
		rows = append(rows, r)
	}
	if err := res.Err(); err != nil {
		return rows, fmt.Errorf("reading distances from %s: %w", S.name, err)
	}
	if len(rows) == 0 {
		return nil, io.EOF
	}
	return rows, nil
}

// Close closes the database.
func (S *SQLiteReader) Close() error {
	S.query.Close()
	return S.db.Close()
}

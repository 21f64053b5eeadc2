/*
 * table.go, part of mdcontacts.
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

// Package table stores residue pair distance rows, one per pair per frame,
// in CSV files (optionally compressed) or SQLite databases.
package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is one residue pair distance in one frame.
type Row struct {
	ResI     int
	ResJ     int
	NameI    string
	NameJ    string
	Distance float64
	Frame    int
}

func (r Row) String() string {
	return fmt.Sprintf("(%d,%d,%s,%s,%s,%d)", r.ResI, r.ResJ, r.NameI, r.NameJ, FormatDistance(r.Distance), r.Frame)
}

// Header holds the column names of a distance table, in order.
var Header = []string{"resi_i", "resi_j", "name_i", "name_j", "distance", "frame"}

// FormatDistance returns the shortest decimal representation of d that
// reads back to the same value, always with a decimal point (4 gives "4.0").
func FormatDistance(d float64) string {
	s := strconv.FormatFloat(d, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// Writer appends rows to a table.
type Writer interface {
	Write(Row) error
	//Close flushes pending rows and releases the table.
	Close() error
}

// Reader reads a table in chunks.
type Reader interface {
	//ReadChunk returns up to n rows. At the end of the table it returns
	//no rows and io.EOF.
	ReadChunk(n int) ([]Row, error)
	Close() error
}

// IsSQLite returns true if path names an SQLite table (.db, .sqlite or .sqlite3).
func IsSQLite(path string) bool {
	p := strings.ToLower(path)
	for _, s := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(p, s) {
			return true
		}
	}
	return false
}

// Create creates the table in path, choosing the format from its suffix:
// SQLite for .db/.sqlite and CSV otherwise, gzip or zstd compressed for .gz and .zst.
func Create(path string) (Writer, error) {
	if IsSQLite(path) {
		return NewSQLiteWriter(path)
	}
	return NewCSVWriter(path)
}

// Open opens the table in path for reading. The format is chosen as in Create.
func Open(path string) (Reader, error) {
	if IsSQLite(path) {
		return NewSQLiteReader(path)
	}
	return NewCSVReader(path)
}

/*
 * csv.go, part of mdcontacts.
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
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSVWriter writes rows to a CSV file, with the Header as first line.
type CSVWriter struct {
	name string
	z    *zWriter
	buf  *bufio.Writer
	w    *csv.Writer
	rec  []string
	rows int
}

// NewCSVWriter creates the CSV file path and writes the header. Files ending in .gz or .zst
// are compressed.
func NewCSVWriter(path string) (*CSVWriter, error) {
	fp, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating table %s: %w", path, err)
	}
	z, err := wrapWriter(fp, path)
	if err != nil {
		fp.Close()
		return nil, fmt.Errorf("creating table %s: %w", path, err)
	}
	C := &CSVWriter{name: path, z: z, buf: bufio.NewWriterSize(z, 1<<16), rec: make([]string, len(Header))}
	C.w = csv.NewWriter(C.buf)
	if err := C.w.Write(Header); err != nil {
		z.Close()
		return nil, fmt.Errorf("writing header to %s: %w", path, err)
	}
	return C, nil
}

// Write appends r to the table.
func (C *CSVWriter) Write(r Row) error {
	C.rec[0] = strconv.Itoa(r.ResI)
	C.rec[1] = strconv.Itoa(r.ResJ)
	C.rec[2] = r.NameI
	C.rec[3] = r.NameJ
	C.rec[4] = FormatDistance(r.Distance)
	C.rec[5] = strconv.Itoa(r.Frame)
	if err := C.w.Write(C.rec); err != nil {
		return fmt.Errorf("writing to %s: %w", C.name, err)
	}
	C.rows++
	return nil
}

// Rows returns the number of rows written, not counting the header.
func (C *CSVWriter) Rows() int {
	return C.rows
}

// Close flushes the rows and closes the file.
func (C *CSVWriter) Close() error {
	C.w.Flush()
	err := C.w.Error()
	if err == nil {
		err = C.buf.Flush()
	}
	if err2 := C.z.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return fmt.Errorf("closing %s: %w", C.name, err)
	}
	return nil
}

// CSVReader reads rows from a CSV table. Columns are found by name in the
// header, so their order doesn't matter and extra columns are ignored.
type CSVReader struct {
	name string
	z    *zReader
	r    *csv.Reader
	cols [6]int //index of each Header column in the file
	line int
}

// NewCSVReader opens the CSV table in path and reads its header.
func NewCSVReader(path string) (*CSVReader, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table %s: %w", path, err)
	}
	z, err := wrapReader(fp, path)
	if err != nil {
		fp.Close()
		return nil, fmt.Errorf("opening table %s: %w", path, err)
	}
	C, err := newCSVReader(z, path)
	if err != nil {
		z.Close()
		return nil, err
	}
	C.z = z
	return C, nil
}

func newCSVReader(r io.Reader, name string) (*CSVReader, error) {
	C := &CSVReader{name: name, r: csv.NewReader(bufio.NewReaderSize(r, 1<<16))}
	C.r.ReuseRecord = true
	head, err := C.r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", name, err)
	}
	C.line = 1
	for i, h := range Header {
		C.cols[i] = -1
		for j, v := range head {
			if strings.TrimSpace(v) == h {
				C.cols[i] = j
				break
			}
		}
		if C.cols[i] < 0 {
			return nil, fmt.Errorf("table %s has no %s column", name, h)
		}
	}
	return C, nil
}

// ReadChunk returns the next n rows, or fewer at the end of the table. After
// the last row it returns no rows and io.EOF.
func (C *CSVReader) ReadChunk(n int) ([]Row, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d", n)
	}
	rows := make([]Row, 0, n)
	for len(rows) < n {
		rec, err := C.r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		C.line++
		if err != nil {
			return rows, fmt.Errorf("reading %s: %w", C.name, err)
		}
		r, err := C.parse(rec)
		if err != nil {
			return rows, fmt.Errorf("%s, line %d: %w", C.name, C.line, err)
		}
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil, io.EOF
	}
	return rows, nil
}

func (C *CSVReader) parse(rec []string) (Row, error) {
	var r Row
	var err error
	field := func(i int) string { return strings.TrimSpace(rec[C.cols[i]]) }
	if r.ResI, err = strconv.Atoi(field(0)); err != nil {
		return r, fmt.Errorf("bad resi_i: %w", err)
	}
	if r.ResJ, err = strconv.Atoi(field(1)); err != nil {
		return r, fmt.Errorf("bad resi_j: %w", err)
	}
	r.NameI = field(2)
	r.NameJ = field(3)
	if r.Distance, err = strconv.ParseFloat(field(4), 64); err != nil {
		return r, fmt.Errorf("bad distance: %w", err)
	}
	if r.Frame, err = strconv.Atoi(field(5)); err != nil {
		return r, fmt.Errorf("bad frame: %w", err)
	}
	return r, nil
}

// Close closes the table.
func (C *CSVReader) Close() error {
	if C.z == nil {
		return nil
	}
	return C.z.Close()
}

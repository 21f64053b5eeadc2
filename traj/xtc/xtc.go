/*
 * xtc.go, part of mdcontacts
 *
 * Copyright 2024 The mdcontacts authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License  as published by
 * the Free Software Foundation; either version 2.1 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston,
 * MA 02110-1301, USA.
 */

// Package xtc reads GROMACS XTC trajectories. The XDR framing and the
// xdr3dfcoord compression are decoded in Go, so no C library is needed.
package xtc

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	v3 "github.com/Ravy-LFL/analysis-of-molecular-dynamics/v3"
	"github.com/edsrzf/mmap-go"
)

const magic = 1995

// XTCObj is a container for a GROMACS XTC binary trajectory file.
type XTCObj struct {
	readable bool
	natoms   int
	filename string
	r        io.Reader
	f        *os.File
	mm       mmap.MMap
	frames   int
	step     int
	time     float32
	coords   []float32 //nm, one frame
	ints     []int32
	scratch  [4]byte
}

// New opens the XTC file filename for reading. The file is memory-mapped.
func New(filename string) (*XTCObj, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, &Error{UnableToOpen + ": " + err.Error(), filename, []string{"New"}, true}
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, &Error{UnableToOpen + ": " + err.Error(), filename, []string{"New"}, true}
	}
	//The mapped bytes are read in place, without another buffer.
	X, err := newXTC(bytes.NewReader(mm), mm, filename)
	if err != nil {
		mm.Unmap()
		f.Close()
		return nil, errDecorate(err, "New")
	}
	X.f = f
	X.mm = mm
	return X, nil
}

// NewReader returns an XTCObj reading from r. name is only used in errors.
// The number of atoms is taken from the first frame header.
func NewReader(r io.Reader, name string) (*XTCObj, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	head, err := br.Peek(8)
	if err != nil {
		return nil, &Error{"Can't read the first frame header: " + err.Error(), name, []string{"NewReader"}, true}
	}
	X, err := newXTC(br, head, name)
	return X, errDecorate(err, "NewReader")
}

// newXTC returns an XTCObj reading from r, which starts with the bytes in head.
func newXTC(r io.Reader, head []byte, name string) (*XTCObj, error) {
	if len(head) < 8 {
		return nil, &Error{"Can't read the first frame header: file too short", name, []string{"newXTC"}, true}
	}
	if m := int32(binary.BigEndian.Uint32(head[0:4])); m != magic {
		return nil, &Error{fmt.Sprintf("%s: magic number %d", WrongFormat, m), name, []string{"newXTC"}, true}
	}
	X := &XTCObj{filename: name, r: r}
	X.natoms = int(int32(binary.BigEndian.Uint32(head[4:8])))
	if X.natoms <= 0 {
		return nil, &Error{fmt.Sprintf("%s: %d atoms", WrongFormat, X.natoms), name, []string{"newXTC"}, true}
	}
	X.coords = make([]float32, 3*X.natoms)
	X.ints = make([]int32, 3*X.natoms)
	X.readable = true
	return X, nil
}

// Readable returns true if the object is ready to be read from
// false otherwise. It doesn't guarantee that there is something
// to read.
func (X *XTCObj) Readable() bool {
	return X.readable
}

// Len returns the number of atoms per frame in the XTCObj.
func (X *XTCObj) Len() int {
	return X.natoms
}

// Step returns the MD step of the last frame read.
func (X *XTCObj) Step() int {
	return X.step
}

// Time returns the time, in ps, of the last frame read.
func (X *XTCObj) Time() float64 {
	return float64(X.time)
}

// Frames returns the number of frames read so far.
func (X *XTCObj) Frames() int {
	return X.frames
}

// Close releases the mapped file, if any, and marks the object as unreadable.
func (X *XTCObj) Close() error {
	X.readable = false
	var err error
	if X.mm != nil {
		err = X.mm.Unmap()
		X.mm = nil
	}
	if X.f != nil {
		if err2 := X.f.Close(); err == nil {
			err = err2
		}
		X.f = nil
	}
	return err
}

// Next reads the next frame. If output is not nil, the coordinates are put
// there, in Angstrom. If box is given and holds at least 9 elements, it is filled
// with the box vectors, also in Angstrom.
// At the end of the trajectory, Next returns an error that implements chem.LastFrameError.
func (X *XTCObj) Next(output *v3.Matrix, box ...[]float64) error {
	if !X.readable {
		return &Error{TrajUnIni, X.filename, []string{"Next"}, true}
	}
	m, err := X.readInt()
	if err != nil {
		X.readable = false
		if errors.Is(err, io.EOF) {
			return newlastFrameError(X.filename, "Next")
		}
		return X.readErr(err, "header")
	}
	if m != magic {
		X.readable = false
		return &Error{fmt.Sprintf("%s: magic number %d in frame %d", WrongFormat, m, X.frames+1), X.filename, []string{"Next"}, true}
	}
	var head [2]int32
	for i := range head {
		if head[i], err = X.readInt(); err != nil {
			return X.readErr(err, "header")
		}
	}
	if int(head[0]) != X.natoms {
		X.readable = false
		return &Error{fmt.Sprintf("%s: %d atoms in frame %d, expected %d", WrongFormat, head[0], X.frames+1, X.natoms), X.filename, []string{"Next"}, true}
	}
	X.step = int(head[1])
	if X.time, err = X.readFloat(); err != nil {
		return X.readErr(err, "time")
	}
	var b [9]float32
	for i := range b {
		if b[i], err = X.readFloat(); err != nil {
			return X.readErr(err, "box")
		}
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		for i, v := range b {
			box[0][i] = 10 * float64(v) //nm to Angstroms
		}
	}
	if err = X.readCoords(); err != nil {
		X.readable = false
		return errDecorate(err, "Next")
	}
	X.frames++
	if output == nil {
		return nil //Just drop the frame
	}
	if output.NVecs() < X.natoms {
		return &Error{fmt.Sprintf("%s: %d vectors for %d atoms", NotEnoughSpace, output.NVecs(), X.natoms), X.filename, []string{"Next"}, true}
	}
	for j := 0; j < X.natoms; j++ {
		output.SetVec(j, 10*float64(X.coords[3*j]), 10*float64(X.coords[3*j+1]), 10*float64(X.coords[3*j+2])) //nm to Angstroms
	}
	return nil
}

func (X *XTCObj) readErr(err error, what string) error {
	X.readable = false
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &Error{fmt.Sprintf("%s: truncated %s in frame %d", ReadError, what, X.frames+1), X.filename, []string{"Next"}, true}
	}
	return &Error{fmt.Sprintf("%s: %s in frame %d: %s", ReadError, what, X.frames+1, err.Error()), X.filename, []string{"Next"}, true}
}

func (X *XTCObj) readInt() (int32, error) {
	if _, err := io.ReadFull(X.r, X.scratch[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(X.scratch[:])), nil
}

func (X *XTCObj) readFloat() (float32, error) {
	if _, err := io.ReadFull(X.r, X.scratch[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(X.scratch[:])), nil
}

// readCoords reads a xdr3dfcoord block into X.coords.
func (X *XTCObj) readCoords() error {
	lsize, err := X.readInt()
	if err != nil {
		return X.readErr(err, "coordinates")
	}
	if int(lsize) != X.natoms {
		return &Error{fmt.Sprintf("%s: coordinate block for %d atoms, expected %d", WrongFormat, lsize, X.natoms), X.filename, []string{"readCoords"}, true}
	}
	//Small systems are stored uncompressed.
	if X.natoms <= 9 {
		for i := range X.coords {
			if X.coords[i], err = X.readFloat(); err != nil {
				return X.readErr(err, "coordinates")
			}
		}
		return nil
	}
	precision, err := X.readFloat()
	if err != nil {
		return X.readErr(err, "precision")
	}
	var h header
	h.precision = precision
	for i := 0; i < 3; i++ {
		if h.minint[i], err = X.readInt(); err != nil {
			return X.readErr(err, "coordinate limits")
		}
	}
	for i := 0; i < 3; i++ {
		if h.maxint[i], err = X.readInt(); err != nil {
			return X.readErr(err, "coordinate limits")
		}
	}
	if h.smallidx, err = X.readInt(); err != nil {
		return X.readErr(err, "coordinate header")
	}
	nbytes, err := X.readInt()
	if err != nil {
		return X.readErr(err, "coordinate header")
	}
	if nbytes < 0 {
		return &Error{fmt.Sprintf("%s: negative compressed block size", WrongFormat), X.filename, []string{"readCoords"}, true}
	}
	//XDR opaque data is padded to a multiple of 4 bytes.
	padded := (int(nbytes) + 3) &^ 3
	data := make([]byte, padded)
	if _, err = io.ReadFull(X.r, data); err != nil {
		return X.readErr(err, "compressed coordinates")
	}
	if err = decompress(&h, data[:nbytes], X.ints, X.coords); err != nil {
		return &Error{fmt.Sprintf("%s in frame %d: %s", ReadError, X.frames+1, err.Error()), X.filename, []string{"readCoords"}, true}
	}
	return nil
}

//Errors

// errDecorate decorates err with the caller's name if err is one of
// this package's errors.
func errDecorate(err error, caller string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

// Error is the general structure for XTC trajectory errors. It fulfills chem.Error and chem.TrajError
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("xtc file %s error: %s", err.filename, err.message)
}

// Decorate adds deco to the decoration of the error and returns the resulting slice.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err Error) FileName() string { return err.filename }

func (err Error) Format() string { return "xtc" }

func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIni      = "Traj object uninitialized to read"
	ReadError      = "Error reading frame"
	UnableToOpen   = "Unable to open file"
	WrongFormat    = "Wrong format in the XTC file or frame"
	NotEnoughSpace = "Not enough space in passed matrix"
	EOF            = "EOF"
)

// lastFrameError implements chem.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

// NormalLastFrameTermination does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return EOF }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "xtc" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}

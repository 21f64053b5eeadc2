/*
 * stf.go, part of mdcontacts.
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

package stf

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	v3 "github.com/Ravy-LFL/analysis-of-molecular-dynamics/v3"
	"github.com/klauspost/compress/zstd"
)

const (
	lzwLitwidth int = 8
	defaultPrec     = 2
)

// compression returns the compression scheme for a file, from the last
// letter of its name: l for lzw, z for gzip, r for flate and zstd otherwise.
func compression(name string) byte {
	if name == "" {
		return 's'
	}
	switch c := strings.ToLower(name)[len(name)-1]; c {
	case 'l', 'z', 'r':
		return c
	default:
		return 's'
	}
}

//Write!

// StfW writes STF trajectories.
type StfW struct {
	f         *os.File
	h         io.WriteCloser
	w         *bufio.Writer
	natoms    int
	filename  string
	writeable bool
	prec      int
	mult      float64
	frames    int
}

// NewWriter creates the STF file name for frames of natoms atoms. header is written
// as key=value lines; the "prec" key sets the number of decimals stored for each coordinate.
// compressionLevel is only used for gzip and flate files.
func NewWriter(name string, natoms int, header map[string]string, compressionLevel ...int) (*StfW, error) {
	level := flate.BestCompression
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	if natoms <= 0 {
		return nil, &Error{fmt.Sprintf("Can't write frames of %d atoms", natoms), name, []string{"NewWriter"}, true}
	}
	S := &StfW{natoms: natoms, filename: name, prec: defaultPrec}
	if p, ok := header["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil && prec > 0 {
			S.prec = prec
		} else {
			log.Printf("Invalid precision %q for trajectory %s. Will use the default", p, S.filename)
		}
	}
	S.mult = math.Pow(10, float64(S.prec))
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, &Error{UnableToOpen + ": " + err.Error(), name, []string{"NewWriter"}, true}
	}
	switch compression(name) {
	case 'l':
		S.h = lzw.NewWriter(S.f, lzw.MSB, lzwLitwidth)
	case 'z':
		S.h, err = gzip.NewWriterLevel(S.f, level)
	case 'r':
		S.h, err = flate.NewWriter(S.f, level)
	default:
		S.h, err = zstd.NewWriter(S.f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	}
	if err != nil {
		S.f.Close()
		return nil, &Error{"Can't start compressor: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.w = bufio.NewWriter(S.h)
	//The precision always goes in the header, so readers don't need to guess.
	keys := make([]string, 0, len(header)+1)
	for k := range header {
		if k != "prec" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fmt.Fprintf(S.w, "prec=%d\n", S.prec)
	for _, k := range keys {
		fmt.Fprintf(S.w, "%s=%s\n", k, header[k])
	}
	fmt.Fprintf(S.w, "** %d\n", S.natoms)
	S.writeable = true
	return S, nil
}

// Len returns the number of atoms per frame.
func (S *StfW) Len() int {
	return S.natoms
}

// WNext writes coord as the next frame. If box has at least 9 elements, the box
// vectors are written in the frame termination line.
func (S *StfW) WNext(coord *v3.Matrix, box ...[]float64) error {
	if !S.writeable {
		return &Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true}
	}
	if coord == nil {
		return &Error{NilCoordinates, S.filename, []string{"WNext"}, true}
	}
	if v := coord.NVecs(); v != S.natoms {
		return &Error{fmt.Sprintf("%d coordinates given, but %d expected", v, S.natoms), S.filename, []string{"WNext"}, true}
	}
	for i := 0; i < S.natoms; i++ {
		S.w.WriteString(coordsEncode(coord.Vec(i), S.mult))
	}
	var err error
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		_, err = fmt.Fprintf(S.w, "* %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f\n", b[0],
			b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8])
	} else {
		_, err = S.w.WriteString("*\n")
	}
	if err != nil {
		return &Error{"Can't write frame: " + err.Error(), S.filename, []string{"WNext"}, true}
	}
	S.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (S *StfW) Frames() int {
	return S.frames
}

// Close flushes the trajectory and closes the file. The writer can't be used after this.
func (S *StfW) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.w.Flush()
	if err2 := S.h.Close(); err == nil {
		err = err2
	}
	if err2 := S.f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return &Error{"Can't close trajectory: " + err.Error(), S.filename, []string{"Close"}, true}
	}
	return nil
}

func coordsEncode(c []float64, mult float64) string {
	return fmt.Sprintf("%d %d %d\n", int(math.RoundToEven(c[0]*mult)), int(math.RoundToEven(c[1]*mult)), int(math.RoundToEven(c[2]*mult)))
}

//Read!

// StfR reads STF trajectories.
type StfR struct {
	f        *os.File
	dec      io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	mult     float64
	readable bool
}

// zstd.Decoder's Close doesn't return an error, so it is not an io.ReadCloser.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// New opens a STF trajectory for reading, and returns a pointer
// to the handle, a map with the metadata in the header and error or nil.
func New(name string) (*StfR, map[string]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, &Error{UnableToOpen + ": " + err.Error(), name, []string{"New"}, true}
	}
	S, m, err := NewReader(f, name)
	if err != nil {
		f.Close()
		return nil, nil, errDecorate(err, "New")
	}
	S.f = f
	return S, m, nil
}

// NewReader reads a STF trajectory from r. The compression is chosen from name, as in New.
func NewReader(r io.Reader, name string) (*StfR, map[string]string, error) {
	S := &StfR{filename: name, natoms: -1, prec: defaultPrec}
	in := bufio.NewReader(r)
	var err error
	switch compression(name) {
	case 'l':
		S.dec = lzw.NewReader(in, lzw.MSB, lzwLitwidth)
	case 'z':
		S.dec, err = gzip.NewReader(in)
	case 'r':
		S.dec = flate.NewReader(in)
	default:
		var d *zstd.Decoder
		d, err = zstd.NewReader(in)
		if err == nil {
			S.dec = zstdReadCloser{d}
		}
	}
	if err != nil {
		return nil, nil, &Error{"Can't read header: " + err.Error(), name, []string{"NewReader"}, true}
	}
	S.h = bufio.NewReader(S.dec)
	m := make(map[string]string)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			S.dec.Close()
			return nil, nil, &Error{"Can't read header: " + err.Error(), name, []string{"NewReader"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				S.dec.Close()
				return nil, nil, &Error{fmt.Sprintf("Can't read atom number from '%s'", str), name, []string{"NewReader"}, true}
			}
			S.natoms, err = strconv.Atoi(nat[1])
			if err != nil || S.natoms <= 0 {
				S.dec.Close()
				return nil, nil, &Error{fmt.Sprintf("Can't read atom number from '%s'", nat[1]), name, []string{"NewReader"}, true}
			}
			break
		}
		k, v, ok := strings.Cut(str, "=")
		if !ok {
			S.dec.Close()
			return nil, nil, &Error{fmt.Sprintf("Malformed header line '%s'", str), name, []string{"NewReader"}, true}
		}
		m[k] = v
	}
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil && prec > 0 {
			S.prec = prec
		} else {
			log.Printf("Invalid precision %q for trajectory %s. Will assume the default", p, S.filename)
		}
	}
	S.mult = math.Pow(10, float64(S.prec))
	S.readable = true
	return S, m, nil
}

// Readable returns true if the handle is readable (if it is possible to call Next on it)
func (S *StfR) Readable() bool {
	return S.readable
}

func coordsDecode(str string, temp *[3]float64, mult float64) error {
	s := strings.Fields(str)
	if len(s) != 3 {
		return fmt.Errorf("ill formated coordinates line in stf: %d fields in '%s'", len(s), str)
	}
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("can't parse coordinate %d (%s): %w", i, v, err)
		}
		temp[i] = float64(f) / mult
	}
	return nil
}

// Next puts in the given matrix (c) the coordinates for the next frame of the trajectory
// and, if given, and the information is present, puts the box vector information in box.
// If c is nil, the frame is read and checked, but discarded.
// At the end of the trajectory, it returns an error implementing chem.LastFrameError.
func (S *StfR) Next(c *v3.Matrix, box ...[]float64) error {
	if !S.readable {
		return &Error{TrajUnIniRead, S.filename, []string{"Next"}, true}
	}
	if c != nil && c.NVecs() < S.natoms {
		return &Error{fmt.Sprintf("%s: %d vectors for %d atoms", NotEnoughSpace, c.NVecs(), S.natoms), S.filename, []string{"Next"}, true}
	}
	var temp [3]float64
	for i := 0; i < S.natoms; i++ {
		b, err := S.h.ReadString('\n')
		if err != nil {
			//EOF should only happen when reading the first atom
			if errors.Is(err, io.EOF) && i == 0 && b == "" {
				S.Close()
				return newlastFrameError(S.filename, "Next")
			}
			S.readable = false
			return &Error{ReadError + ": " + err.Error(), S.filename, []string{"Next"}, true}
		}
		if err = coordsDecode(strings.TrimSuffix(b, "\n"), &temp, S.mult); err != nil {
			S.readable = false
			return &Error{err.Error(), S.filename, []string{"Next"}, true}
		}
		if c == nil {
			continue
		}
		c.SetVec(i, temp[0], temp[1], temp[2])
	}
	s, err := S.h.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		S.readable = false
		return &Error{"Can't read the frame termination mark: " + err.Error(), S.filename, []string{"Next"}, true}
	}
	if len(s) == 0 || s[0] != '*' {
		S.readable = false
		return &Error{WrongFormat + ": wrong number of atoms in frame", S.filename, []string{"Next"}, true}
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		fields := strings.Fields(s)
		if len(fields) < 10 { // The "*" and the 9 numbers
			log.Printf("Trajectory file %s does not contain (correct) box information: %s", S.filename, fields)
			return nil
		}
		for j, v := range fields[1:10] {
			box[0][j], err = strconv.ParseFloat(v, 64)
			if err != nil {
				//The box is not essential, so we just zero it and log.
				log.Printf("Failed to read box in a frame from %s", S.filename)
				for i := range box[0] {
					box[0][i] = 0.0
				}
				break
			}
		}
	}
	return nil
}

// Close closes the object, and marks it as unreadable
func (S *StfR) Close() error {
	if S.dec == nil {
		return nil
	}
	S.readable = false
	err := S.dec.Close()
	S.dec = nil
	if S.f != nil {
		if err2 := S.f.Close(); err == nil {
			err = err2
		}
		S.f = nil
	}
	return err
}

// Len returns the number of atoms in each frame of the trajectory.
func (S *StfR) Len() int {
	return S.natoms
}

//Errors

// errDecorate decorates err with the caller's name if err is one of this
// package's errors.
func errDecorate(err error, caller string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

// Error is the general structure for STF trajectory errors. It fullfills  chem.Error and chem.TrajError
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
}

// Decorate Adds new information to the error
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file (always "stf") associated to the error
func (err Error) Format() string { return "stf" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	ReadError      = "Error reading frame"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the STF file or frame"
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

func (E *lastFrameError) Format() string { return "stf" }

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

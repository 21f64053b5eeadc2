/*
 * files.go, part of mdcontacts.
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
 *
 */

package chem

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	v3 "github.com/Ravy-LFL/analysis-of-molecular-dynamics/v3"
)

//PDBRead family

const pdbLineLen = 80

// padLine returns line padded with spaces to the full PDB record width, so
// fixed columns can be sliced without checking lengths. GROMACS often omits
// the trailing columns.
func padLine(line string) string {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < pdbLineLen {
		line += strings.Repeat(" ", pdbLineLen-len(line))
	}
	return line
}

// readPDBCoords parses the coordinates of an ATOM or HETATM line.
func readPDBCoords(line string, c []float64) error {
	var err error
	fields := [3]string{line[30:38], line[38:46], line[46:54]}
	for i, f := range fields {
		c[i], err = strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return fmt.Errorf("can't read coordinate %d: %w", i, err)
		}
	}
	return nil
}

// readPDBAtom parses a padded ATOM or HETATM line, returns an Atom
// object with the info except for the coordinates.
// serial is used as the atom ID when the serial field can't be read, which happens
// for very large systems written by some programs.
func readPDBAtom(line string, serial int) (*Atom, error) {
	var err error
	atom := new(Atom)
	atom.Het = strings.HasPrefix(line, "HETATM")
	atom.ID, err = strconv.Atoi(strings.TrimSpace(line[6:11]))
	if err != nil {
		atom.ID = serial
	}
	atom.Name = strings.TrimSpace(line[12:16])
	//4-letter residue names use column 21 too.
	atom.MolName = strings.TrimSpace(line[17:21])
	atom.Chain = strings.TrimSpace(line[21:22])
	atom.MolID, err = strconv.Atoi(strings.TrimSpace(line[22:26]))
	if err != nil {
		return nil, fmt.Errorf("can't read residue id: %w", err)
	}
	//Occupancy and b-factors are not needed, missing ones are just left as zero.
	atom.Occupancy, _ = strconv.ParseFloat(strings.TrimSpace(line[54:60]), 64)
	atom.Bfactor, _ = strconv.ParseFloat(strings.TrimSpace(line[60:66]), 64)
	atom.SegID = strings.TrimSpace(line[72:76])
	atom.Symbol = strings.TrimSpace(line[76:78])
	return atom, nil
}

// PDBRead reads the atomic entries of the PDB file pdbname, returns a topology and the coordinates
// of each model in the file, in Angstrom. A file without MODEL records has one model.
func PDBRead(pdbname string) (*Topology, []*v3.Matrix, error) {
	pdbfile, err := os.Open(pdbname)
	if err != nil {
		return nil, nil, &CError{fmt.Sprintf("Unable to open %s: %s", pdbname, err.Error()), []string{"PDBRead"}, true}
	}
	defer pdbfile.Close()
	top, coords, err := PDBReader(pdbfile, pdbname)
	return top, coords, ErrDecorate(err, "PDBRead")
}

// PDBReader reads a PDB from r. name is only used in error messages.
// The topology is read from the first model. Later models only contribute coordinates, and must
// have the same number of atoms as the first one.
func PDBReader(r io.Reader, name string) (*Topology, []*v3.Matrix, error) {
	top := NewTopology(1000)
	coords := make([][]float64, 1)
	firstModel := true //are we reading the first model? if not we only save coordinates
	inModel := false
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)
	c := make([]float64, 3)
	lineno := 0
	for scanner.Scan() {
		lineno++
		raw := scanner.Text()
		if len(raw) < 6 {
			continue
		}
		record := raw[:6]
		switch {
		case strings.HasPrefix(record, "ATOM") || strings.HasPrefix(record, "HETATM"):
			line := padLine(raw)
			if !firstModel && !inModel {
				//atoms after an ENDMDL without a new MODEL record.
				return nil, nil, &PDBError{name, lineno, "ATOM record outside of a MODEL", []string{"PDBReader"}}
			}
			if firstModel {
				at, err := readPDBAtom(line, top.Len()+1)
				if err != nil {
					return nil, nil, &PDBError{name, lineno, err.Error(), []string{"PDBReader"}}
				}
				top.AppendAtom(at)
			}
			if err := readPDBCoords(line, c); err != nil {
				return nil, nil, &PDBError{name, lineno, err.Error(), []string{"PDBReader"}}
			}
			coords[len(coords)-1] = append(coords[len(coords)-1], c...)
		case strings.HasPrefix(record, "MODEL"):
			inModel = true
			if len(coords[len(coords)-1]) > 0 {
				firstModel = false
				coords = append(coords, make([]float64, 0, 3*top.Len()))
			}
		case strings.HasPrefix(record, "ENDMDL"):
			inModel = false
			if len(coords[len(coords)-1]) > 0 {
				firstModel = false
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, &PDBError{name, lineno, err.Error(), []string{"PDBReader"}}
	}
	if top.Len() == 0 {
		return nil, nil, &PDBError{name, lineno, "no ATOM or HETATM records", []string{"PDBReader"}}
	}
	mcoords := make([]*v3.Matrix, 0, len(coords))
	for i, frame := range coords {
		if len(frame) == 0 {
			continue //an empty trailing MODEL.
		}
		if len(frame) != 3*top.Len() {
			return nil, nil, &PDBError{name, lineno, fmt.Sprintf("model %d has %d atoms, expected %d", i+1, len(frame)/3, top.Len()), []string{"PDBReader"}}
		}
		m, err := v3.NewMatrix(frame)
		if err != nil {
			return nil, nil, ErrDecorate(err, "PDBReader")
		}
		mcoords = append(mcoords, m)
	}
	return top, mcoords, nil
}

//End PDBRead family

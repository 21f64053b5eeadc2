/*
 * chem.go, part of mdcontacts.
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

import "fmt"

// Atom contains the atoms read except for the coordinates, which will be in a matrix.
// In a coarse-grained system each Atom is a bead.
type Atom struct {
	Name      string
	ID        int
	MolName   string //residue name
	MolID     int    //residue id, as in the PDB resSeq field, counted from 1
	Chain     string
	SegID     string
	Occupancy float64
	Bfactor   float64
	Symbol    string
	Het       bool // is hetatm in the pdb file?
}

// Segment returns the segment the atom belongs to: the segment identifier,
// if present, or the chain otherwise.
func (A *Atom) Segment() string {
	if A.SegID != "" {
		return A.SegID
	}
	return A.Chain
}

func (A *Atom) String() string {
	return fmt.Sprintf("%s %d %s %d %s", A.Name, A.ID, A.MolName, A.MolID, A.Segment())
}

/*****Topology type***/

// Topology contains information about a molecule which is not expected to change in time (i.e. everything except for coordinates)
type Topology struct {
	Atoms []*Atom
}

// NewTopology returns an empty topology with room for capacity atoms.
func NewTopology(capacity int) *Topology {
	return &Topology{Atoms: make([]*Atom, 0, capacity)}
}

// Atom returns the Atom corresponding to the index i
// of the Atom slice in the Topology. Panics if
// out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() {
		panic("Topology: Requested Atom out of bounds")
	}
	return T.Atoms[i]
}

// AppendAtom appends an atom at the end of the topology
func (T *Topology) AppendAtom(at *Atom) {
	T.Atoms = append(T.Atoms, at)
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

// Residue identifies one residue of a topology.
type Residue struct {
	Segment string
	ID      int
	Name    string
	First   int //index of the first atom of the residue
}

// Residues returns the residues of mol in file order. A new residue starts every time
// the residue id or the segment changes from one atom to the next.
func Residues(mol Atomer) []Residue {
	ret := make([]Residue, 0, mol.Len()/2)
	for i := 0; i < mol.Len(); i++ {
		at := mol.Atom(i)
		seg := at.Segment()
		if l := len(ret); l > 0 && ret[l-1].ID == at.MolID && ret[l-1].Segment == seg {
			continue
		}
		ret = append(ret, Residue{Segment: seg, ID: at.MolID, Name: at.MolName, First: i})
	}
	return ret
}

// countResidues returns the number of residues in mol, as defined in Residues.
func countResidues(mol Atomer) int {
	return len(Residues(mol))
}

// MonomerLength returns the number of residues in each chain of a homodimer,
// i.e. half the residues in mol. It returns an error if the residue number is odd.
func MonomerLength(mol Atomer) (int, error) {
	n := countResidues(mol)
	if n == 0 {
		return 0, &CError{"Topology without residues", []string{"MonomerLength"}, true}
	}
	if n%2 != 0 {
		return 0, &CError{fmt.Sprintf("%d residues can't be split in two identical chains", n), []string{"MonomerLength"}, true}
	}
	return n / 2, nil
}

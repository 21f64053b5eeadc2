/*
 * handy.go, part of mdcontacts.
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

// ResidueKey identifies a residue by segment and residue id.
type ResidueKey struct {
	Segment string
	ID      int
}

// BeadIndex maps residues to the index of one named bead (e.g. "BB") in a topology.
// It is built once, so per-frame lookups don't scan the topology.
type BeadIndex struct {
	name  string
	index map[ResidueKey]int
}

// NewBeadIndex indexes the atoms called name in mol. If a residue contains more than one
// atom with that name, the first one is used.
func NewBeadIndex(mol Atomer, name string) *BeadIndex {
	B := &BeadIndex{name: name, index: make(map[ResidueKey]int)}
	for i := 0; i < mol.Len(); i++ {
		at := mol.Atom(i)
		if at.Name != name {
			continue
		}
		k := ResidueKey{at.Segment(), at.MolID}
		if _, ok := B.index[k]; ok {
			continue
		}
		B.index[k] = i
	}
	return B
}

// Find returns the index of the bead of residue resid in segment. It returns a
// *SelectionError if there is no such bead.
func (B *BeadIndex) Find(segment string, resid int) (int, error) {
	i, ok := B.index[ResidueKey{segment, resid}]
	if !ok {
		return -1, &SelectionError{Segment: segment, ResID: resid, Name: B.name, deco: []string{"Find"}}
	}
	return i, nil
}

// Segments returns the segments present in mol, in file order.
func Segments(mol Atomer) []string {
	ret := make([]string, 0, 2)
	for i := 0; i < mol.Len(); i++ {
		s := mol.Atom(i).Segment()
		if !isInString(ret, s) {
			ret = append(ret, s)
		}
	}
	return ret
}

//Some internal convenience functions.

// isInString returns true if test is in container, false otherwise.
func isInString(container []string, test string) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}

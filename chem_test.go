/*
 * chem_test.go, part of mdcontacts.
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
	"errors"
	"strings"
	"testing"
)

func TestPDBRead(Te *testing.T) {
	top, coords, err := PDBRead("test/dimer.pdb")
	if err != nil {
		Te.Fatal(err)
	}
	if top.Len() != 14 {
		Te.Errorf("expected 14 beads, got %d", top.Len())
	}
	if len(coords) != 2 {
		Te.Fatalf("expected 2 models, got %d", len(coords))
	}
	for i, c := range coords {
		if c.NVecs() != top.Len() {
			Te.Errorf("model %d has %d coordinates for %d beads", i+1, c.NVecs(), top.Len())
		}
	}
	at := top.Atom(7)
	if at.Name != "BB" || at.MolName != "ALA" || at.MolID != 1 || at.Segment() != "B" {
		Te.Errorf("unexpected atom %s", at)
	}
	if x := coords[1].At(7, 0); x != 11 {
		Te.Errorf("expected x=11 for the first B bead in the second model, got %f", x)
	}
}

func TestResidues(Te *testing.T) {
	top, _, err := PDBRead("test/dimer.pdb")
	if err != nil {
		Te.Fatal(err)
	}
	res := Residues(top)
	if len(res) != 8 {
		Te.Fatalf("expected 8 residues, got %d", len(res))
	}
	if res[4].Segment != "B" || res[4].ID != 1 || res[4].Name != "ALA" {
		Te.Errorf("unexpected fifth residue %+v", res[4])
	}
	n, err := MonomerLength(top)
	if err != nil {
		Te.Fatal(err)
	}
	if n != 4 {
		Te.Errorf("expected 4 residues per monomer, got %d", n)
	}
	if got := Segments(top); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		Te.Errorf("unexpected segments %v", got)
	}
}

func TestMonomerLengthOdd(Te *testing.T) {
	top := NewTopology(3)
	for i := 1; i <= 3; i++ {
		top.AppendAtom(&Atom{Name: "BB", MolID: i, MolName: "ALA", Chain: "A"})
	}
	if _, err := MonomerLength(top); err == nil {
		Te.Error("an odd number of residues should not be accepted as a homodimer")
	}
}

func TestBeadIndex(Te *testing.T) {
	top, _, err := PDBRead("test/dimer.pdb")
	if err != nil {
		Te.Fatal(err)
	}
	B := NewBeadIndex(top, "BB")
	i, err := B.Find("B", 2)
	if err != nil {
		Te.Fatal(err)
	}
	if at := top.Atom(i); at.Name != "BB" || at.MolName != "GLY" || at.Segment() != "B" {
		Te.Errorf("wrong bead found: %s", at)
	}
	_, err = B.Find("C", 1)
	var sel *SelectionError
	if !errors.As(err, &sel) {
		Te.Fatalf("expected a *SelectionError, got %v", err)
	}
	if sel.Segment != "C" || sel.ResID != 1 || sel.Name != "BB" {
		Te.Errorf("unexpected selection error %+v", sel)
	}
	sc := NewBeadIndex(top, "SC1")
	if _, err := sc.Find("A", 2); err == nil {
		Te.Error("glycine has no side chain bead")
	}
}

func TestPDBChainFallback(Te *testing.T) {
	pdb := "ATOM      1  BB  ALA X   1       1.000   2.000   3.000\n" +
		"ATOM      2  BB  GLY X   2       4.000   5.000   6.000\n"
	top, coords, err := PDBReader(strings.NewReader(pdb), "short.pdb")
	if err != nil {
		Te.Fatal(err)
	}
	if top.Atom(0).Segment() != "X" {
		Te.Errorf("segment should fall back to the chain, got %q", top.Atom(0).Segment())
	}
	if len(coords) != 1 || coords[0].At(1, 2) != 6 {
		Te.Errorf("unexpected coordinates %v", coords)
	}
}

func TestPDBErrors(Te *testing.T) {
	bad := "ATOM      1  BB  ALA A   1       1.000   abc     3.000\n"
	_, _, err := PDBReader(strings.NewReader(bad), "bad.pdb")
	var perr *PDBError
	if !errors.As(err, &perr) {
		Te.Fatalf("expected a *PDBError, got %v", err)
	}
	if perr.Line != 1 {
		Te.Errorf("expected error in line 1, got %d", perr.Line)
	}
	mismatch := "MODEL        1\n" +
		"ATOM      1  BB  ALA A   1       1.000   2.000   3.000\n" +
		"ATOM      2  BB  GLY A   2       1.000   2.000   3.000\n" +
		"ENDMDL\nMODEL        2\n" +
		"ATOM      1  BB  ALA A   1       1.000   2.000   3.000\n" +
		"ENDMDL\n"
	if _, _, err := PDBReader(strings.NewReader(mismatch), "mismatch.pdb"); err == nil {
		Te.Error("models with different atom numbers should be rejected")
	}
	if _, _, err := PDBReader(strings.NewReader("REMARK nothing\n"), "empty.pdb"); err == nil {
		Te.Error("a PDB without atoms should be rejected")
	}
	_, _, err = PDBRead("test/does-not-exist.pdb")
	var cerr Error
	if !errors.As(err, &cerr) {
		Te.Fatalf("expected a decorated error, got %v", err)
	}
	if d := cerr.Decorate(""); len(d) == 0 || d[0] != "PDBRead" {
		Te.Errorf("unexpected decoration %v", d)
	}
}

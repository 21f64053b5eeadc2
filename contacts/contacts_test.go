/*
 * contacts_test.go, part of mdcontacts.
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

package contacts

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/Ravy-LFL/analysis-of-molecular-dynamics"
	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/table"
	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/traj"
	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/traj/stf"
	v3 "github.com/Ravy-LFL/analysis-of-molecular-dynamics/v3"
)

const dimer = "../test/dimer.pdb"

type memTable struct {
	rows   []table.Row
	closed bool
}

func (m *memTable) Write(r table.Row) error {
	m.rows = append(m.rows, r)
	return nil
}

func (m *memTable) Close() error {
	m.closed = true
	return nil
}

func readDimer(Te *testing.T) (*chem.Topology, *traj.Models) {
	Te.Helper()
	top, models, err := chem.PDBRead(dimer)
	if err != nil {
		Te.Fatal(err)
	}
	return top, traj.NewModels(models, dimer)
}

func TestPairs(Te *testing.T) {
	expected := []Pair{{1, 1}, {1, 3}, {2, 2}, {3, 3}}
	p := Pairs(4)
	if len(p) != len(expected) {
		Te.Fatalf("got pairs %v, expected %v", p, expected)
	}
	for i := range p {
		if p[i] != expected[i] {
			Te.Errorf("got pairs %v, expected %v", p, expected)
			break
		}
	}
	for n := 0; n < 40; n++ {
		p := Pairs(n)
		if len(p) != PairCount(n) {
			Te.Errorf("PairCount(%d) = %d, but there are %d pairs", n, PairCount(n), len(p))
		}
		for _, v := range p {
			if v.J == v.I+1 || v.J < v.I || v.I < 1 || v.J >= n {
				Te.Errorf("invalid pair %v for n=%d", v, n)
			}
		}
	}
}

// One row per pair per frame, with frames counted from 1.
func TestExtractorDimer(Te *testing.T) {
	top, models := readDimer(Te)
	E, err := NewExtractor(top, DefaultConfig())
	if err != nil {
		Te.Fatal(err)
	}
	if E.MonomerLength() != 4 {
		Te.Fatalf("got %d residues per monomer, expected 4", E.MonomerLength())
	}
	w := new(memTable)
	if err := E.Run(models, w, nil); err != nil {
		Te.Fatal(err)
	}
	if E.Frames() != 2 {
		Te.Errorf("read %d frames, expected 2", E.Frames())
	}
	if len(w.rows) != 2*PairCount(4) || E.Rows() != len(w.rows) {
		Te.Fatalf("got %d rows, expected %d", len(w.rows), 2*PairCount(4))
	}
	sqrt136, sqrt157 := math.Sqrt(136), math.Sqrt(157)
	expected := []table.Row{
		{ResI: 1, ResJ: 1, NameI: "ALA", NameJ: "ALA", Distance: 10, Frame: 1},
		{ResI: 1, ResJ: 3, NameI: "ALA", NameJ: "CYS", Distance: sqrt136, Frame: 1},
		{ResI: 2, ResJ: 2, NameI: "GLY", NameJ: "GLY", Distance: 10, Frame: 1},
		{ResI: 3, ResJ: 3, NameI: "CYS", NameJ: "CYS", Distance: 10, Frame: 1},
		{ResI: 1, ResJ: 1, NameI: "ALA", NameJ: "ALA", Distance: 11, Frame: 2},
		{ResI: 1, ResJ: 3, NameI: "ALA", NameJ: "CYS", Distance: sqrt157, Frame: 2},
		{ResI: 2, ResJ: 2, NameI: "GLY", NameJ: "GLY", Distance: 11, Frame: 2},
		{ResI: 3, ResJ: 3, NameI: "CYS", NameJ: "CYS", Distance: 11, Frame: 2},
	}
	for i, r := range w.rows {
		e := expected[i]
		if r.ResI != e.ResI || r.ResJ != e.ResJ || r.NameI != e.NameI || r.NameJ != e.NameJ || r.Frame != e.Frame {
			Te.Errorf("row %d is %v, expected %v", i, r, e)
		}
		if math.Abs(r.Distance-e.Distance) > 1e-9 {
			Te.Errorf("row %d distance %f, expected %f", i, r.Distance, e.Distance)
		}
	}
}

func TestExtractorMaxDistance(Te *testing.T) {
	top, models := readDimer(Te)
	cfg := DefaultConfig()
	cfg.MaxDistance = 10.5
	E, err := NewExtractor(top, cfg)
	if err != nil {
		Te.Fatal(err)
	}
	w := new(memTable)
	if err := E.Run(models, w, nil); err != nil {
		Te.Fatal(err)
	}
	if len(w.rows) != 3 {
		Te.Fatalf("got %d rows, expected 3", len(w.rows))
	}
	for _, r := range w.rows {
		if r.Frame != 1 || r.Distance > 10.5 {
			Te.Errorf("unexpected row %v", r)
		}
	}
}

// Pairs with an undefined distance are never within MaxDistance.
func TestExtractorNaNDistance(Te *testing.T) {
	top, models, err := chem.PDBRead(dimer)
	if err != nil {
		Te.Fatal(err)
	}
	frame := models[0]
	frame.Set(0, 0, math.NaN()) //BB of residue 1, chain A
	for _, c := range []struct {
		max  float64
		rows int
	}{{0, PairCount(4)}, {10.5, 2}} {
		cfg := DefaultConfig()
		cfg.MaxDistance = c.max
		E, err := NewExtractor(top, cfg)
		if err != nil {
			Te.Fatal(err)
		}
		w := new(memTable)
		if err := E.Frame(frame, 1, w); err != nil {
			Te.Fatal(err)
		}
		if len(w.rows) != c.rows {
			Te.Errorf("MaxDistance %v: got %d rows, expected %d", c.max, len(w.rows), c.rows)
		}
		for _, r := range w.rows {
			if c.max > 0 && !(r.Distance <= c.max) {
				Te.Errorf("MaxDistance %v: row %v written", c.max, r)
			}
		}
	}
}

// A missing bead is reported before any row is written.
func TestExtractorMissingBead(Te *testing.T) {
	top, _ := readDimer(Te)
	cfg := DefaultConfig()
	cfg.Bead = "SC1" //glycine has no side chain bead
	_, err := NewExtractor(top, cfg)
	var serr *chem.SelectionError
	if !errors.As(err, &serr) {
		Te.Fatalf("expected a selection error, got %v", err)
	}
	if serr.ResID != 2 || serr.Segment != "A" || serr.Name != "SC1" {
		Te.Errorf("unexpected error %v", serr)
	}
	cfg = DefaultConfig()
	cfg.SegB = "C"
	if _, err := NewExtractor(top, cfg); err == nil || !strings.Contains(err.Error(), "found A, B") {
		Te.Errorf("expected an error listing the segments, got %v", err)
	}
}

func TestExtractorOddResidues(Te *testing.T) {
	top := chem.NewTopology(3)
	for i := 1; i <= 3; i++ {
		top.AppendAtom(&chem.Atom{Name: "BB", MolName: "ALA", MolID: i, Chain: "A"})
	}
	if _, err := NewExtractor(top, DefaultConfig()); err == nil {
		Te.Error("expected an error for a topology with 3 residues")
	}
}

// A frame that can't be read stops the run, keeping the rows of earlier frames.
func TestExtractorBadFrame(Te *testing.T) {
	top, _, err := chem.PDBRead(dimer)
	if err != nil {
		Te.Fatal(err)
	}
	good := v3.Zeros(top.Len())
	models := traj.NewModels([]*v3.Matrix{good, v3.Zeros(3)}, "broken")
	E, err := NewExtractor(top, DefaultConfig())
	if err != nil {
		Te.Fatal(err)
	}
	w := new(memTable)
	if err := E.Run(models, w, nil); err == nil {
		Te.Fatal("expected an error for a frame with the wrong number of atoms")
	}
	if len(w.rows) != PairCount(4) {
		Te.Errorf("got %d rows, expected those of the first frame, %d", len(w.rows), PairCount(4))
	}
}

func TestOutputName(Te *testing.T) {
	for dir, expected := range map[string]string{
		"sim1":             "./sim1_count.csv",
		"/data/runs/sim2/": "./sim2_count.csv",
		"../x/wt_rep1":     "./wt_rep1_count.csv",
	} {
		if n := OutputName(dir); n != expected {
			Te.Errorf("OutputName(%s) = %s, expected %s", dir, n, expected)
		}
	}
	J := NewJob("runs/sim1", DefaultConfig())
	if J.Topology != filepath.Join("runs", "sim1", "protein.pdb") || J.Trajectory != filepath.Join("runs", "sim1", "fit.xtc") {
		Te.Errorf("unexpected paths %s %s", J.Topology, J.Trajectory)
	}
}

func TestJob(Te *testing.T) {
	dir := Te.TempDir()
	data, err := os.ReadFile(dimer)
	if err != nil {
		Te.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, TopologyName), data, 0o644); err != nil {
		Te.Fatal(err)
	}
	J := NewJob(dir, DefaultConfig())
	J.Trajectory = filepath.Join(dir, TopologyName) //the models work as a trajectory
	J.Out = filepath.Join(dir, "dimer_count.csv.gz")
	J.Beads = filepath.Join(dir, "beads.stf")
	if err := J.Run(); err != nil {
		Te.Fatal(err)
	}
	r, err := table.Open(J.Out)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	rows, err := r.ReadChunk(100)
	if err != nil {
		Te.Fatal(err)
	}
	if len(rows) != 8 || rows[7].Frame != 2 {
		Te.Errorf("unexpected rows %v", rows)
	}
	if _, err := r.ReadChunk(100); !errors.Is(err, io.EOF) {
		Te.Errorf("expected io.EOF, got %v", err)
	}
	beads, header, err := stf.New(J.Beads)
	if err != nil {
		Te.Fatal(err)
	}
	defer beads.Close()
	if beads.Len() != 6 || header["bead"] != "BB" {
		Te.Errorf("unexpected bead trajectory: %d atoms, header %v", beads.Len(), header)
	}
	m := v3.Zeros(6)
	frames := 0
	for {
		if err := beads.Next(m); err != nil {
			if chem.IsLastFrame(err) {
				break
			}
			Te.Fatal(err)
		}
		frames++
	}
	//the first bead of the second monomer, in the second frame.
	if frames != 2 || m.At(3, 0) != 11 {
		Te.Errorf("got %d frames, bead 3 at %v", frames, m.Vec(3))
	}
}

func TestJobMissingTopology(Te *testing.T) {
	J := NewJob(Te.TempDir(), DefaultConfig())
	J.Out = filepath.Join(Te.TempDir(), "x_count.csv")
	if err := J.Run(); err == nil {
		Te.Error("expected an error for a missing topology")
	}
	if _, err := os.Stat(J.Out); err == nil {
		Te.Error("no table should be created when the topology can't be read")
	}
}

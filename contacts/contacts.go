/*
 * contacts.go, part of mdcontacts.
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

// Package contacts computes, for each frame of a homodimer trajectory, the distances
// between the backbone beads of residues of one chain and residues of the other.
package contacts

import (
	"fmt"
	"log"
	"slices"
	"strings"

	chem "github.com/Ravy-LFL/analysis-of-molecular-dynamics"
	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/table"
	v3 "github.com/Ravy-LFL/analysis-of-molecular-dynamics/v3"
)

// Config holds the parameters of a distance run.
type Config struct {
	Bead        string  //name of the bead used for each residue
	SegA        string  //segment (or chain) of the first monomer
	SegB        string  //segment (or chain) of the second monomer
	MaxDistance float64 //if > 0, rows with larger distances are not written
	LogEvery    int     //frames between progress messages, 0 for none
}

// DefaultConfig returns the configuration for Martini backbone beads
// in segments A and B, writing every pair.
func DefaultConfig() Config {
	return Config{Bead: "BB", SegA: "A", SegB: "B", LogEvery: 100}
}

// Pair is a residue of the first monomer (I) and one of the second (J).
type Pair struct {
	I, J int
}

// Pairs returns the residue pairs measured in a dimer with n residues per monomer:
// every i in [1,n) with every j in [i,n), except j == i+1.
func Pairs(n int) []Pair {
	ret := make([]Pair, 0, PairCount(n))
	for i := 1; i < n; i++ {
		for j := i; j < n; j++ {
			if j == i+1 {
				continue
			}
			ret = append(ret, Pair{i, j})
		}
	}
	return ret
}

// PairCount returns len(Pairs(n)) without building the pairs.
func PairCount(n int) int {
	if n < 2 {
		return 0
	}
	m := n - 1                //values of i
	return m*(m+1)/2 - (m - 1) //all j >= i, minus the j == i+1 that fit
}

// Extractor writes the distance rows for the frames of a trajectory.
type Extractor struct {
	cfg    Config
	n      int
	pairs  []Pair
	a, b   []int //bead indexes of each pair
	nameA  []string
	nameB  []string
	frames int
	rows   int
}

// NewExtractor resolves the beads of every pair in top. It fails, before anything
// is computed, if top doesn't have an even number of residues or a bead is missing.
func NewExtractor(top chem.Atomer, cfg Config) (*Extractor, error) {
	if cfg.Bead == "" {
		cfg.Bead = DefaultConfig().Bead
	}
	n, err := chem.MonomerLength(top)
	if err != nil {
		return nil, chem.ErrDecorate(err, "NewExtractor")
	}
	segs := chem.Segments(top)
	for _, seg := range []string{cfg.SegA, cfg.SegB} {
		if !slices.Contains(segs, seg) {
			return nil, fmt.Errorf("NewExtractor: no segment %q in the topology, found %s", seg, strings.Join(segs, ", "))
		}
	}
	E := &Extractor{cfg: cfg, n: n, pairs: Pairs(n)}
	beads := chem.NewBeadIndex(top, cfg.Bead)
	E.a = make([]int, len(E.pairs))
	E.b = make([]int, len(E.pairs))
	E.nameA = make([]string, len(E.pairs))
	E.nameB = make([]string, len(E.pairs))
	for k, p := range E.pairs {
		if E.a[k], err = beads.Find(cfg.SegA, p.I); err != nil {
			return nil, chem.ErrDecorate(err, "NewExtractor")
		}
		if E.b[k], err = beads.Find(cfg.SegB, p.J); err != nil {
			return nil, chem.ErrDecorate(err, "NewExtractor")
		}
		E.nameA[k] = top.Atom(E.a[k]).MolName
		E.nameB[k] = top.Atom(E.b[k]).MolName
	}
	return E, nil
}

// MonomerLength returns the number of residues per monomer.
func (E *Extractor) MonomerLength() int {
	return E.n
}

// Pairs returns the residue pairs measured in each frame.
func (E *Extractor) Pairs() []Pair {
	return E.pairs
}

// Beads returns the indexes of all the beads used, first those of the first monomer, without repetitions.
func (E *Extractor) Beads() []int {
	ret := make([]int, 0, 2*E.n)
	seen := make(map[int]bool, 2*E.n)
	for _, list := range [][]int{E.a, E.b} {
		for _, i := range list {
			if !seen[i] {
				seen[i] = true
				ret = append(ret, i)
			}
		}
	}
	return ret
}

// Frames returns the number of frames processed.
func (E *Extractor) Frames() int {
	return E.frames
}

// Rows returns the number of rows written.
func (E *Extractor) Rows() int {
	return E.rows
}

// Frame writes to w the rows of the frame with the given coordinates, numbered frame.
func (E *Extractor) Frame(coords *v3.Matrix, frame int, w table.Writer) error {
	for k, p := range E.pairs {
		d := coords.Dist(E.a[k], coords, E.b[k])
		if E.cfg.MaxDistance > 0 && !(d <= E.cfg.MaxDistance) {
			continue
		}
		if err := w.Write(table.Row{ResI: p.I, ResJ: p.J, NameI: E.nameA[k], NameJ: E.nameB[k], Distance: d, Frame: frame}); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		E.rows++
	}
	return nil
}

// Run reads traj until its end and writes the rows of each frame, numbered
// from 1, to w. If beads is not nil, the coordinates of the beads used are
// also written to it, one frame per trajectory frame.
// A frame that can't be read stops the run; the rows of the previous frames are kept in w.
func (E *Extractor) Run(traj chem.Traj, w table.Writer, beads BeadWriter) error {
	coords := v3.Zeros(traj.Len())
	var sub *v3.Matrix
	var subidx []int
	if beads != nil {
		subidx = E.Beads()
		sub = v3.Zeros(len(subidx))
	}
	box := make([]float64, 9)
	for frame := 1; ; frame++ {
		err := traj.Next(coords, box)
		if err != nil {
			if chem.IsLastFrame(err) {
				break
			}
			return fmt.Errorf("reading frame %d: %w", frame, chem.ErrDecorate(err, "Run"))
		}
		if err := E.Frame(coords, frame, w); err != nil {
			return err
		}
		if beads != nil {
			sub.SomeVecs(coords, subidx)
			if err := beads.WNext(sub, box); err != nil {
				return fmt.Errorf("writing beads of frame %d: %w", frame, err)
			}
		}
		E.frames++
		if E.cfg.LogEvery > 0 && E.frames%E.cfg.LogEvery == 0 {
			if t, ok := traj.(timed); ok {
				log.Printf("contacts: %d frames, t = %.1f ps, %d rows", E.frames, t.Time(), E.rows)
			} else {
				log.Printf("contacts: %d frames, %d rows", E.frames, E.rows)
			}
		}
	}
	return nil
}

// timed is a trajectory that knows the simulation time of its last frame.
type timed interface {
	Time() float64
}

// BeadWriter receives the coordinates of the beads used in each frame.
type BeadWriter interface {
	WNext(coord *v3.Matrix, box ...[]float64) error
}

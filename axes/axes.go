/*
 * axes.go, part of mdcontacts.
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

// Package axes reads a distance table and builds, for each residue involved in a close
// contact, the frames in which it happens, as parallel x (residue), y (frame) and label
// sequences ready to plot.
package axes

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LabelScope says which rows can provide the name of a residue.
type LabelScope string

const (
	//ChunkLabels resolves names only from the rows of the chunk being processed.
	ChunkLabels LabelScope = "chunk"
	//CumulativeLabels also uses the names seen in previous chunks.
	CumulativeLabels LabelScope = "cumulative"
)

// ParseLabelScope returns the LabelScope called s.
func ParseLabelScope(s string) (LabelScope, error) {
	switch l := LabelScope(s); l {
	case ChunkLabels, CumulativeLabels:
		return l, nil
	}
	return "", fmt.Errorf("unknown label scope %q, use %q or %q", s, ChunkLabels, CumulativeLabels)
}

// Config holds the aggregation parameters.
type Config struct {
	Cutoff    float64 //rows with larger distances are ignored
	ChunkSize int     //rows read at a time
	Labels    LabelScope
}

// DefaultConfig returns a 7 A cutoff, chunks of 50000 rows and chunk-scoped labels.
func DefaultConfig() Config {
	return Config{Cutoff: 7, ChunkSize: 50000, Labels: ChunkLabels}
}

// Series contains the frames in which a residue is in contact.
type Series struct {
	Residue int
	Label   string
	Frames  []int
}

// Unresolved is a residue that was skipped in a chunk, because
// no name for it was available.
type Unresolved struct {
	Chunk   int //counted from 1
	Residue int
	Frames  []int //frames lost
}

// Result is the output of an aggregation. X, Y and Labels have one element per
// (residue, frame) contact.
type Result struct {
	X          []int
	Y          []int
	Labels     []string
	Series     []*Series //in order of first appearance
	Unresolved []Unresolved
}

// Aggregator accumulates the contacts of successive chunks.
type Aggregator struct {
	cfg    Config
	chunk  int
	names  map[int]string //carried over chunks with CumulativeLabels
	seen   map[int]map[int]bool
	series map[int]*Series
	res    Result
}

// Validate returns an error if c can't be used for an aggregation. An empty
// Labels means ChunkLabels.
func (c Config) Validate() error {
	if !(c.Cutoff > 0) || math.IsInf(c.Cutoff, 1) {
		return fmt.Errorf("invalid cutoff %v, it must be a positive distance", c.Cutoff)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("invalid chunk size %d", c.ChunkSize)
	}
	if c.Labels != "" {
		if _, err := ParseLabelScope(string(c.Labels)); err != nil {
			return err
		}
	}
	return nil
}

// NewAggregator returns an empty aggregator, or an error if cfg is not valid.
func NewAggregator(cfg Config) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Labels == "" {
		cfg.Labels = ChunkLabels
	}
	return &Aggregator{
		cfg:    cfg,
		names:  make(map[int]string),
		seen:   make(map[int]map[int]bool),
		series: make(map[int]*Series),
	}, nil
}

// chunkLabels returns the residue id to name lookup of a chunk. Both sides
// of every row are used, and the first name seen for a residue wins.
// Blank names are not used.
func chunkLabels(rows []table.Row, into map[int]string) map[int]string {
	if into == nil {
		into = make(map[int]string)
	}
	add := func(res int, name string) {
		if name == "" {
			return
		}
		if _, ok := into[res]; !ok {
			into[res] = name
		}
	}
	for _, r := range rows {
		add(r.ResI, r.NameI)
		add(r.ResJ, r.NameJ)
	}
	return into
}

// lookup returns the name of residue res, and whether it was found.
func lookup(labels map[int]string, res int) (string, bool) {
	l, ok := labels[res]
	return l, ok
}

// AddChunk processes one chunk of rows.
func (A *Aggregator) AddChunk(rows []table.Row) {
	A.chunk++
	var labels map[int]string
	if A.cfg.Labels == CumulativeLabels {
		labels = chunkLabels(rows, A.names)
	} else {
		labels = chunkLabels(rows, nil)
	}
	//residues in contact, in order of first appearance, and their new frames.
	var order []int
	frames := make(map[int][]int)
	add := func(res, frame int) {
		f, ok := frames[res]
		if !ok {
			order = append(order, res)
			frames[res] = nil
		}
		if A.seen[res][frame] {
			return
		}
		for _, v := range f {
			if v == frame {
				return
			}
		}
		frames[res] = append(f, frame)
	}
	for _, r := range rows {
		if !(r.Distance <= A.cfg.Cutoff) {
			continue //also drops NaN distances
		}
		add(r.ResI, r.Frame)
		add(r.ResJ, r.Frame)
	}
	for _, res := range order {
		f := frames[res]
		if len(f) == 0 {
			continue
		}
		label, ok := lookup(labels, res)
		if !ok {
			log.Printf("axes: no name for residue %d in chunk %d, skipping %d frames", res, A.chunk, len(f))
			A.res.Unresolved = append(A.res.Unresolved, Unresolved{Chunk: A.chunk, Residue: res, Frames: f})
			continue
		}
		s, ok := A.series[res]
		if !ok {
			s = &Series{Residue: res, Label: label}
			A.series[res] = s
			A.res.Series = append(A.res.Series, s)
			A.seen[res] = make(map[int]bool)
		}
		for _, v := range f {
			A.seen[res][v] = true
			s.Frames = append(s.Frames, v)
			A.res.X = append(A.res.X, res)
			A.res.Y = append(A.res.Y, v)
			A.res.Labels = append(A.res.Labels, label)
		}
	}
}

// Chunks returns the number of chunks processed.
func (A *Aggregator) Chunks() int {
	return A.chunk
}

// Result returns the accumulated result. It shares memory with the aggregator.
func (A *Aggregator) Result() *Result {
	return &A.res
}

// Aggregate reads r to the end, in chunks of cfg.ChunkSize rows.
func Aggregate(r table.Reader, cfg Config) (*Result, error) {
	A, err := NewAggregator(cfg)
	if err != nil {
		return nil, err
	}
	for {
		rows, err := r.ReadChunk(A.cfg.ChunkSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", A.Chunks()+1, err)
		}
		A.AddChunk(rows)
	}
	res := A.Result()
	if len(res.Series) > 0 {
		counts := make([]float64, len(res.Series))
		for i, s := range res.Series {
			counts[i] = float64(len(s.Frames))
		}
		log.Printf("axes: %d chunks, %d residues in contact, %.1f frames per residue on average, %.0f at most", A.Chunks(), len(res.Series), stat.Mean(counts, nil), floats.Max(counts))
	}
	if len(res.Unresolved) > 0 {
		log.Printf("axes: %d residue contributions skipped for lack of a name", len(res.Unresolved))
	}
	return res, nil
}

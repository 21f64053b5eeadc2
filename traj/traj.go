/*
 * traj.go, part of mdcontacts.
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

// Package traj opens trajectories in any of the supported formats.
package traj

import (
	"fmt"
	"path/filepath"
	"strings"

	chem "github.com/Ravy-LFL/analysis-of-molecular-dynamics"
	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/traj/stf"
	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/traj/xtc"
	v3 "github.com/Ravy-LFL/analysis-of-molecular-dynamics/v3"
)

// Trajectory is a chem.Traj that holds resources and has to be closed.
type Trajectory interface {
	chem.Traj
	Close() error
}

// Open opens the trajectory in path. The format is taken from the extension:
// .xtc for GROMACS XTC, .pdb for multi-model PDB files and .st* for STF files.
func Open(path string) (Trajectory, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".xtc":
		t, err := xtc.New(path)
		if err != nil {
			return nil, chem.ErrDecorate(err, "traj.Open")
		}
		return t, nil
	case ext == ".pdb":
		_, models, err := chem.PDBRead(path)
		if err != nil {
			return nil, chem.ErrDecorate(err, "traj.Open")
		}
		return NewModels(models, path), nil
	case strings.HasPrefix(ext, ".st"):
		t, _, err := stf.New(path)
		if err != nil {
			return nil, chem.ErrDecorate(err, "traj.Open")
		}
		return t, nil
	}
	return nil, fmt.Errorf("traj.Open: unknown trajectory format for %s", path)
}

// Models is an in-memory trajectory, usually the models of a PDB file.
type Models struct {
	frames   []*v3.Matrix
	current  int
	natoms   int
	filename string
}

// NewModels returns a trajectory over frames. All frames should have the same number of atoms.
func NewModels(frames []*v3.Matrix, name string) *Models {
	M := &Models{frames: frames, filename: name}
	if len(frames) > 0 {
		M.natoms = frames[0].NVecs()
	}
	return M
}

// Readable returns true while there are frames left.
func (M *Models) Readable() bool {
	return M.current < len(M.frames)
}

// Len returns the number of atoms per frame.
func (M *Models) Len() int {
	return M.natoms
}

// Next copies the next frame into output, or skips it if output is nil.
// Models don't carry box information, so box is left untouched.
func (M *Models) Next(output *v3.Matrix, box ...[]float64) error {
	if !M.Readable() {
		return &lastFrameError{fileName: M.filename, deco: []string{"Next"}}
	}
	frame := M.frames[M.current]
	M.current++
	if output == nil {
		return nil
	}
	if frame.NVecs() != M.natoms || output.NVecs() < M.natoms {
		return &modelError{fmt.Sprintf("frame %d has %d atoms, the output room for %d, expected %d", M.current, frame.NVecs(), output.NVecs(), M.natoms), M.filename, []string{"Next"}}
	}
	for i := 0; i < M.natoms; i++ {
		c := frame.Vec(i)
		output.SetVec(i, c[0], c[1], c[2])
	}
	return nil
}

// Close drops the frames.
func (M *Models) Close() error {
	M.frames = nil
	return nil
}

type modelError struct {
	message  string
	filename string
	deco     []string
}

func (err modelError) Error() string {
	return fmt.Sprintf("model trajectory %s error: %s", err.filename, err.message)
}

func (err *modelError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err modelError) FileName() string { return err.filename }

func (err modelError) Format() string { return "pdb" }

func (err modelError) Critical() bool { return true }

// lastFrameError implements chem.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "pdb" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

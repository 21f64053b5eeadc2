/*
 * job.go, part of mdcontacts.
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
	"fmt"
	"log"
	"path/filepath"
	"strings"

	chem "github.com/Ravy-LFL/analysis-of-molecular-dynamics"
	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/table"
	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/traj"
	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/traj/stf"
)

// File names expected in a simulation directory.
const (
	TopologyName   = "protein.pdb"
	TrajectoryName = "fit.xtc"
)

// Job is a distance run over files.
type Job struct {
	Topology   string
	Trajectory string
	Out        string //the table format is taken from the suffix, see table.Create
	Beads      string //if not empty, the beads used are written here as an STF trajectory
	Config
}

// NewJob returns the job for the simulation directory dir: dir/protein.pdb and
// dir/fit.xtc, written to ./<name>_count.csv where name is the last element of dir.
func NewJob(dir string, cfg Config) Job {
	return Job{
		Topology:   filepath.Join(dir, TopologyName),
		Trajectory: filepath.Join(dir, TrajectoryName),
		Out:        OutputName(dir),
		Config:     cfg,
	}
}

// OutputName returns the default table name for the simulation directory dir.
func OutputName(dir string) string {
	return "./" + filepath.Base(filepath.Clean(dir)) + "_count.csv"
}

// Run performs the job. The table is closed, and the rows already computed
// kept, even if the run fails halfway.
func (J Job) Run() (err error) {
	top, _, err := chem.PDBRead(J.Topology)
	if err != nil {
		return fmt.Errorf("reading topology: %w", err)
	}
	E, err := NewExtractor(top, J.Config)
	if err != nil {
		return err
	}
	t, err := traj.Open(J.Trajectory)
	if err != nil {
		return fmt.Errorf("opening trajectory: %w", err)
	}
	defer t.Close()
	if t.Len() != top.Len() {
		return fmt.Errorf("trajectory %s has %d atoms, topology %s has %d", J.Trajectory, t.Len(), J.Topology, top.Len())
	}
	w, err := table.Create(J.Out)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()
	var beads *stf.StfW
	if J.Beads != "" {
		header := map[string]string{
			"bead":     E.cfg.Bead,
			"segments": strings.Join([]string{E.cfg.SegA, E.cfg.SegB}, ","),
			"source":   J.Trajectory,
		}
		if beads, err = stf.NewWriter(J.Beads, len(E.Beads()), header); err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, beads.Close())
		}()
	}
	log.Printf("contacts: %d residues per monomer, %d pairs per frame, writing %s", E.MonomerLength(), len(E.Pairs()), J.Out)
	if beads != nil {
		err = E.Run(t, w, beads)
	} else {
		err = E.Run(t, w, nil)
	}
	if err != nil {
		return err
	}
	log.Printf("contacts: done, %d frames, %d rows", E.Frames(), E.Rows())
	return nil
}

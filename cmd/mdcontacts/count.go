/*
 * count.go, part of mdcontacts.
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

package main

import (
	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/contacts"
	"github.com/spf13/cobra"
)

var (
	countTopology   string
	countTrajectory string
	countOut        string
	countBeads      string
	countCfg        = contacts.DefaultConfig()
)

var countCmd = &cobra.Command{
	Use:   "count <simulation dir>",
	Short: "Write the backbone distances between the residues of both chains, for every frame",
	Long: `count reads <dir>/protein.pdb and <dir>/fit.xtc and writes, for every frame, the
distance between the backbone bead of residue i of chain A and residue j of chain B,
for 1 <= i <= j < N (N residues per chain), except j == i+1.
The table goes to ./<dir>_count.csv unless --out is given. Names ending in .db or
.sqlite give an SQLite database, .csv.gz and .csv.zst compressed CSV.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job := contacts.NewJob(args[0], countCfg)
		if countTopology != "" {
			job.Topology = countTopology
		}
		if countTrajectory != "" {
			job.Trajectory = countTrajectory
		}
		if countOut != "" {
			job.Out = countOut
		}
		job.Beads = countBeads
		return job.Run()
	},
}

func init() {
	f := countCmd.Flags()
	f.StringVar(&countTopology, "topology", "", "Topology PDB (default <dir>/protein.pdb)")
	f.StringVar(&countTrajectory, "trajectory", "", "Trajectory: .xtc, .stf or multi-model .pdb (default <dir>/fit.xtc)")
	f.StringVarP(&countOut, "out", "o", "", "Output table (default ./<dir>_count.csv)")
	f.StringVar(&countBeads, "beads", "", "Also write the coordinates of the beads used to this STF trajectory")
	f.StringVar(&countCfg.Bead, "bead", countCfg.Bead, "Name of the bead representing each residue")
	f.StringVar(&countCfg.SegA, "seg-a", countCfg.SegA, "Segment or chain of the first monomer")
	f.StringVar(&countCfg.SegB, "seg-b", countCfg.SegB, "Segment or chain of the second monomer")
	f.Float64Var(&countCfg.MaxDistance, "max-distance", 0, "Only write pairs at this distance or closer, in A (0 writes all)")
	f.IntVar(&countCfg.LogEvery, "log-every", countCfg.LogEvery, "Frames between progress messages (0 for none)")
	rootCmd.AddCommand(countCmd)
}

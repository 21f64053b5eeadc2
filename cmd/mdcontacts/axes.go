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

package main

import (
	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/axes"
	"github.com/spf13/cobra"
)

var (
	axesFile   string
	axesOut    string
	axesFormat string
	axesLabels string
	axesCfg    = axes.DefaultConfig()
)

var axesCmd = &cobra.Command{
	Use:   "axes --file <table>",
	Short: "Build the per-residue contact series of a distance table",
	Long: `axes reads a table written by count and, for each residue in a pair at or
under the cutoff, lists the frames of those contacts. The x (residue), y (frame)
and labels (residue name) lists are written to <name>_data.pkl, where <name> is
the part of the table's file name before the first underscore.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if axesFile == "" {
			return cmd.Help()
		}
		format, err := axes.ParseFormat(axesFormat)
		if err != nil {
			return err
		}
		cfg := axesCfg
		if cfg.Labels, err = axes.ParseLabelScope(axesLabels); err != nil {
			return err
		}
		job := axes.Job{Input: axesFile, Out: axesOut, Format: format, Config: cfg}
		_, err = job.Run()
		return err
	},
}

func init() {
	f := axesCmd.Flags()
	f.StringVarP(&axesFile, "file", "f", "", "Distance table (.csv, .csv.gz, .csv.zst, .db)")
	f.StringVarP(&axesOut, "out", "o", "", "Output file (default <name>_data.pkl)")
	f.StringVar(&axesFormat, "format", string(axes.Pickle), "Output format: pickle or json")
	f.StringVar(&axesLabels, "labels", string(axes.ChunkLabels), "Residue names from the current chunk only (chunk) or from all chunks read so far (cumulative)")
	f.Float64Var(&axesCfg.Cutoff, "cutoff", axesCfg.Cutoff, "Maximum distance of a contact, in A")
	f.IntVar(&axesCfg.ChunkSize, "chunk-size", axesCfg.ChunkSize, "Rows read at a time")
	rootCmd.AddCommand(axesCmd)
}

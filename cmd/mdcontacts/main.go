/*
 * main.go, part of mdcontacts.
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

// mdcontacts measures inter-chain residue distances along coarse-grained dimer
// trajectories, and turns the distance tables into per-residue contact series.
//
// Usage:
//
//	mdcontacts count <simulation dir>
//	mdcontacts axes -file <dir>_count.csv
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var quiet bool

var rootCmd = &cobra.Command{
	Use:           "mdcontacts",
	Short:         "Residue contacts between the chains of a dimer along a trajectory",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			log.SetOutput(io.Discard)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Don't print progress messages")
}

// legacyArgs rewrites the single-dash long flags accepted by earlier
// versions (-file path) to the double-dash form.
func legacyArgs(args []string) []string {
	ret := make([]string, len(args))
	for i, a := range args {
		if a == "-file" || strings.HasPrefix(a, "-file=") {
			a = "-" + a
		}
		ret[i] = a
	}
	return ret
}

func main() {
	rootCmd.SetArgs(legacyArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mdcontacts:", err)
		os.Exit(1)
	}
}

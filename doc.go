/*
 * doc.go, part of mdcontacts.
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

/*
Package chem is the structural core of mdcontacts. It provides atom and topology
structures, a reader for PDB files (topology plus one or more models), residue and
bead selection, and the interfaces that trajectory readers fulfill.

	**Capabilities**

	Reads PDB files written by GROMACS for coarse-grained (Martini) systems,
	including the segment identifier columns and multi-model files.

	Counts residues as runs of (segment, residue id) in file order, the way
	MD analysis packages do for topologies.

	Resolves, once, the index of a named bead (BB by default) for every
	residue of a segment, so per-frame work is just coordinate lookups.

	Trajectory readers (see the traj subpackages) fulfill the Traj interface
	and signal a normal end of the trajectory with an error that implements
	LastFrameError.

Coordinates live in a v3.Matrix, where each row is one point in space, in Angstrom.
*/
package chem

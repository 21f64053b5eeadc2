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
 */

/*
Package stf implements the simple trajectory format, a compressed text trajectory format.
mdcontacts uses it to store the beads used in a distance run, so a run can be repeated
without the full trajectory.

A STF file may only contain ASCII symbols. It starts with a header of key=value lines,
which must include the precision, for instance:

	prec=2

The header ends with a line starting with "**", followed by one or more spaces
and the number of atoms per frame.

After the header, the file has one line per atom, per frame. Each line contains the
x, y and z coordinates in Angstrom, multiplied by 10 to the power of the precision
and rounded to an integer.

Each frame ends with a line starting with the character "*", optionally followed by
9 floating-point numbers: the vectors defining the simulation box, in Angstrom.

The whole file is compressed. The scheme is chosen from the last letter of the file
name: lzw for "l", gzip for "z", flate for "r" and z-standard for anything else
(the usual extension is .stf).
*/
package stf

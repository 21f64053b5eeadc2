package chem

import (
	"fmt"
	"strings"
)

// CError is the general error type of the chem package. It fulfills Error.
type CError struct {
	msg      string
	deco     []string
	critical bool
}

func (err CError) Error() string {
	if len(err.deco) == 0 {
		return err.msg
	}
	return fmt.Sprintf("%s (%s)", err.msg, strings.Join(err.deco, " <- "))
}

// Decorate adds dec to the decoration of the error and returns the resulting slice.
// If dec is empty it just returns the current decoration.
func (err *CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns whether the error is critical or it can be ignored
func (err CError) Critical() bool { return err.critical }

// SelectionError is returned when a residue or bead requested can't be found in a topology.
type SelectionError struct {
	Segment string
	ResID   int
	Name    string
	deco    []string
}

func (err SelectionError) Error() string {
	return fmt.Sprintf("no bead %s in residue %d of segment %s", err.Name, err.ResID, err.Segment)
}

// Decorate adds dec to the decoration of the error and returns the resulting slice.
func (err *SelectionError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// PDBError is returned for malformed PDB files. Line is counted from 1.
type PDBError struct {
	FileName string
	Line     int
	msg      string
	deco     []string
}

func (err PDBError) Error() string {
	return fmt.Sprintf("pdb file %s, line %d: %s", err.FileName, err.Line, err.msg)
}

// Decorate adds dec to the decoration of the error and returns the resulting slice.
func (err *PDBError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

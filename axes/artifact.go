/*
 * artifact.go, part of mdcontacts.
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

package axes

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/table"
	ogórek "github.com/kisielk/og-rek"
)

// Format is the serialization of the x, y, labels mapping.
type Format string

const (
	Pickle Format = "pickle" //Python pickle, protocol 3
	JSON   Format = "json"
)

// ParseFormat returns the Format called s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Pickle, JSON:
		return f, nil
	case "pkl":
		return Pickle, nil
	}
	return "", fmt.Errorf("unknown output format %q, use %q or %q", s, Pickle, JSON)
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	if f == JSON {
		return ".json"
	}
	return ".pkl"
}

// ArtifactName returns the default output name for the table input: the part of its
// file name before the first underscore, followed by _data and the extension of f.
func ArtifactName(input string, f Format) string {
	base := filepath.Base(input)
	name, _, _ := strings.Cut(base, "_")
	return name + "_data" + f.Ext()
}

// WriteArtifact writes the mapping {"x": res.X, "y": res.Y, "labels": res.Labels} to w.
func WriteArtifact(w io.Writer, res *Result, f Format) error {
	x, y, labels := res.X, res.Y, res.Labels
	//empty results still give lists, not null/None.
	if x == nil {
		x, y, labels = []int{}, []int{}, []string{}
	}
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		return enc.Encode(struct {
			X      []int    `json:"x"`
			Y      []int    `json:"y"`
			Labels []string `json:"labels"`
		}{x, y, labels})
	case Pickle, "":
		enc := ogórek.NewEncoderWithConfig(w, &ogórek.EncoderConfig{Protocol: 3})
		return enc.Encode(map[string]interface{}{"x": x, "y": y, "labels": labels})
	}
	return fmt.Errorf("unknown output format %q", f)
}

// SaveArtifact writes the artifact of res to the file path.
func SaveArtifact(path string, res *Result, f Format) (err error) {
	fp, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, fp.Close())
	}()
	bw := bufio.NewWriter(fp)
	if err := WriteArtifact(bw, res, f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return bw.Flush()
}

// Job is an aggregation over a table file.
type Job struct {
	Input  string
	Out    string //if empty, ArtifactName(Input, Format) in the working directory
	Format Format
	Config
}

// Run performs the job and returns its result.
func (J Job) Run() (*Result, error) {
	if J.Format == "" {
		J.Format = Pickle
	}
	if J.Out == "" {
		J.Out = ArtifactName(J.Input, J.Format)
	}
	if err := J.Config.Validate(); err != nil {
		return nil, err
	}
	r, err := table.Open(J.Input)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	res, err := Aggregate(r, J.Config)
	if err != nil {
		return nil, err
	}
	if err := SaveArtifact(J.Out, res, J.Format); err != nil {
		return nil, err
	}
	log.Printf("axes: %d contacts written to %s", len(res.X), J.Out)
	return res, nil
}

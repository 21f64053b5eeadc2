/*
 * axes_test.go, part of mdcontacts.
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
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Ravy-LFL/analysis-of-molecular-dynamics/table"
	ogórek "github.com/kisielk/og-rek"
)

// sliceReader serves rows from memory.
type sliceReader struct {
	rows []table.Row
}

func (s *sliceReader) ReadChunk(n int) ([]table.Row, error) {
	if len(s.rows) == 0 {
		return nil, io.EOF
	}
	if n > len(s.rows) {
		n = len(s.rows)
	}
	ret := s.rows[:n]
	s.rows = s.rows[n:]
	return ret, nil
}

func (s *sliceReader) Close() error { return nil }

type triple struct {
	x, y  int
	label string
}

func triples(res *Result) []triple {
	ret := make([]triple, len(res.X))
	for i := range res.X {
		ret[i] = triple{res.X[i], res.Y[i], res.Labels[i]}
	}
	return ret
}

func aggregate(Te *testing.T, rows []table.Row, cfg Config) *Result {
	Te.Helper()
	res, err := Aggregate(&sliceReader{rows}, cfg)
	if err != nil {
		Te.Fatal(err)
	}
	if len(res.X) != len(res.Y) || len(res.X) != len(res.Labels) {
		Te.Fatalf("x, y and labels have different lengths: %d %d %d", len(res.X), len(res.Y), len(res.Labels))
	}
	return res
}

var scenario = []table.Row{
	{ResI: 1, ResJ: 5, NameI: "ALA", NameJ: "GLY", Distance: 4.0, Frame: 1},
	{ResI: 1, ResJ: 5, NameI: "ALA", NameJ: "GLY", Distance: 8.0, Frame: 2},
	{ResI: 2, ResJ: 5, NameI: "CYS", NameJ: "GLY", Distance: 3.0, Frame: 1},
}

func TestScenario(Te *testing.T) {
	res := aggregate(Te, scenario, DefaultConfig())
	expected := []triple{{1, 1, "ALA"}, {5, 1, "GLY"}, {2, 1, "CYS"}}
	if got := triples(res); !reflect.DeepEqual(got, expected) {
		Te.Errorf("got %v, expected %v", got, expected)
	}
	if len(res.Unresolved) != 0 {
		Te.Errorf("unexpected unresolved residues %v", res.Unresolved)
	}
}

// No contact is reported for rows above the cutoff or without a distance,
// and the cutoff itself is included.
func TestCutoff(Te *testing.T) {
	rows := []table.Row{
		{ResI: 1, ResJ: 2, NameI: "ALA", NameJ: "GLY", Distance: 7.0, Frame: 1},
		{ResI: 3, ResJ: 4, NameI: "CYS", NameJ: "LYS", Distance: 7.000001, Frame: 1},
		{ResI: 3, ResJ: 4, NameI: "CYS", NameJ: "LYS", Distance: 6.5, Frame: 2},
		{ResI: 8, ResJ: 9, NameI: "LEU", NameJ: "MET", Distance: math.NaN(), Frame: 2},
	}
	res := aggregate(Te, rows, DefaultConfig())
	expected := []triple{{1, 1, "ALA"}, {2, 1, "GLY"}, {3, 2, "CYS"}, {4, 2, "LYS"}}
	if got := triples(res); !reflect.DeepEqual(got, expected) {
		Te.Errorf("got %v, expected %v", got, expected)
	}
	cfg := DefaultConfig()
	cfg.Cutoff = 5
	if res := aggregate(Te, rows, cfg); len(res.X) != 0 {
		Te.Errorf("expected no contacts under 5 A, got %v", triples(res))
	}
}

func TestConfigValidate(Te *testing.T) {
	for _, c := range []struct {
		cutoff float64
		chunk  int
		labels LabelScope
	}{
		{0, 10, ChunkLabels},
		{-1, 10, ChunkLabels},
		{math.NaN(), 10, ChunkLabels},
		{math.Inf(1), 10, ChunkLabels},
		{7, 0, ChunkLabels},
		{7, 10, "global"},
	} {
		cfg := Config{Cutoff: c.cutoff, ChunkSize: c.chunk, Labels: c.labels}
		if _, err := Aggregate(&sliceReader{scenario}, cfg); err == nil {
			Te.Errorf("expected an error for %+v", cfg)
		}
	}
	cfg := DefaultConfig()
	cfg.Labels = ""
	if err := cfg.Validate(); err != nil {
		Te.Errorf("an empty label scope should be accepted: %v", err)
	}
}

func TestAggregatorChunks(Te *testing.T) {
	A, err := NewAggregator(DefaultConfig())
	if err != nil {
		Te.Fatal(err)
	}
	A.AddChunk(scenario[:2])
	A.AddChunk(scenario[2:])
	if A.Chunks() != 2 {
		Te.Errorf("got %d chunks, expected 2", A.Chunks())
	}
	if got := triples(A.Result()); len(got) != 3 || got[2] != (triple{2, 1, "CYS"}) {
		Te.Errorf("unexpected triples %v", got)
	}
}

// Frames of a residue seen in several chunks are accumulated, and a frame
// split across chunks is listed once.
func TestChunksAccumulate(Te *testing.T) {
	rows := []table.Row{
		{ResI: 1, ResJ: 5, NameI: "ALA", NameJ: "GLY", Distance: 3, Frame: 1},
		{ResI: 2, ResJ: 6, NameI: "CYS", NameJ: "LYS", Distance: 9, Frame: 1},
		{ResI: 1, ResJ: 7, NameI: "ALA", NameJ: "MET", Distance: 3, Frame: 1},
		{ResI: 1, ResJ: 5, NameI: "ALA", NameJ: "GLY", Distance: 3, Frame: 2},
	}
	cfg := DefaultConfig()
	cfg.ChunkSize = 2
	res := aggregate(Te, rows, cfg)
	frames := make(map[int][]int)
	for _, s := range res.Series {
		frames[s.Residue] = s.Frames
	}
	if !reflect.DeepEqual(frames[1], []int{1, 2}) {
		Te.Errorf("residue 1 in frames %v, expected [1 2]", frames[1])
	}
	if !reflect.DeepEqual(frames[5], []int{1, 2}) {
		Te.Errorf("residue 5 in frames %v, expected [1 2]", frames[5])
	}
	if !reflect.DeepEqual(frames[7], []int{1}) {
		Te.Errorf("residue 7 in frames %v, expected [1]", frames[7])
	}
	//within a chunk, contacts are grouped by residue, in order of appearance.
	expected := []triple{{1, 1, "ALA"}, {5, 1, "GLY"}, {1, 2, "ALA"}, {7, 1, "MET"}, {5, 2, "GLY"}}
	if got := triples(res); !reflect.DeepEqual(got, expected) {
		Te.Errorf("got %v, expected %v", got, expected)
	}
}

// A residue without a name in a chunk is skipped for that chunk and reported.
func TestUnresolved(Te *testing.T) {
	rows := []table.Row{
		{ResI: 9, ResJ: 5, NameI: "LEU", NameJ: "GLY", Distance: 10, Frame: 1},
		{ResI: 1, ResJ: 5, NameI: "ALA", NameJ: "GLY", Distance: 10, Frame: 1},
		{ResI: 9, ResJ: 5, NameI: "", NameJ: "GLY", Distance: 2, Frame: 2},
		{ResI: 9, ResJ: 6, NameI: "", NameJ: "LYS", Distance: 2, Frame: 3},
	}
	cfg := DefaultConfig()
	cfg.ChunkSize = 2
	res := aggregate(Te, rows, cfg)
	expected := []triple{{5, 2, "GLY"}, {6, 3, "LYS"}}
	if got := triples(res); !reflect.DeepEqual(got, expected) {
		Te.Errorf("got %v, expected %v", got, expected)
	}
	if len(res.Unresolved) != 1 {
		Te.Fatalf("expected one unresolved residue, got %v", res.Unresolved)
	}
	u := res.Unresolved[0]
	if u.Chunk != 2 || u.Residue != 9 || !reflect.DeepEqual(u.Frames, []int{2, 3}) {
		Te.Errorf("unexpected unresolved residue %+v", u)
	}
	//With cumulative labels, the name from the first chunk is used.
	cfg.Labels = CumulativeLabels
	res = aggregate(Te, rows, cfg)
	expected = []triple{{9, 2, "LEU"}, {9, 3, "LEU"}, {5, 2, "GLY"}, {6, 3, "LYS"}}
	if got := triples(res); !reflect.DeepEqual(got, expected) {
		Te.Errorf("got %v, expected %v", got, expected)
	}
	if len(res.Unresolved) != 0 {
		Te.Errorf("unexpected unresolved residues %v", res.Unresolved)
	}
}

func TestParse(Te *testing.T) {
	if l, err := ParseLabelScope("cumulative"); err != nil || l != CumulativeLabels {
		Te.Errorf("ParseLabelScope: %v %v", l, err)
	}
	if _, err := ParseLabelScope("global"); err == nil {
		Te.Error("expected an error for an unknown label scope")
	}
	if f, err := ParseFormat("PKL"); err != nil || f != Pickle {
		Te.Errorf("ParseFormat: %v %v", f, err)
	}
	if _, err := ParseFormat("yaml"); err == nil {
		Te.Error("expected an error for an unknown format")
	}
}

func TestArtifactName(Te *testing.T) {
	for in, expected := range map[string]string{
		"results/wt_count.csv":   "wt_data.pkl",
		"/a/b/sim1_rep2_count.db": "sim1_data.pkl",
		"plain.csv":               "plain.csv_data.pkl",
	} {
		if n := ArtifactName(in, Pickle); n != expected {
			Te.Errorf("ArtifactName(%s) = %s, expected %s", in, n, expected)
		}
	}
	if n := ArtifactName("wt_count.csv", JSON); n != "wt_data.json" {
		Te.Errorf("got %s for a json artifact", n)
	}
}

func TestPickle(Te *testing.T) {
	res := aggregate(Te, scenario, DefaultConfig())
	var buf bytes.Buffer
	if err := WriteArtifact(&buf, res, Pickle); err != nil {
		Te.Fatal(err)
	}
	b := buf.Bytes()
	if len(b) < 3 || b[0] != 0x80 || b[1] != 3 || b[len(b)-1] != '.' {
		Te.Fatalf("not a protocol 3 pickle: % x", b)
	}
	obj, err := ogórek.NewDecoder(bytes.NewReader(b)).Decode()
	if err != nil {
		Te.Fatal(err)
	}
	m, ok := obj.(map[interface{}]interface{})
	if !ok {
		Te.Fatalf("decoded %T, expected a dict", obj)
	}
	expected := map[string][]interface{}{
		"x":      {int64(1), int64(5), int64(2)},
		"y":      {int64(1), int64(1), int64(1)},
		"labels": {"ALA", "GLY", "CYS"},
	}
	for k, v := range expected {
		if !reflect.DeepEqual(m[k], v) {
			Te.Errorf("%s is %v, expected %v", k, m[k], v)
		}
	}
}

func TestEmptyJSON(Te *testing.T) {
	var buf bytes.Buffer
	if err := WriteArtifact(&buf, &Result{}, JSON); err != nil {
		Te.Fatal(err)
	}
	var out map[string][]interface{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		Te.Fatal(err)
	}
	for _, k := range []string{"x", "y", "labels"} {
		if v, ok := out[k]; !ok || v == nil || len(v) != 0 {
			Te.Errorf("%s should be an empty list, got %v", k, v)
		}
	}
}

func TestJob(Te *testing.T) {
	dir := Te.TempDir()
	in := filepath.Join(dir, "wt_count.csv")
	data := "resi_i,resi_j,name_i,name_j,distance,frame\n1,5,ALA,GLY,4.0,1\n1,5,ALA,GLY,8.0,2\n2,5,CYS,GLY,3.0,1\n3,6,LYS,MET,NaN,2\n"
	if err := os.WriteFile(in, []byte(data), 0o644); err != nil {
		Te.Fatal(err)
	}
	J := Job{Input: in, Out: filepath.Join(dir, "out.json"), Format: JSON, Config: DefaultConfig()}
	if _, err := J.Run(); err != nil {
		Te.Fatal(err)
	}
	b, err := os.ReadFile(J.Out)
	if err != nil {
		Te.Fatal(err)
	}
	var out struct {
		X      []int    `json:"x"`
		Y      []int    `json:"y"`
		Labels []string `json:"labels"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		Te.Fatal(err)
	}
	if !reflect.DeepEqual(out.X, []int{1, 5, 2}) || !reflect.DeepEqual(out.Y, []int{1, 1, 1}) || !reflect.DeepEqual(out.Labels, []string{"ALA", "GLY", "CYS"}) {
		Te.Errorf("unexpected artifact %s", b)
	}
	J.Cutoff = 0
	if _, err := J.Run(); err == nil {
		Te.Error("expected an error for a zero cutoff")
	}
	J.Cutoff = 7
	J.Input = filepath.Join(dir, "missing_count.csv")
	if _, err := J.Run(); err == nil {
		Te.Error("expected an error for a missing table")
	}
}

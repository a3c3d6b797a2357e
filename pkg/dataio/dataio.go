// Package dataio reads and writes sample collections as JSON or YAML.
//
// A collection file names its kind and carries either dense matrices or
// adjacency graphs:
//
//	kind: points
//	matrices:
//	  - [[0, 0], [1, 0], [0, 1]]
//
//	kind: graphs
//	graphs:
//	  - vertices: 3
//	    edges: [{from: 0, to: 1, weight: 1}]
//
// In matrices, null stands for +Inf, which neither format can spell.
package dataio

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"sigs.k8s.io/yaml"

	"github.com/chazu/metricgraph/pkg/graph"
	"github.com/chazu/metricgraph/pkg/pipeline"
)

// Format is a serialization format.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", errors.Errorf("unknown format %q", s)
}

// FormatFor picks a format from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

type collection struct {
	Kind     string             `json:"kind"`
	Matrices [][][]*float64     `json:"matrices,omitempty"`
	Graphs   []*graph.Adjacency `json:"graphs,omitempty"`
}

// Decode parses a collection. JSON input is accepted as YAML.
func Decode(data []byte) (pipeline.Data, error) {
	var c collection
	if err := yaml.Unmarshal(data, &c); err != nil {
		return pipeline.Data{}, errors.Wrap(err, "decode collection")
	}
	kind, err := pipeline.ParseKind(c.Kind)
	if err != nil {
		return pipeline.Data{}, errors.Wrap(err, "decode collection")
	}

	if kind == pipeline.Graphs {
		if len(c.Matrices) > 0 {
			return pipeline.Data{}, errors.New("decode collection: graphs collection carries matrices")
		}
		for i, g := range c.Graphs {
			if g == nil {
				return pipeline.Data{}, errors.Errorf("decode collection: graph %d is null", i)
			}
		}
		return pipeline.GraphsData(c.Graphs), nil
	}

	if len(c.Graphs) > 0 {
		return pipeline.Data{}, errors.Errorf("decode collection: %s collection carries graphs", kind)
	}
	X := make([]mat.Matrix, len(c.Matrices))
	for i, rows := range c.Matrices {
		m, err := decodeMatrix(rows)
		if err != nil {
			return pipeline.Data{}, errors.Wrapf(err, "decode collection: matrix %d", i)
		}
		X[i] = m
	}
	return pipeline.Data{Kind: kind, Matrices: X}, nil
}

func decodeMatrix(rows [][]*float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("empty matrix")
	}
	c := len(rows[0])
	m := mat.NewDense(len(rows), c, nil)
	for i, row := range rows {
		if len(row) != c {
			return nil, errors.Errorf("row %d has %d columns, want %d", i, len(row), c)
		}
		for j, v := range row {
			if v == nil {
				m.Set(i, j, math.Inf(1))
				continue
			}
			m.Set(i, j, *v)
		}
	}
	return m, nil
}

// Encode serializes d in the given format.
func Encode(d pipeline.Data, f Format) ([]byte, error) {
	c := collection{Kind: d.Kind.String()}
	if d.Kind == pipeline.Graphs {
		c.Graphs = d.Graphs
	} else {
		c.Matrices = make([][][]*float64, len(d.Matrices))
		for i, m := range d.Matrices {
			rows, err := encodeMatrix(m)
			if err != nil {
				return nil, errors.Wrapf(err, "encode collection: matrix %d", i)
			}
			c.Matrices[i] = rows
		}
	}

	out, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode collection")
	}
	switch f {
	case JSON:
		return append(out, '\n'), nil
	case YAML:
		y, err := yaml.JSONToYAML(out)
		if err != nil {
			return nil, errors.Wrap(err, "encode collection")
		}
		return y, nil
	}
	return nil, errors.Errorf("unknown format %q", f)
}

func encodeMatrix(m mat.Matrix) ([][]*float64, error) {
	r, c := m.Dims()
	rows := make([][]*float64, r)
	for i := range rows {
		rows[i] = make([]*float64, c)
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			switch {
			case math.IsInf(v, 1):
				continue
			case math.IsNaN(v) || math.IsInf(v, -1):
				return nil, errors.Errorf("entry (%d, %d) is %v", i, j, v)
			}
			rows[i][j] = &v
		}
	}
	return rows, nil
}

// Read decodes a collection from r.
func Read(r io.Reader) (pipeline.Data, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return pipeline.Data{}, errors.Wrap(err, "read collection")
	}
	return Decode(data)
}

// Write encodes d to w.
func Write(w io.Writer, d pipeline.Data, f Format) error {
	out, err := Encode(d, f)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(out))
	return errors.Wrap(err, "write collection")
}

// ReadFile decodes the collection stored at path; "-" reads stdin.
func ReadFile(path string) (pipeline.Data, error) {
	if path == "-" {
		return Read(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return pipeline.Data{}, errors.Wrap(err, "open collection")
	}
	defer f.Close()
	d, err := Read(f)
	return d, errors.Wrap(err, path)
}

// WriteFile writes d to path in the format implied by its extension.
func WriteFile(path string, d pipeline.Data) error {
	out, err := Encode(d, FormatFor(path))
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, out, 0o644), "write collection")
}

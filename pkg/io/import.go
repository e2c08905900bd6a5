package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cartoflow/cartoflow/pkg/flow"
	"github.com/cartoflow/cartoflow/pkg/geom"
	"github.com/cartoflow/cartoflow/pkg/model"
)

// ReadCSV decodes origin-destination rows from r into a model using the
// given layout parameters.
//
// Each record needs five numeric fields (startX, startY, endX, endY,
// value); a sixth field, when present and non-empty, is the
// counter-direction value of a bidirectional pair. A single header line
// is tolerated. Endpoints with exactly equal coordinates share one node,
// and every node's value is the sum of its touching flow values.
//
// ReadCSV returns an error for malformed records, non-finite
// coordinates, or flows whose endpoints coincide.
func ReadCSV(r io.Reader, params model.Params) (*model.Model, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	m := model.New(params)
	nodes := map[geom.Pt]flow.NodeHandle{}

	nodeAt := func(p geom.Pt) flow.NodeHandle {
		if h, ok := nodes[p]; ok {
			return h
		}
		h := m.AddNode(model.Node{Pt: p})
		nodes[p] = h
		return h
	}

	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		if len(record) < 5 {
			return nil, fmt.Errorf("line %d: want at least 5 fields, got %d", line, len(record))
		}
		vals, err := parseFloats(record[:5])
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		start := nodeAt(geom.Pt{X: vals[0], Y: vals[1]})
		end := nodeAt(geom.Pt{X: vals[2], Y: vals[3]})

		if len(record) >= 6 && record[5] != "" {
			value2, err := strconv.ParseFloat(record[5], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: value2: %w", line, err)
			}
			if _, err := m.AddFlowPair(start, end, vals[4], value2); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		} else if _, err := m.AddFlow(start, end, vals[4]); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	accumulateNodeValues(m)
	return m, nil
}

// ImportCSV reads an origin-destination CSV file at path into a model.
func ImportCSV(path string, params model.Params) (*model.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, params)
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// accumulateNodeValues sets each node's value to the sum of the total
// values of its touching flows.
func accumulateNodeValues(m *model.Model) {
	sums := map[flow.NodeHandle]float64{}
	for _, f := range m.Flows() {
		sums[f.StartNode()] += f.TotalValue()
		sums[f.EndNode()] += f.TotalValue()
	}
	for h, v := range sums {
		_ = m.SetNodeValue(h, v)
	}
}

// ReadJSON decodes a model document from r.
//
// The document must carry "nodes" and "flows" arrays; flows reference
// nodes by array index. Control points, lock flags, shortenings, pair
// values, and an explicit canvas are restored when present. ReadJSON
// returns an error for malformed JSON, out-of-range node references, or
// geometry the model itself rejects.
func ReadJSON(r io.Reader, params model.Params) (*model.Model, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	m := model.New(params)
	handles := make([]flow.NodeHandle, len(doc.Nodes))
	for i, n := range doc.Nodes {
		handles[i] = m.AddNode(model.Node{Pt: geom.Pt{X: n.X, Y: n.Y}, Value: n.Value, Selected: n.Selected})
	}

	for i, fd := range doc.Flows {
		if fd.From < 0 || fd.From >= len(handles) || fd.To < 0 || fd.To >= len(handles) {
			return nil, fmt.Errorf("flow %d: node reference out of range", i)
		}
		var f *flow.Flow
		var err error
		if fd.Value2 != nil {
			f, err = m.AddFlowPair(handles[fd.From], handles[fd.To], fd.Value, *fd.Value2)
		} else {
			f, err = m.AddFlow(handles[fd.From], handles[fd.To], fd.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("flow %d: %w", i, err)
		}
		if fd.Ctrl != nil {
			f.SetCtrl(geom.Pt{X: fd.Ctrl.X, Y: fd.Ctrl.Y})
		}
		f.Locked = fd.Locked
		f.Selected = fd.Selected
		if fd.Shortenings != nil {
			f.SetShortenings(fd.Shortenings[0], fd.Shortenings[1])
		}
		if a := clipAreaFor(fd.StartClip); !a.IsZero() {
			f.SetStartClipArea(a)
		}
		if a := clipAreaFor(fd.EndClip); !a.IsZero() {
			f.SetEndClipArea(a)
		}
	}

	if doc.Canvas != nil {
		m.SetCanvas(geom.Rect{
			MinX: doc.Canvas.Min.X, MinY: doc.Canvas.Min.Y,
			MaxX: doc.Canvas.Max.X, MaxY: doc.Canvas.Max.Y,
		})
	}
	return m, nil
}

func clipAreaFor(d *clipDoc) flow.ClipArea {
	if d == nil {
		return flow.ClipArea{}
	}
	a := flow.ClipArea{Polygon: make([]geom.Pt, len(d.Polygon)), Text: d.Text}
	for i, p := range d.Polygon {
		a.Polygon[i] = geom.Pt{X: p.X, Y: p.Y}
	}
	return a
}

// ImportJSON reads a model document file at path.
func ImportJSON(path string, params model.Params) (*model.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f, params)
}

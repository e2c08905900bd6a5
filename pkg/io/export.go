package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cartoflow/cartoflow/pkg/flow"
	"github.com/cartoflow/cartoflow/pkg/model"
)

type document struct {
	Nodes  []nodeDoc `json:"nodes"`
	Flows  []flowDoc `json:"flows"`
	Canvas *rectDoc  `json:"canvas,omitempty"`
}

type nodeDoc struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Value    float64 `json:"value,omitempty"`
	Selected bool    `json:"selected,omitempty"`
}

type flowDoc struct {
	From        int         `json:"from"`
	To          int         `json:"to"`
	Value       float64     `json:"value"`
	Value2      *float64    `json:"value2,omitempty"`
	Ctrl        *ptDoc      `json:"ctrl,omitempty"`
	Locked      bool        `json:"locked,omitempty"`
	Selected    bool        `json:"selected,omitempty"`
	Shortenings *[2]float64 `json:"shortenings,omitempty"`
	StartClip   *clipDoc    `json:"start_clip,omitempty"`
	EndClip     *clipDoc    `json:"end_clip,omitempty"`
}

type clipDoc struct {
	Polygon []ptDoc `json:"polygon"`
	Text    string  `json:"text,omitempty"`
}

func clipDocFor(a flow.ClipArea) *clipDoc {
	if a.IsZero() {
		return nil
	}
	d := &clipDoc{Polygon: make([]ptDoc, len(a.Polygon)), Text: a.Text}
	for i, p := range a.Polygon {
		d.Polygon[i] = ptDoc{X: p.X, Y: p.Y}
	}
	return d
}

type ptDoc struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type rectDoc struct {
	Min ptDoc `json:"min"`
	Max ptDoc `json:"max"`
}

// WriteJSON encodes the full model state as JSON and writes it to w.
// The output can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(m *model.Model, w io.Writer) error {
	doc := document{
		Nodes: make([]nodeDoc, 0, m.NodeCount()),
		Flows: make([]flowDoc, 0, m.FlowCount()),
	}

	m.Nodes(func(_ flow.NodeHandle, n model.Node) {
		doc.Nodes = append(doc.Nodes, nodeDoc{X: n.Pt.X, Y: n.Pt.Y, Value: n.Value, Selected: n.Selected})
	})

	for _, f := range m.Flows() {
		fd := flowDoc{
			From:      int(f.StartNode()),
			To:        int(f.EndNode()),
			Value:     f.Value,
			Locked:    f.Locked,
			Selected:  f.Selected,
			Ctrl:      &ptDoc{X: f.Ctrl().X, Y: f.Ctrl().Y},
			StartClip: clipDocFor(f.StartClipArea()),
			EndClip:   clipDocFor(f.EndClipArea()),
		}
		if f.IsPair() {
			v2 := f.Value2
			fd.Value2 = &v2
		}
		if s, e := f.Shortenings(); s != 0 || e != 0 {
			fd.Shortenings = &[2]float64{s, e}
		}
		doc.Flows = append(doc.Flows, fd)
	}

	if m.HasCanvas() {
		c := m.Canvas()
		doc.Canvas = &rectDoc{
			Min: ptDoc{X: c.MinX, Y: c.MinY},
			Max: ptDoc{X: c.MaxX, Y: c.MaxY},
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a model document to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(m *model.Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(m, f)
}

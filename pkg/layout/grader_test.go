package layout

import (
	"testing"

	"github.com/cartoflow/cartoflow/pkg/geom"
	"github.com/cartoflow/cartoflow/pkg/model"
)

func TestGradeCountsCrossings(t *testing.T) {
	m := model.New(model.Params{})
	a := m.AddNode(model.Node{Pt: geom.Pt{X: 0, Y: 0}, Value: 1})
	b := m.AddNode(model.Node{Pt: geom.Pt{X: 10, Y: 0}, Value: 1})
	c := m.AddNode(model.Node{Pt: geom.Pt{X: 2, Y: -4}, Value: 1})
	d := m.AddNode(model.Node{Pt: geom.Pt{X: 8, Y: 4}, Value: 1})

	arc, err := m.AddFlow(a, b, 1)
	if err != nil {
		t.Fatalf("AddFlow: %v", err)
	}
	arc.SetCtrl(geom.Pt{X: 5, Y: 2})
	if _, err := m.AddFlow(c, d, 1); err != nil {
		t.Fatalf("AddFlow: %v", err)
	}

	g := GradeModel(m)
	if g.FlowIntersections != 1 {
		t.Errorf("FlowIntersections = %d, want 1", g.FlowIntersections)
	}
}

func TestGradeIgnoresSharedNodeTouch(t *testing.T) {
	m := model.New(model.Params{})
	a := m.AddNode(model.Node{Pt: geom.Pt{X: 0, Y: 0}, Value: 1})
	b := m.AddNode(model.Node{Pt: geom.Pt{X: 10, Y: 0}, Value: 1})
	c := m.AddNode(model.Node{Pt: geom.Pt{X: 0, Y: 10}, Value: 1})

	right, err := m.AddFlow(a, b, 1)
	if err != nil {
		t.Fatalf("AddFlow: %v", err)
	}
	right.SetCtrl(geom.Pt{X: 5, Y: 2})
	up, err := m.AddFlow(a, c, 1)
	if err != nil {
		t.Fatalf("AddFlow: %v", err)
	}
	up.SetCtrl(geom.Pt{X: -1, Y: 5})

	g := GradeModel(m)
	if g.FlowIntersections != 0 {
		t.Errorf("FlowIntersections = %d, want 0 for flows touching only at their shared node", g.FlowIntersections)
	}
}

func TestGradeCountsObstacleOverlaps(t *testing.T) {
	p := model.DefaultParams()
	p.MinNodeRadiusPx = 1
	p.MaxNodeRadiusPx = 1
	p.MinStrokeWidthPx = 0.5
	p.MaxStrokeWidthPx = 1
	p.MinObstacleGapPx = 0.5
	m := model.New(p)

	a := m.AddNode(model.Node{Pt: geom.Pt{X: 0, Y: 0}, Value: 1})
	b := m.AddNode(model.Node{Pt: geom.Pt{X: 10, Y: 0}, Value: 1})
	m.AddNode(model.Node{Pt: geom.Pt{X: 5, Y: 1}, Value: 1}) // sits on the arc

	f, err := m.AddFlow(a, b, 1)
	if err != nil {
		t.Fatalf("AddFlow: %v", err)
	}
	f.SetCtrl(geom.Pt{X: 5, Y: 2})

	g := GradeModel(m)
	if g.FlowObstacleOverlaps != 1 {
		t.Errorf("FlowObstacleOverlaps = %d, want 1", g.FlowObstacleOverlaps)
	}
	if g.FlowIntersections != 0 {
		t.Errorf("FlowIntersections = %d, want 0", g.FlowIntersections)
	}
}

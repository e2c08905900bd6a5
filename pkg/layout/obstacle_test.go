package layout

import (
	"math"
	"testing"

	"github.com/cartoflow/cartoflow/pkg/flow"
	"github.com/cartoflow/cartoflow/pkg/geom"
	"github.com/cartoflow/cartoflow/pkg/model"
)

func TestNodeObstacles(t *testing.T) {
	p := model.DefaultParams()
	p.MinNodeRadiusPx = 1
	p.MaxNodeRadiusPx = 4
	m := model.New(p)
	small := m.AddNode(model.Node{Pt: geom.Pt{X: 0, Y: 0}, Value: 1})
	big := m.AddNode(model.Node{Pt: geom.Pt{X: 10, Y: 0}, Value: 4})

	obs := nodeObstacles(m)
	if len(obs) != 2 {
		t.Fatalf("got %d obstacles, want 2", len(obs))
	}
	byNode := map[flow.NodeHandle]Obstacle{}
	for _, ob := range obs {
		byNode[ob.Node] = ob
	}
	// Area-proportional radii: value ratio 1:4 gives radius ratio 1:2.
	if got := byNode[big].R; math.Abs(got-4) > 1e-12 {
		t.Errorf("big node radius = %v, want 4", got)
	}
	if got := byNode[small].R; math.Abs(got-2) > 1e-12 {
		t.Errorf("small node radius = %v, want 2", got)
	}
}

func TestFlowIntersectsObstacle(t *testing.T) {
	_, f := twoNodeModel(t)
	f.SetCtrl(geom.Pt{X: 5, Y: 2}) // apex at (5, 1)

	cases := []struct {
		name       string
		ob         Obstacle
		halfStroke float64
		minGap     float64
		want       bool
	}{
		{"on the arc", Obstacle{Center: geom.Pt{X: 5, Y: 1}, R: 0.5}, 0.25, 0.1, true},
		{"just clear above", Obstacle{Center: geom.Pt{X: 5, Y: 3}, R: 0.5}, 0.25, 0.1, false},
		{"far away", Obstacle{Center: geom.Pt{X: 50, Y: 50}, R: 3}, 1, 1, false},
		{"near but gap closes it", Obstacle{Center: geom.Pt{X: 5, Y: 2.2}, R: 0.5}, 0.25, 0.5, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := flowIntersectsObstacle(f, tc.ob, tc.halfStroke, tc.minGap); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestArrowFor(t *testing.T) {
	_, f := twoNodeModel(t)
	clipped := f.Curve() // straight horizontal line

	a := arrowFor(f, clipped, 2.5, 0.9)
	if got := a.Tip; math.Abs(got.X-12.5) > 1e-9 || math.Abs(got.Y) > 1e-9 {
		t.Errorf("tip = %v, want (12.5, 0)", got)
	}
	if math.Abs(a.Left.X-10) > 1e-9 || math.Abs(a.Right.X-10) > 1e-9 {
		t.Errorf("corners should sit at the clipped end: %v, %v", a.Left, a.Right)
	}
	if got := a.Left.Distance(a.Right); math.Abs(got-0.9) > 1e-9 {
		t.Errorf("arrow width = %v, want 0.9", got)
	}
}

func TestArrowOverlaps(t *testing.T) {
	_, f := twoNodeModel(t)
	base := arrowFor(f, f.Curve(), 2.5, 0.9)

	shifted := base
	shifted.Tip = shifted.Tip.Add(geom.Pt{X: 1, Y: 0})
	shifted.Left = shifted.Left.Add(geom.Pt{X: 1, Y: 0})
	shifted.Right = shifted.Right.Add(geom.Pt{X: 1, Y: 0})
	if !base.Overlaps(shifted) {
		t.Error("slightly shifted copy should overlap")
	}

	far := base
	far.Tip = far.Tip.Add(geom.Pt{X: 0, Y: 20})
	far.Left = far.Left.Add(geom.Pt{X: 0, Y: 20})
	far.Right = far.Right.Add(geom.Pt{X: 0, Y: 20})
	if base.Overlaps(far) {
		t.Error("distant arrows should not overlap")
	}
}

func TestArrowOverlapsPolyline(t *testing.T) {
	_, f := twoNodeModel(t)
	a := arrowFor(f, f.Curve(), 2.5, 0.9) // spans x in [10, 12.5] around y = 0

	crossing := []geom.Pt{{X: 11, Y: -5}, {X: 11, Y: 5}}
	if !a.OverlapsPolyline(crossing, 0.5) {
		t.Error("band crossing through the arrow should overlap")
	}

	grazing := []geom.Pt{{X: 9, Y: 0.6}, {X: 13, Y: 0.6}}
	if !a.OverlapsPolyline(grazing, 0.5) {
		t.Error("band within half-width of an arrow vertex should overlap")
	}

	clear := []geom.Pt{{X: 9, Y: 3}, {X: 13, Y: 3}}
	if a.OverlapsPolyline(clear, 0.5) {
		t.Error("distant band should not overlap")
	}
}

func TestArrowCircumscription(t *testing.T) {
	_, f := twoNodeModel(t)
	a := arrowFor(f, f.Curve(), 2.5, 0.9)

	ob := a.Circumscription()
	if ob.Node != flow.NoNode {
		t.Errorf("arrow obstacle carries node handle %v", ob.Node)
	}
	for _, v := range a.Triangle() {
		if d := ob.Center.Distance(v); d > ob.R+1e-9 {
			t.Errorf("vertex %v outside circumscription (d = %v, R = %v)", v, d, ob.R)
		}
	}
}

func TestSegmentOverlapsPolyline(t *testing.T) {
	line := []geom.Pt{{X: 0, Y: 0}, {X: 10, Y: 0}}

	if !segmentOverlapsPolyline(geom.Pt{X: 5, Y: -2}, geom.Pt{X: 5, Y: 2}, line, 0.5) {
		t.Error("crossing segment should overlap")
	}
	if !segmentOverlapsPolyline(geom.Pt{X: 3, Y: 0.4}, geom.Pt{X: 6, Y: 0.4}, line, 0.5) {
		t.Error("segment inside the band width should overlap")
	}
	if segmentOverlapsPolyline(geom.Pt{X: 3, Y: 2}, geom.Pt{X: 6, Y: 2}, line, 0.5) {
		t.Error("segment outside the band should not overlap")
	}
}

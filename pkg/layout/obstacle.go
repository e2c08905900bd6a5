package layout

import (
	"github.com/cartoflow/cartoflow/pkg/flow"
	"github.com/cartoflow/cartoflow/pkg/geom"
	"github.com/cartoflow/cartoflow/pkg/model"
)

// Obstacle is a disc a flow must not cross: a node symbol or the
// circumscription of an arrowhead. It never owns geometry, only
// references it - Node or Flow identify the source so a flow is not
// tested against its own endpoints.
type Obstacle struct {
	Center geom.Pt
	R      float64
	Node   flow.NodeHandle // NoNode when the obstacle is not a node symbol
	Flow   *flow.Flow      // nil when the obstacle is not flow-derived
}

// nodeObstacles builds one obstacle per node with a positive radius.
func nodeObstacles(m *model.Model) []Obstacle {
	var obs []Obstacle
	m.Nodes(func(h flow.NodeHandle, n model.Node) {
		r := m.NodeRadiusPx(h) / m.Params().ReferenceMapScale
		if r <= 0 {
			return
		}
		obs = append(obs, Obstacle{Center: n.Pt, R: r, Node: h, Flow: nil})
	})
	return obs
}

// flowIntersectsObstacle reports whether the flow's band comes closer to
// the obstacle than the minimum gap. The flow's bounding box, extended by
// half the stroke width plus the obstacle radius plus the gap, rejects
// distant obstacles before the exact distance query runs.
func flowIntersectsObstacle(f *flow.Flow, ob Obstacle, halfStrokeWidth, minGap float64) bool {
	clearance := halfStrokeWidth + ob.R + minGap
	if !f.BoundingBox().Pad(clearance).Contains(ob.Center) {
		return false
	}
	return f.Curve().DistanceSqTo(ob.Center, 1e-7) <= clearance*clearance
}

// Arrow is an arrowhead triangle at the clipped end of a flow, used for
// overlap testing only.
type Arrow struct {
	Tip, Left, Right geom.Pt
	Flow             *flow.Flow
}

// arrowFor places an arrowhead at the end of a clipped curve. The tip
// sits on the curve end pointing along the end tangent; the two corners
// sit behind it across the tangent normal.
func arrowFor(f *flow.Flow, clipped flow.QuadCurve, length, width float64) Arrow {
	dir := clipped.Tangent(1)
	if dir == (geom.Pt{}) {
		dir = f.End().Sub(f.Start()).Normalize()
	}
	tip := clipped.P1.Add(dir.Scale(length))
	back := clipped.P1
	perp := dir.Perp().Scale(width / 2)
	return Arrow{
		Tip:   tip,
		Left:  back.Add(perp),
		Right: back.Sub(perp),
		Flow:  f,
	}
}

// Triangle returns the arrow's three vertices.
func (a Arrow) Triangle() [3]geom.Pt { return [3]geom.Pt{a.Tip, a.Left, a.Right} }

// Circumscription returns the smallest disc obstacle covering the arrow.
func (a Arrow) Circumscription() Obstacle {
	c := geom.Pt{
		X: (a.Tip.X + a.Left.X + a.Right.X) / 3,
		Y: (a.Tip.Y + a.Left.Y + a.Right.Y) / 3,
	}
	r := c.Distance(a.Tip)
	for _, p := range [...]geom.Pt{a.Left, a.Right} {
		if d := c.Distance(p); d > r {
			r = d
		}
	}
	return Obstacle{Center: c, R: r, Node: flow.NoNode, Flow: a.Flow}
}

// Overlaps reports whether two arrowheads overlap, via a general
// triangle-triangle test.
func (a Arrow) Overlaps(b Arrow) bool {
	return geom.TrianglesOverlap(a.Triangle(), b.Triangle())
}

// OverlapsPolyline reports whether the arrow overlaps a flow band given
// as its clipped center polyline and half band width. Triangle edges are
// tested against every polyline segment, and arrow vertices falling
// inside the band width without crossing the centerline are caught by
// explicit distance checks.
func (a Arrow) OverlapsPolyline(line []geom.Pt, halfWidth float64) bool {
	tri := a.Triangle()
	for i := 1; i < len(line); i++ {
		s0, s1 := line[i-1], line[i]
		for e := 0; e < 3; e++ {
			if _, ok := geom.SegmentsIntersect(tri[e], tri[(e+1)%3], s0, s1); ok {
				return true
			}
		}
		for _, v := range tri {
			if geom.DistancePointToSegment(v, s0, s1) <= halfWidth {
				return true
			}
		}
	}
	return false
}

// segmentOverlapsPolyline is the arrowless variant of the overlap test:
// the trailing end segment of a shortened flow against another band.
func segmentOverlapsPolyline(a, b geom.Pt, line []geom.Pt, halfWidth float64) bool {
	for i := 1; i < len(line); i++ {
		if _, ok := geom.SegmentsIntersect(a, b, line[i-1], line[i]); ok {
			return true
		}
		if geom.DistancePointToSegment(a, line[i-1], line[i]) <= halfWidth {
			return true
		}
		if geom.DistancePointToSegment(b, line[i-1], line[i]) <= halfWidth {
			return true
		}
	}
	return false
}

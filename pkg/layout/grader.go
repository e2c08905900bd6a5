package layout

import (
	"github.com/cartoflow/cartoflow/pkg/flow"
	"github.com/cartoflow/cartoflow/pkg/geom"
	"github.com/cartoflow/cartoflow/pkg/model"
)

// Grade summarizes the visual quality of a laid-out model.
type Grade struct {
	// FlowIntersections counts crossing points between distinct flow
	// center curves, shared endpoints excluded.
	FlowIntersections int
	// FlowObstacleOverlaps counts flows whose band crosses a node
	// symbol other than its own end nodes.
	FlowObstacleOverlaps int
}

// GradeModel measures the layout as it currently stands. Pairs are
// graded by their two offset curves.
func GradeModel(m *model.Model) Grade {
	params := m.Params()
	scale := params.ReferenceMapScale
	minGap := params.MinObstacleGapPx / scale

	flows := m.Flows()
	var g Grade

	curves := make([][]flow.QuadCurve, len(flows))
	for i, f := range flows {
		curves[i] = gradeCurves(m, f)
	}

	for i := range flows {
		for j := i + 1; j < len(flows); j++ {
			g.FlowIntersections += crossings(flows[i], flows[j], curves[i], curves[j])
		}
	}

	obstacles := nodeObstacles(m)
	for _, f := range flows {
		halfStroke := m.StrokeWidthPx(f) / 2 / scale
		for _, ob := range obstacles {
			if ob.Node != flow.NoNode && (ob.Node == f.StartNode() || ob.Node == f.EndNode()) {
				continue
			}
			if flowIntersectsObstacle(f, ob, halfStroke, minGap) {
				g.FlowObstacleOverlaps++
				break
			}
		}
	}
	return g
}

func gradeCurves(m *model.Model, f *flow.Flow) []flow.QuadCurve {
	if f.IsPair() {
		gap := m.StrokeWidthPx(f) / m.Params().ReferenceMapScale
		a, b, err := f.PairCurves(gap, flow.LowOffsetQuality)
		if err != nil {
			return nil
		}
		return []flow.QuadCurve{a, b}
	}
	return []flow.QuadCurve{f.Curve()}
}

// crossings counts intersection points between two flows' curves,
// discarding intersections at a shared node: flows meeting at a common
// endpoint always touch there and that touch is not a defect.
func crossings(fa, fb *flow.Flow, ca, cb []flow.QuadCurve) int {
	shared := sharedPoints(fa, fb)
	n := 0
	for _, a := range ca {
		for _, b := range cb {
		points:
			for _, p := range a.Intersections(b) {
				for _, s := range shared {
					if p.Distance(s) < sharedNodeTol {
						continue points
					}
				}
				n++
			}
		}
	}
	return n
}

const sharedNodeTol = 1e-6

func sharedPoints(a, b *flow.Flow) []geom.Pt {
	var pts []geom.Pt
	if h := a.StartNode(); h != flow.NoNode && (h == b.StartNode() || h == b.EndNode()) {
		pts = append(pts, a.Start())
	}
	if h := a.EndNode(); h != flow.NoNode && (h == b.StartNode() || h == b.EndNode()) {
		pts = append(pts, a.End())
	}
	return pts
}

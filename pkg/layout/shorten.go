package layout

import (
	"math"

	"github.com/cartoflow/cartoflow/pkg/flow"
	"github.com/cartoflow/cartoflow/pkg/geom"
)

// shortenPolylineSegments is the sampling resolution for the reference
// polylines that shortening candidates are tested against.
const shortenPolylineSegments = 50

// flowRef is a snapshot of another flow's visible geometry, clipped at
// its natural node radii only. Testing candidates against natural-radius
// references keeps the search idempotent: committed shortenings of other
// flows never feed back into this flow's result, so re-running the pass
// on an already shortened model commits the same radii again.
type flowRef struct {
	id         uint64
	polyline   []geom.Pt
	halfStroke float64
	arrow      Arrow
	hasArrow   bool
}

// ShortenFlowsToReduceOverlaps searches, for each unlocked single flow
// and each of its ends, the smallest extra clip radius that clears the
// end's arrowhead and terminus of other flows' bands and of foreign node
// symbols. Radii grow in fixed pixel steps; a radius is accepted only
// when the clipped tangent still aims into the end node's visual radius,
// and committed only when it opens a run of
// ConsecutiveStepsWithoutOverlap clean steps; the committed value is
// the first radius of that run. A search that exhausts its budget (the
// MaxShorteningFraction of the baseline, or the minimum trunk length)
// resets the end to zero shortening.
//
// Flow pairs are skipped: their offset curves terminate off the node
// center and the circle-clip model does not apply.
func (l *ForceLayouter) ShortenFlowsToReduceOverlaps() {
	flows := l.m.Flows()
	refs := make([]flowRef, 0, len(flows))
	for _, f := range flows {
		if f.IsPair() {
			continue
		}
		refs = append(refs, l.referenceFor(f))
	}
	obs := nodeObstacles(l.m)

	for _, f := range flows {
		if f.Locked || f.IsPair() {
			continue
		}
		natStart, natEnd := l.naturalRadii(f)

		endS := l.searchShortening(f, refs, obs, false, natStart, natEnd)
		startS := l.searchShortening(f, refs, obs, true, natStart, natEnd+endS)
		f.SetShortenings(startS, endS)
	}
}

// naturalRadii returns the node symbol radii at the flow's two ends in
// map units; a detached end clips nothing.
func (l *ForceLayouter) naturalRadii(f *flow.Flow) (start, end float64) {
	scale := l.params.ReferenceMapScale
	if h := f.StartNode(); h != flow.NoNode {
		start = l.m.NodeRadiusPx(h) / scale
	}
	if h := f.EndNode(); h != flow.NoNode {
		end = l.m.NodeRadiusPx(h) / scale
	}
	return start, end
}

func (l *ForceLayouter) referenceFor(f *flow.Flow) flowRef {
	natStart, natEnd := l.naturalRadii(f)
	clipped, _ := f.ClippedCurve(flow.ClipRadii{Start: natStart, End: natEnd})

	ref := flowRef{
		id:         f.ID(),
		polyline:   clipped.Polyline(shortenPolylineSegments),
		halfStroke: l.m.StrokeWidthPx(f) / 2 / l.params.ReferenceMapScale,
	}
	if l.params.DrawArrowheads {
		ref.arrow = l.arrowAt(f, clipped)
		ref.hasArrow = true
	}
	return ref
}

func (l *ForceLayouter) arrowAt(f *flow.Flow, clipped flow.QuadCurve) Arrow {
	scale := l.params.ReferenceMapScale
	stroke := l.m.StrokeWidthPx(f) / scale
	return arrowFor(f, clipped,
		stroke*l.params.ArrowLengthRatio,
		stroke*l.params.ArrowWidthRatio)
}

// searchShortening grows one end's extra clip radius and returns the
// committed value. atStart selects the end; startRadius/endRadius are the
// fixed total radii for the two ends, with the searched end's candidate
// added on top of its fixed component.
func (l *ForceLayouter) searchShortening(f *flow.Flow, refs []flowRef, obs []Obstacle, atStart bool, startRadius, endRadius float64) float64 {
	scale := l.params.ReferenceMapScale
	step := l.params.ShorteningStepPx / scale
	if step <= 0 {
		return 0
	}
	budget := f.BaselineLength() * l.params.MaxShorteningFraction
	minTrunk := l.params.MinFlowLengthPx / scale
	need := l.params.ConsecutiveStepsWithoutOverlap

	runFirst := 0.0
	runLen := 0
	for s := 0.0; s <= budget; s += step {
		radii := flow.ClipRadii{Start: startRadius, End: endRadius}
		if atStart {
			radii.Start += s
		} else {
			radii.End += s
		}
		clipped, err := f.ClippedCurve(radii)
		if err != nil {
			return 0
		}
		if clipped.ArcLength() < minTrunk {
			break
		}
		if l.endIsClean(f, clipped, atStart, refs, obs) {
			if runLen == 0 {
				runFirst = s
			}
			runLen++
			if runLen >= need {
				return runFirst
			}
		} else {
			runLen = 0
		}
	}
	return 0
}

// endIsClean reports whether the clip radius under test is acceptable:
// the clipped tangent must still aim into the end node's visual radius,
// and the terminus region must stay clear of every other flow's band and
// arrowhead and of every foreign node symbol. The end side additionally
// tests the flow's own arrowhead triangle against other bands; the
// arrowhead is allowed over node symbols because it deliberately reaches
// toward the destination node.
func (l *ForceLayouter) endIsClean(f *flow.Flow, clipped flow.QuadCurve, atStart bool, refs []flowRef, obs []Obstacle) bool {
	if !l.tangentHitsNode(f, clipped, atStart) {
		return false
	}
	scale := l.params.ReferenceMapScale
	half := l.m.StrokeWidthPx(f) / 2 / scale
	gap := l.params.MinObstacleGapPx / scale

	var arrow Arrow
	hasArrow := false
	terminus := clipped.P0
	dir := clipped.Tangent(0)
	if !atStart {
		terminus = clipped.P1
		dir = clipped.Tangent(1).Scale(-1)
		if l.params.DrawArrowheads {
			arrow = l.arrowAt(f, clipped)
			hasArrow = true
		}
	}
	// Short stub reaching from the terminus back into the band, so the
	// test covers the band end cap and not just its center point.
	stub := terminus.Add(dir.Scale(half))

	for _, ref := range refs {
		if ref.id == f.ID() {
			continue
		}
		clearance := half + ref.halfStroke + gap
		if segmentOverlapsPolyline(terminus, stub, ref.polyline, clearance) {
			return false
		}
		if hasArrow {
			if arrow.OverlapsPolyline(ref.polyline, ref.halfStroke+gap) {
				return false
			}
			if ref.hasArrow && arrow.Overlaps(ref.arrow) {
				return false
			}
		}
	}

	for _, ob := range obs {
		if ob.Node == f.StartNode() || ob.Node == f.EndNode() {
			continue
		}
		clearance := half + ob.R + gap
		if geom.DistancePointToSegment(ob.Center, terminus, stub) <= clearance {
			return false
		}
	}
	return true
}

// tangentHitsNode reports whether the ray leaving the clipped terminus
// along the outward tangent passes through the end node's visual radius.
// A radius that makes the curve aim past its own node breaks the visual
// connection and is rejected even when nothing overlaps. Detached ends
// have no node to aim at and always pass.
func (l *ForceLayouter) tangentHitsNode(f *flow.Flow, clipped flow.QuadCurve, atStart bool) bool {
	h := f.EndNode()
	terminus := clipped.P1
	dir := clipped.Tangent(1)
	if atStart {
		h = f.StartNode()
		terminus = clipped.P0
		dir = clipped.Tangent(0).Scale(-1)
	}
	if h == flow.NoNode {
		return true
	}
	n, err := l.m.Node(h)
	if err != nil {
		return true
	}
	dir = dir.Normalize()
	if dir == (geom.Pt{}) {
		return false
	}
	v := n.Pt.Sub(terminus)
	r := l.m.NodeRadiusPx(h) / l.params.ReferenceMapScale
	if v.Dot(dir) <= 0 {
		// The node sits behind the terminus; only acceptable when the
		// terminus is already inside its radius.
		return v.Norm() <= r
	}
	return math.Abs(v.Cross(dir)) <= r
}

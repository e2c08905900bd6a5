package flow

import (
	"github.com/cartoflow/cartoflow/pkg/geom"
)

// clipSampleSegments is the polyline resolution used to locate where the
// curve leaves a clip-area polygon before the bisection refinement.
const clipSampleSegments = 100

// ClipRadii bundles the circle radii applied at the two ends when
// clipping a flow's visible extent: the node symbol radius plus any
// overlap-avoidance shortening.
type ClipRadii struct {
	Start, End float64
}

// ClippedCurve returns the portion of the flow's curve that remains
// visible after subtracting the start/end clip areas and the given end
// circles. The start parameter is the larger of the polygon exit and the
// circle exit; symmetrically for the end. When clipping consumes the whole
// curve, a zero-length curve at the surviving midpoint is returned rather
// than inverted geometry.
//
// Single-curve clipping is undefined for a pair and returns
// ErrUnsupportedForPair; clip each of the pair's offset curves instead.
func (f *Flow) ClippedCurve(radii ClipRadii) (QuadCurve, error) {
	if f.kind == KindPair {
		return QuadCurve{}, ErrUnsupportedForPair
	}
	c := f.Curve()

	t0 := c.CircleClipTFromStart(radii.Start)
	t1 := c.CircleClipTFromEnd(radii.End)

	if !f.startClip.IsZero() {
		if t := clipAreaExitT(c, f.startClip.Polygon, true); t > t0 {
			t0 = t
		}
	}
	if !f.endClip.IsZero() {
		if t := clipAreaExitT(c, f.endClip.Polygon, false); t < t1 {
			t1 = t
		}
	}

	if t0 >= t1 {
		mid := c.eval((t0 + t1) / 2)
		return QuadCurve{P0: mid, Ctrl: mid, P1: mid}, nil
	}
	return c.Subsegment(t0, t1), nil
}

// ClippedLength returns the arc length of the visible portion of the flow.
func (f *Flow) ClippedLength(radii ClipRadii) (float64, error) {
	c, err := f.ClippedCurve(radii)
	if err != nil {
		return 0, err
	}
	return c.ArcLength(), nil
}

// clipAreaExitT locates the parameter where the curve crosses the clip
// polygon boundary. fromStart searches for the last exit of the region
// containing the start point; otherwise the first entry of the region
// containing the end point. A curve that never enters the polygon clips
// nothing (returns 0 or 1 respectively).
func clipAreaExitT(c QuadCurve, poly []geom.Pt, fromStart bool) float64 {
	inside := func(t float64) bool {
		return geom.PointInPolygon(c.eval(t), poly)
	}
	if fromStart {
		if !inside(0) {
			return 0
		}
		// Coarse scan for the first sample outside, then bisect.
		lo := 0.0
		hi := 1.0
		found := false
		for i := 1; i <= clipSampleSegments; i++ {
			t := float64(i) / clipSampleSegments
			if !inside(t) {
				hi = t
				lo = float64(i-1) / clipSampleSegments
				found = true
				break
			}
		}
		if !found {
			return 1 // entire curve inside the clip region
		}
		for i := 0; i < circleBisectionSteps; i++ {
			mid := (lo + hi) / 2
			if inside(mid) {
				lo = mid
			} else {
				hi = mid
			}
		}
		return (lo + hi) / 2
	}

	if !inside(1) {
		return 1
	}
	lo := 0.0
	hi := 1.0
	found := false
	for i := clipSampleSegments - 1; i >= 0; i-- {
		t := float64(i) / clipSampleSegments
		if !inside(t) {
			lo = t
			hi = float64(i+1) / clipSampleSegments
			found = true
			break
		}
	}
	if !found {
		return 0
	}
	for i := 0; i < circleBisectionSteps; i++ {
		mid := (lo + hi) / 2
		if inside(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return (lo + hi) / 2
}

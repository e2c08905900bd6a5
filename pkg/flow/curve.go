// Package flow implements the geometric flow model: quadratic Bézier curves
// between shared nodes, composite flow pairs, clipping, arc-length sampling,
// and the curve queries (nearest point, intersections, offsets) the layout
// engine is built on.
//
// The package is split into a pure value-type curve layer ([QuadCurve],
// [CubicCurve]) with no identity or caching, and the model-facing [Flow]
// type that carries node handles, lock flags, clip geometry, and
// generation-counted caches. Curve math never allocates model state and is
// safe to use concurrently; Flow is single-writer like the rest of the
// model.
package flow

import (
	"errors"
	"math"

	"github.com/cartoflow/cartoflow/pkg/geom"
)

var (
	// ErrParameterOutOfRange is returned by [QuadCurve.Eval] and
	// [CubicCurve.Eval] when t lies outside [0,1]. Callers are expected to
	// clamp upstream; evaluation outside the segment is a caller bug, not a
	// geometric condition.
	ErrParameterOutOfRange = errors.New("curve parameter outside [0,1]")

	// ErrDegenerateFlow is returned by [New] when the start and end of a
	// flow coincide, either as the same node handle or as the same
	// coordinates. A flow needs a non-zero baseline.
	ErrDegenerateFlow = errors.New("flow start and end coincide")

	// ErrNonFiniteValue is returned by [New] when the flow value is NaN or
	// infinite.
	ErrNonFiniteValue = errors.New("flow value must be finite")

	// ErrUnsupportedForPair is returned by single-curve operations invoked
	// on a flow pair. Splitting, single-curve clipping, and per-point hit
	// testing are mathematically undefined for the composite; the caller
	// must operate on the pair's offset curves instead.
	ErrUnsupportedForPair = errors.New("operation not supported for flow pair")
)

// QuadCurve is a quadratic Bézier curve defined by a start point, one
// interior control point, and an end point. It is a plain value type with
// no caches; all methods are read-only.
type QuadCurve struct {
	P0, Ctrl, P1 geom.Pt
}

// Eval returns the point on the curve at parameter t using De Casteljau
// evaluation. Returns ErrParameterOutOfRange for t outside [0,1].
func (c QuadCurve) Eval(t float64) (geom.Pt, error) {
	if t < 0 || t > 1 || math.IsNaN(t) {
		return geom.Pt{}, ErrParameterOutOfRange
	}
	return c.eval(t), nil
}

// eval is Eval without the range check, for internal solvers that manage
// their own parameter domain.
func (c QuadCurve) eval(t float64) geom.Pt {
	a := c.P0.Lerp(c.Ctrl, t)
	b := c.Ctrl.Lerp(c.P1, t)
	return a.Lerp(b, t)
}

// Derivative returns the curve's first derivative at t:
// 2(1-t)(Ctrl-P0) + 2t(P1-Ctrl).
func (c QuadCurve) Derivative(t float64) geom.Pt {
	a := c.Ctrl.Sub(c.P0).Scale(2 * (1 - t))
	b := c.P1.Sub(c.Ctrl).Scale(2 * t)
	return a.Add(b)
}

// Tangent returns the unit tangent at t, or the zero vector when the
// derivative vanishes (control point coincident with an endpoint at t=0/1).
func (c QuadCurve) Tangent(t float64) geom.Pt {
	return c.Derivative(t).Normalize()
}

// Baseline returns the straight segment between the curve's endpoints.
func (c QuadCurve) Baseline() (geom.Pt, geom.Pt) { return c.P0, c.P1 }

// BaselineLength returns the distance between the curve's endpoints.
func (c QuadCurve) BaselineLength() float64 { return c.P0.Distance(c.P1) }

// BoundingBox returns the tight axis-aligned bounding box of the curve
// segment. The box spans the endpoints extended by the curve's interior
// extrema, found by solving the first derivative for zero per axis:
// t = (P0-P1)/(P0-2·P1+P2). Roots outside [0,1] lie beyond the segment and
// are ignored.
func (c QuadCurve) BoundingBox() geom.Rect {
	box := geom.RectFromPoints(c.P0, c.P1)
	if t, ok := extremumT(c.P0.X, c.Ctrl.X, c.P1.X); ok {
		box = box.Include(c.eval(t))
	}
	if t, ok := extremumT(c.P0.Y, c.Ctrl.Y, c.P1.Y); ok {
		box = box.Include(c.eval(t))
	}
	return box
}

// extremumT solves 2(1-t)(p1-p0) + 2t(p2-p1) = 0 for one coordinate axis.
// Reports false when the derivative is constant or the root lies outside
// (0,1).
func extremumT(p0, p1, p2 float64) (float64, bool) {
	denom := p0 - 2*p1 + p2
	if denom == 0 {
		return 0, false
	}
	t := (p0 - p1) / denom
	if t <= 0 || t >= 1 {
		return 0, false
	}
	return t, true
}

// Split subdivides the curve at t using De Casteljau subdivision and
// returns the two halves. For t <= 0 or t >= 1 both return values are the
// original curve: a no-op split is preferable to degenerate geometry with
// coincident points.
func (c QuadCurve) Split(t float64) (QuadCurve, QuadCurve) {
	if t <= 0 || t >= 1 {
		return c, c
	}
	mid := c.P0.Lerp(c.Ctrl, t)
	mid2 := c.Ctrl.Lerp(c.P1, t)
	on := mid.Lerp(mid2, t)
	return QuadCurve{P0: c.P0, Ctrl: mid, P1: on},
		QuadCurve{P0: on, Ctrl: mid2, P1: c.P1}
}

// Subsegment returns the portion of the curve between parameters t0 and t1
// as a new curve. Both parameters are clamped to [0,1]; t0 > t1 swaps them.
func (c QuadCurve) Subsegment(t0, t1 float64) QuadCurve {
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	if t0 < 0 {
		t0 = 0
	}
	if t1 > 1 {
		t1 = 1
	}
	_, tail := c.Split(t0)
	if t0 >= 1 || t1 <= t0 {
		return QuadCurve{P0: c.eval(t0), Ctrl: c.eval(t0), P1: c.eval(t1)}
	}
	// Re-map t1 into the tail's parameter space before the second cut.
	head, _ := tail.Split((t1 - t0) / (1 - t0))
	return head
}

// IsFinite reports whether all control coordinates are finite.
func (c QuadCurve) IsFinite() bool {
	return c.P0.IsFinite() && c.Ctrl.IsFinite() && c.P1.IsFinite()
}

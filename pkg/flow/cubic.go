package flow

import (
	"math"

	"github.com/cartoflow/cartoflow/pkg/geom"
)

// CubicCurve is the cubic Bézier variant with two interior control points.
// Only evaluation, subdivision, and bounding boxes are provided; the layout
// engine works on quadratic flows and uses cubics solely for derived
// offset geometry.
type CubicCurve struct {
	P0, Ctrl1, Ctrl2, P1 geom.Pt
}

// Eval returns the point on the curve at parameter t.
// Returns ErrParameterOutOfRange for t outside [0,1].
func (c CubicCurve) Eval(t float64) (geom.Pt, error) {
	if t < 0 || t > 1 || math.IsNaN(t) {
		return geom.Pt{}, ErrParameterOutOfRange
	}
	return c.eval(t), nil
}

func (c CubicCurve) eval(t float64) geom.Pt {
	a := c.P0.Lerp(c.Ctrl1, t)
	b := c.Ctrl1.Lerp(c.Ctrl2, t)
	d := c.Ctrl2.Lerp(c.P1, t)
	ab := a.Lerp(b, t)
	bd := b.Lerp(d, t)
	return ab.Lerp(bd, t)
}

// Split subdivides the curve at t. For t <= 0 or t >= 1 both return values
// are the original curve, matching [QuadCurve.Split].
func (c CubicCurve) Split(t float64) (CubicCurve, CubicCurve) {
	if t <= 0 || t >= 1 {
		return c, c
	}
	a := c.P0.Lerp(c.Ctrl1, t)
	b := c.Ctrl1.Lerp(c.Ctrl2, t)
	d := c.Ctrl2.Lerp(c.P1, t)
	ab := a.Lerp(b, t)
	bd := b.Lerp(d, t)
	on := ab.Lerp(bd, t)
	return CubicCurve{P0: c.P0, Ctrl1: a, Ctrl2: ab, P1: on},
		CubicCurve{P0: on, Ctrl1: bd, Ctrl2: d, P1: c.P1}
}

// BoundingBox returns the tight bounding box of the curve segment. Interior
// extrema come from the quadratic roots of the derivative per axis.
func (c CubicCurve) BoundingBox() geom.Rect {
	box := geom.RectFromPoints(c.P0, c.P1)
	for _, t := range cubicExtrema(c.P0.X, c.Ctrl1.X, c.Ctrl2.X, c.P1.X) {
		box = box.Include(c.eval(t))
	}
	for _, t := range cubicExtrema(c.P0.Y, c.Ctrl1.Y, c.Ctrl2.Y, c.P1.Y) {
		box = box.Include(c.eval(t))
	}
	return box
}

// cubicExtrema returns the parameters in (0,1) where the derivative of one
// coordinate of a cubic Bézier vanishes. The derivative is the quadratic
// a·t² + b·t + c with the coefficients below.
func cubicExtrema(p0, p1, p2, p3 float64) []float64 {
	a := -p0 + 3*p1 - 3*p2 + p3
	b := 2 * (p0 - 2*p1 + p2)
	c := p1 - p0
	var roots []float64
	if a == 0 {
		if b != 0 {
			roots = append(roots, -c/b)
		}
	} else {
		disc := b*b - 4*a*c
		if disc >= 0 {
			sq := math.Sqrt(disc)
			roots = append(roots, (-b+sq)/(2*a), (-b-sq)/(2*a))
		}
	}
	var in []float64
	for _, t := range roots {
		if t > 0 && t < 1 {
			in = append(in, t)
		}
	}
	return in
}

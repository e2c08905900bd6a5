package flow

import (
	"math"

	"github.com/cartoflow/cartoflow/pkg/geom"
)

// OffsetQuality controls the iterative refinement of [QuadCurve.Offset].
// More iterations and samples track the true parallel curve more closely
// at proportional cost.
type OffsetQuality struct {
	// Iterations is the number of control-point refinement rounds.
	Iterations int
	// TSamples is the number of interior curve parameters evaluated per
	// round.
	TSamples int
}

// DefaultOffsetQuality is accurate enough for flow-pair rendering at
// typical band widths.
var DefaultOffsetQuality = OffsetQuality{Iterations: 10, TSamples: 15}

// LowOffsetQuality is used while dragging or iterating, where speed beats
// fidelity.
var LowOffsetQuality = OffsetQuality{Iterations: 4, TSamples: 7}

// Blend weights of the two refinement objectives: distance measured from
// the offset curve back to the original, and distance measured from the
// original out to the offset curve.
const (
	offsetWeightFromOffset   = 0.8
	offsetWeightFromOriginal = 0.2
)

// Offset returns a parallel curve at signed perpendicular distance dist.
// Positive dist offsets to the left of the travel direction.
//
// The endpoints are displaced along the normals of the curve tangents at
// the nodes, not the raw baseline normal, so the offset curve departs from
// node symbols at the same angle as the original. A true parallel of a
// parabola is not itself a parabola, so the control point is found by
// iterative refinement: each round samples both curves and nudges the
// control point to equalize the separation, blending the two competing
// closest-point objectives at fixed weights 0.8/0.2.
func (c QuadCurve) Offset(dist float64, quality OffsetQuality) QuadCurve {
	if dist == 0 {
		return c
	}
	if quality.Iterations <= 0 || quality.TSamples <= 0 {
		quality = DefaultOffsetQuality
	}

	n0 := c.Tangent(0).Perp()
	n1 := c.Tangent(1).Perp()
	nm := c.Tangent(0.5).Perp()
	off := QuadCurve{
		P0:   c.P0.Add(n0.Scale(dist)),
		Ctrl: c.Ctrl.Add(nm.Scale(dist)),
		P1:   c.P1.Add(n1.Scale(dist)),
	}

	want := math.Abs(dist)
	for round := 0; round < quality.Iterations; round++ {
		var corr geom.Pt
		for i := 1; i <= quality.TSamples; i++ {
			t := float64(i) / float64(quality.TSamples+1)

			// Objective A: the offset curve should sit at distance |dist|
			// from the original everywhere.
			q := off.eval(t)
			ct := c.ClosestT(q, 1e-7)
			cp := c.eval(ct)
			sep := q.Sub(cp)
			sepLen := sep.Norm()
			var errA geom.Pt
			if sepLen > 0 {
				errA = sep.Scale((want - sepLen) / sepLen)
			}

			// Objective B: each original point displaced along its normal
			// should land on the offset curve.
			target := c.eval(t).Add(c.Tangent(t).Perp().Scale(dist))
			ot := off.ClosestT(target, 1e-7)
			errB := target.Sub(off.eval(ot))

			corr = corr.Add(errA.Scale(offsetWeightFromOffset)).
				Add(errB.Scale(offsetWeightFromOriginal))
		}
		corr = corr.Scale(1 / float64(quality.TSamples))
		// The curve midpoint moves at half the control-point displacement,
		// so apply twice the mean error to the control point.
		off.Ctrl = off.Ctrl.Add(corr.Scale(2))
		if corr.Norm() < want*1e-4 {
			break
		}
	}
	return off
}

package flow

import (
	"math"

	"github.com/cartoflow/cartoflow/pkg/geom"
)

const (
	// newtonMaxIterations caps the Newton–Raphson refinement budget.
	newtonMaxIterations = 16

	// newtonDivergenceStep aborts the refinement when a single Newton step
	// exceeds this magnitude in parameter space. The threshold is a policy
	// parameter: the search only needs to be good enough to hand a seed to
	// the brute-force fallback, which bounds the error regardless.
	newtonDivergenceStep = 2.0

	// bruteSamples is the sampling density of the brute-force fallback.
	bruteSamples = 200
)

// ClosestT returns the curve parameter of the point nearest to p, within
// tolerance tol in parameter space. The search seeds Newton–Raphson from a
// coarse scan of the curve and falls back to dense sampling with local
// refinement when the iteration fails to converge or diverges.
func (c QuadCurve) ClosestT(p geom.Pt, tol float64) float64 {
	if tol <= 0 {
		tol = 1e-9
	}
	seed := c.coarseSeed(p)
	if t, ok := c.closestTNewton(p, seed, tol); ok {
		// Endpoints can still beat an interior stationary point.
		return c.bestOf(p, t, 0, 1)
	}
	return c.closestTBrute(p)
}

// DistanceTo returns the shortest distance from p to the curve, within the
// accuracy implied by tol (see [QuadCurve.ClosestT]).
func (c QuadCurve) DistanceTo(p geom.Pt, tol float64) float64 {
	return c.eval(c.ClosestT(p, tol)).Distance(p)
}

// DistanceSqTo returns the squared shortest distance from p to the curve.
// Overlap tests compare squared distances to avoid the square root.
func (c QuadCurve) DistanceSqTo(p geom.Pt, tol float64) float64 {
	return c.eval(c.ClosestT(p, tol)).DistanceSq(p)
}

// coarseSeed scans a fixed parameter grid and returns the sample nearest
// to p, which seeds the Newton iteration inside the right basin most of
// the time.
func (c QuadCurve) coarseSeed(p geom.Pt) float64 {
	const n = 16
	best, bestD := 0.0, math.Inf(1)
	for i := 0; i <= n; i++ {
		t := float64(i) / n
		if d := c.eval(t).DistanceSq(p); d < bestD {
			best, bestD = t, d
		}
	}
	return best
}

// closestTNewton runs Newton–Raphson on the derivative of the squared
// distance f(t) = (C(t)-p)·C'(t). It reports false when the iteration
// exhausts its budget, takes a divergent step, or lands on a vanishing
// second derivative.
func (c QuadCurve) closestTNewton(p geom.Pt, t, tol float64) (float64, bool) {
	// C''(t) is constant for a quadratic.
	dd := c.P0.Sub(c.Ctrl.Scale(2)).Add(c.P1).Scale(2)
	for i := 0; i < newtonMaxIterations; i++ {
		diff := c.eval(t).Sub(p)
		d := c.Derivative(t)
		f := diff.Dot(d)
		fp := d.Dot(d) + diff.Dot(dd)
		if fp == 0 {
			return 0, false
		}
		step := f / fp
		if math.Abs(step) > newtonDivergenceStep || math.IsNaN(step) {
			return 0, false
		}
		t -= step
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		if math.Abs(step) < tol {
			return t, true
		}
	}
	return 0, false
}

// closestTBrute samples the curve densely and refines the best sample by
// repeated interval halving. Slow but always terminates with a
// bounded-error answer; this is the safety net under the Newton search.
func (c QuadCurve) closestTBrute(p geom.Pt) float64 {
	best, bestD := 0.0, math.Inf(1)
	for i := 0; i <= bruteSamples; i++ {
		t := float64(i) / bruteSamples
		if d := c.eval(t).DistanceSq(p); d < bestD {
			best, bestD = t, d
		}
	}
	lo := math.Max(0, best-1.0/bruteSamples)
	hi := math.Min(1, best+1.0/bruteSamples)
	for i := 0; i < 30; i++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		if c.eval(m1).DistanceSq(p) < c.eval(m2).DistanceSq(p) {
			hi = m2
		} else {
			lo = m1
		}
	}
	return (lo + hi) / 2
}

// bestOf returns the candidate parameter whose curve point is nearest to p.
func (c QuadCurve) bestOf(p geom.Pt, candidates ...float64) float64 {
	best, bestD := candidates[0], math.Inf(1)
	for _, t := range candidates {
		if d := c.eval(t).DistanceSq(p); d < bestD {
			best, bestD = t, d
		}
	}
	return best
}

package flow

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"

	"github.com/cartoflow/cartoflow/pkg/geom"
)

// circleBisectionSteps is the number of interval halvings used when
// locating the parameter where a circle around an endpoint crosses the
// curve. 20 steps resolve t to about 1e-6, far below a pixel.
const circleBisectionSteps = 20

// quarticSolves counts invocations of the curve–curve resultant solver.
// The bounding-box reject in [QuadCurve.Intersections] is a contract:
// non-overlapping boxes must never reach the solver, and tests observe
// this counter to verify it.
var quarticSolves atomic.Uint64

// CircleClipTFromStart returns the smallest parameter t where the curve
// leaves a circle of radius r centered on the start point, found by
// bisection. Returns 1 when the whole curve lies inside the circle and 0
// when r is not positive.
func (c QuadCurve) CircleClipTFromStart(r float64) float64 {
	if r <= 0 {
		return 0
	}
	if c.eval(1).Distance(c.P0) < r && c.eval(0.5).Distance(c.P0) < r {
		return 1
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < circleBisectionSteps; i++ {
		mid := (lo + hi) / 2
		if c.eval(mid).Distance(c.P0) < r {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// CircleClipTFromEnd returns the largest parameter t where the curve
// enters a circle of radius r centered on the end point, found by
// bisection. Returns 0 when the whole curve lies inside the circle and 1
// when r is not positive.
func (c QuadCurve) CircleClipTFromEnd(r float64) float64 {
	if r <= 0 {
		return 1
	}
	if c.eval(0).Distance(c.P1) < r && c.eval(0.5).Distance(c.P1) < r {
		return 0
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < circleBisectionSteps; i++ {
		mid := (lo + hi) / 2
		if c.eval(mid).Distance(c.P1) < r {
			hi = mid
		} else {
			lo = mid
		}
	}
	return (lo + hi) / 2
}

// IntersectsSegment reports whether the curve crosses the closed segment
// a-b. The segment's implicit line form is substituted into the curve's
// power-basis polynomial; real roots in [0,1] are then checked against the
// segment's bounding box.
func (c QuadCurve) IntersectsSegment(a, b geom.Pt) bool {
	d := b.Sub(a)
	if d.NormSq() == 0 {
		return false
	}
	// Line normal form: n·p + off = 0.
	n := d.Perp()
	off := -n.Dot(a)

	// Power basis of the curve: A·t² + B·t + C per coordinate.
	ax, bx, cx := powerBasis(c.P0.X, c.Ctrl.X, c.P1.X)
	ay, by, cy := powerBasis(c.P0.Y, c.Ctrl.Y, c.P1.Y)

	// Substituting gives a quadratic in t.
	qa := n.X*ax + n.Y*ay
	qb := n.X*bx + n.Y*by
	qc := n.X*cx + n.Y*cy + off

	box := geom.RectFromPoints(a, b).Pad(1e-9)
	for _, t := range quadraticRoots(qa, qb, qc) {
		if t < 0 || t > 1 {
			continue
		}
		if box.Contains(c.eval(t)) {
			return true
		}
	}
	return false
}

// Intersections returns the true intersection points of two quadratic
// curves. Bounding boxes are compared first; when they do not overlap the
// quartic resultant is never evaluated. Tangential touches count as
// intersections. The result is ordered by this curve's parameter.
func (c QuadCurve) Intersections(other QuadCurve) []geom.Pt {
	if !c.BoundingBox().Intersects(other.BoundingBox()) {
		return nil
	}

	// Implicitize the other curve: a quadratic Bézier lies on the conic
	// F(x,y) = u(x,y)² - v·w(x,y) obtained from the Sylvester resultant of
	// its coordinate polynomials. Substituting this curve's parametric
	// form into F yields a quartic in t.
	a2, a1, a0 := powerBasis(other.P0.X, other.Ctrl.X, other.P1.X)
	b2, b1, b0 := powerBasis(other.P0.Y, other.Ctrl.Y, other.P1.Y)

	// A straight other curve (control point on the chord midpoint) has no
	// conic: u and v vanish and F is identically zero. Intersect against
	// its chord segment instead.
	if chord := other.P1.Sub(other.P0).Norm(); math.Hypot(a2, b2) <= 1e-9*chord {
		return c.segmentIntersections(other.P0, other.P1)
	}
	quarticSolves.Add(1)

	x2, x1, x0 := powerBasis(c.P0.X, c.Ctrl.X, c.P1.X)
	y2, y1, y0 := powerBasis(c.P0.Y, c.Ctrl.Y, c.P1.Y)

	// u(t) = a2·(b0 - y(t)) - b2·(a0 - x(t)), quadratic in t.
	u := [3]float64{
		a2*(b0-y0) - b2*(a0-x0),
		-a2*y1 + b2*x1,
		-a2*y2 + b2*x2,
	}
	// v = a2·b1 - a1·b2, constant.
	v := a2*b1 - a1*b2
	// w(t) = a1·(b0 - y(t)) - b1·(a0 - x(t)), quadratic in t.
	w := [3]float64{
		a1*(b0-y0) - b1*(a0-x0),
		-a1*y1 + b1*x1,
		-a1*y2 + b1*x2,
	}

	// F(t) = u(t)² - v·w(t), coefficients lowest degree first.
	coeffs := []float64{
		u[0]*u[0] - v*w[0],
		2*u[0]*u[1] - v*w[1],
		2*u[0]*u[2] + u[1]*u[1] - v*w[2],
		2 * u[1] * u[2],
		u[2] * u[2],
	}

	const onCurveTol = 1e-6
	var pts []geom.Pt
	var lastT float64 = -1
	for _, t := range polyRoots(coeffs) {
		if t < -1e-9 || t > 1+1e-9 {
			continue
		}
		t = math.Min(1, math.Max(0, t))
		p := c.eval(t)
		// The implicit conic extends beyond the other segment; keep only
		// roots that actually lie on it.
		if other.DistanceTo(p, 1e-9) > onCurveTol {
			continue
		}
		if lastT >= 0 && t-lastT < 1e-7 {
			continue
		}
		lastT = t
		pts = append(pts, p)
	}
	return pts
}

// segmentIntersections returns the points where the curve crosses the
// closed segment a-b, ordered by the curve's parameter. This is the
// point-returning sibling of [QuadCurve.IntersectsSegment].
func (c QuadCurve) segmentIntersections(a, b geom.Pt) []geom.Pt {
	d := b.Sub(a)
	if d.NormSq() == 0 {
		return nil
	}
	n := d.Perp()
	off := -n.Dot(a)

	ax, bx, cx := powerBasis(c.P0.X, c.Ctrl.X, c.P1.X)
	ay, by, cy := powerBasis(c.P0.Y, c.Ctrl.Y, c.P1.Y)

	qa := n.X*ax + n.Y*ay
	qb := n.X*bx + n.Y*by
	qc := n.X*cx + n.Y*cy + off

	box := geom.RectFromPoints(a, b).Pad(1e-9)
	var pts []geom.Pt
	var lastT float64 = -1
	for _, t := range quadraticRoots(qa, qb, qc) {
		if t < -1e-9 || t > 1+1e-9 {
			continue
		}
		t = math.Min(1, math.Max(0, t))
		p := c.eval(t)
		if !box.Contains(p) {
			continue
		}
		if lastT >= 0 && t-lastT < 1e-7 {
			continue
		}
		lastT = t
		pts = append(pts, p)
	}
	return pts
}

// powerBasis converts one coordinate of a quadratic Bézier into power
// basis: p(t) = a·t² + b·t + c.
func powerBasis(p0, p1, p2 float64) (a, b, c float64) {
	return p0 - 2*p1 + p2, 2 * (p1 - p0), p0
}

// quadraticRoots returns the real roots of a·t² + b·t + c, sorted
// ascending. Degenerate leading coefficients reduce the degree.
func quadraticRoots(a, b, c float64) []float64 {
	if a == 0 {
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	// Citardauq form avoids cancellation for small roots.
	var r1, r2 float64
	if b >= 0 {
		r1 = (-b - sq) / (2 * a)
	} else {
		r1 = (-b + sq) / (2 * a)
	}
	if r1 != 0 {
		r2 = c / (a * r1)
	} else {
		r2 = -b / a
	}
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return []float64{r1, r2}
}

// polyRoots returns the real roots of the polynomial with the given
// coefficients (lowest degree first), sorted ascending. Degrees up to two
// are solved in closed form; higher degrees use the eigenvalues of the
// companion matrix.
func polyRoots(coeffs []float64) []float64 {
	// Trim vanishing leading coefficients so near-degenerate quartics
	// (collinear control points) fall back to lower-degree solvers.
	n := len(coeffs)
	maxC := 0.0
	for _, c := range coeffs {
		if a := math.Abs(c); a > maxC {
			maxC = a
		}
	}
	if maxC == 0 {
		return nil
	}
	eps := maxC * 1e-12
	for n > 1 && math.Abs(coeffs[n-1]) < eps {
		n--
	}
	coeffs = coeffs[:n]

	switch n {
	case 0, 1:
		return nil
	case 2:
		return []float64{-coeffs[0] / coeffs[1]}
	case 3:
		return quadraticRoots(coeffs[2], coeffs[1], coeffs[0])
	}

	deg := n - 1
	lead := coeffs[deg]
	comp := mat.NewDense(deg, deg, nil)
	for i := 1; i < deg; i++ {
		comp.Set(i, i-1, 1)
	}
	for i := 0; i < deg; i++ {
		comp.Set(i, deg-1, -coeffs[i]/lead)
	}

	var eig mat.Eigen
	if !eig.Factorize(comp, mat.EigenNone) {
		return nil
	}
	var roots []float64
	for _, z := range eig.Values(nil) {
		if math.Abs(imag(z)) < 1e-8 {
			roots = append(roots, real(z))
		}
	}
	sortFloats(roots)
	return roots
}

func sortFloats(x []float64) {
	// Insertion sort: root counts are tiny (≤ 4).
	for i := 1; i < len(x); i++ {
		for j := i; j > 0 && x[j] < x[j-1]; j-- {
			x[j], x[j-1] = x[j-1], x[j]
		}
	}
}

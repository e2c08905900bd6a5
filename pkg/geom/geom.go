// Package geom provides the primitive 2D geometry used throughout Cartoflow:
// points, vectors, rectangles, and the small set of segment predicates the
// curve and overlap machinery is built on.
//
// All types are plain float64 value types. Nothing in this package carries
// identity or model state - node identity lives in [pkg/model], and curve
// semantics live in [pkg/flow].
package geom

import "math"

// Pt is a 2D point or vector. The same type serves both roles; method names
// follow vector conventions (Add, Sub, Scale) where the distinction matters.
type Pt struct {
	X, Y float64
}

// Add returns p + q.
func (p Pt) Add(q Pt) Pt { return Pt{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Pt) Sub(q Pt) Pt { return Pt{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by s.
func (p Pt) Scale(s float64) Pt { return Pt{p.X * s, p.Y * s} }

// Dot returns the dot product p · q.
func (p Pt) Dot(q Pt) float64 { return p.X*q.X + p.Y*q.Y }

// Cross returns the z-component of the cross product p × q.
// Positive when q lies counter-clockwise of p.
func (p Pt) Cross(q Pt) float64 { return p.X*q.Y - p.Y*q.X }

// Norm returns the Euclidean length of p treated as a vector.
func (p Pt) Norm() float64 { return math.Hypot(p.X, p.Y) }

// NormSq returns the squared length of p treated as a vector.
func (p Pt) NormSq() float64 { return p.X*p.X + p.Y*p.Y }

// Distance returns the Euclidean distance between p and q.
func (p Pt) Distance(q Pt) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// DistanceSq returns the squared distance between p and q.
func (p Pt) DistanceSq(q Pt) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// Normalize returns p scaled to unit length. The zero vector is returned
// unchanged so callers never receive NaN components.
func (p Pt) Normalize() Pt {
	n := p.Norm()
	if n == 0 {
		return p
	}
	return Pt{p.X / n, p.Y / n}
}

// Perp returns p rotated 90° counter-clockwise.
func (p Pt) Perp() Pt { return Pt{-p.Y, p.X} }

// Lerp returns the linear interpolation between p and q at parameter t.
// t is not clamped; values outside [0,1] extrapolate.
func (p Pt) Lerp(q Pt, t float64) Pt {
	return Pt{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Pt) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Rect is an axis-aligned rectangle. MinX <= MaxX and MinY <= MaxY hold for
// every Rect produced by this package; use Canon to repair one built by hand.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// RectFromPoints returns the smallest rectangle containing both points.
func RectFromPoints(a, b Pt) Rect {
	return Rect{
		MinX: math.Min(a.X, b.X),
		MinY: math.Min(a.Y, b.Y),
		MaxX: math.Max(a.X, b.X),
		MaxY: math.Max(a.Y, b.Y),
	}
}

// Canon returns the rectangle with min/max coordinates swapped into order.
func (r Rect) Canon() Rect {
	if r.MinX > r.MaxX {
		r.MinX, r.MaxX = r.MaxX, r.MinX
	}
	if r.MinY > r.MaxY {
		r.MinY, r.MaxY = r.MaxY, r.MinY
	}
	return r
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Contains reports whether the point lies inside or on the boundary.
func (r Rect) Contains(p Pt) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Intersects reports whether the two rectangles share any area or boundary.
func (r Rect) Intersects(o Rect) bool {
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX &&
		r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Include returns r grown to contain the point.
func (r Rect) Include(p Pt) Rect {
	return Rect{
		MinX: math.Min(r.MinX, p.X),
		MinY: math.Min(r.MinY, p.Y),
		MaxX: math.Max(r.MaxX, p.X),
		MaxY: math.Max(r.MaxY, p.Y),
	}
}

// Pad returns r expanded by d on all sides. Negative d shrinks the
// rectangle; the result is not re-canonicalized.
func (r Rect) Pad(d float64) Rect {
	return Rect{MinX: r.MinX - d, MinY: r.MinY - d, MaxX: r.MaxX + d, MaxY: r.MaxY + d}
}

// Clamp returns the point moved to the nearest location inside r.
func (r Rect) Clamp(p Pt) Pt {
	return Pt{
		X: math.Min(math.Max(p.X, r.MinX), r.MaxX),
		Y: math.Min(math.Max(p.Y, r.MinY), r.MaxY),
	}
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() Pt {
	return Pt{(r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2}
}

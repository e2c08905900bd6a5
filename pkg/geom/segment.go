package geom

import "math"

// SegmentsIntersect reports whether the closed segments a1-a2 and b1-b2
// intersect, and returns the intersection point when they do. Collinear
// overlapping segments report the first shared endpoint found; parallel
// disjoint segments report false.
func SegmentsIntersect(a1, a2, b1, b2 Pt) (Pt, bool) {
	d1 := a2.Sub(a1)
	d2 := b2.Sub(b1)
	denom := d1.Cross(d2)
	if denom == 0 {
		// Parallel. Accept shared endpoints on collinear segments so
		// triangle-edge tests don't miss touching geometry.
		if d1.Cross(b1.Sub(a1)) != 0 {
			return Pt{}, false
		}
		for _, p := range [...]Pt{b1, b2} {
			if onSegment(a1, a2, p) {
				return p, true
			}
		}
		for _, p := range [...]Pt{a1, a2} {
			if onSegment(b1, b2, p) {
				return p, true
			}
		}
		return Pt{}, false
	}
	t := b1.Sub(a1).Cross(d2) / denom
	u := b1.Sub(a1).Cross(d1) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Pt{}, false
	}
	return a1.Add(d1.Scale(t)), true
}

func onSegment(a, b, p Pt) bool {
	return p.X >= math.Min(a.X, b.X) && p.X <= math.Max(a.X, b.X) &&
		p.Y >= math.Min(a.Y, b.Y) && p.Y <= math.Max(a.Y, b.Y)
}

// DistancePointToSegment returns the shortest distance from p to the closed
// segment a-b. A degenerate segment (a == b) degrades to point distance.
func DistancePointToSegment(p, a, b Pt) float64 {
	d := b.Sub(a)
	lenSq := d.NormSq()
	if lenSq == 0 {
		return p.Distance(a)
	}
	t := p.Sub(a).Dot(d) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Distance(a.Add(d.Scale(t)))
}

// DistancePointToLine returns the perpendicular distance from p to the
// infinite line through a and b. A degenerate line degrades to point
// distance.
func DistancePointToLine(p, a, b Pt) float64 {
	d := b.Sub(a)
	n := d.Norm()
	if n == 0 {
		return p.Distance(a)
	}
	return math.Abs(d.Cross(p.Sub(a))) / n
}

// PointInTriangle reports whether p lies inside or on the triangle a,b,c.
// Works for both windings.
func PointInTriangle(p, a, b, c Pt) bool {
	d1 := sign(p, a, b)
	d2 := sign(p, b, c)
	d3 := sign(p, c, a)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func sign(p, a, b Pt) float64 {
	return (p.X-b.X)*(a.Y-b.Y) - (a.X-b.X)*(p.Y-b.Y)
}

// TrianglesOverlap reports whether two triangles share any area, including
// full containment of one triangle in the other.
func TrianglesOverlap(t1, t2 [3]Pt) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if _, ok := SegmentsIntersect(t1[i], t1[(i+1)%3], t2[j], t2[(j+1)%3]); ok {
				return true
			}
		}
	}
	if PointInTriangle(t1[0], t2[0], t2[1], t2[2]) {
		return true
	}
	return PointInTriangle(t2[0], t1[0], t1[1], t1[2])
}

// PointInPolygon reports whether p lies inside the polygon using the
// even-odd ray-casting rule. Points exactly on an edge may report either
// result; callers needing boundary guarantees should test edges explicitly.
func PointInPolygon(p Pt, poly []Pt) bool {
	inside := false
	n := len(poly)
	if n < 3 {
		return false
	}
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

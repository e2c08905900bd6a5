package flow

import (
	"github.com/cartoflow/cartoflow/pkg/geom"
)

// arcTableSamples is the parameter resolution of the arc-length lookup
// table. The table is linear-interpolated, so the spacing error of
// [QuadCurve.RegularIntervals] is bounded by the chord error at this
// resolution.
const arcTableSamples = 100

// endInsetFraction insets the first and last emitted sample from the curve
// ends so points never sit exactly on a node symbol.
const endInsetFraction = 0.05

// ArcLengthTable is a cumulative arc-length lookup table over a fixed
// parameter grid. Build one with [QuadCurve.ArcLengthTable] and reuse it
// for repeated arc-length queries on the same geometry.
type ArcLengthTable struct {
	cum []float64 // cum[i] is the polyline length from t=0 to t=i/n
}

// ArcLengthTable samples the curve at a fixed number of parameter steps
// and accumulates chord lengths.
func (c QuadCurve) ArcLengthTable() ArcLengthTable {
	cum := make([]float64, arcTableSamples+1)
	prev := c.eval(0)
	for i := 1; i <= arcTableSamples; i++ {
		p := c.eval(float64(i) / arcTableSamples)
		cum[i] = cum[i-1] + p.Distance(prev)
		prev = p
	}
	return ArcLengthTable{cum: cum}
}

// Length returns the total arc length of the sampled curve.
func (tb ArcLengthTable) Length() float64 { return tb.cum[len(tb.cum)-1] }

// TAtLength returns the curve parameter at the given arc length, linearly
// interpolated between table samples. Lengths outside [0, Length] clamp to
// the curve ends.
func (tb ArcLengthTable) TAtLength(s float64) float64 {
	n := len(tb.cum) - 1
	if s <= 0 {
		return 0
	}
	if s >= tb.cum[n] {
		return 1
	}
	// Binary search for the bracketing segment.
	lo, hi := 0, n
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if tb.cum[mid] <= s {
			lo = mid
		} else {
			hi = mid
		}
	}
	seg := tb.cum[hi] - tb.cum[lo]
	frac := 0.0
	if seg > 0 {
		frac = (s - tb.cum[lo]) / seg
	}
	return (float64(lo) + frac) / float64(n)
}

// ArcLength returns the curve's arc length from a freshly built table.
func (c QuadCurve) ArcLength() float64 { return c.ArcLengthTable().Length() }

// RegularIntervals returns points along the curve at approximately even
// arc-length spacing. The sample span is inset 5% from each end so the
// first and last points never coincide with the nodes. At least two points
// are always returned, whatever the target spacing.
func (c QuadCurve) RegularIntervals(targetSpacing float64) []geom.Pt {
	table := c.ArcLengthTable()
	total := table.Length()
	inset := total * endInsetFraction
	span := total - 2*inset

	count := 2
	if targetSpacing > 0 && span > targetSpacing {
		count = int(span/targetSpacing) + 1
	}
	if count < 2 {
		count = 2
	}

	pts := make([]geom.Pt, count)
	for i := 0; i < count; i++ {
		s := inset + span*float64(i)/float64(count-1)
		pts[i] = c.eval(table.TAtLength(s))
	}
	return pts
}

// Polyline returns the curve flattened into n+1 chord points at uniform
// parameter spacing. n below 1 is treated as 1.
func (c QuadCurve) Polyline(n int) []geom.Pt {
	if n < 1 {
		n = 1
	}
	pts := make([]geom.Pt, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = c.eval(float64(i) / float64(n))
	}
	return pts
}

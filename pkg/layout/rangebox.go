package layout

import (
	"github.com/cartoflow/cartoflow/pkg/flow"
	"github.com/cartoflow/cartoflow/pkg/geom"
)

// Rangebox is an oriented rectangle anchored on a flow's baseline that
// bounds legal control-point drift. The box spans the full baseline and
// extends a fraction of the baseline length to both sides; clamping a
// control point into it keeps curvature in a visually sensible range and
// stops runaway repulsion.
type Rangebox struct {
	origin geom.Pt // baseline start
	axis   geom.Pt // unit vector along the baseline
	length float64 // baseline length
	height float64 // half-height to each side
}

// RangeboxFor computes the range box of a flow with the given height
// fraction. A degenerate baseline yields a zero box that clamps
// everything onto the start point; construction upstream prevents that
// case for real flows.
func RangeboxFor(f *flow.Flow, heightFraction float64) Rangebox {
	start, end := f.Start(), f.End()
	d := end.Sub(start)
	length := d.Norm()
	box := Rangebox{origin: start, length: length}
	if length > 0 {
		box.axis = d.Scale(1 / length)
		box.height = length * heightFraction
	}
	return box
}

// Clamp returns p moved to the nearest point inside the box.
func (b Rangebox) Clamp(p geom.Pt) geom.Pt {
	rel := p.Sub(b.origin)
	u := rel.Dot(b.axis)
	v := rel.Dot(b.axis.Perp())
	if u < 0 {
		u = 0
	} else if u > b.length {
		u = b.length
	}
	if v < -b.height {
		v = -b.height
	} else if v > b.height {
		v = b.height
	}
	return b.origin.Add(b.axis.Scale(u)).Add(b.axis.Perp().Scale(v))
}

// Contains reports whether p lies inside or on the box.
func (b Rangebox) Contains(p geom.Pt) bool {
	rel := p.Sub(b.origin)
	u := rel.Dot(b.axis)
	v := rel.Dot(b.axis.Perp())
	return u >= 0 && u <= b.length && v >= -b.height && v <= b.height
}

// Corners returns the box corners in drawing order, for visualization.
func (b Rangebox) Corners() [4]geom.Pt {
	perp := b.axis.Perp().Scale(b.height)
	along := b.axis.Scale(b.length)
	return [4]geom.Pt{
		b.origin.Add(perp),
		b.origin.Add(along).Add(perp),
		b.origin.Add(along).Sub(perp),
		b.origin.Sub(perp),
	}
}

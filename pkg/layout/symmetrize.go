package layout

import "github.com/cartoflow/cartoflow/pkg/flow"

// SymmetrizeFlows makes every unlocked flow symmetric about the
// perpendicular bisector of its baseline by dropping the control point's
// longitudinal offset and keeping only its perpendicular distance. The
// iteration loop's anti-torsion force shrinks the offset but never fully
// removes it; this pass zeroes the residue so rendered arcs read as clean
// symmetric bows.
func (l *ForceLayouter) SymmetrizeFlows() {
	for _, f := range l.m.Flows() {
		if f.Locked {
			continue
		}
		l.symmetrize(f)
	}
}

func (l *ForceLayouter) symmetrize(f *flow.Flow) {
	start, end := f.Start(), f.End()
	d := end.Sub(start)
	length := d.Norm()
	if length == 0 {
		return
	}
	axis := d.Scale(1 / length)
	mid := start.Lerp(end, 0.5)
	rel := f.Ctrl().Sub(mid)
	perp := rel.Sub(axis.Scale(rel.Dot(axis)))
	f.SetCtrl(mid.Add(perp))
}

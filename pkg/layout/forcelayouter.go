// Package layout implements the iterative force-directed layout engine
// for flow maps. A [ForceLayouter] repeatedly nudges every unlocked
// flow's control point under node repulsion, a length-dependent spring
// toward the baseline, and an anti-torsion correction, clamped by the
// range box and the padded canvas; post-loop passes symmetrize curves and
// shorten flow ends to reduce overlaps.
//
// The engine is single-threaded and iteration-ordered: within one
// iteration all forces are computed from the same un-mutated snapshot and
// committed together, so results are bit-reproducible for a given input
// and iteration count. Progress reporting and cancellation go through the
// [Monitor] interface and take effect only between iterations.
package layout

import (
	"context"
	"math"

	"github.com/cartoflow/cartoflow/pkg/flow"
	"github.com/cartoflow/cartoflow/pkg/geom"
	"github.com/cartoflow/cartoflow/pkg/model"
)

// Phase identifies where in a layout run the engine currently is.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseIterating
	PhaseSymmetrizing
	PhaseShortening
	PhaseLockRestoring
	PhaseDone
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseIterating:
		return "iterating"
	case PhaseSymmetrizing:
		return "symmetrizing"
	case PhaseShortening:
		return "shortening"
	case PhaseLockRestoring:
		return "lock-restoring"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// ForceLayouter runs the relaxation over a model. Create one per run with
// [NewForceLayouter]; it holds no state worth reusing afterwards.
type ForceLayouter struct {
	m       *model.Model
	params  model.Params
	monitor Monitor
	phase   Phase
}

// NewForceLayouter creates an engine over the model, reading the
// parameters the model carries. A nil monitor defaults to [NopMonitor].
func NewForceLayouter(m *model.Model, monitor Monitor) *ForceLayouter {
	if monitor == nil {
		monitor = NopMonitor{}
	}
	return &ForceLayouter{m: m, params: m.Params(), monitor: monitor}
}

// Phase returns the engine's current phase.
func (l *ForceLayouter) Phase() Phase { return l.phase }

// Run executes a complete layout: the iteration loop, symmetrization, the
// overlap-reducing shortening pass, and lock restoration. Lock flags set
// by the user are snapshotted before the loop and restored afterwards, so
// a run never leaves its own lock mutations behind.
//
// Cancellation - via the context or the monitor - is honored only at
// iteration boundaries; the returned error is ctx.Err() in the context
// case and nil when the monitor canceled (the partial layout is valid).
func (l *ForceLayouter) Run(ctx context.Context) error {
	locks := l.m.Locks()
	defer func() {
		l.phase = PhaseLockRestoring
		// Lengths match by construction: the engine never adds or
		// removes flows.
		_ = l.m.ApplyLocks(locks)
		l.phase = PhaseDone
	}()

	n := l.params.Iterations
	canvas := l.m.PaddedCanvas()
	iterBeforeMoving := int(float64(n) * l.params.MoveFlowsFraction)

	l.phase = PhaseIterating
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.monitor.Canceled() {
			return nil
		}
		iterBeforeMoving = l.LayoutIteration(i, iterBeforeMoving, canvas)
		l.monitor.Progress((i + 1) * 100 / n)
	}

	l.phase = PhaseSymmetrizing
	l.SymmetrizeFlows()

	l.phase = PhaseShortening
	l.ShortenFlowsToReduceOverlaps()
	return nil
}

// LayoutIteration advances the simulation by one step. i counts from 0 to
// Iterations-1 and drives the cooling schedule. When i reaches
// iterBeforeMovingFlows the one-time move-flows-off-obstacles correction
// runs and the returned next threshold is -1 so it never runs again;
// otherwise the threshold is returned unchanged.
func (l *ForceLayouter) LayoutIteration(i, iterBeforeMovingFlows int, canvas geom.Rect) int {
	weight := l.coolingWeight(i)
	longest := l.m.LongestFlowLength()

	flows := l.m.Flows()
	// Compute against the un-mutated snapshot, then commit in a second
	// pass: iterations are transactional even though execution is
	// sequential.
	proposed := make([]geom.Pt, len(flows))
	moved := make([]bool, len(flows))
	for idx, f := range flows {
		if f.Locked {
			continue
		}
		force := l.flowForce(f, longest)
		p := f.Ctrl().Add(force.Scale(weight))
		if l.params.EnforceRangebox {
			p = RangeboxFor(f, l.params.RangeboxHeightFraction).Clamp(p)
		}
		if l.params.EnforceCanvas {
			p = canvas.Clamp(p)
		}
		proposed[idx] = p
		moved[idx] = true
	}
	for idx, f := range flows {
		if moved[idx] {
			f.SetCtrl(proposed[idx])
		}
	}

	if i == iterBeforeMovingFlows {
		l.MoveFlowsOffObstacles()
		return -1
	}
	return iterBeforeMovingFlows
}

// coolingWeight decays the force magnitude across iterations. The
// standard schedule is 1 - i/N; constant-cooling mode applies a fixed
// weight for debugging.
func (l *ForceLayouter) coolingWeight(i int) float64 {
	if l.params.ConstantCooling {
		return l.params.ConstantCoolingWeight
	}
	return 1 - float64(i)/float64(l.params.Iterations)
}

// flowForce computes the total force on a flow's control point: node
// repulsion, the baseline spring, and the anti-torsion correction, the
// latter two stiffened for peripheral flows.
func (l *ForceLayouter) flowForce(f *flow.Flow, longest float64) geom.Pt {
	ctrl := f.Ctrl()
	rep := l.repulsion(ctrl)

	stiffen := l.peripheralStiffness(f)
	spring := l.springForce(f, longest).Scale(stiffen)
	torsion := l.antiTorsion(f).Scale(stiffen)

	return rep.Add(spring).Add(torsion)
}

// repulsion accumulates the inverse-distance-weighted repulsion from
// every node toward the point: Σ(w·û)/Σw with w = d^-exponent. A node
// coincident with the point contributes nothing - the weight would be
// infinite and the direction undefined.
func (l *ForceLayouter) repulsion(p geom.Pt) geom.Pt {
	var sum geom.Pt
	var sumW float64
	l.m.Nodes(func(_ flow.NodeHandle, n model.Node) {
		d := n.Pt.Distance(p)
		if d == 0 {
			return
		}
		w := math.Pow(d, -l.params.IDWExponent)
		sum = sum.Add(p.Sub(n.Pt).Scale(w / d))
		sumW += w
	})
	if sumW == 0 {
		return geom.Pt{}
	}
	return sum.Scale(1 / sumW)
}

// springForce pulls the control point toward its projection on the
// baseline. Stiffness interpolates linearly between the short-flow and
// longest-flow spring constants by this flow's length relative to the
// longest in the model.
func (l *ForceLayouter) springForce(f *flow.Flow, longest float64) geom.Pt {
	start, end := f.Start(), f.End()
	d := end.Sub(start)
	length := d.Norm()
	if length == 0 || longest == 0 {
		return geom.Pt{}
	}
	ratio := length / longest
	k := l.params.MinFlowLengthSpringConstant +
		(l.params.MaxFlowLengthSpringConstant-l.params.MinFlowLengthSpringConstant)*ratio

	axis := d.Scale(1 / length)
	rel := f.Ctrl().Sub(start)
	proj := start.Add(axis.Scale(rel.Dot(axis)))
	return proj.Sub(f.Ctrl()).Scale(k)
}

// antiTorsion pulls the control point back toward the perpendicular
// through the baseline midpoint, removing the longitudinal drift that
// produces S-shaped, twisted curves.
func (l *ForceLayouter) antiTorsion(f *flow.Flow) geom.Pt {
	start, end := f.Start(), f.End()
	d := end.Sub(start)
	length := d.Norm()
	if length == 0 {
		return geom.Pt{}
	}
	axis := d.Scale(1 / length)
	mid := start.Lerp(end, 0.5)
	along := f.Ctrl().Sub(mid).Dot(axis)
	return axis.Scale(-along * l.params.AntiTorsionWeight)
}

// peripheralStiffness returns the force multiplier for spring and
// anti-torsion terms: flows far from the canvas center are stiffer, so
// the map's periphery stays visually calm.
func (l *ForceLayouter) peripheralStiffness(f *flow.Flow) float64 {
	factor := l.params.PeripheralStiffnessFactor
	if factor <= 0 {
		return 1
	}
	c := l.m.Canvas()
	halfDiag := math.Hypot(c.Width(), c.Height()) / 2
	if halfDiag == 0 {
		return 1
	}
	mid := f.Start().Lerp(f.End(), 0.5)
	peripherality := mid.Distance(c.Center()) / halfDiag
	if peripherality > 1 {
		peripherality = 1
	}
	return 1 + factor*peripherality
}

// MoveFlowsOffObstacles nudges each unlocked flow whose band crosses a
// node obstacle to the nearest control-point position that clears all
// obstacles, searching outward on concentric rings. Flows whose search
// exhausts the range box stay put - a visible overlap beats a wild
// detour. A flow's own end nodes are not obstacles for it.
func (l *ForceLayouter) MoveFlowsOffObstacles() {
	obstacles := nodeObstacles(l.m)
	scale := l.params.ReferenceMapScale
	minGap := l.params.MinObstacleGapPx / scale

	for _, f := range l.m.Flows() {
		if f.Locked {
			continue
		}
		halfStroke := l.m.StrokeWidthPx(f) / 2 / scale
		if !l.overlapsAnyObstacle(f, obstacles, halfStroke, minGap) {
			continue
		}

		box := RangeboxFor(f, l.params.RangeboxHeightFraction)
		orig := f.Ctrl()
		maxR := f.BaselineLength() * l.params.RangeboxHeightFraction
		step := math.Max(minGap, maxR/20)
		found := false
		for r := step; r <= maxR && !found; r += step {
			// 16 candidate angles per ring, deterministic order.
			for k := 0; k < 16 && !found; k++ {
				angle := 2 * math.Pi * float64(k) / 16
				cand := orig.Add(geom.Pt{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(r))
				if !box.Contains(cand) {
					continue
				}
				f.SetCtrl(cand)
				if !l.overlapsAnyObstacle(f, obstacles, halfStroke, minGap) {
					found = true
				}
			}
		}
		if !found {
			f.SetCtrl(orig)
		}
	}
}

func (l *ForceLayouter) overlapsAnyObstacle(f *flow.Flow, obstacles []Obstacle, halfStroke, minGap float64) bool {
	for _, ob := range obstacles {
		if ob.Node != flow.NoNode && (ob.Node == f.StartNode() || ob.Node == f.EndNode()) {
			continue
		}
		if flowIntersectsObstacle(f, ob, halfStroke, minGap) {
			return true
		}
	}
	return false
}

package flow

import (
	"math"

	"github.com/cartoflow/cartoflow/pkg/geom"
)

// NodeHandle identifies a node in the owning model's node arena. Two flows
// share a node exactly when they store equal handles; coordinate equality
// is irrelevant. Handles are small non-negative integers assigned by the
// model.
type NodeHandle int

// NoNode marks an unassigned node handle, e.g. the midpoint of a freshly
// split flow before the model registers it.
const NoNode NodeHandle = -1

// Kind distinguishes a single flow from a composite flow pair.
type Kind int

const (
	// KindSingle is an ordinary one-directional flow.
	KindSingle Kind = iota
	// KindPair is two opposite-direction flows sharing endpoints and a
	// control point, rendered as two parallel offset curves.
	KindPair
)

// ClipArea is a polygon subtracted from a flow's visible extent near a
// node, together with its serialized text form for round-tripping.
type ClipArea struct {
	Polygon []geom.Pt
	Text    string
}

// IsZero reports whether no clip area is set.
func (a ClipArea) IsZero() bool { return len(a.Polygon) == 0 }

// Flow is a curved directed edge between two shared nodes. The geometry is
// a quadratic Bézier whose interior control point the layout engine moves;
// everything else (endpoints, value, locks, clip geometry) belongs to the
// user or the importer.
//
// Derived geometry (bounding box, flattened polyline) is cached under a
// generation counter: every coordinate mutation bumps the generation, and
// accessors recompute when their cached generation is stale. There is no
// implicit lazy invalidation - mutation points are explicit.
//
// Flow is not safe for concurrent mutation; the model applies a
// single-writer discipline for the duration of a layout run.
type Flow struct {
	id        uint64
	kind      Kind
	startNode NodeHandle
	endNode   NodeHandle

	start, end, ctrl geom.Pt

	// Value is the flow magnitude. For a pair this is the first direction;
	// the pair's total is Value + Value2.
	Value float64
	// Value2 is the reverse-direction magnitude of a pair. Zero for
	// single flows.
	Value2 float64

	Selected bool
	Locked   bool

	startClip ClipArea
	endClip   ClipArea

	startShortening, endShortening float64
	// Second shortening pair, used by the reverse direction of a pair.
	startShortening2, endShortening2 float64

	gen   uint64
	cache flowCache
}

type flowCache struct {
	boxGen  uint64
	box     geom.Rect
	hasBox  bool
	polyGen uint64
	polyN   int
	poly    []geom.Pt
}

// New creates a single flow. The control point starts on the baseline
// midpoint. Returns ErrDegenerateFlow when start and end coincide, by
// handle or by coordinates, and ErrNonFiniteValue for a NaN or infinite
// value.
func New(id uint64, startNode, endNode NodeHandle, start, end geom.Pt, value float64) (*Flow, error) {
	if startNode != NoNode && startNode == endNode {
		return nil, ErrDegenerateFlow
	}
	if start == end {
		return nil, ErrDegenerateFlow
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, ErrNonFiniteValue
	}
	return &Flow{
		id:        id,
		startNode: startNode,
		endNode:   endNode,
		start:     start,
		end:       end,
		ctrl:      start.Lerp(end, 0.5),
		Value:     value,
	}, nil
}

// NewPair creates a flow pair carrying one magnitude per direction. The
// same construction rules as [New] apply; value2 must be finite as well.
func NewPair(id uint64, startNode, endNode NodeHandle, start, end geom.Pt, value, value2 float64) (*Flow, error) {
	f, err := New(id, startNode, endNode, start, end, value)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(value2) || math.IsInf(value2, 0) {
		return nil, ErrNonFiniteValue
	}
	f.kind = KindPair
	f.Value2 = value2
	return f, nil
}

// ID returns the flow's identifier. IDs are unique within one model, not
// globally; the model's allocator assigns them.
func (f *Flow) ID() uint64 { return f.id }

// Kind returns whether this is a single flow or a pair.
func (f *Flow) Kind() Kind { return f.kind }

// IsPair reports whether the flow is a composite pair.
func (f *Flow) IsPair() bool { return f.kind == KindPair }

// StartNode returns the handle of the start node.
func (f *Flow) StartNode() NodeHandle { return f.startNode }

// EndNode returns the handle of the end node.
func (f *Flow) EndNode() NodeHandle { return f.endNode }

// Start returns the start coordinates.
func (f *Flow) Start() geom.Pt { return f.start }

// End returns the end coordinates.
func (f *Flow) End() geom.Pt { return f.end }

// Ctrl returns the interior control point.
func (f *Flow) Ctrl() geom.Pt { return f.ctrl }

// SetCtrl moves the control point and invalidates derived geometry.
func (f *Flow) SetCtrl(p geom.Pt) {
	if p == f.ctrl {
		return
	}
	f.ctrl = p
	f.gen++
}

// MoveEndpoints updates both endpoint coordinates, typically after a node
// in the arena moved. Returns ErrDegenerateFlow when the new endpoints
// coincide; the flow is left unchanged in that case.
func (f *Flow) MoveEndpoints(start, end geom.Pt) error {
	if start == end {
		return ErrDegenerateFlow
	}
	if start == f.start && end == f.end {
		return nil
	}
	f.start, f.end = start, end
	f.clampShortenings()
	f.gen++
	return nil
}

// Generation returns the mutation counter. Consumers holding derived
// geometry across mutations compare generations instead of trusting
// caches.
func (f *Flow) Generation() uint64 { return f.gen }

// Curve materializes the flow's quadratic curve value.
func (f *Flow) Curve() QuadCurve {
	return QuadCurve{P0: f.start, Ctrl: f.ctrl, P1: f.end}
}

// BaselineLength returns the straight-line distance between the endpoints.
func (f *Flow) BaselineLength() float64 { return f.start.Distance(f.end) }

// TotalValue returns the magnitude used for stroke widths: the value for a
// single flow, the sum of both directions for a pair.
func (f *Flow) TotalValue() float64 {
	if f.kind == KindPair {
		return f.Value + f.Value2
	}
	return f.Value
}

// Shortenings returns the start and end trimming distances.
func (f *Flow) Shortenings() (start, end float64) {
	return f.startShortening, f.endShortening
}

// SetShortenings sets the end-of-flow trimming distances. Negative inputs
// clamp to zero and either shortening is capped at the baseline length.
func (f *Flow) SetShortenings(start, end float64) {
	f.startShortening = math.Max(0, start)
	f.endShortening = math.Max(0, end)
	f.clampShortenings()
	f.gen++
}

// ResetShortenings clears both trimming distances.
func (f *Flow) ResetShortenings() { f.SetShortenings(0, 0) }

func (f *Flow) clampShortenings() {
	max := f.BaselineLength()
	if f.startShortening > max {
		f.startShortening = max
	}
	if f.endShortening > max {
		f.endShortening = max
	}
	if f.startShortening2 > max {
		f.startShortening2 = max
	}
	if f.endShortening2 > max {
		f.endShortening2 = max
	}
}

// SetStartClipArea attaches clip geometry to the start of the flow.
func (f *Flow) SetStartClipArea(a ClipArea) {
	f.startClip = a
	f.gen++
}

// SetEndClipArea attaches clip geometry to the end of the flow.
func (f *Flow) SetEndClipArea(a ClipArea) {
	f.endClip = a
	f.gen++
}

// StartClipArea returns the clip geometry at the start, if any.
func (f *Flow) StartClipArea() ClipArea { return f.startClip }

// EndClipArea returns the clip geometry at the end, if any.
func (f *Flow) EndClipArea() ClipArea { return f.endClip }

// BoundingBox returns the tight bounding box of the flow's curve, cached
// per generation.
func (f *Flow) BoundingBox() geom.Rect {
	if f.cache.hasBox && f.cache.boxGen == f.gen {
		return f.cache.box
	}
	f.cache.box = f.Curve().BoundingBox()
	f.cache.boxGen = f.gen
	f.cache.hasBox = true
	return f.cache.box
}

// CachedPolyline returns the curve flattened into n segments, cached per
// generation and segment count.
func (f *Flow) CachedPolyline(n int) []geom.Pt {
	if n < 1 {
		n = 1
	}
	if f.cache.poly != nil && f.cache.polyGen == f.gen && f.cache.polyN == n {
		return f.cache.poly
	}
	f.cache.poly = f.Curve().Polyline(n)
	f.cache.polyGen = f.gen
	f.cache.polyN = n
	return f.cache.poly
}

// Split subdivides the flow at t into two flows meeting at the curve
// point. The midpoint carries NoNode until the model registers it, and
// the second half carries id 0 until the model's allocator assigns a
// real one; ids are unique within a model only after that. For t <= 0
// or t >= 1 both results are the receiver itself (no-op split).
// Returns ErrUnsupportedForPair for pairs: splitting a composite is
// undefined.
func (f *Flow) Split(t float64) (*Flow, *Flow, error) {
	if f.kind == KindPair {
		return nil, nil, ErrUnsupportedForPair
	}
	if t <= 0 || t >= 1 {
		return f, f, nil
	}
	c1, c2 := f.Curve().Split(t)
	a, err := New(f.id, f.startNode, NoNode, c1.P0, c1.P1, f.Value)
	if err != nil {
		return nil, nil, err
	}
	b, err := New(0, NoNode, f.endNode, c2.P0, c2.P1, f.Value)
	if err != nil {
		return nil, nil, err
	}
	a.SetCtrl(c1.Ctrl)
	b.SetCtrl(c2.Ctrl)
	a.Selected, b.Selected = f.Selected, f.Selected
	a.Locked, b.Locked = f.Locked, f.Locked
	a.startClip = f.startClip
	b.endClip = f.endClip
	return a, b, nil
}

// HitTest reports whether p lies within tolerance of the flow's curve.
// Per-point hit testing is undefined for a pair, whose visible geometry is
// two offset bands; ErrUnsupportedForPair is returned in that case.
func (f *Flow) HitTest(p geom.Pt, tolerance float64) (bool, error) {
	if f.kind == KindPair {
		return false, ErrUnsupportedForPair
	}
	if !f.BoundingBox().Pad(tolerance).Contains(p) {
		return false, nil
	}
	return f.Curve().DistanceSqTo(p, 1e-7) <= tolerance*tolerance, nil
}

// PairCurves returns the two parallel offset curves a pair renders as,
// separated by gap. This is the one operation defined only for pairs;
// single flows are rejected with ErrUnsupportedForPair.
func (f *Flow) PairCurves(gap float64, quality OffsetQuality) (QuadCurve, QuadCurve, error) {
	if f.kind != KindPair {
		return QuadCurve{}, QuadCurve{}, ErrUnsupportedForPair
	}
	c := f.Curve()
	half := gap / 2
	return c.Offset(half, quality), c.Offset(-half, quality), nil
}

// Package model owns the authoritative flow-map data: the node arena, the
// flow collection, the canvas extent, and the layout parameters. The layout
// engine reads through the query methods here and mutates only control
// points and lock flags; everything else belongs to importers and editors.
//
// Node identity is handle-based: the model stores nodes in an arena and
// flows reference them by [flow.NodeHandle]. Two flows share a node exactly
// when their handles are equal, which is how the node graph is represented
// without an explicit adjacency structure.
//
// The model is not safe for concurrent mutation. A layout run requires the
// single-writer discipline described in the layout package.
package model

import (
	"errors"
	"math"

	"github.com/cartoflow/cartoflow/pkg/flow"
	"github.com/cartoflow/cartoflow/pkg/geom"
)

var (
	// ErrUnknownNode is returned when a node handle does not refer to a
	// node in this model's arena.
	ErrUnknownNode = errors.New("unknown node handle")

	// ErrUnknownFlow is returned when a flow ID is not present in the
	// model.
	ErrUnknownFlow = errors.New("unknown flow")

	// ErrLockCountMismatch is returned by [Model.ApplyLocks] when the
	// snapshot length does not match the current flow count.
	ErrLockCountMismatch = errors.New("lock snapshot length does not match flow count")
)

// Node is one shared endpoint in the arena: a coordinate with a magnitude
// and a selection flag.
type Node struct {
	Pt       geom.Pt
	Value    float64
	Selected bool
}

// Model is the external data owner the layout engine collaborates with.
// The zero value is not usable; create one with [New].
type Model struct {
	params Params

	nodes []Node
	flows []*flow.Flow

	nextID uint64

	canvas    geom.Rect
	hasCanvas bool
}

// New creates an empty model with the given layout parameters.
// Zero-valued parameters are replaced by [DefaultParams].
func New(params Params) *Model {
	if params == (Params{}) {
		params = DefaultParams()
	}
	return &Model{params: params, nextID: 1}
}

// Params returns the model's layout parameters.
func (m *Model) Params() Params { return m.params }

// SetParams replaces the layout parameters.
func (m *Model) SetParams(p Params) { m.params = p }

// AddNode appends a node to the arena and returns its handle. Handles are
// dense indices; they remain valid for the life of the model (nodes are
// never removed, only orphaned when their flows go).
func (m *Model) AddNode(n Node) flow.NodeHandle {
	m.nodes = append(m.nodes, n)
	return flow.NodeHandle(len(m.nodes) - 1)
}

// NodeAt returns the handle of the node at exactly the given coordinates,
// for importers that merge endpoints by location.
func (m *Model) NodeAt(p geom.Pt) (flow.NodeHandle, bool) {
	for i := range m.nodes {
		if m.nodes[i].Pt == p {
			return flow.NodeHandle(i), true
		}
	}
	return flow.NoNode, false
}

// Node returns the node for a handle.
func (m *Model) Node(h flow.NodeHandle) (Node, error) {
	if h < 0 || int(h) >= len(m.nodes) {
		return Node{}, ErrUnknownNode
	}
	return m.nodes[h], nil
}

// NodeCount returns the number of nodes in the arena, including orphans.
func (m *Model) NodeCount() int { return len(m.nodes) }

// Nodes calls fn for every node in handle order.
func (m *Model) Nodes(fn func(h flow.NodeHandle, n Node)) {
	for i := range m.nodes {
		fn(flow.NodeHandle(i), m.nodes[i])
	}
}

// MoveNode relocates a node and updates the endpoint coordinates of every
// flow referencing it. Returns ErrUnknownNode for a bad handle and
// [flow.ErrDegenerateFlow] when the move would collapse a flow's baseline;
// in the latter case the model is left unchanged.
func (m *Model) MoveNode(h flow.NodeHandle, p geom.Pt) error {
	if h < 0 || int(h) >= len(m.nodes) {
		return ErrUnknownNode
	}
	// Verify first so a failure cannot leave flows half-updated.
	for _, f := range m.flows {
		start, end := f.Start(), f.End()
		if f.StartNode() == h {
			start = p
		}
		if f.EndNode() == h {
			end = p
		}
		if start == end {
			return flow.ErrDegenerateFlow
		}
	}
	m.nodes[h].Pt = p
	for _, f := range m.flows {
		start, end := f.Start(), f.End()
		if f.StartNode() == h {
			start = p
		}
		if f.EndNode() == h {
			end = p
		}
		if err := f.MoveEndpoints(start, end); err != nil {
			return err
		}
	}
	return nil
}

// SetNodeValue updates a node's magnitude.
func (m *Model) SetNodeValue(h flow.NodeHandle, v float64) error {
	if h < 0 || int(h) >= len(m.nodes) {
		return ErrUnknownNode
	}
	m.nodes[h].Value = v
	return nil
}

// AddFlow creates a single flow between two arena nodes and appends it to
// the collection. The flow ID comes from the model's allocator so
// assignment is reproducible.
func (m *Model) AddFlow(start, end flow.NodeHandle, value float64) (*flow.Flow, error) {
	sp, err := m.Node(start)
	if err != nil {
		return nil, err
	}
	ep, err := m.Node(end)
	if err != nil {
		return nil, err
	}
	f, err := flow.New(m.allocID(), start, end, sp.Pt, ep.Pt, value)
	if err != nil {
		return nil, err
	}
	m.flows = append(m.flows, f)
	return f, nil
}

// AddFlowPair creates a composite two-direction flow between two arena
// nodes.
func (m *Model) AddFlowPair(start, end flow.NodeHandle, value, value2 float64) (*flow.Flow, error) {
	sp, err := m.Node(start)
	if err != nil {
		return nil, err
	}
	ep, err := m.Node(end)
	if err != nil {
		return nil, err
	}
	f, err := flow.NewPair(m.allocID(), start, end, sp.Pt, ep.Pt, value, value2)
	if err != nil {
		return nil, err
	}
	m.flows = append(m.flows, f)
	return f, nil
}

func (m *Model) allocID() uint64 {
	id := m.nextID
	m.nextID++
	return id
}

// RemoveFlow deletes the flow with the given ID. Nodes are left in the
// arena even when orphaned.
func (m *Model) RemoveFlow(id uint64) error {
	for i, f := range m.flows {
		if f.ID() == id {
			m.flows = append(m.flows[:i], m.flows[i+1:]...)
			return nil
		}
	}
	return ErrUnknownFlow
}

// SplitFlow subdivides a single flow at parameter t, registering the
// midpoint as a new node and replacing the flow by its two halves in
// place. The midpoint node inherits zero value. For t outside (0,1) the
// model is unchanged and the original flow is returned twice.
func (m *Model) SplitFlow(f *flow.Flow, t float64) (*flow.Flow, *flow.Flow, error) {
	a, b, err := f.Split(t)
	if err != nil {
		return nil, nil, err
	}
	if a == f {
		return f, f, nil
	}
	idx := -1
	for i, g := range m.flows {
		if g == f {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, ErrUnknownFlow
	}
	mid := m.AddNode(Node{Pt: a.End()})
	a2, err := flow.New(m.allocID(), f.StartNode(), mid, a.Start(), a.End(), f.Value)
	if err != nil {
		return nil, nil, err
	}
	b2, err := flow.New(m.allocID(), mid, f.EndNode(), b.Start(), b.End(), f.Value)
	if err != nil {
		return nil, nil, err
	}
	a2.SetCtrl(a.Ctrl())
	b2.SetCtrl(b.Ctrl())
	a2.Locked, b2.Locked = f.Locked, f.Locked
	m.flows = append(m.flows[:idx], append([]*flow.Flow{a2, b2}, m.flows[idx+1:]...)...)
	return a2, b2, nil
}

// Flows returns the flow collection in insertion order. The slice is the
// model's own; callers must not reorder it.
func (m *Model) Flows() []*flow.Flow { return m.flows }

// FlowCount returns the number of flows.
func (m *Model) FlowCount() int { return len(m.flows) }

// FlowByID returns the flow with the given ID.
func (m *Model) FlowByID(id uint64) (*flow.Flow, error) {
	for _, f := range m.flows {
		if f.ID() == id {
			return f, nil
		}
	}
	return nil, ErrUnknownFlow
}

// Locks returns a snapshot of every flow's lock flag, in flow order.
func (m *Model) Locks() []bool {
	locks := make([]bool, len(m.flows))
	for i, f := range m.flows {
		locks[i] = f.Locked
	}
	return locks
}

// ApplyLocks restores a lock snapshot taken with [Model.Locks]. The
// snapshot must match the current flow count.
func (m *Model) ApplyLocks(locks []bool) error {
	if len(locks) != len(m.flows) {
		return ErrLockCountMismatch
	}
	for i, f := range m.flows {
		f.Locked = locks[i]
	}
	return nil
}

// LongestFlowLength returns the longest baseline among all flows, or zero
// for an empty model.
func (m *Model) LongestFlowLength() float64 {
	longest := 0.0
	for _, f := range m.flows {
		if l := f.BaselineLength(); l > longest {
			longest = l
		}
	}
	return longest
}

// MaxFlowValue returns the largest total flow value, or zero for an empty
// model.
func (m *Model) MaxFlowValue() float64 {
	max := 0.0
	for _, f := range m.flows {
		if v := f.TotalValue(); v > max {
			max = v
		}
	}
	return max
}

// MaxNodeValue returns the largest node magnitude, or zero.
func (m *Model) MaxNodeValue() float64 {
	max := 0.0
	for i := range m.nodes {
		if m.nodes[i].Value > max {
			max = m.nodes[i].Value
		}
	}
	return max
}

// StrokeWidthPx returns the stroke width in pixels for a flow: linear in
// the flow's total value relative to the model's largest, capped below by
// a hairline.
func (m *Model) StrokeWidthPx(f *flow.Flow) float64 {
	max := m.MaxFlowValue()
	if max <= 0 {
		return m.params.MinStrokeWidthPx
	}
	w := m.params.MaxStrokeWidthPx * f.TotalValue() / max
	return math.Max(w, m.params.MinStrokeWidthPx)
}

// NodeRadiusPx returns the drawn radius of a node symbol in pixels,
// area-proportional to the node's value relative to the model's largest.
func (m *Model) NodeRadiusPx(h flow.NodeHandle) float64 {
	n, err := m.Node(h)
	if err != nil {
		return 0
	}
	max := m.MaxNodeValue()
	if max <= 0 || n.Value <= 0 {
		return m.params.MinNodeRadiusPx
	}
	r := m.params.MaxNodeRadiusPx * math.Sqrt(n.Value/max)
	return math.Max(r, m.params.MinNodeRadiusPx)
}

// FlowBoundingBox returns the union of all flow bounding boxes, or a zero
// rect for an empty model.
func (m *Model) FlowBoundingBox() geom.Rect {
	if len(m.flows) == 0 {
		return geom.Rect{}
	}
	box := m.flows[0].BoundingBox()
	for _, f := range m.flows[1:] {
		box = box.Union(f.BoundingBox())
	}
	return box
}

// SetCanvas fixes the canvas rectangle. Without one, [Model.Canvas]
// derives it from the flow geometry.
func (m *Model) SetCanvas(r geom.Rect) {
	m.canvas = r.Canon()
	m.hasCanvas = true
}

// HasCanvas reports whether an explicit canvas was set.
func (m *Model) HasCanvas() bool { return m.hasCanvas }

// Canvas returns the canvas rectangle: the explicit one if set, otherwise
// the flow bounding box.
func (m *Model) Canvas() geom.Rect {
	if m.hasCanvas {
		return m.canvas
	}
	return m.FlowBoundingBox()
}

// PaddedCanvas returns the canvas grown by the padding fraction of its
// shorter side. Control points are clamped into this region during layout,
// so the padding is the headroom curvature gets beyond the map extent.
func (m *Model) PaddedCanvas() geom.Rect {
	c := m.Canvas()
	pad := math.Min(c.Width(), c.Height()) * m.params.CanvasPaddingFraction
	return c.Pad(pad)
}

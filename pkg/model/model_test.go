package model

import (
	"errors"
	"testing"

	"github.com/cartoflow/cartoflow/pkg/flow"
	"github.com/cartoflow/cartoflow/pkg/geom"
)

// buildTriangle, used across tests: three nodes, two flows sharing node a.
func buildTriangle(t *testing.T) (*Model, flow.NodeHandle, flow.NodeHandle, flow.NodeHandle) {
	t.Helper()
	m := New(DefaultParams())
	a := m.AddNode(Node{Pt: geom.Pt{X: 0, Y: 0}, Value: 1})
	b := m.AddNode(Node{Pt: geom.Pt{X: 10, Y: 0}, Value: 2})
	c := m.AddNode(Node{Pt: geom.Pt{X: 5, Y: 8}, Value: 1})
	if _, err := m.AddFlow(a, b, 5); err != nil {
		t.Fatalf("AddFlow: %v", err)
	}
	if _, err := m.AddFlow(a, c, 3); err != nil {
		t.Fatalf("AddFlow: %v", err)
	}
	return m, a, b, c
}

func TestAddFlowAllocatesSequentialIDs(t *testing.T) {
	m, _, _, _ := buildTriangle(t)
	flows := m.Flows()
	if len(flows) != 2 {
		t.Fatalf("FlowCount = %d, want 2", len(flows))
	}
	if flows[0].ID() == flows[1].ID() {
		t.Error("duplicate flow IDs from model allocator")
	}
	if flows[1].ID() != flows[0].ID()+1 {
		t.Errorf("ids %d, %d not sequential", flows[0].ID(), flows[1].ID())
	}
}

func TestAddFlowUnknownNode(t *testing.T) {
	m := New(DefaultParams())
	a := m.AddNode(Node{Pt: geom.Pt{X: 0, Y: 0}})
	if _, err := m.AddFlow(a, 99, 1); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("AddFlow error = %v, want ErrUnknownNode", err)
	}
}

func TestSharedNodeByHandle(t *testing.T) {
	m, a, _, _ := buildTriangle(t)
	flows := m.Flows()
	if flows[0].StartNode() != flows[1].StartNode() {
		t.Error("flows starting at the same node carry different handles")
	}
	if flows[0].StartNode() != a {
		t.Errorf("start handle = %v, want %v", flows[0].StartNode(), a)
	}
}

func TestMoveNodeUpdatesFlows(t *testing.T) {
	m, a, _, _ := buildTriangle(t)
	if err := m.MoveNode(a, geom.Pt{X: -5, Y: -5}); err != nil {
		t.Fatalf("MoveNode: %v", err)
	}
	for _, f := range m.Flows() {
		if f.StartNode() == a && f.Start() != (geom.Pt{X: -5, Y: -5}) {
			t.Errorf("flow %d start = %v, want {-5 -5}", f.ID(), f.Start())
		}
	}
}

func TestMoveNodeRejectsCollapse(t *testing.T) {
	m, a, b, _ := buildTriangle(t)
	nb, _ := m.Node(b)
	if err := m.MoveNode(a, nb.Pt); !errors.Is(err, flow.ErrDegenerateFlow) {
		t.Fatalf("MoveNode error = %v, want ErrDegenerateFlow", err)
	}
	// Model must be unchanged after the rejected move.
	na, _ := m.Node(a)
	if na.Pt != (geom.Pt{X: 0, Y: 0}) {
		t.Errorf("node moved despite rejection: %v", na.Pt)
	}
	if m.Flows()[0].Start() != (geom.Pt{X: 0, Y: 0}) {
		t.Error("flow endpoint mutated despite rejection")
	}
}

func TestLocksSnapshotRestore(t *testing.T) {
	m, _, _, _ := buildTriangle(t)
	m.Flows()[0].Locked = true

	snap := m.Locks()
	m.Flows()[0].Locked = false
	m.Flows()[1].Locked = true

	if err := m.ApplyLocks(snap); err != nil {
		t.Fatalf("ApplyLocks: %v", err)
	}
	if !m.Flows()[0].Locked || m.Flows()[1].Locked {
		t.Error("lock snapshot not restored")
	}

	if err := m.ApplyLocks([]bool{true}); !errors.Is(err, ErrLockCountMismatch) {
		t.Errorf("ApplyLocks error = %v, want ErrLockCountMismatch", err)
	}
}

func TestSplitFlowRegistersMidNode(t *testing.T) {
	m, _, _, _ := buildTriangle(t)
	f := m.Flows()[0]
	before := m.NodeCount()

	a, b, err := m.SplitFlow(f, 0.5)
	if err != nil {
		t.Fatalf("SplitFlow: %v", err)
	}
	if m.NodeCount() != before+1 {
		t.Errorf("NodeCount = %d, want %d", m.NodeCount(), before+1)
	}
	if a.EndNode() != b.StartNode() {
		t.Error("split halves do not share the midpoint node")
	}
	if a.EndNode() == flow.NoNode {
		t.Error("midpoint node not registered")
	}
	if m.FlowCount() != 3 {
		t.Errorf("FlowCount = %d, want 3 after split", m.FlowCount())
	}
	// The original flow must be gone.
	if _, err := m.FlowByID(f.ID()); !errors.Is(err, ErrUnknownFlow) {
		t.Error("original flow still present after split")
	}
}

func TestSplitFlowNoOp(t *testing.T) {
	m, _, _, _ := buildTriangle(t)
	f := m.Flows()[0]
	a, b, err := m.SplitFlow(f, 0)
	if err != nil || a != f || b != f {
		t.Errorf("SplitFlow(0) = %v, %v, %v, want original twice", a, b, err)
	}
	if m.FlowCount() != 2 {
		t.Errorf("FlowCount changed on no-op split")
	}
}

func TestLongestFlowLength(t *testing.T) {
	m, _, _, _ := buildTriangle(t)
	if got := m.LongestFlowLength(); got != 10 {
		t.Errorf("LongestFlowLength = %v, want 10", got)
	}
	if got := New(DefaultParams()).LongestFlowLength(); got != 0 {
		t.Errorf("empty model LongestFlowLength = %v, want 0", got)
	}
}

func TestStrokeWidthScaling(t *testing.T) {
	m, _, _, _ := buildTriangle(t)
	flows := m.Flows()
	wBig := m.StrokeWidthPx(flows[0])   // value 5, the maximum
	wSmall := m.StrokeWidthPx(flows[1]) // value 3
	if wBig != m.Params().MaxStrokeWidthPx {
		t.Errorf("max-value stroke = %v, want %v", wBig, m.Params().MaxStrokeWidthPx)
	}
	if wSmall >= wBig {
		t.Errorf("smaller flow stroke %v >= larger %v", wSmall, wBig)
	}
}

func TestNodeRadiusScaling(t *testing.T) {
	m, a, b, _ := buildTriangle(t)
	rA := m.NodeRadiusPx(a) // value 1
	rB := m.NodeRadiusPx(b) // value 2, the maximum
	if rB != m.Params().MaxNodeRadiusPx {
		t.Errorf("max-value radius = %v, want %v", rB, m.Params().MaxNodeRadiusPx)
	}
	if rA >= rB {
		t.Errorf("radius ordering wrong: %v >= %v", rA, rB)
	}
}

func TestCanvas(t *testing.T) {
	m, _, _, _ := buildTriangle(t)

	// Derived canvas covers the flow geometry.
	c := m.Canvas()
	if !c.Contains(geom.Pt{X: 5, Y: 0}) {
		t.Errorf("derived canvas %v does not cover flows", c)
	}

	m.SetCanvas(geom.Rect{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100})
	if got := m.Canvas(); got.MinX != -100 {
		t.Errorf("explicit canvas not used: %v", got)
	}

	padded := m.PaddedCanvas()
	if padded.MinX >= m.Canvas().MinX {
		t.Error("padded canvas should extend beyond the canvas")
	}
}

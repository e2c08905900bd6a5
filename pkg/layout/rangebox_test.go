package layout

import (
	"math"
	"testing"

	"github.com/cartoflow/cartoflow/pkg/geom"
)

func TestRangeboxClamp(t *testing.T) {
	_, f := twoNodeModel(t)
	box := RangeboxFor(f, 0.3) // baseline 10, half-height 3

	cases := []struct {
		name string
		in   geom.Pt
		want geom.Pt
	}{
		{"inside", geom.Pt{X: 5, Y: 2}, geom.Pt{X: 5, Y: 2}},
		{"above", geom.Pt{X: 5, Y: 7}, geom.Pt{X: 5, Y: 3}},
		{"below", geom.Pt{X: 5, Y: -9}, geom.Pt{X: 5, Y: -3}},
		{"before start", geom.Pt{X: -4, Y: 1}, geom.Pt{X: 0, Y: 1}},
		{"past end", geom.Pt{X: 14, Y: -1}, geom.Pt{X: 10, Y: -1}},
		{"corner", geom.Pt{X: 20, Y: 20}, geom.Pt{X: 10, Y: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := box.Clamp(tc.in)
			if math.Abs(got.X-tc.want.X) > 1e-12 || math.Abs(got.Y-tc.want.Y) > 1e-12 {
				t.Errorf("Clamp(%v) = %v, want %v", tc.in, got, tc.want)
			}
			if !box.Contains(got) {
				t.Errorf("Clamp(%v) = %v is outside the box", tc.in, got)
			}
		})
	}
}

func TestRangeboxFollowsBaselineOrientation(t *testing.T) {
	m, f := twoNodeModel(t)
	// Rotate the baseline to 45 degrees.
	if err := m.MoveNode(f.EndNode(), geom.Pt{X: 10, Y: 10}); err != nil {
		t.Fatalf("MoveNode: %v", err)
	}
	box := RangeboxFor(f, 0.3)

	if !box.Contains(geom.Pt{X: 5, Y: 5}) {
		t.Error("baseline midpoint should be inside the box")
	}
	// A point straight above the midpoint at more than the half-height.
	h := math.Sqrt(200) * 0.3
	outside := geom.Pt{X: 5 - (h+1)*math.Sqrt2/2, Y: 5 + (h+1)*math.Sqrt2/2}
	if box.Contains(outside) {
		t.Errorf("%v should be outside the rotated box", outside)
	}
	clamped := box.Clamp(outside)
	if !box.Contains(clamped) {
		t.Errorf("Clamp(%v) = %v is outside the box", outside, clamped)
	}
}

func TestRangeboxCorners(t *testing.T) {
	_, f := twoNodeModel(t)
	box := RangeboxFor(f, 0.3)
	corners := box.Corners()

	want := [4]geom.Pt{
		{X: 0, Y: -3},
		{X: 10, Y: -3},
		{X: 10, Y: 3},
		{X: 0, Y: 3},
	}
	// Perp of (1,0) may point to either side; accept both windings by
	// checking the corner set.
	for _, w := range want {
		found := false
		for _, c := range corners {
			if math.Abs(c.X-w.X) < 1e-12 && math.Abs(c.Y-w.Y) < 1e-12 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("corner %v missing from %v", w, corners)
		}
	}
}

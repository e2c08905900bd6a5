package flow

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/cartoflow/cartoflow/pkg/geom"
)

func almostEqualPt(a, b geom.Pt, eps float64) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

func TestEvalEndpoints(t *testing.T) {
	c := QuadCurve{P0: geom.Pt{X: 1, Y: 2}, Ctrl: geom.Pt{X: 5, Y: 9}, P1: geom.Pt{X: 10, Y: 3}}

	p0, err := c.Eval(0)
	if err != nil {
		t.Fatalf("Eval(0): %v", err)
	}
	if p0 != c.P0 {
		t.Errorf("Eval(0) = %v, want %v", p0, c.P0)
	}

	p1, err := c.Eval(1)
	if err != nil {
		t.Fatalf("Eval(1): %v", err)
	}
	if p1 != c.P1 {
		t.Errorf("Eval(1) = %v, want %v", p1, c.P1)
	}
}

func TestEvalOutOfRange(t *testing.T) {
	c := QuadCurve{P0: geom.Pt{X: 0, Y: 0}, Ctrl: geom.Pt{X: 1, Y: 1}, P1: geom.Pt{X: 2, Y: 0}}
	for _, bad := range []float64{-0.001, 1.001, math.NaN()} {
		if _, err := c.Eval(bad); !errors.Is(err, ErrParameterOutOfRange) {
			t.Errorf("Eval(%v) error = %v, want ErrParameterOutOfRange", bad, err)
		}
	}
}

func TestBoundingBoxContainsCurve(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		c := QuadCurve{
			P0:   geom.Pt{X: rng.Float64()*200 - 100, Y: rng.Float64()*200 - 100},
			Ctrl: geom.Pt{X: rng.Float64()*200 - 100, Y: rng.Float64()*200 - 100},
			P1:   geom.Pt{X: rng.Float64()*200 - 100, Y: rng.Float64()*200 - 100},
		}
		box := c.BoundingBox().Pad(1e-9)
		for i := 0; i <= 1000; i++ {
			p := c.eval(float64(i) / 1000)
			if !box.Contains(p) {
				t.Fatalf("trial %d: point %v at t=%v outside box %v", trial, p, float64(i)/1000, box)
			}
		}
	}
}

func TestBoundingBoxTight(t *testing.T) {
	// Symmetric arch: the apex at t=0.5 is the vertical extremum and must
	// grow the box beyond the endpoints.
	c := QuadCurve{P0: geom.Pt{X: 0, Y: 0}, Ctrl: geom.Pt{X: 5, Y: 10}, P1: geom.Pt{X: 10, Y: 0}}
	box := c.BoundingBox()
	if !almostEqualPt(geom.Pt{X: box.MinX, Y: box.MinY}, geom.Pt{X: 0, Y: 0}, 1e-9) {
		t.Errorf("box min = (%v,%v), want (0,0)", box.MinX, box.MinY)
	}
	if math.Abs(box.MaxY-5) > 1e-9 {
		t.Errorf("box MaxY = %v, want 5 (apex of arch)", box.MaxY)
	}
}

func TestSplitRoundTrip(t *testing.T) {
	c := QuadCurve{P0: geom.Pt{X: 0, Y: 0}, Ctrl: geom.Pt{X: 4, Y: 8}, P1: geom.Pt{X: 10, Y: 1}}
	for _, split := range []float64{0.25, 0.5, 0.8} {
		left, right := c.Split(split)
		if !almostEqualPt(left.P1, right.P0, 1e-12) {
			t.Fatalf("split %v: halves do not meet", split)
		}
		for i := 0; i <= 100; i++ {
			tt := float64(i) / 100
			want := c.eval(tt)
			var got geom.Pt
			if tt <= split {
				got = left.eval(tt / split)
			} else {
				got = right.eval((tt - split) / (1 - split))
			}
			if !almostEqualPt(got, want, 1e-9) {
				t.Fatalf("split %v: t=%v: got %v, want %v", split, tt, got, want)
			}
		}
	}
}

func TestSplitNoOp(t *testing.T) {
	c := QuadCurve{P0: geom.Pt{X: 0, Y: 0}, Ctrl: geom.Pt{X: 1, Y: 2}, P1: geom.Pt{X: 3, Y: 0}}
	for _, edge := range []float64{0, 1, -0.5, 1.5} {
		a, b := c.Split(edge)
		if a != c || b != c {
			t.Errorf("Split(%v) = %v, %v, want original twice", edge, a, b)
		}
	}
}

func TestSubsegment(t *testing.T) {
	c := QuadCurve{P0: geom.Pt{X: 0, Y: 0}, Ctrl: geom.Pt{X: 5, Y: 10}, P1: geom.Pt{X: 10, Y: 0}}
	sub := c.Subsegment(0.2, 0.7)
	if !almostEqualPt(sub.P0, c.eval(0.2), 1e-9) {
		t.Errorf("Subsegment start = %v, want %v", sub.P0, c.eval(0.2))
	}
	if !almostEqualPt(sub.P1, c.eval(0.7), 1e-9) {
		t.Errorf("Subsegment end = %v, want %v", sub.P1, c.eval(0.7))
	}
	// Midpoint of the subsegment must lie on the original curve.
	mid := sub.eval(0.5)
	if d := c.DistanceTo(mid, 1e-9); d > 1e-6 {
		t.Errorf("subsegment midpoint off original curve by %v", d)
	}
}

func TestRegularIntervals(t *testing.T) {
	c := QuadCurve{P0: geom.Pt{X: 0, Y: 0}, Ctrl: geom.Pt{X: 50, Y: 80}, P1: geom.Pt{X: 100, Y: 0}}

	t.Run("MinimumTwoPoints", func(t *testing.T) {
		pts := c.RegularIntervals(1e9)
		if len(pts) != 2 {
			t.Fatalf("len = %d, want 2 for huge spacing", len(pts))
		}
	})

	t.Run("SpacingApproximatelyEven", func(t *testing.T) {
		pts := c.RegularIntervals(5)
		if len(pts) < 2 {
			t.Fatalf("len = %d, want >= 2", len(pts))
		}
		var dists []float64
		for i := 1; i < len(pts); i++ {
			dists = append(dists, pts[i].Distance(pts[i-1]))
		}
		mean := 0.0
		for _, d := range dists {
			mean += d
		}
		mean /= float64(len(dists))
		for i, d := range dists {
			if math.Abs(d-mean)/mean > 0.1 {
				t.Errorf("interval %d: %v deviates more than 10%% from mean %v", i, d, mean)
			}
		}
	})

	t.Run("EndsInset", func(t *testing.T) {
		pts := c.RegularIntervals(5)
		if pts[0] == c.P0 {
			t.Error("first sample sits on the start node")
		}
		if pts[len(pts)-1] == c.P1 {
			t.Error("last sample sits on the end node")
		}
	})
}

func TestArcLengthTable(t *testing.T) {
	// Degenerate to a straight line: arc length equals chord length.
	c := QuadCurve{P0: geom.Pt{X: 0, Y: 0}, Ctrl: geom.Pt{X: 5, Y: 0}, P1: geom.Pt{X: 10, Y: 0}}
	if got := c.ArcLength(); math.Abs(got-10) > 1e-9 {
		t.Errorf("ArcLength = %v, want 10", got)
	}
	table := c.ArcLengthTable()
	if got := table.TAtLength(5); math.Abs(got-0.5) > 0.01 {
		t.Errorf("TAtLength(5) = %v, want ~0.5", got)
	}
	if got := table.TAtLength(-1); got != 0 {
		t.Errorf("TAtLength(-1) = %v, want 0", got)
	}
	if got := table.TAtLength(100); got != 1 {
		t.Errorf("TAtLength(100) = %v, want 1", got)
	}
}

func TestCubicEvalAndSplit(t *testing.T) {
	c := CubicCurve{
		P0: geom.Pt{X: 0, Y: 0}, Ctrl1: geom.Pt{X: 2, Y: 6}, Ctrl2: geom.Pt{X: 8, Y: 6}, P1: geom.Pt{X: 10, Y: 0},
	}
	p0, err := c.Eval(0)
	if err != nil || p0 != c.P0 {
		t.Errorf("Eval(0) = %v, %v", p0, err)
	}
	p1, err := c.Eval(1)
	if err != nil || p1 != c.P1 {
		t.Errorf("Eval(1) = %v, %v", p1, err)
	}
	if _, err := c.Eval(2); !errors.Is(err, ErrParameterOutOfRange) {
		t.Errorf("Eval(2) error = %v, want ErrParameterOutOfRange", err)
	}

	left, right := c.Split(0.5)
	if !almostEqualPt(left.P1, right.P0, 1e-12) {
		t.Error("cubic halves do not meet")
	}
	if !almostEqualPt(left.eval(1), c.eval(0.5), 1e-12) {
		t.Error("cubic split point mismatch")
	}

	box := c.BoundingBox().Pad(1e-9)
	for i := 0; i <= 500; i++ {
		if p := c.eval(float64(i) / 500); !box.Contains(p) {
			t.Fatalf("cubic point %v outside box %v", p, box)
		}
	}
}

package flow

import (
	"errors"
	"math"
	"testing"

	"github.com/cartoflow/cartoflow/pkg/geom"
)

func mustFlow(t *testing.T, start, end geom.Pt, value float64) *Flow {
	t.Helper()
	f, err := New(1, 0, 1, start, end, value)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestNewRejectsDegenerate(t *testing.T) {
	tests := []struct {
		name       string
		sn, en     NodeHandle
		start, end geom.Pt
		value      float64
		wantErr    error
	}{
		{"SameHandle", 3, 3, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 1, Y: 1}, 1, ErrDegenerateFlow},
		{"SameCoordinates", 0, 1, geom.Pt{X: 2, Y: 2}, geom.Pt{X: 2, Y: 2}, 1, ErrDegenerateFlow},
		{"NaNValue", 0, 1, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 1, Y: 1}, math.NaN(), ErrNonFiniteValue},
		{"InfValue", 0, 1, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 1, Y: 1}, math.Inf(1), ErrNonFiniteValue},
		{"Valid", 0, 1, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 1, Y: 1}, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(1, tt.sn, tt.en, tt.start, tt.end, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerationBumpsOnMutation(t *testing.T) {
	f := mustFlow(t, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 10, Y: 0}, 1)
	g0 := f.Generation()

	f.SetCtrl(geom.Pt{X: 5, Y: 5})
	if f.Generation() == g0 {
		t.Error("SetCtrl did not bump generation")
	}

	g1 := f.Generation()
	f.SetCtrl(geom.Pt{X: 5, Y: 5}) // no-op
	if f.Generation() != g1 {
		t.Error("no-op SetCtrl bumped generation")
	}

	if err := f.MoveEndpoints(geom.Pt{X: 0, Y: 1}, geom.Pt{X: 10, Y: 1}); err != nil {
		t.Fatalf("MoveEndpoints: %v", err)
	}
	if f.Generation() == g1 {
		t.Error("MoveEndpoints did not bump generation")
	}
}

func TestBoundingBoxCacheInvalidation(t *testing.T) {
	f := mustFlow(t, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 10, Y: 0}, 1)
	f.SetCtrl(geom.Pt{X: 5, Y: 10})
	box1 := f.BoundingBox()
	if box1.MaxY < 4.9 {
		t.Fatalf("box before mutation: %v", box1)
	}

	f.SetCtrl(geom.Pt{X: 5, Y: -10})
	box2 := f.BoundingBox()
	if box2.MinY > -4.9 {
		t.Errorf("stale bounding box after control move: %v", box2)
	}
}

func TestCachedPolylineInvalidation(t *testing.T) {
	f := mustFlow(t, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 10, Y: 0}, 1)
	p1 := f.CachedPolyline(10)
	p2 := f.CachedPolyline(10)
	if &p1[0] != &p2[0] {
		t.Error("expected cached polyline to be reused")
	}

	f.SetCtrl(geom.Pt{X: 5, Y: 8})
	p3 := f.CachedPolyline(10)
	if p3[5] == p1[5] {
		t.Error("polyline not recomputed after mutation")
	}
}

func TestShorteningsClamped(t *testing.T) {
	f := mustFlow(t, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 10, Y: 0}, 1)

	f.SetShortenings(-5, 3)
	s, e := f.Shortenings()
	if s != 0 {
		t.Errorf("negative shortening = %v, want 0", s)
	}
	if e != 3 {
		t.Errorf("end shortening = %v, want 3", e)
	}

	f.SetShortenings(50, 50)
	s, e = f.Shortenings()
	if s > f.BaselineLength() || e > f.BaselineLength() {
		t.Errorf("shortenings %v/%v exceed baseline %v", s, e, f.BaselineLength())
	}
}

func TestSplitFlow(t *testing.T) {
	f := mustFlow(t, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 10, Y: 0}, 2)
	f.SetCtrl(geom.Pt{X: 5, Y: 6})

	a, b, err := f.Split(0.5)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if a.End() != b.Start() {
		t.Error("split halves do not meet")
	}
	if a.EndNode() != NoNode || b.StartNode() != NoNode {
		t.Error("split midpoint should carry NoNode until registered")
	}
	if a.StartNode() != f.StartNode() || b.EndNode() != f.EndNode() {
		t.Error("split lost original node handles")
	}
	if a.ID() != f.ID() || b.ID() != 0 {
		t.Errorf("split ids = %d, %d; want %d and the 0 placeholder", a.ID(), b.ID(), f.ID())
	}

	// No-op split returns the receiver itself.
	x, y, err := f.Split(0)
	if err != nil || x != f || y != f {
		t.Errorf("Split(0) = %v, %v, %v, want receiver twice", x, y, err)
	}
}

func TestPairOperations(t *testing.T) {
	p, err := NewPair(7, 0, 1, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 10, Y: 0}, 3, 4)
	if err != nil {
		t.Fatalf("NewPair: %v", err)
	}
	if !p.IsPair() {
		t.Fatal("IsPair = false")
	}
	if got := p.TotalValue(); got != 7 {
		t.Errorf("TotalValue = %v, want 7", got)
	}

	t.Run("SplitUnsupported", func(t *testing.T) {
		if _, _, err := p.Split(0.5); !errors.Is(err, ErrUnsupportedForPair) {
			t.Errorf("Split error = %v, want ErrUnsupportedForPair", err)
		}
	})

	t.Run("HitTestUnsupported", func(t *testing.T) {
		if _, err := p.HitTest(geom.Pt{X: 5, Y: 0}, 1); !errors.Is(err, ErrUnsupportedForPair) {
			t.Errorf("HitTest error = %v, want ErrUnsupportedForPair", err)
		}
	})

	t.Run("ClipUnsupported", func(t *testing.T) {
		if _, err := p.ClippedCurve(ClipRadii{1, 1}); !errors.Is(err, ErrUnsupportedForPair) {
			t.Errorf("ClippedCurve error = %v, want ErrUnsupportedForPair", err)
		}
	})

	t.Run("PairCurves", func(t *testing.T) {
		p.SetCtrl(geom.Pt{X: 5, Y: 5})
		c1, c2, err := p.PairCurves(2, LowOffsetQuality)
		if err != nil {
			t.Fatalf("PairCurves: %v", err)
		}
		if c1.P0 == c2.P0 {
			t.Error("pair curves coincide at start")
		}
	})

	t.Run("PairCurvesOnSingle", func(t *testing.T) {
		f := mustFlow(t, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 10, Y: 0}, 1)
		if _, _, err := f.PairCurves(2, LowOffsetQuality); !errors.Is(err, ErrUnsupportedForPair) {
			t.Errorf("PairCurves error = %v, want ErrUnsupportedForPair", err)
		}
	})
}

func TestHitTest(t *testing.T) {
	f := mustFlow(t, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 10, Y: 0}, 1)
	f.SetCtrl(geom.Pt{X: 5, Y: 6})

	hit, err := f.HitTest(f.Curve().eval(0.3), 0.5)
	if err != nil || !hit {
		t.Errorf("HitTest on curve = %v, %v, want hit", hit, err)
	}
	hit, err = f.HitTest(geom.Pt{X: 5, Y: -20}, 0.5)
	if err != nil || hit {
		t.Errorf("HitTest far away = %v, %v, want miss", hit, err)
	}
}

func TestClippedCurve(t *testing.T) {
	f := mustFlow(t, geom.Pt{X: 0, Y: 0}, geom.Pt{X: 100, Y: 0}, 1)
	f.SetCtrl(geom.Pt{X: 50, Y: 40})

	t.Run("CircleRadii", func(t *testing.T) {
		clipped, err := f.ClippedCurve(ClipRadii{Start: 10, End: 10})
		if err != nil {
			t.Fatalf("ClippedCurve: %v", err)
		}
		if d := clipped.P0.Distance(f.Start()); math.Abs(d-10) > 0.05 {
			t.Errorf("clipped start at distance %v, want ~10", d)
		}
		if d := clipped.P1.Distance(f.End()); math.Abs(d-10) > 0.05 {
			t.Errorf("clipped end at distance %v, want ~10", d)
		}
	})

	t.Run("ClipArea", func(t *testing.T) {
		// Square around the start point.
		f.SetStartClipArea(ClipArea{Polygon: []geom.Pt{
			{X: -20, Y: -20}, {X: 20, Y: -20}, {X: 20, Y: 20}, {X: -20, Y: 20},
		}})
		clipped, err := f.ClippedCurve(ClipRadii{})
		if err != nil {
			t.Fatalf("ClippedCurve: %v", err)
		}
		if geom.PointInPolygon(clipped.P0.Add(clipped.P1.Sub(clipped.P0).Scale(0.01)), f.StartClipArea().Polygon) {
			t.Errorf("clipped start %v still inside clip area", clipped.P0)
		}
		f.SetStartClipArea(ClipArea{})
	})

	t.Run("OverClipped", func(t *testing.T) {
		clipped, err := f.ClippedCurve(ClipRadii{Start: 1e6, End: 1e6})
		if err != nil {
			t.Fatalf("ClippedCurve: %v", err)
		}
		if clipped.P0 != clipped.P1 {
			t.Errorf("fully clipped curve should be zero length, got %v..%v", clipped.P0, clipped.P1)
		}
	})
}

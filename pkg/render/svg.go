package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo/float"

	"github.com/cartoflow/cartoflow/pkg/errors"
	"github.com/cartoflow/cartoflow/pkg/flow"
	"github.com/cartoflow/cartoflow/pkg/geom"
	"github.com/cartoflow/cartoflow/pkg/model"
)

// SVGOptions controls the visual styling and viewport of [RenderSVG].
// Geometry (stroke widths, node radii, arrowheads) comes from the model's
// layout parameters; options cover only what the parameters do not.
type SVGOptions struct {
	// Width and Height are the output viewport in pixels. The padded
	// canvas is fitted inside, preserving aspect ratio.
	Width, Height float64

	// Margin is extra whitespace inside the viewport edge, in pixels.
	Margin float64

	// Background is the page fill. Empty means no background rect.
	Background string

	// FlowColor and FlowOpacity style the flow bands.
	FlowColor   string
	FlowOpacity float64

	// NodeFill, NodeStroke and NodeStrokeWidth style the node circles.
	NodeFill        string
	NodeStroke      string
	NodeStrokeWidth float64
}

// DefaultSVGOptions returns the standard flow-map styling.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:           800,
		Height:          600,
		Margin:          20,
		Background:      "#ffffff",
		FlowColor:       "#1b6b8f",
		FlowOpacity:     0.75,
		NodeFill:        "#ffffff",
		NodeStroke:      "#333333",
		NodeStrokeWidth: 1.5,
	}
}

// mapper projects map units onto the pixel viewport. Map y grows upward,
// SVG y grows downward, so the projection flips the y axis.
type mapper struct {
	canvas geom.Rect
	scale  float64
	offX   float64
	offY   float64
}

func newMapper(canvas geom.Rect, opts SVGOptions) (mapper, error) {
	innerW := opts.Width - 2*opts.Margin
	innerH := opts.Height - 2*opts.Margin
	if innerW <= 0 || innerH <= 0 {
		return mapper{}, errors.New(errors.ErrCodeInvalidParams,
			"viewport %gx%g with margin %g leaves no drawing area", opts.Width, opts.Height, opts.Margin)
	}
	if canvas.Width() <= 0 || canvas.Height() <= 0 {
		return mapper{}, errors.New(errors.ErrCodeInvalidGeometry, "model has no drawable extent")
	}
	s := math.Min(innerW/canvas.Width(), innerH/canvas.Height())
	return mapper{
		canvas: canvas,
		scale:  s,
		offX:   opts.Margin + (innerW-canvas.Width()*s)/2,
		offY:   opts.Margin + (innerH-canvas.Height()*s)/2,
	}, nil
}

// extentFloor is the half-extent used to open up a collapsed canvas
// axis: the node radius budget in map units, else a twentieth of the
// other axis, else one map unit.
func extentFloor(m *model.Model) float64 {
	params := m.Params()
	c := m.PaddedCanvas()
	switch {
	case params.MaxNodeRadiusPx > 0 && params.ReferenceMapScale > 0:
		return params.MaxNodeRadiusPx / params.ReferenceMapScale
	case math.Max(c.Width(), c.Height()) > 0:
		return math.Max(c.Width(), c.Height()) / 20
	default:
		return 1
	}
}

// ensureExtent grows any collapsed canvas axis by the floor so collinear
// flow sets still map to a drawable area.
func ensureExtent(c geom.Rect, floor float64) geom.Rect {
	if c.Width() <= 0 {
		c.MinX -= floor
		c.MaxX += floor
	}
	if c.Height() <= 0 {
		c.MinY -= floor
		c.MaxY += floor
	}
	return c
}

func (mp mapper) pt(p geom.Pt) (x, y float64) {
	return mp.offX + (p.X-mp.canvas.MinX)*mp.scale,
		mp.offY + (mp.canvas.MaxY-p.Y)*mp.scale
}

// RenderSVG draws the laid-out model as an SVG document: flow bands as
// quadratic paths clipped at node symbols and shortenings, arrowheads
// when the parameters enable them, and node circles on top. Stroke widths
// and radii are the model's pixel values rescaled to the fitted viewport.
func RenderSVG(w io.Writer, m *model.Model, opts SVGOptions) error {
	canvasRect := m.PaddedCanvas()
	if m.FlowCount() > 0 || m.HasCanvas() {
		canvasRect = ensureExtent(canvasRect, extentFloor(m))
	}
	mp, err := newMapper(canvasRect, opts)
	if err != nil {
		return err
	}

	params := m.Params()
	// Pixel-space parameters assume ReferenceMapScale pixels per map
	// unit; pxScale rebases them onto the fitted viewport scale.
	pxScale := mp.scale / params.ReferenceMapScale

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	if opts.Background != "" {
		canvas.Rect(0, 0, opts.Width, opts.Height, "fill:"+opts.Background)
	}

	for _, f := range m.Flows() {
		if err := drawFlow(canvas, mp, m, f, opts, pxScale); err != nil {
			return err
		}
	}

	m.Nodes(func(h flow.NodeHandle, n model.Node) {
		r := m.NodeRadiusPx(h) * pxScale
		if r <= 0 {
			return
		}
		x, y := mp.pt(n.Pt)
		canvas.Circle(x, y, r, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%.2f",
			opts.NodeFill, opts.NodeStroke, opts.NodeStrokeWidth))
	})

	canvas.End()
	return nil
}

func drawFlow(canvas *svg.SVG, mp mapper, m *model.Model, f *flow.Flow, opts SVGOptions, pxScale float64) error {
	params := m.Params()
	scale := params.ReferenceMapScale

	natStart, natEnd := naturalRadii(m, f)
	startS, endS := f.Shortenings()
	radii := flow.ClipRadii{Start: natStart + startS, End: natEnd + endS}

	if f.IsPair() {
		return drawPair(canvas, mp, m, f, opts, pxScale, radii)
	}

	clipped, err := f.ClippedCurve(radii)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGeometry, err, "clip flow %d", f.ID())
	}

	stroke := m.StrokeWidthPx(f) * pxScale
	drawCurve(canvas, mp, clipped, stroke, opts)

	if params.DrawArrowheads && !degenerate(clipped) {
		bandWidth := m.StrokeWidthPx(f) / scale
		drawArrow(canvas, mp, arrowTriangle(f, clipped, false,
			bandWidth*params.ArrowLengthRatio,
			bandWidth*params.ArrowWidthRatio), opts)
	}
	return nil
}

// drawPair renders a bidirectional pair as two parallel offset curves,
// each stroked by its own direction's value, with opposing arrowheads.
func drawPair(canvas *svg.SVG, mp mapper, m *model.Model, f *flow.Flow, opts SVGOptions, pxScale float64, radii flow.ClipRadii) error {
	params := m.Params()
	scale := params.ReferenceMapScale

	gap := m.StrokeWidthPx(f) / scale
	fwd, rev, err := f.PairCurves(gap, flow.DefaultOffsetQuality)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGeometry, err, "offset pair %d", f.ID())
	}

	max := m.MaxFlowValue()
	for i, half := range [...]struct {
		curve flow.QuadCurve
		value float64
	}{{fwd, f.Value}, {rev, f.Value2}} {
		c := clipPairCurve(half.curve, radii)
		stroke := directionStrokePx(params, half.value, max)
		drawCurve(canvas, mp, c, stroke*pxScale, opts)
		if params.DrawArrowheads && !degenerate(c) {
			atStart := i == 1
			drawArrow(canvas, mp, arrowTriangle(f, c, atStart,
				stroke/scale*params.ArrowLengthRatio,
				stroke/scale*params.ArrowWidthRatio), opts)
		}
	}
	return nil
}

// directionStrokePx sizes one direction of a pair the same way
// [model.Model.StrokeWidthPx] sizes a whole flow.
func directionStrokePx(params model.Params, value, maxValue float64) float64 {
	if maxValue <= 0 {
		return params.MinStrokeWidthPx
	}
	return math.Max(params.MaxStrokeWidthPx*value/maxValue, params.MinStrokeWidthPx)
}

// clipPairCurve applies end-circle clipping to an offset curve directly;
// polygon clip areas belong to the centerline and do not transfer to the
// offsets.
func clipPairCurve(c flow.QuadCurve, radii flow.ClipRadii) flow.QuadCurve {
	t0 := c.CircleClipTFromStart(radii.Start)
	t1 := c.CircleClipTFromEnd(radii.End)
	if t0 >= t1 {
		mid, _ := c.Eval((t0 + t1) / 2)
		return flow.QuadCurve{P0: mid, Ctrl: mid, P1: mid}
	}
	return c.Subsegment(t0, t1)
}

// arrowTriangle places an arrowhead at one clipped end, pointing outward
// along the end tangent.
func arrowTriangle(f *flow.Flow, clipped flow.QuadCurve, atStart bool, length, width float64) [3]geom.Pt {
	var back geom.Pt
	var dir geom.Pt
	if atStart {
		back = clipped.P0
		dir = clipped.Tangent(0).Scale(-1)
	} else {
		back = clipped.P1
		dir = clipped.Tangent(1)
	}
	if dir == (geom.Pt{}) {
		dir = f.End().Sub(f.Start()).Normalize()
		if atStart {
			dir = dir.Scale(-1)
		}
	}
	perp := dir.Perp().Scale(width / 2)
	return [3]geom.Pt{back.Add(dir.Scale(length)), back.Add(perp), back.Sub(perp)}
}

// degenerate reports a curve clipped down to a single point.
func degenerate(c flow.QuadCurve) bool {
	return c.P0 == c.P1 && c.P0 == c.Ctrl
}

func drawCurve(canvas *svg.SVG, mp mapper, c flow.QuadCurve, strokePx float64, opts SVGOptions) {
	if degenerate(c) {
		return
	}
	x0, y0 := mp.pt(c.P0)
	cx, cy := mp.pt(c.Ctrl)
	x1, y1 := mp.pt(c.P1)
	d := fmt.Sprintf("M%.2f,%.2f Q%.2f,%.2f %.2f,%.2f", x0, y0, cx, cy, x1, y1)
	canvas.Path(d, fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.2f;stroke-opacity:%.2f;stroke-linecap:butt",
		opts.FlowColor, strokePx, opts.FlowOpacity))
}

func drawArrow(canvas *svg.SVG, mp mapper, tri [3]geom.Pt, opts SVGOptions) {
	xs := make([]float64, 3)
	ys := make([]float64, 3)
	for i, p := range tri {
		xs[i], ys[i] = mp.pt(p)
	}
	canvas.Polygon(xs, ys, fmt.Sprintf("fill:%s;fill-opacity:%.2f",
		opts.FlowColor, opts.FlowOpacity))
}

func naturalRadii(m *model.Model, f *flow.Flow) (start, end float64) {
	scale := m.Params().ReferenceMapScale
	if h := f.StartNode(); h != flow.NoNode {
		start = m.NodeRadiusPx(h) / scale
	}
	if h := f.EndNode(); h != flow.NoNode {
		end = m.NodeRadiusPx(h) / scale
	}
	return start, end
}

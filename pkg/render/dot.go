package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/cartoflow/cartoflow/pkg/errors"
	"github.com/cartoflow/cartoflow/pkg/flow"
	"github.com/cartoflow/cartoflow/pkg/model"
)

// DOTOptions configures the node-link export.
type DOTOptions struct {
	// Detailed includes node values and flow magnitudes as labels.
	// When false, nodes show only their handle.
	Detailed bool
}

// ToDOT converts the model's node-link structure to Graphviz DOT. Node
// positions are pinned to the layout coordinates, so a position-honoring
// engine (neato, fdp) reproduces the map's arrangement; edge pen widths
// follow flow magnitude. Curve geometry is not carried over, which is the
// point: the export shows connectivity stripped of the Bézier styling.
func ToDOT(m *model.Model, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("graph flows {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	m.Nodes(func(h flow.NodeHandle, n model.Node) {
		label := strconv.Itoa(int(h))
		if opts.Detailed {
			label = fmt.Sprintf("%d\\n%g", int(h), n.Value)
		}
		fmt.Fprintf(&buf, "  n%d [label=\"%s\", pos=\"%g,%g!\"];\n", int(h), label, n.Pt.X, n.Pt.Y)
	})

	buf.WriteString("\n")
	maxValue := m.MaxFlowValue()
	for _, f := range m.Flows() {
		attrs := fmt.Sprintf("penwidth=%.2f", dotPenWidth(f.TotalValue(), maxValue))
		if opts.Detailed {
			attrs += fmt.Sprintf(", label=\"%g\"", f.TotalValue())
		}
		if f.IsPair() {
			attrs += ", dir=both"
		} else {
			attrs += ", dir=forward"
		}
		fmt.Fprintf(&buf, "  n%d -- n%d [%s];\n", int(f.StartNode()), int(f.EndNode()), attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// dotPenWidth maps a flow value onto Graphviz pen widths 1..6.
func dotPenWidth(value, maxValue float64) float64 {
	if maxValue <= 0 {
		return 1
	}
	return 1 + 5*value/maxValue
}

// RenderDOT renders a DOT graph to SVG using Graphviz. The returned bytes
// are ready for display; the viewBox is normalized so the document scales
// in constrained containers.
func RenderDOT(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render DOT")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

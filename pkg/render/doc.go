// Package render turns laid-out flow-map models into visual outputs.
//
// # Overview
//
// Two renderers are provided:
//
//   - [RenderSVG] draws the map directly: flow bands as quadratic Bézier
//     paths with value-proportional stroke widths, arrowheads at clipped
//     flow ends, and node symbols as circles.
//   - [ToDOT] exports the model's node-link structure as Graphviz DOT
//     with pinned node positions, for inspection in graph tooling;
//     [RenderDOT] rasterizes that DOT to SVG through Graphviz.
//
// The SVG renderer is the product output; the DOT export is a debugging
// surface that shows connectivity without the curve geometry.
//
// # Coordinates
//
// Models live in map units with y growing upward. Rendering maps the
// padded canvas onto the pixel viewport and flips the y axis, so a
// model's visual top ends up at the top of the image.
package render

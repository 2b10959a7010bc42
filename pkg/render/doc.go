// Package render turns layout snapshots into pictures.
//
//   - [svg]: hand-drawn SVG straight from a [layout.Snapshot], clickable and
//     faithful to the computed positions
//   - [nodelink]: Graphviz DOT export, rendered in-process with go-graphviz
//
// [Convert], [ToPDF] and [ToPNG] turn any SVG produced by either renderer using the
// external rsvg-convert tool (from librsvg).
//
//	out := svg.Render(snap)
//	pdf, err := render.ToPDF(ctx, out)
package render

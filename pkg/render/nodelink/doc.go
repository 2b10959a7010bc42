// Package nodelink exports family trees as Graphviz diagrams.
//
// # Usage
//
// Convert a layout snapshot to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{Detailed: false})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT output pins every generation computed by the layout engine to one
// rank, so Graphviz only decides horizontal order. It can also be saved and
// processed with external Graphviz tools.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink

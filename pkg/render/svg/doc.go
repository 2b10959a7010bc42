// Package svg draws a layout snapshot as a standalone SVG document.
//
// Every person is a <g class="node"> carrying data-id, and every relation a
// <path class="relation"> carrying data-id1 and data-id2, so a page can map
// clicks back to the selection controller. Sibling edges are dashed and
// stroke width follows closeness.
//
//	snap := layout.Compute(t, layout.DefaultOptions())
//	out := svg.Render(snap, svg.WithSelection(1, 2), svg.WithInteraction())
package svg

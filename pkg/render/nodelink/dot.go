package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/tree"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds the ID and generation level to each label.
	Detailed bool
}

// ToDOT converts a layout snapshot to Graphviz DOT.
//
// Generations computed by the layout become rank=same groups so Graphviz
// keeps them on one row. Parent edges are arrows, spouse edges plain lines
// and sibling edges dashed; neither of the latter constrains ranking.
func ToDOT(s layout.Snapshot, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, row := range s.Levels() {
		for _, n := range row {
			fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
		}
	}

	buf.WriteString("\n")
	for _, row := range s.Levels() {
		if len(row) < 2 {
			continue
		}
		ids := make([]string, len(row))
		for i, n := range row {
			ids[i] = "n" + strconv.Itoa(n.ID)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		buf.WriteString("  " + fmtEdge(e) + ";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n layout.NodePosition, detailed bool) string {
	label := n.Name + " " + n.Gender.Symbol()
	if !detailed {
		return label
	}
	return fmt.Sprintf("%s\nid: %d\nlevel: %d", label, n.ID, n.Level)
}

func fmtAttrs(n layout.NodePosition, detailed bool) []string {
	fill := "\"#dbe9f6\""
	if n.Gender == tree.GenderFemale {
		fill = "\"#f8dde6\""
	}
	return []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed)), "fillcolor=" + fill}
}

func fmtEdge(e layout.Edge) string {
	width := fmt.Sprintf("penwidth=%.2f", e.StrokeWidth)
	switch e.Type {
	case tree.RelationParent:
		attrs := []string{width}
		if !e.Honored {
			attrs = append(attrs, "style=dotted", "constraint=false")
		}
		return fmt.Sprintf("n%d -> n%d [%s]", e.Parent, e.Child, strings.Join(attrs, ", "))
	case tree.RelationSibling:
		return fmt.Sprintf("n%d -> n%d [dir=none, style=dashed, constraint=false, %s]", e.ID1, e.ID2, width)
	default:
		return fmt.Sprintf("n%d -> n%d [dir=none, color=\"#b5485d\", constraint=false, %s]", e.ID1, e.ID2, width)
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based <svg> header with a
// plain pixel viewBox so the drawing scales like the native renderer.
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

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}


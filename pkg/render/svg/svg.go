package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/tree"
)

const treeCSS = `
    .relation { fill: none; stroke: #6b6b6b; cursor: pointer; }
    .relation.spouse { stroke: #b5485d; }
    .relation.sibling { stroke: #4a7bb0; }
    .relation.secondary { stroke-opacity: 0.5; }
    .relation.selected, .node.selected rect { stroke: #f08c00; }
    .node { cursor: pointer; }
    .node rect { stroke: #444; stroke-width: 1.5; }
    .node.male rect { fill: #dbe9f6; }
    .node.female rect { fill: #f8dde6; }
    .node text { font-family: sans-serif; font-size: 14px; text-anchor: middle; dominant-baseline: central; }`

// clickJS posts the clicked person or edge to the embedding page, which
// feeds it to the selection controller.
const clickJS = `
    function send(detail) { window.parent.postMessage({ kintree: detail }, '*'); }
    document.querySelectorAll('.node').forEach(el => {
      el.addEventListener('click', () => send({ node: Number(el.dataset.id) }));
    });
    document.querySelectorAll('.relation').forEach(el => {
      el.addEventListener('click', () => send({ edge: [Number(el.dataset.id1), Number(el.dataset.id2)] }));
    });`

// DefaultPadding is the blank border around the drawing, in pixels.
const DefaultPadding = 20.0

// Option configures SVG output.
type Option func(*renderer)

type renderer struct {
	padding     float64
	selected    []int
	interactive bool
}

// WithPadding sets the blank border around the drawing, in pixels.
func WithPadding(p float64) Option { return func(r *renderer) { r.padding = max(p, 0) } }

// WithSelection highlights the given people and, for a pair, the edge
// between them.
func WithSelection(ids ...int) Option {
	return func(r *renderer) { r.selected = slices.Clone(ids) }
}

// WithInteraction embeds a script that reports clicks to the parent page.
func WithInteraction() Option { return func(r *renderer) { r.interactive = true } }

// Render draws a layout snapshot as a standalone SVG document. Edges are
// drawn first so that node boxes cover their endpoints.
func Render(s layout.Snapshot, opts ...Option) []byte {
	r := renderer{padding: DefaultPadding}
	for _, opt := range opts {
		opt(&r)
	}

	w := s.Width + 2*r.padding
	h := s.Height + 2*r.padding

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n", w, h, w, h)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", treeCSS)
	fmt.Fprintf(&buf, `  <g transform="translate(%.1f,%.1f)">`+"\n", r.padding, r.padding)

	buf.WriteString("  <g class=\"relations\">\n")
	for _, e := range s.Edges {
		r.renderEdge(&buf, e)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("  <g class=\"nodes\">\n")
	for _, id := range sortedIDs(s) {
		r.renderNode(&buf, s.Nodes[id])
	}
	buf.WriteString("  </g>\n")
	buf.WriteString("  </g>\n")

	if r.interactive {
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", clickJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func sortedIDs(s layout.Snapshot) []int {
	ids := make([]int, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (r *renderer) renderNode(buf *bytes.Buffer, n layout.NodePosition) {
	classes := []string{"node", "male"}
	if n.Gender == tree.GenderFemale {
		classes[1] = "female"
	}
	if slices.Contains(r.selected, n.ID) {
		classes = append(classes, "selected")
	}
	c := n.Center()
	fmt.Fprintf(buf, `    <g class="%s" data-id="%d">`+"\n", strings.Join(classes, " "), n.ID)
	fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6"/>`+"\n", n.X, n.Y, n.Width, n.Height)
	fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f">%s %s</text>`+"\n", c.X, c.Y, escapeXML(n.Name), n.Gender.Symbol())
	buf.WriteString("    </g>\n")
}

func (r *renderer) renderEdge(buf *bytes.Buffer, e layout.Edge) {
	classes := []string{"relation", string(e.Type)}
	if !e.Honored {
		classes = append(classes, "secondary")
	}
	if r.isSelectedPair(e.ID1, e.ID2) {
		classes = append(classes, "selected")
	}

	fmt.Fprintf(buf, `    <path class="%s" d="%s" data-id1="%d" data-id2="%d" stroke-width="%.2f"`,
		strings.Join(classes, " "), PathData(e), e.ID1, e.ID2, e.StrokeWidth)
	if e.Dash != "" {
		fmt.Fprintf(buf, ` stroke-dasharray="%s"`, e.Dash)
	}
	buf.WriteString("/>\n")
}

func (r *renderer) isSelectedPair(a, b int) bool {
	if len(r.selected) != 2 {
		return false
	}
	return (r.selected[0] == a && r.selected[1] == b) || (r.selected[0] == b && r.selected[1] == a)
}

// PathData formats the points of e as an SVG path. Parent elbows use
// vertical and horizontal commands; other edges are straight segments.
func PathData(e layout.Edge) string {
	pts := e.Points
	if len(pts) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "M %s,%s", num(pts[0].X), num(pts[0].Y))
	if e.Type == tree.RelationParent && len(pts) == 4 {
		fmt.Fprintf(&sb, " V %s H %s V %s", num(pts[1].Y), num(pts[2].X), num(pts[3].Y))
		return sb.String()
	}
	for _, p := range pts[1:] {
		fmt.Fprintf(&sb, " L %s,%s", num(p.X), num(p.Y))
	}
	return sb.String()
}

func num(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

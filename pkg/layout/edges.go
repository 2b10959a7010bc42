package layout

import "github.com/matzehuels/kintree/pkg/tree"

// SiblingDash is the SVG dash pattern of sibling edges.
const SiblingDash = "5,5"

// Point is a pixel coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is the drawable form of one relation. ID1 and ID2 are the stored
// endpoints of the relation so a click on the edge can select the pair.
type Edge struct {
	Key         tree.Key          `json:"key"`
	ID1         int               `json:"id1"`
	ID2         int               `json:"id2"`
	Type        tree.RelationType `json:"type"`
	Closeness   int               `json:"closeness"`
	Parent      int               `json:"parent,omitempty"`
	Child       int               `json:"child,omitempty"`
	Points      []Point           `json:"points"`
	StrokeWidth float64           `json:"stroke_width"`
	Dash        string            `json:"dash,omitempty"`
	// Honored is false for parent edges that exist but do not position
	// the child. It is always true for spouse and sibling edges.
	Honored bool `json:"honored"`
}

// StrokeWidth maps closeness in [0,100] linearly onto a stroke weight in
// [1,4]. Out-of-range values are clamped first.
func StrokeWidth(closeness int) float64 {
	c := tree.ClampCloseness(closeness)
	return 1 + float64(c)/100*3
}

// routeEdges converts every live relation of t into an Edge. Relations
// with a missing endpoint are skipped.
func routeEdges(t *tree.Tree, ix *tree.Index, nodes map[int]NodePosition) []Edge {
	rels := t.Relations()
	edges := make([]Edge, 0, len(rels))
	for _, r := range rels {
		a, okA := nodes[r.A]
		b, okB := nodes[r.B]
		if !okA || !okB || r.A == r.B {
			continue
		}

		e := Edge{
			Key:         r.Key(),
			ID1:         r.A,
			ID2:         r.B,
			Type:        r.Type,
			Closeness:   r.Closeness,
			StrokeWidth: StrokeWidth(r.Closeness),
			Honored:     true,
		}

		switch r.Type {
		case tree.RelationParent:
			p, okP := nodes[r.Parent]
			c, okC := nodes[r.Child]
			if !okP || !okC || r.Parent == r.Child {
				continue
			}
			e.Parent, e.Child = r.Parent, r.Child
			e.Points = elbow(p, c)
			e.Honored = ix.IsHonored(r.Parent, r.Child)
		case tree.RelationSpouse:
			e.Points = straight(a, b)
		case tree.RelationSibling:
			e.Points = straight(a, b)
			e.Dash = SiblingDash
		default:
			continue
		}
		edges = append(edges, e)
	}
	return edges
}

// elbow routes an orthogonal path from the parent's bottom center down to
// the vertical midpoint, across to the child's x, then into its top center.
func elbow(parent, child NodePosition) []Point {
	px := parent.X + parent.Width/2
	py := parent.Y + parent.Height
	cx := child.X + child.Width/2
	cy := child.Y
	midY := (py + cy) / 2
	return []Point{
		{px, py},
		{px, midY},
		{cx, midY},
		{cx, cy},
	}
}

func straight(a, b NodePosition) []Point {
	return []Point{a.Center(), b.Center()}
}

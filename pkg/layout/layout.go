package layout

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"

	"github.com/matzehuels/kintree/pkg/tree"
)

// =============================================================================
// Snapshot - Layout Result
// =============================================================================

// NodePosition is a person placed on the canvas. X and Y are the top-left
// corner of the node box.
type NodePosition struct {
	ID     int         `json:"id"`
	Name   string      `json:"name"`
	Gender tree.Gender `json:"gender"`
	Level  int         `json:"level"`
	Slot   float64     `json:"slot"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
}

// Center returns the midpoint of the node box.
func (p NodePosition) Center() Point {
	return Point{X: p.X + p.Width/2, Y: p.Y + p.Height/2}
}

// Stats describes the work done by one layout pass.
type Stats struct {
	Components    int `json:"components"`
	ParentPasses  int `json:"parent_passes"`
	SpouseRounds  int `json:"spouse_rounds"`
	SiblingRounds int `json:"sibling_rounds"`
}

// Snapshot is everything a renderer needs: one position per person and one
// drawable edge per live relation. Width and Height bound the drawing.
type Snapshot struct {
	Nodes  map[int]NodePosition `json:"nodes"`
	Edges  []Edge               `json:"edges"`
	Width  float64              `json:"width"`
	Height float64              `json:"height"`
	Stats  Stats                `json:"stats"`
}

// Levels returns the people grouped by generation, top tier first, each
// row ordered left to right.
func (s Snapshot) Levels() [][]NodePosition {
	var rows [][]NodePosition
	for _, p := range s.Nodes {
		for len(rows) <= p.Level {
			rows = append(rows, nil)
		}
		rows[p.Level] = append(rows[p.Level], p)
	}
	for _, row := range rows {
		sortRow(row)
	}
	return rows
}

// =============================================================================
// Compute
// =============================================================================

// Compute lays out t from scratch. It never fails: dangling relations are
// ignored and cyclic input still converges.
//
// Each connected component is leveled and placed on its own; components are
// laid side by side from left to right in ascending order of their smallest
// ID.
func Compute(t *tree.Tree, opts Options) Snapshot {
	opts = opts.withDefaults()
	ix := tree.BuildIndex(t)
	comps := tree.Components(t, ix)

	lv := levelComponents(comps, ix)

	sizes := make(map[int]Size, t.NodeCount())
	maxWidth := 0.0
	for _, n := range t.Nodes() {
		sz := opts.measure(n)
		sizes[n.ID] = sz
		maxWidth = max(maxWidth, sz.Width)
	}
	column := maxWidth + opts.HorizontalMargin

	snap := Snapshot{
		Nodes: make(map[int]NodePosition, t.NodeCount()),
		Stats: Stats{
			Components:    len(comps),
			ParentPasses:  lv.ParentPasses,
			SpouseRounds:  lv.SpouseRounds,
			SiblingRounds: lv.SiblingRounds,
		},
	}

	p := newPlacer(ix, lv.ByID)
	offset := 0.0
	for _, comp := range comps {
		used := p.placeComponent(comp)
		for _, id := range comp {
			n, _ := t.Node(id)
			sz := sizes[id]
			level := lv.ByID[id]
			pos := NodePosition{
				ID:     id,
				Name:   n.Name,
				Gender: n.Gender,
				Level:  level,
				Slot:   p.slot[id],
				X:      p.slot[id]*column + offset,
				Y:      float64(level) * opts.VerticalSpacing,
				Width:  sz.Width,
				Height: sz.Height,
			}
			snap.Nodes[id] = pos
			snap.Width = max(snap.Width, pos.X+pos.Width)
			snap.Height = max(snap.Height, pos.Y+pos.Height)
		}
		offset += float64(used) * column
	}

	snap.Edges = routeEdges(t, ix, snap.Nodes)
	return snap
}

// levelComponents runs [AssignLevels] on each component and merges the
// results. Round counts report the busiest component.
func levelComponents(comps [][]int, ix *tree.Index) Levels {
	out := Levels{ByID: make(map[int]int)}
	for _, comp := range comps {
		lv := AssignLevels(comp, ix)
		maps.Copy(out.ByID, lv.ByID)
		out.ParentPasses = max(out.ParentPasses, lv.ParentPasses)
		out.SpouseRounds = max(out.SpouseRounds, lv.SpouseRounds)
		out.SiblingRounds = max(out.SiblingRounds, lv.SiblingRounds)
	}
	return out
}

// =============================================================================
// Snapshot Serialization
// =============================================================================

// MarshalSnapshot serializes a Snapshot to pretty-printed JSON bytes.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalSnapshot deserializes JSON bytes into a Snapshot.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if s.Nodes == nil {
		s.Nodes = make(map[int]NodePosition)
	}
	return s, nil
}

// WriteSnapshotFile writes a Snapshot to a JSON file.
func WriteSnapshotFile(s Snapshot, path string) error {
	data, err := MarshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

package editor

import (
	"slices"

	"github.com/matzehuels/kintree/pkg/tree"
)

// MaxSelection is the number of people a selection can hold.
const MaxSelection = 2

// Selection is the ordered set of at most two selected people. Order
// matters: for a parent relation the first selected person is the parent.
type Selection struct {
	ids []int
}

// IDs returns a copy of the selected IDs in click order.
func (s *Selection) IDs() []int { return slices.Clone(s.ids) }

// Len returns the number of selected people.
func (s *Selection) Len() int { return len(s.ids) }

// Contains reports whether id is selected.
func (s *Selection) Contains(id int) bool { return slices.Contains(s.ids, id) }

// Single returns the selected person when exactly one is selected.
func (s *Selection) Single() (int, bool) {
	if len(s.ids) != 1 {
		return 0, false
	}
	return s.ids[0], true
}

// Pair returns the selected people when exactly two are selected.
func (s *Selection) Pair() (int, int, bool) {
	if len(s.ids) != MaxSelection {
		return 0, 0, false
	}
	return s.ids[0], s.ids[1], true
}

// Click toggles id. Clicking a selected person deselects it; clicking a
// third person starts a new selection holding only that person.
func (s *Selection) Click(id int) {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return
	}
	if len(s.ids) >= MaxSelection {
		s.ids = s.ids[:0]
	}
	s.ids = append(s.ids, id)
}

// ClickEdge selects both endpoints of an edge, in the edge's stored order.
func (s *Selection) ClickEdge(id1, id2 int) {
	if id1 == id2 {
		return
	}
	s.ids = append(s.ids[:0], id1, id2)
}

// Clear empties the selection.
func (s *Selection) Clear() { s.ids = s.ids[:0] }

// Prune drops IDs that no longer exist in t.
func (s *Selection) Prune(t *tree.Tree) {
	s.ids = slices.DeleteFunc(s.ids, func(id int) bool { return !t.Has(id) })
}

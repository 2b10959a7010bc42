package editor

import (
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/tree"
)

// Mode tells the UI which control group applies to the selection.
type Mode int

const (
	// ModeNone: nothing selected.
	ModeNone Mode = iota
	// ModeSingle: one person selected; remove and gender controls apply.
	ModeSingle
	// ModePair: two people selected; relation controls apply.
	ModePair
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModePair:
		return "pair"
	default:
		return "none"
	}
}

// State describes the current selection for display.
type State struct {
	Mode     Mode
	Selected []tree.Node

	// Related is true when the selected pair already has a relation. Kind
	// is then that relation seen from the first selected person, and
	// Closeness its weight.
	Related   bool
	Kind      tree.Kind
	Closeness int
}

// Controller translates pre-resolved clicks and button presses into
// editor mutations. Actions that do not fit the current selection are
// silent no-ops, except connecting without a relation type.
type Controller struct {
	ed  *Editor
	sel Selection
}

// NewController creates a controller over ed with an empty selection.
func NewController(ed *Editor) *Controller {
	return &Controller{ed: ed}
}

// Editor returns the underlying editor.
func (c *Controller) Editor() *Editor { return c.ed }

// Selection returns the selected IDs in click order.
func (c *Controller) Selection() []int { return c.sel.IDs() }

// Click handles a click on a person.
func (c *Controller) Click(id int) {
	if !c.ed.Tree().Has(id) {
		return
	}
	c.sel.Click(id)
}

// ClickEdge handles a click on a drawn edge.
func (c *Controller) ClickEdge(id1, id2 int) {
	t := c.ed.Tree()
	if !t.Has(id1) || !t.Has(id2) {
		return
	}
	c.sel.ClickEdge(id1, id2)
}

// Deselect clears the selection.
func (c *Controller) Deselect() { c.sel.Clear() }

// Add adds a person without touching the selection.
func (c *Controller) Add(name string, gender tree.Gender) (int, layout.Snapshot, error) {
	return c.ed.AddNode(name, gender)
}

// Remove deletes the single selected person.
func (c *Controller) Remove() (layout.Snapshot, error) {
	id, ok := c.sel.Single()
	if !ok {
		return c.ed.Snapshot(), nil
	}
	snap, err := c.ed.RemoveNode(id)
	c.sel.Prune(c.ed.Tree())
	return snap, err
}

// ToggleGender flips the gender of the single selected person.
func (c *Controller) ToggleGender() (layout.Snapshot, error) {
	id, ok := c.sel.Single()
	if !ok {
		return c.ed.Snapshot(), nil
	}
	return c.ed.ToggleGender(id)
}

// Connect relates the selected pair. The first selected person is the
// parent for [tree.KindParent] and the child for [tree.KindChild]. An empty
// kind fails with [ErrNoRelationKind].
func (c *Controller) Connect(kind tree.Kind, closeness int) (layout.Snapshot, error) {
	a, b, ok := c.sel.Pair()
	if !ok {
		return c.ed.Snapshot(), nil
	}
	return c.ed.Connect(a, b, kind, closeness)
}

// Disconnect removes the relation of the selected pair.
func (c *Controller) Disconnect() (layout.Snapshot, error) {
	a, b, ok := c.sel.Pair()
	if !ok {
		return c.ed.Snapshot(), nil
	}
	return c.ed.Disconnect(a, b)
}

// ChangeKind changes the type of the selected pair's existing relation,
// interpreting kind relative to selection order.
func (c *Controller) ChangeKind(kind tree.Kind) (layout.Snapshot, error) {
	a, b, ok := c.sel.Pair()
	if !ok || kind == "" {
		return c.ed.Snapshot(), nil
	}
	return c.ed.SetRelationKind(a, b, kind)
}

// ChangeCloseness changes the closeness of the selected pair's relation.
func (c *Controller) ChangeCloseness(closeness int) (layout.Snapshot, error) {
	a, b, ok := c.sel.Pair()
	if !ok {
		return c.ed.Snapshot(), nil
	}
	return c.ed.SetCloseness(a, b, closeness)
}

// State reports which controls apply to the current selection. Stale IDs
// are pruned first.
func (c *Controller) State() State {
	t := c.ed.Tree()
	c.sel.Prune(t)

	st := State{}
	for _, id := range c.sel.IDs() {
		n, _ := t.Node(id)
		st.Selected = append(st.Selected, n)
	}

	switch c.sel.Len() {
	case 1:
		st.Mode = ModeSingle
	case MaxSelection:
		st.Mode = ModePair
		a, b, _ := c.sel.Pair()
		if r, ok := t.Relation(a, b); ok {
			st.Related = true
			st.Kind = r.KindFor(a)
			st.Closeness = r.Closeness
		}
	}
	return st
}

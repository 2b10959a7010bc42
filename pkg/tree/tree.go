package tree

import (
	"maps"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Node is a person in the tree. Generation levels and positions are derived
// by the layout pass and never stored here.
type Node struct {
	ID     int
	Name   string
	Gender Gender
}

// Tree owns the people and relations of one family tree instance.
//
// Relations are kept in registration order: the order decides which parent
// edge is honored for positioning when a child has several parents (see
// [ChooseLayoutParent]). Overwriting the relation of an existing pair keeps
// its original position.
//
// The zero value is not usable - use New. A Tree is not safe for concurrent
// use; callers serialize access per instance.
type Tree struct {
	nodes     map[int]*Node
	relations *orderedmap.OrderedMap[Key, *Relation]
	nextID    int
	policy    ParentPolicy
}

// Option configures a Tree.
type Option func(*Tree)

// WithParentPolicy replaces [ChooseLayoutParent] as the multi-parent
// conflict policy.
func WithParentPolicy(p ParentPolicy) Option {
	return func(t *Tree) {
		if p != nil {
			t.policy = p
		}
	}
}

// New creates an empty tree. The first node added gets ID 1.
func New(opts ...Option) *Tree {
	t := &Tree{
		nodes:     make(map[int]*Node),
		relations: orderedmap.New[Key, *Relation](),
		nextID:    1,
		policy:    ChooseLayoutParent,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ParentPolicy returns the policy used to pick the honored parent.
func (t *Tree) ParentPolicy() ParentPolicy { return t.policy }

// AddNode adds a person and returns its freshly allocated ID. IDs are never
// reused within a tree, even after [Tree.RemoveNode].
func (t *Tree) AddNode(name string, gender Gender) int {
	if gender != GenderFemale {
		gender = GenderMale
	}
	id := t.nextID
	t.nextID++
	t.nodes[id] = &Node{ID: id, Name: name, Gender: gender}
	return id
}

// RemoveNode deletes a person and every relation touching it, whether as
// an undirected endpoint or as a directed parent or child. Unknown IDs are
// ignored.
func (t *Tree) RemoveNode(id int) {
	if _, ok := t.nodes[id]; !ok {
		return
	}
	t.purge(func(r *Relation) bool { return r.Touches(id) })
	delete(t.nodes, id)
}

// PurgeDangling removes relations referencing people that no longer exist
// and returns how many were removed.
func (t *Tree) PurgeDangling() int {
	return t.purge(func(r *Relation) bool {
		if !t.Has(r.A) || !t.Has(r.B) {
			return true
		}
		return r.Type == RelationParent && (!t.Has(r.Parent) || !t.Has(r.Child))
	})
}

func (t *Tree) purge(match func(*Relation) bool) int {
	var doomed []Key
	for pair := t.relations.Oldest(); pair != nil; pair = pair.Next() {
		if match(pair.Value) {
			doomed = append(doomed, pair.Key)
		}
	}
	for _, k := range doomed {
		t.relations.Delete(k)
	}
	return len(doomed)
}

// Connect creates or overwrites the relation between id1 and id2.
//
// For [KindParent] id1 becomes the parent of id2; [KindChild] stores the
// inverse. Closeness is clamped to [0, 100]. Requests naming an unknown
// person or connecting a person to itself are ignored, since they come from
// stale selections. An unknown kind returns [ErrInvalidKind].
func (t *Tree) Connect(id1, id2 int, kind Kind, closeness int) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}
	if id1 == id2 || !t.Has(id1) || !t.Has(id2) {
		return nil
	}
	r := newRelation(id1, id2, kind, closeness)
	t.relations.Set(r.Key(), &r)
	return nil
}

// Disconnect removes the relation between id1 and id2, if any.
func (t *Tree) Disconnect(id1, id2 int) {
	t.relations.Delete(KeyOf(id1, id2))
}

// SetRelationKind changes the kind of an existing relation in place,
// keeping its closeness and registration position. id1 is interpreted as in
// [Tree.Connect]. It reports whether a relation existed.
func (t *Tree) SetRelationKind(id1, id2 int, kind Kind) (bool, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return false, err
	}
	r, ok := t.relations.Get(KeyOf(id1, id2))
	if !ok {
		return false, nil
	}
	applyKind(r, id1, id2, kind)
	return true, nil
}

// SetCloseness updates the closeness of an existing relation and reports
// whether one existed.
func (t *Tree) SetCloseness(id1, id2, closeness int) bool {
	r, ok := t.relations.Get(KeyOf(id1, id2))
	if !ok {
		return false
	}
	r.Closeness = ClampCloseness(closeness)
	return true
}

// ToggleGender flips the gender of a person. Unknown IDs are ignored.
func (t *Tree) ToggleGender(id int) {
	if n, ok := t.nodes[id]; ok {
		n.Gender = n.Gender.Toggle()
	}
}

// Rename changes the display name of a person. Unknown IDs are ignored.
func (t *Tree) Rename(id int, name string) {
	if n, ok := t.nodes[id]; ok {
		n.Name = name
	}
}

// Clear removes every person and relation and restarts ID allocation at 1.
func (t *Tree) Clear() {
	t.nodes = make(map[int]*Node)
	t.relations = orderedmap.New[Key, *Relation]()
	t.nextID = 1
}

// Load replaces the tree content with the given records verbatim, keeping
// their IDs and relation order. Records are not cross-checked: relations may
// reference missing people, which every reader of the tree skips. ID
// allocation resumes after the largest loaded ID.
func (t *Tree) Load(nodes []Node, relations []Relation) {
	t.Clear()
	for _, n := range nodes {
		n := n
		t.nodes[n.ID] = &n
		t.nextID = max(t.nextID, n.ID+1)
	}
	for _, r := range relations {
		r := r
		r.Closeness = ClampCloseness(r.Closeness)
		t.relations.Set(r.Key(), &r)
	}
}

// Has reports whether a person with the given ID exists.
func (t *Tree) Has(id int) bool {
	_, ok := t.nodes[id]
	return ok
}

// Node returns a copy of the person with the given ID.
func (t *Tree) Node(id int) (Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all people in ascending ID order.
func (t *Tree) Nodes() []Node {
	out := make([]Node, 0, len(t.nodes))
	for _, id := range slices.Sorted(maps.Keys(t.nodes)) {
		out = append(out, *t.nodes[id])
	}
	return out
}

// IDs returns all person IDs in ascending order.
func (t *Tree) IDs() []int { return slices.Sorted(maps.Keys(t.nodes)) }

// Relation returns a copy of the relation between a and b, in either order.
func (t *Tree) Relation(a, b int) (Relation, bool) {
	r, ok := t.relations.Get(KeyOf(a, b))
	if !ok {
		return Relation{}, false
	}
	return *r, true
}

// Relations returns copies of all relations in registration order.
func (t *Tree) Relations() []Relation {
	out := make([]Relation, 0, t.relations.Len())
	for pair := t.relations.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, *pair.Value)
	}
	return out
}

// NodeCount returns the number of people.
func (t *Tree) NodeCount() int { return len(t.nodes) }

// RelationCount returns the number of stored relations.
func (t *Tree) RelationCount() int { return t.relations.Len() }

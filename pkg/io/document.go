package io

import (
	"github.com/matzehuels/kintree/pkg/tree"
)

// Document is the persisted form of a family tree.
//
//	{
//	  "nodes": [{"id": 1, "name": "Ada", "gender": "F"}],
//	  "relationships": [{"type": "parent", "from": 1, "to": 2, "closeness": 50}]
//	}
//
// For "parent" relationships From is the parent and To the child; spouse
// and sibling pairs are unordered.
type Document struct {
	Nodes         []Node         `json:"nodes" bson:"nodes" validate:"dive"`
	Relationships []Relationship `json:"relationships" bson:"relationships" validate:"dive"`

	// Entity is set instead of Nodes and Relationships when the source was
	// a single-entity document carrying only a name. Such documents add
	// one person to the existing tree rather than replacing it.
	Entity string `json:"-" bson:"-"`
}

// Node is one person in a [Document].
type Node struct {
	ID     int    `json:"id" bson:"id"`
	Name   string `json:"name" bson:"name"`
	Gender string `json:"gender,omitempty" bson:"gender,omitempty" validate:"omitempty,oneof=M F m f"`
}

// Relationship is one relation in a [Document]. A missing closeness
// imports as [tree.DefaultCloseness].
type Relationship struct {
	Type      string `json:"type" bson:"type" validate:"required,oneof=parent spouse sibling"`
	From      int    `json:"from" bson:"from"`
	To        int    `json:"to" bson:"to"`
	Closeness *int   `json:"closeness,omitempty" bson:"closeness,omitempty"`
}

// IsEntity reports whether d is a single-entity document.
func (d Document) IsEntity() bool { return d.Entity != "" }

// Apply loads d into t and returns the IDs allocated for the imported
// people, in document order.
//
// A full document replaces everything in t: the tree is cleared, ID
// allocation restarts at 1 and document IDs are remapped to the fresh ones.
// Relationships naming an unknown document ID are dropped. A single-entity
// document adds one person and leaves the rest of t untouched.
func (d Document) Apply(t *tree.Tree) []int {
	if d.IsEntity() {
		return []int{t.AddNode(d.Entity, tree.GenderMale)}
	}

	t.Clear()
	ids := make([]int, 0, len(d.Nodes))
	remap := make(map[int]int, len(d.Nodes))
	for _, n := range d.Nodes {
		g, err := tree.ParseGender(n.Gender)
		if err != nil {
			g = tree.GenderMale
		}
		id := t.AddNode(n.Name, g)
		remap[n.ID] = id
		ids = append(ids, id)
	}

	for _, r := range d.Relationships {
		from, okFrom := remap[r.From]
		to, okTo := remap[r.To]
		if !okFrom || !okTo {
			continue
		}
		closeness := tree.DefaultCloseness
		if r.Closeness != nil {
			closeness = *r.Closeness
		}
		// Types were validated on parse; stored types are valid kinds.
		_ = t.Connect(from, to, tree.Kind(r.Type), closeness)
	}
	return ids
}

// Export converts t into a full [Document]. People are listed in ascending
// ID order and relationships in registration order.
func Export(t *tree.Tree) Document {
	doc := Document{
		Nodes:         make([]Node, 0, t.NodeCount()),
		Relationships: make([]Relationship, 0, t.RelationCount()),
	}
	for _, n := range t.Nodes() {
		doc.Nodes = append(doc.Nodes, Node{ID: n.ID, Name: n.Name, Gender: string(n.Gender)})
	}
	for _, r := range t.Relations() {
		closeness := r.Closeness
		rel := Relationship{Type: string(r.Type), From: r.A, To: r.B, Closeness: &closeness}
		if r.Type == tree.RelationParent {
			rel.From, rel.To = r.Parent, r.Child
		}
		doc.Relationships = append(doc.Relationships, rel)
	}
	return doc
}

// Restore loads a document previously produced by [Export] into t,
// keeping its IDs and relationship order. Unlike [Document.Apply] nothing
// is remapped, so IDs held by clients stay valid across a save and reload.
// Relationships of unknown type are skipped.
func (d Document) Restore(t *tree.Tree) {
	nodes := make([]tree.Node, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		g, err := tree.ParseGender(n.Gender)
		if err != nil {
			g = tree.GenderMale
		}
		nodes = append(nodes, tree.Node{ID: n.ID, Name: n.Name, Gender: g})
	}

	relations := make([]tree.Relation, 0, len(d.Relationships))
	for _, r := range d.Relationships {
		typ := tree.RelationType(r.Type)
		if !typ.Valid() {
			continue
		}
		rel := tree.Relation{A: r.From, B: r.To, Type: typ, Closeness: tree.DefaultCloseness}
		if r.Closeness != nil {
			rel.Closeness = *r.Closeness
		}
		if typ == tree.RelationParent {
			rel.Parent, rel.Child = r.From, r.To
		}
		relations = append(relations, rel)
	}
	t.Load(nodes, relations)
}

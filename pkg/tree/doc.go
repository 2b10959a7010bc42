// Package tree holds the people and relations of a family tree.
//
// # Overview
//
// A [Tree] owns its people ([Node]) and the typed [Relation] between any two
// of them. Relations are keyed by the unordered pair of node IDs, so there is
// at most one relation per pair and connecting a pair again overwrites the
// old relation:
//
//	t := tree.New()
//	alice := t.AddNode("Alice", tree.GenderFemale)
//	carol := t.AddNode("Carol", tree.GenderFemale)
//	_ = t.Connect(alice, carol, tree.KindParent, tree.DefaultCloseness)
//
// Three relation types are stored: parent (directed), spouse and sibling.
// A child request is stored as a parent relation with the direction swapped.
//
// # Stale IDs
//
// Operations naming people that do not exist are silent no-ops. Selections
// held by a user interface can outlive the people they point at, and a
// removal or import must never turn into a failure on the next click.
// Removing a person cascades to every relation touching it.
//
// # Resolving Relations
//
// [BuildIndex] turns the relation list into adjacency lists for a layout
// pass. When a child has several parents, only one parent edge is honored
// for positioning; the choice is made by a pluggable [ParentPolicy]
// ([ChooseLayoutParent] by default). [Components] splits the people into
// connected groups that are laid out side by side.
//
// # Concurrency
//
// Tree instances are not safe for concurrent use. Each instance is owned by
// one editor, which runs every mutation to completion before the next.
package tree

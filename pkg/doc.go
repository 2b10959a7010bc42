// Package pkg holds the libraries behind kintree, a family tree editor and
// layout engine.
//
// # Overview
//
// The packages fall into three groups:
//
//  1. Domain: [tree] stores people and relationships, [layout] places them
//     in generations, and [editor] applies edits and tracks selection.
//  2. Formats: [io] reads and writes JSON documents, and [render] turns a
//     layout into SVG, PDF, PNG or Graphviz output.
//  3. Infrastructure: [storage] persists trees, [config] loads settings,
//     [observability] exposes hooks, [errors] carries error codes, and
//     [buildinfo] reports the version.
//
// # Data flow
//
//	JSON document
//	     ↓
//	 [io] package (parse, apply)
//	     ↓
//	 [tree] package (people + relations)
//	     ↓
//	 [layout] package (levels, coordinates, edges)
//	     ↓
//	 [render] package (SVG/PDF/PNG/DOT)
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/kintree/pkg/layout"
//	    "github.com/matzehuels/kintree/pkg/render/svg"
//	    "github.com/matzehuels/kintree/pkg/tree"
//	)
//
//	t := tree.New()
//	mom := t.AddNode("Mom", tree.GenderFemale)
//	kid := t.AddNode("Kid", tree.GenderMale)
//	_ = t.Connect(mom, kid, tree.KindParent, tree.DefaultCloseness)
//
//	snap := layout.Compute(t, layout.DefaultOptions())
//	out := svg.Render(snap)
package pkg

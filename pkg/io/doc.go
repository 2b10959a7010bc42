// Package io imports and exports family trees as JSON.
//
// # JSON Format
//
// The persisted format has two top-level arrays:
//
//	{
//	  "nodes": [
//	    {"id": 1, "name": "Ada", "gender": "F"},
//	    {"id": 2, "name": "Ben", "gender": "M"}
//	  ],
//	  "relationships": [
//	    {"type": "parent", "from": 1, "to": 2, "closeness": 70}
//	  ]
//	}
//
// For "parent" the "from" person is the parent of "to". Spouse and sibling
// pairs are unordered. Closeness ranges over 0..100 and defaults to 50.
//
// # Import
//
// [ParseImport] classifies raw bytes into a [Document]; [Document.Apply]
// loads it into a [tree.Tree]. Importing a full document replaces the tree
// and remaps IDs, so document IDs are not preserved. A document carrying
// only "char_name" or "name" is a single-entity document and adds one
// person.
//
//	doc, err := io.ImportJSON("family_tree.json")
//	if err != nil {
//	    return err
//	}
//	doc.Apply(t)
//
// # Export
//
// [Export] produces a [Document]; [WriteJSON] and [ExportJSON] write it.
// Exporting and re-importing yields the same names, relation types,
// closeness and parent direction.
package io

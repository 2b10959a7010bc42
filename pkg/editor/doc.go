// Package editor is the interaction layer between a UI and the layout core.
//
// An [Editor] owns one [tree.Tree] and recomputes the full layout after
// every mutation, returning the fresh [layout.Snapshot]. Edits are
// synchronous and run to completion; an edit issued while a layout pass is
// still running (for example from a custom measurer) fails with
// [ErrReentrant] instead of recursing.
//
// A [Controller] adds the click-driven selection model: clicks arrive
// pre-resolved to a person ID or to the endpoint pair of an edge, and
// buttons act on the current selection.
//
//	ed := editor.New(editor.WithPersona("Ada"))
//	ctl := editor.NewController(ed)
//	ctl.Click(1)
//	ctl.Click(2)
//	snap, err := ctl.Connect(tree.KindParent, 60)
package editor

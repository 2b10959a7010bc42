// Package layout computes generation levels, positions and edge paths for a
// family tree.
//
// # Overview
//
// [Compute] turns a [tree.Tree] into a [Snapshot]: one [NodePosition] per
// person and one [Edge] per live relation. The pass is recomputed from
// scratch after every edit; trees are expected to hold tens of people.
//
// # Levels
//
// [AssignLevels] runs three phases in a fixed order:
//
//  1. Parent propagation. Every child is pushed to one level below its
//     parent until a full pass changes nothing.
//  2. Spouse equalization. The lower spouse of a pair is raised to the
//     higher one together with its descendants and any spouse left below.
//  3. Sibling equalization. Both siblings move to the higher level; their
//     descendants stay where they are.
//
// Each connected component is leveled on its own. Levels never exceed the
// component's size minus one, which keeps parent cycles such as A→B→C→A
// from looping forever. A spouse pair that cannot be equalized, because
// raising one spouse lifts the other through a parent edge, is left
// unequal after one raise.
//
// # Positions
//
// Each connected component is placed independently. Roots (people without
// an honored parent, see [tree.ChooseLayoutParent]) are visited by level,
// root couples side by side, and every subtree is laid out children first:
// leaves take the next free column slot, parents sit centered over their
// children. Slots and levels are then scaled to pixels:
//
//	x = slot * (widest node + HorizontalMargin) + component offset
//	y = level * VerticalSpacing
//
// # Edges
//
// Parent edges are drawn as orthogonal elbows from the parent's bottom
// center to the child's top center. Spouse and sibling edges are straight
// lines between centers, siblings dashed. Stroke width grows linearly with
// closeness, see [StrokeWidth].
package layout

package layout

import "github.com/matzehuels/kintree/pkg/tree"

// Levels is the generation assignment of one layout pass.
type Levels struct {
	// ByID maps a person to its generation, 0 being the top tier.
	ByID map[int]int
	// ParentPasses counts full scans of the parent edges, including the
	// final scan that changed nothing.
	ParentPasses  int
	SpouseRounds  int
	SiblingRounds int
}

// leveler carries the mutable state of level assignment. Levels only ever
// increase and never exceed ceiling, which bounds every loop below.
type leveler struct {
	ix      *tree.Index
	ids     []int
	level   map[int]int
	ceiling int
}

// AssignLevels computes generation levels for ids, which should form one
// connected component. Relations reaching outside ids are ignored.
//
// The phases run in a fixed order, since later phases read the levels
// produced by earlier ones:
//  1. Parent propagation: fixed-point passes raising every child to one
//     below its parent.
//  2. Spouse equalization: the lower spouse is raised to the higher one,
//     dragging its descendants and its other spouses along. A pair whose
//     raise lifts the higher spouse too can never be equal and is left as is.
//  3. Sibling equalization: both siblings move to the higher level; only
//     their spouses come along.
//
// Levels are capped at len(ids)-1 so contradictory input such as a parent
// cycle still converges.
func AssignLevels(ids []int, ix *tree.Index) Levels {
	l := newLeveler(ids, ix)
	out := Levels{}
	out.ParentPasses = l.propagateParents()
	out.SpouseRounds = l.equalizeSpouses()
	out.SiblingRounds = l.equalizeSiblings()
	out.ByID = l.level
	return out
}

func newLeveler(ids []int, ix *tree.Index) *leveler {
	l := &leveler{
		ix:      ix,
		ids:     ids,
		level:   make(map[int]int, len(ids)),
		ceiling: max(len(ids)-1, 0),
	}
	for _, id := range ids {
		l.level[id] = 0
	}
	return l
}

// covers reports whether both ends of a relation belong to this pass.
func (l *leveler) covers(a, b int) bool {
	_, okA := l.level[a]
	_, okB := l.level[b]
	return okA && okB
}

func (l *leveler) propagateParents() int {
	limit := len(l.ids) + 1
	passes := 0
	for passes < limit {
		passes++
		if !l.parentPass() {
			break
		}
	}
	return passes
}

// parentPass scans every parent edge once and reports whether any child
// was raised.
func (l *leveler) parentPass() bool {
	changed := false
	for _, e := range l.ix.ParentEdges {
		parent, child := e[0], e[1]
		if !l.covers(parent, child) {
			continue
		}
		want := min(l.level[parent]+1, l.ceiling)
		if want > l.level[child] {
			l.level[child] = want
			changed = true
		}
	}
	return changed
}

// equalizeSpouses repeats over all spouse pairs until none differ. A raise
// can unbalance a pair handled earlier in the same round, hence the rounds.
// A pair whose raise reaches the higher spouse is skipped from then on.
func (l *leveler) equalizeSpouses() int {
	stuck := make(map[[2]int]bool)
	rounds := 0
	for {
		rounds++
		changed := false
		for _, p := range l.ix.SpousePairs {
			a, b := p[0], p[1]
			if stuck[p] || !l.covers(a, b) {
				continue
			}
			la, lb := l.level[a], l.level[b]
			if la == lb {
				continue
			}
			lower, higher, delta := a, b, lb-la
			if la > lb {
				lower, higher, delta = b, a, la-lb
			}
			raised, hit := l.raise(lower, higher, delta)
			if raised {
				changed = true
			}
			if hit {
				stuck[p] = true
			}
		}
		if !changed {
			return rounds
		}
	}
}

type raiseItem struct {
	id    int
	delta int
}

// raise lifts start by delta together with every descendant reachable over
// parent edges, pulling up any spouse left below a raised person. Each
// person is raised at most once per call. hit reports whether target was
// lifted along the way.
func (l *leveler) raise(start, target, delta int) (changed, hit bool) {
	queue := []raiseItem{{start, delta}}
	seen := make(map[int]bool)

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if seen[it.id] || it.delta <= 0 {
			continue
		}
		seen[it.id] = true

		old := l.level[it.id]
		next := min(old+it.delta, l.ceiling)
		if next == old {
			continue
		}
		l.level[it.id] = next
		changed = true
		if it.id == target {
			hit = true
		}

		applied := next - old
		for _, c := range l.ix.AllChildren[it.id] {
			queue = append(queue, raiseItem{c, applied})
		}
		for _, s := range l.ix.Spouses[it.id] {
			if gap := next - l.level[s]; gap > 0 {
				queue = append(queue, raiseItem{s, gap})
			}
		}
	}
	return changed, hit
}

func (l *leveler) equalizeSiblings() int {
	rounds := 0
	for {
		rounds++
		changed := false
		for _, p := range l.ix.SiblingPairs {
			a, b := p[0], p[1]
			if !l.covers(a, b) || l.level[a] == l.level[b] {
				continue
			}
			top := max(l.level[a], l.level[b])
			l.lift(a, top)
			l.lift(b, top)
			changed = true
		}
		if !changed {
			return rounds
		}
	}
}

// lift sets id and its spouse group to at least level.
func (l *leveler) lift(id, level int) {
	queue := []int{id}
	seen := map[int]bool{id: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if l.level[cur] < level {
			l.level[cur] = level
		}
		for _, s := range l.ix.Spouses[cur] {
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
}

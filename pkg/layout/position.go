package layout

import (
	"slices"

	"github.com/matzehuels/kintree/pkg/tree"
)

// placer assigns horizontal slots within one component. Slots are abstract
// column units; the caller scales them to pixels.
type placer struct {
	ix     *tree.Index
	levels map[int]int
	slot   map[int]float64
	placed map[int]bool
	active map[int]bool
	cursor int
}

func newPlacer(ix *tree.Index, levels map[int]int) *placer {
	return &placer{
		ix:     ix,
		levels: levels,
		slot:   make(map[int]float64),
		placed: make(map[int]bool),
		active: make(map[int]bool),
	}
}

// placeComponent lays out comp starting at slot 0 and returns the number of
// slots it consumed, trailing gap included.
//
// Roots (people without an honored parent) are visited by ascending level,
// ties keeping component order. A root whose first root-level spouse is
// still unplaced is placed together with that spouse so the couple ends up
// side by side. Every root group is followed by one empty gap slot. People
// caught in a parent cycle have no root above them; they are placed last as
// additional roots.
func (p *placer) placeComponent(comp []int) int {
	p.cursor = 0

	isRoot := make(map[int]bool, len(comp))
	var roots []int
	for _, id := range comp {
		if _, ok := p.ix.HonoredParent(id); !ok {
			isRoot[id] = true
			roots = append(roots, id)
		}
	}
	p.sortByLevel(roots)

	for _, root := range roots {
		if p.placed[root] {
			continue
		}
		if spouse, ok := p.rootSpouse(root, isRoot); ok && !p.placed[spouse] {
			p.place(root)
			p.place(spouse)
		} else {
			p.place(root)
		}
		p.cursor++
	}

	var stranded []int
	for _, id := range comp {
		if !p.placed[id] {
			stranded = append(stranded, id)
		}
	}
	p.sortByLevel(stranded)
	for _, id := range stranded {
		if p.placed[id] {
			continue
		}
		p.place(id)
		p.cursor++
	}

	return p.cursor
}

func (p *placer) sortByLevel(ids []int) {
	slices.SortStableFunc(ids, func(a, b int) int {
		return p.levels[a] - p.levels[b]
	})
}

// rootSpouse returns the first spouse of root that is itself a root.
func (p *placer) rootSpouse(root int, isRoot map[int]bool) (int, bool) {
	for _, s := range p.ix.Spouses[root] {
		if isRoot[s] {
			return s, true
		}
	}
	return 0, false
}

// place positions id after its honored children (post-order). A person
// without placeable children takes the next free slot; otherwise it sits at
// the midpoint of its children's outermost slots and consumes no slot.
func (p *placer) place(id int) {
	if p.placed[id] || p.active[id] {
		return
	}
	p.active[id] = true

	lo, hi := 0.0, 0.0
	n := 0
	for _, c := range p.ix.Children[id] {
		if p.placed[c] || p.active[c] {
			continue
		}
		p.place(c)
		x := p.slot[c]
		if n == 0 || x < lo {
			lo = x
		}
		if n == 0 || x > hi {
			hi = x
		}
		n++
	}

	if n == 0 {
		p.slot[id] = float64(p.cursor)
		p.cursor++
	} else {
		p.slot[id] = (lo + hi) / 2
	}

	delete(p.active, id)
	p.placed[id] = true
}

func sortRow(row []NodePosition) {
	slices.SortFunc(row, func(a, b NodePosition) int {
		switch {
		case a.X < b.X:
			return -1
		case a.X > b.X:
			return 1
		}
		return a.ID - b.ID
	})
}

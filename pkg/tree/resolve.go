package tree

// ParentPolicy picks the single parent edge honored for positioning when a
// child has several. candidates holds the child's existing parents in
// registration order and is never empty; the result must be one of them.
type ParentPolicy func(child int, candidates []int) int

// ChooseLayoutParent is the default policy: the first registered parent
// wins. Later parent edges stay stored and drawable but do not move the child.
func ChooseLayoutParent(_ int, candidates []int) int { return candidates[0] }

// MostRecentParent honors the most recently registered parent instead.
func MostRecentParent(_ int, candidates []int) int { return candidates[len(candidates)-1] }

// Index is the adjacency view of a tree used by one layout pass. Every slice
// is in relation registration order and only references existing people;
// relations with a dangling endpoint are skipped.
type Index struct {
	// Parents maps a child to all of its parents.
	Parents map[int][]int
	// Honored maps a child to the parent chosen by the tree's policy.
	Honored map[int]int
	// Children maps a parent to the children that honor it.
	Children map[int][]int
	// AllChildren maps a parent to every child, honored or not.
	AllChildren map[int][]int
	Spouses     map[int][]int
	Siblings    map[int][]int
	// Neighbors is the undirected union of every relation.
	Neighbors map[int][]int

	// ParentEdges, SpousePairs and SiblingPairs list each live relation once.
	// Parent edges are (parent, child).
	ParentEdges  [][2]int
	SpousePairs  [][2]int
	SiblingPairs [][2]int
}

// BuildIndex scans the relations of t once and precomputes the adjacency
// lists consumed by level assignment and positioning.
func BuildIndex(t *Tree) *Index {
	ix := &Index{
		Parents:     make(map[int][]int),
		Honored:     make(map[int]int),
		Children:    make(map[int][]int),
		AllChildren: make(map[int][]int),
		Spouses:     make(map[int][]int),
		Siblings:    make(map[int][]int),
		Neighbors:   make(map[int][]int),
	}

	for pair := t.relations.Oldest(); pair != nil; pair = pair.Next() {
		r := pair.Value
		if r.A == r.B || !t.Has(r.A) || !t.Has(r.B) {
			continue
		}
		switch r.Type {
		case RelationParent:
			if !t.Has(r.Parent) || !t.Has(r.Child) || r.Parent == r.Child {
				continue
			}
			ix.Parents[r.Child] = append(ix.Parents[r.Child], r.Parent)
			ix.AllChildren[r.Parent] = append(ix.AllChildren[r.Parent], r.Child)
			ix.ParentEdges = append(ix.ParentEdges, [2]int{r.Parent, r.Child})
		case RelationSpouse:
			ix.Spouses[r.A] = append(ix.Spouses[r.A], r.B)
			ix.Spouses[r.B] = append(ix.Spouses[r.B], r.A)
			ix.SpousePairs = append(ix.SpousePairs, [2]int{r.A, r.B})
		case RelationSibling:
			ix.Siblings[r.A] = append(ix.Siblings[r.A], r.B)
			ix.Siblings[r.B] = append(ix.Siblings[r.B], r.A)
			ix.SiblingPairs = append(ix.SiblingPairs, [2]int{r.A, r.B})
		default:
			continue
		}
		ix.Neighbors[r.A] = append(ix.Neighbors[r.A], r.B)
		ix.Neighbors[r.B] = append(ix.Neighbors[r.B], r.A)
	}

	policy := t.policy
	for child, parents := range ix.Parents {
		ix.Honored[child] = resolveParent(policy, child, parents)
	}
	for _, e := range ix.ParentEdges {
		if ix.Honored[e[1]] == e[0] {
			ix.Children[e[0]] = append(ix.Children[e[0]], e[1])
		}
	}
	return ix
}

// resolveParent applies policy and falls back to the first candidate when
// the policy answers with someone who is not a candidate.
func resolveParent(policy ParentPolicy, child int, candidates []int) int {
	if len(candidates) == 1 || policy == nil {
		return candidates[0]
	}
	chosen := policy(child, candidates)
	for _, c := range candidates {
		if c == chosen {
			return chosen
		}
	}
	return candidates[0]
}

// HonoredParent returns the parent a child is positioned under.
func (ix *Index) HonoredParent(child int) (int, bool) {
	p, ok := ix.Honored[child]
	return p, ok
}

// IsHonored reports whether the parent edge parent→child drives positioning.
func (ix *Index) IsHonored(parent, child int) bool {
	p, ok := ix.Honored[child]
	return ok && p == parent
}

// Components partitions the people of t into connected groups using a
// breadth-first traversal over every relation, treating parent edges as
// bidirectional. Groups are seeded in ascending ID order and list their
// members in visit order.
func Components(t *Tree, ix *Index) [][]int {
	visited := make(map[int]bool, t.NodeCount())
	var comps [][]int

	for _, seed := range t.IDs() {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		comp := []int{}
		queue := []int{seed}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			comp = append(comp, id)
			for _, next := range ix.Neighbors[id] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

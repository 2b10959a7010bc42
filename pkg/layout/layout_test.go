package layout

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/kintree/pkg/tree"
)

func levelsOf(s Snapshot) map[int]int {
	out := make(map[int]int, len(s.Nodes))
	for id, p := range s.Nodes {
		out[id] = p.Level
	}
	return out
}

func mustConnect(t *testing.T, tr *tree.Tree, a, b int, kind tree.Kind) {
	t.Helper()
	if err := tr.Connect(a, b, kind, tree.DefaultCloseness); err != nil {
		t.Fatalf("Connect(%d, %d, %s): %v", a, b, kind, err)
	}
}

func TestComputeCoupleWithChild(t *testing.T) {
	tr := tree.New()
	alice := tr.AddNode("Alice", tree.GenderFemale)
	bob := tr.AddNode("Bob", tree.GenderMale)
	carol := tr.AddNode("Carol", tree.GenderFemale)
	mustConnect(t, tr, alice, carol, tree.KindParent)
	mustConnect(t, tr, alice, bob, tree.KindSpouse)

	s := Compute(tr, DefaultOptions())

	want := map[int]int{alice: 0, bob: 0, carol: 1}
	if diff := cmp.Diff(want, levelsOf(s)); diff != "" {
		t.Errorf("levels mismatch (-want +got):\n%s", diff)
	}

	a, b, c := s.Nodes[alice], s.Nodes[bob], s.Nodes[carol]
	if d := b.Slot - a.Slot; d != 1 && d != -1 {
		t.Errorf("Alice slot %v and Bob slot %v are not adjacent", a.Slot, b.Slot)
	}
	if c.Slot != a.Slot {
		t.Errorf("Alice should sit over her only child: slot %v, child slot %v", a.Slot, c.Slot)
	}
	if c.Y != DefaultVerticalSpacing {
		t.Errorf("Carol.Y = %v, want %v", c.Y, DefaultVerticalSpacing)
	}

	// Every name here fits the minimum width, so a column is 80+40.
	if b.X != 120 {
		t.Errorf("Bob.X = %v, want 120", b.X)
	}
}

func TestComputeEdges(t *testing.T) {
	tr := tree.New()
	alice := tr.AddNode("Alice", tree.GenderFemale)
	bob := tr.AddNode("Bob", tree.GenderMale)
	carol := tr.AddNode("Carol", tree.GenderFemale)
	dan := tr.AddNode("Dan", tree.GenderMale)
	mustConnect(t, tr, alice, carol, tree.KindParent)
	if err := tr.Connect(alice, bob, tree.KindSpouse, 100); err != nil {
		t.Fatal(err)
	}
	if err := tr.Connect(carol, dan, tree.KindSibling, 0); err != nil {
		t.Fatal(err)
	}

	s := Compute(tr, DefaultOptions())
	if len(s.Edges) != 3 {
		t.Fatalf("got %d edges, want 3", len(s.Edges))
	}

	parent := s.Edges[0]
	wantPoints := []Point{{40, 40}, {40, 80}, {40, 80}, {40, 120}}
	if diff := cmp.Diff(wantPoints, parent.Points); diff != "" {
		t.Errorf("elbow mismatch (-want +got):\n%s", diff)
	}
	if parent.Parent != alice || parent.Child != carol || !parent.Honored {
		t.Errorf("parent edge = %+v", parent)
	}
	if parent.StrokeWidth != 2.5 {
		t.Errorf("StrokeWidth = %v, want 2.5", parent.StrokeWidth)
	}

	spouse := s.Edges[1]
	if spouse.ID1 != alice || spouse.ID2 != bob {
		t.Errorf("spouse endpoints = (%d, %d), want (%d, %d)", spouse.ID1, spouse.ID2, alice, bob)
	}
	if len(spouse.Points) != 2 || spouse.Dash != "" || spouse.StrokeWidth != 4 {
		t.Errorf("spouse edge = %+v", spouse)
	}

	sibling := s.Edges[2]
	if sibling.Dash != SiblingDash || sibling.StrokeWidth != 1 || s.Nodes[dan].Level != 1 {
		t.Errorf("sibling edge = %+v", sibling)
	}
}

func TestStrokeWidth(t *testing.T) {
	tests := []struct {
		closeness int
		want      float64
	}{
		{0, 1},
		{50, 2.5},
		{100, 4},
		{-20, 1},
		{250, 4},
	}
	for _, tt := range tests {
		if got := StrokeWidth(tt.closeness); got != tt.want {
			t.Errorf("StrokeWidth(%d) = %v, want %v", tt.closeness, got, tt.want)
		}
	}
}

func TestSpouseEqualization(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T, tr *tree.Tree)
		want  map[int]int
	}{
		{
			name: "in-law pulled down",
			build: func(t *testing.T, tr *tree.Tree) {
				mustConnect(t, tr, 1, 2, tree.KindParent)
				mustConnect(t, tr, 2, 3, tree.KindSpouse)
			},
			want: map[int]int{1: 0, 2: 1, 3: 1, 4: 0},
		},
		{
			name: "descendants follow",
			build: func(t *testing.T, tr *tree.Tree) {
				mustConnect(t, tr, 1, 2, tree.KindParent)
				mustConnect(t, tr, 3, 4, tree.KindParent)
				mustConnect(t, tr, 2, 3, tree.KindSpouse)
			},
			want: map[int]int{1: 0, 2: 1, 3: 1, 4: 2},
		},
		{
			name: "spouse chain",
			build: func(t *testing.T, tr *tree.Tree) {
				mustConnect(t, tr, 1, 2, tree.KindParent)
				mustConnect(t, tr, 2, 3, tree.KindSpouse)
				mustConnect(t, tr, 3, 4, tree.KindSpouse)
			},
			want: map[int]int{1: 0, 2: 1, 3: 1, 4: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tree.New()
			for range 4 {
				tr.AddNode("p", tree.GenderMale)
			}
			tt.build(t, tr)
			got := levelsOf(Compute(tr, DefaultOptions()))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("levels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSiblingEqualization(t *testing.T) {
	tr := tree.New()
	for range 6 {
		tr.AddNode("p", tree.GenderFemale)
	}
	mustConnect(t, tr, 1, 2, tree.KindParent)
	mustConnect(t, tr, 3, 6, tree.KindParent)
	mustConnect(t, tr, 3, 4, tree.KindSpouse)
	mustConnect(t, tr, 2, 3, tree.KindSibling)

	got := levelsOf(Compute(tr, DefaultOptions()))
	want := map[int]int{
		1: 0,
		2: 1,
		3: 1, // lifted to its sibling
		4: 1, // spouse comes along
		5: 0, // unrelated
		6: 1, // descendants stay put
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("levels mismatch (-want +got):\n%s", diff)
	}
}

func TestParentCycleTerminates(t *testing.T) {
	tr := tree.New()
	for range 3 {
		tr.AddNode("c", tree.GenderMale)
	}
	mustConnect(t, tr, 1, 2, tree.KindParent)
	mustConnect(t, tr, 2, 3, tree.KindParent)
	mustConnect(t, tr, 3, 1, tree.KindParent)

	s := Compute(tr, DefaultOptions())
	if len(s.Nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(s.Nodes))
	}
	if s.Stats.ParentPasses > tr.NodeCount()+1 {
		t.Errorf("ParentPasses = %d, want <= %d", s.Stats.ParentPasses, tr.NodeCount()+1)
	}
	for id, p := range s.Nodes {
		if p.Level < 0 || p.Level >= tr.NodeCount() {
			t.Errorf("node %d level %d out of range", id, p.Level)
		}
	}

	again := Compute(tr, DefaultOptions())
	if diff := cmp.Diff(s, again); diff != "" {
		t.Errorf("layout not deterministic (-first +second):\n%s", diff)
	}
}

func TestParentPassesMonotonic(t *testing.T) {
	tr := tree.New()
	for range 5 {
		tr.AddNode("m", tree.GenderMale)
	}
	mustConnect(t, tr, 4, 5, tree.KindParent)
	mustConnect(t, tr, 3, 4, tree.KindParent)
	mustConnect(t, tr, 2, 3, tree.KindParent)
	mustConnect(t, tr, 1, 2, tree.KindParent)
	mustConnect(t, tr, 5, 1, tree.KindParent)

	ix := tree.BuildIndex(tr)
	l := newLeveler(tr.IDs(), ix)
	prev := map[int]int{}
	passes := 0
	for {
		passes++
		changed := l.parentPass()
		for id, lv := range l.level {
			if lv < prev[id] {
				t.Fatalf("pass %d lowered node %d from %d to %d", passes, id, prev[id], lv)
			}
			prev[id] = lv
		}
		if !changed {
			break
		}
		if passes > tr.NodeCount()+1 {
			t.Fatalf("no fixed point after %d passes", passes)
		}
	}
}

func TestDanglingRelationIgnored(t *testing.T) {
	tr := tree.New()
	tr.Load(
		[]tree.Node{{ID: 1, Name: "A", Gender: tree.GenderMale}, {ID: 2, Name: "B", Gender: tree.GenderFemale}},
		[]tree.Relation{
			{A: 1, B: 2, Type: tree.RelationSpouse, Closeness: 50},
			{A: 1, B: 9, Type: tree.RelationParent, Closeness: 50, Parent: 1, Child: 9},
		},
	)

	s := Compute(tr, DefaultOptions())
	if _, ok := s.Nodes[9]; ok {
		t.Error("snapshot references missing node 9")
	}
	if len(s.Edges) != 1 {
		t.Errorf("got %d edges before purge, want 1", len(s.Edges))
	}

	if n := tr.PurgeDangling(); n != 1 {
		t.Errorf("PurgeDangling() = %d, want 1", n)
	}
	s = Compute(tr, DefaultOptions())
	for _, e := range s.Edges {
		if e.ID1 == 9 || e.ID2 == 9 {
			t.Errorf("edge %+v references removed node", e)
		}
	}
}

func TestComponentsDoNotOverlap(t *testing.T) {
	tr := tree.New()
	a := tr.AddNode("X", tree.GenderMale)
	b := tr.AddNode("Y", tree.GenderMale)

	s := Compute(tr, DefaultOptions())
	if s.Stats.Components != 2 {
		t.Fatalf("Components = %d, want 2", s.Stats.Components)
	}
	// One slot plus the trailing gap per component.
	if got := s.Nodes[b].X - s.Nodes[a].X; got != 240 {
		t.Errorf("component offset = %v, want 240", got)
	}
	if s.Width != 320 || s.Height != DefaultNodeHeight {
		t.Errorf("bounds = %vx%v, want 320x%v", s.Width, s.Height, DefaultNodeHeight)
	}
}

func TestSecondParentNotHonored(t *testing.T) {
	tr := tree.New()
	for range 3 {
		tr.AddNode("p", tree.GenderFemale)
	}
	mustConnect(t, tr, 1, 3, tree.KindParent)
	mustConnect(t, tr, 2, 3, tree.KindParent)

	s := Compute(tr, DefaultOptions())
	honored := map[tree.Key]bool{}
	for _, e := range s.Edges {
		honored[e.Key] = e.Honored
	}
	want := map[tree.Key]bool{"1_3": true, "2_3": false}
	if diff := cmp.Diff(want, honored); diff != "" {
		t.Errorf("honored mismatch (-want +got):\n%s", diff)
	}
	if s.Nodes[3].Slot != s.Nodes[1].Slot {
		t.Errorf("child should sit under its first parent")
	}
}

func TestMeasurer(t *testing.T) {
	tr := tree.New()
	tr.AddNode("Maximilian Fitzgerald", tree.GenderMale)
	tr.AddNode("Al", tree.GenderMale)

	s := Compute(tr, DefaultOptions())
	long := s.Nodes[1].Width
	if long <= DefaultMinNodeWidth {
		t.Errorf("long name width = %v, want > %v", long, DefaultMinNodeWidth)
	}
	if s.Nodes[2].Width != DefaultMinNodeWidth {
		t.Errorf("short name width = %v, want %v", s.Nodes[2].Width, DefaultMinNodeWidth)
	}

	opts := DefaultOptions()
	opts.Measure = func(tree.Node) Size { return Size{Width: 10, Height: 10} }
	s = Compute(tr, opts)
	if s.Nodes[2].X != 2*(10+DefaultHorizontalMargin) {
		t.Errorf("custom measurer X = %v", s.Nodes[2].X)
	}
}

func TestZeroOptionsUseDefaults(t *testing.T) {
	tr := tree.New()
	mom := tr.AddNode("Mom", tree.GenderFemale)
	kid := tr.AddNode("Kid", tree.GenderMale)
	tr.AddNode("Aunt", tree.GenderFemale)
	mustConnect(t, tr, mom, kid, tree.KindParent)

	want := Compute(tr, DefaultOptions())
	got := Compute(tr, Options{})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("zero Options differ from defaults (-want +got):\n%s", diff)
	}

	negative := Options{HorizontalMargin: -1, NodePadding: -5}
	if diff := cmp.Diff(want, Compute(tr, negative)); diff != "" {
		t.Errorf("negative spacing not replaced (-want +got):\n%s", diff)
	}
}

// Generation-consistent random trees must end with every spouse and sibling
// pair on the same level.
// randomGenerations builds a tree whose relations agree with a hidden
// generation per person: parents sit one generation above their children,
// spouses and siblings share one.
func randomGenerations(rng *rand.Rand) *tree.Tree {
	tr := tree.New()
	n := 2 + rng.IntN(10)
	gen := make(map[int]int, n)
	for range n {
		gen[tr.AddNode("r", tree.GenderMale)] = rng.IntN(4)
	}
	for range rng.IntN(2 * n) {
		a, b := 1+rng.IntN(n), 1+rng.IntN(n)
		switch gen[b] - gen[a] {
		case 0:
			kind := tree.KindSpouse
			if rng.IntN(2) == 0 {
				kind = tree.KindSibling
			}
			_ = tr.Connect(a, b, kind, rng.IntN(101))
		case 1:
			_ = tr.Connect(a, b, tree.KindParent, rng.IntN(101))
		}
	}
	return tr
}

func TestEqualityHoldsOnRandomTrees(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 42))

	for round := range 200 {
		tr := randomGenerations(rng)
		s := Compute(tr, DefaultOptions())
		if len(s.Nodes) != tr.NodeCount() {
			t.Fatalf("round %d: %d nodes placed, want %d", round, len(s.Nodes), tr.NodeCount())
		}
		for _, r := range tr.Relations() {
			if r.Type == tree.RelationParent {
				continue
			}
			if la, lb := s.Nodes[r.A].Level, s.Nodes[r.B].Level; la != lb {
				t.Errorf("round %d: %s %d-%d on levels %d and %d", round, r.Type, r.A, r.B, la, lb)
			}
		}
	}
}

func TestArbitraryInputConverges(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 11))
	kinds := []tree.Kind{tree.KindParent, tree.KindChild, tree.KindSpouse, tree.KindSibling}

	for round := range 200 {
		tr := tree.New()
		n := 2 + rng.IntN(10)
		for range n {
			tr.AddNode("r", tree.GenderMale)
		}
		for range rng.IntN(2 * n) {
			a, b := 1+rng.IntN(n), 1+rng.IntN(n)
			_ = tr.Connect(a, b, kinds[rng.IntN(len(kinds))], rng.IntN(101))
		}

		s := Compute(tr, DefaultOptions())
		for _, r := range tr.Relations() {
			if r.Type != tree.RelationSibling {
				continue
			}
			if la, lb := s.Nodes[r.A].Level, s.Nodes[r.B].Level; la != lb {
				t.Errorf("round %d: sibling %d-%d on levels %d and %d", round, r.A, r.B, la, lb)
			}
		}

		before := levelsOf(s)
		for range 5 {
			tr.AddNode("loner", tree.GenderFemale)
		}
		after := levelsOf(Compute(tr, DefaultOptions()))
		for id, lv := range before {
			if after[id] != lv {
				t.Errorf("round %d: node %d moved from level %d to %d after adding isolated people", round, id, lv, after[id])
			}
		}
	}
}

func TestContradictorySpousesStayLocal(t *testing.T) {
	build := func(extra int) *tree.Tree {
		tr := tree.New()
		a := tr.AddNode("A", tree.GenderFemale)
		b := tr.AddNode("B", tree.GenderMale)
		c := tr.AddNode("C", tree.GenderMale)
		mustConnect(t, tr, a, b, tree.KindSpouse)
		mustConnect(t, tr, b, c, tree.KindParent)
		mustConnect(t, tr, a, c, tree.KindSpouse)
		for range extra {
			tr.AddNode("loner", tree.GenderFemale)
		}
		return tr
	}

	want := map[int]int{1: 1, 2: 1, 3: 2}
	for _, extra := range []int{0, 20} {
		s := Compute(build(extra), DefaultOptions())
		got := levelsOf(s)
		for id := 4; id <= 3+extra; id++ {
			if got[id] != 0 {
				t.Errorf("extra=%d: isolated node %d on level %d, want 0", extra, id, got[id])
			}
			delete(got, id)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("extra=%d: levels mismatch (-want +got):\n%s", extra, diff)
		}
		if s.Stats.SpouseRounds != 2 {
			t.Errorf("extra=%d: SpouseRounds = %d, want 2", extra, s.Stats.SpouseRounds)
		}
		if wantH := 2*DefaultVerticalSpacing + DefaultNodeHeight; s.Height != wantH {
			t.Errorf("extra=%d: Height = %v, want %v", extra, s.Height, wantH)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	tr := tree.New()
	tr.AddNode("Ada", tree.GenderFemale)
	tr.AddNode("Ben", tree.GenderMale)
	mustConnect(t, tr, 1, 2, tree.KindParent)

	s := Compute(tr, DefaultOptions())
	data, err := MarshalSnapshot(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := UnmarshalSnapshot([]byte("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestSnapshotLevels(t *testing.T) {
	tr := tree.New()
	for range 3 {
		tr.AddNode("n", tree.GenderMale)
	}
	mustConnect(t, tr, 1, 2, tree.KindParent)
	mustConnect(t, tr, 1, 3, tree.KindParent)

	rows := Compute(tr, DefaultOptions()).Levels()
	if len(rows) != 2 || len(rows[0]) != 1 || len(rows[1]) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[1][0].ID != 2 || rows[1][1].ID != 3 {
		t.Errorf("second row order = %d, %d", rows[1][0].ID, rows[1][1].ID)
	}
}

package tree

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/kintree/pkg/errors"
)

func TestAddNode(t *testing.T) {
	tr := New()
	a := tr.AddNode("Alice", GenderFemale)
	b := tr.AddNode("Bob", "")
	if a != 1 || b != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", a, b)
	}
	n, ok := tr.Node(b)
	if !ok {
		t.Fatal("node Bob not found")
	}
	if n.Gender != GenderMale {
		t.Errorf("gender = %q, want %q", n.Gender, GenderMale)
	}

	tr.RemoveNode(b)
	if c := tr.AddNode("Carol", GenderFemale); c != 3 {
		t.Errorf("id after removal = %d, want 3 (ids are never reused)", c)
	}
}

func TestKeyIsOrderIndependent(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
	}{
		{"Parent", KindParent},
		{"Child", KindChild},
		{"Spouse", KindSpouse},
		{"Sibling", KindSibling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			a := tr.AddNode("A", GenderMale)
			b := tr.AddNode("B", GenderFemale)
			if err := tr.Connect(b, a, tt.kind, 70); err != nil {
				t.Fatalf("Connect: %v", err)
			}
			r1, ok1 := tr.Relation(a, b)
			r2, ok2 := tr.Relation(b, a)
			if !ok1 || !ok2 {
				t.Fatal("relation not found in both orders")
			}
			if r1.Key() != KeyOf(a, b) || r1.Key() != "1_2" {
				t.Errorf("key = %q, want 1_2", r1.Key())
			}
			if diff := cmp.Diff(r1, r2); diff != "" {
				t.Errorf("lookup differs by order (-ab +ba):\n%s", diff)
			}
		})
	}
}

func TestConnectDirection(t *testing.T) {
	tr := New()
	p := tr.AddNode("Parent", GenderFemale)
	c := tr.AddNode("Child", GenderMale)

	if err := tr.Connect(c, p, KindChild, 50); err != nil {
		t.Fatal(err)
	}
	r, _ := tr.Relation(p, c)
	if r.Type != RelationParent || r.Parent != p || r.Child != c {
		t.Errorf("child request stored as %+v, want parent %d child %d", r, p, c)
	}
	if r.A != c || r.B != p {
		t.Errorf("pair = (%d, %d), want argument order (%d, %d)", r.A, r.B, c, p)
	}
	if got := r.KindFor(p); got != KindParent {
		t.Errorf("KindFor(parent) = %q, want parent", got)
	}
	if got := r.KindFor(c); got != KindChild {
		t.Errorf("KindFor(child) = %q, want child", got)
	}
}

func TestConnectOverwrites(t *testing.T) {
	tr := New()
	a := tr.AddNode("A", GenderMale)
	b := tr.AddNode("B", GenderFemale)
	c := tr.AddNode("C", GenderFemale)

	_ = tr.Connect(a, b, KindParent, 10)
	_ = tr.Connect(a, c, KindSibling, 20)
	_ = tr.Connect(b, a, KindSpouse, 250)

	if got := tr.RelationCount(); got != 2 {
		t.Fatalf("relations = %d, want 2", got)
	}
	rels := tr.Relations()
	if rels[0].Type != RelationSpouse {
		t.Errorf("first relation = %q, want spouse (overwrite keeps position)", rels[0].Type)
	}
	if rels[0].Parent != 0 || rels[0].Child != 0 {
		t.Errorf("spouse kept parent fields: %+v", rels[0])
	}
	if rels[0].Closeness != MaxCloseness {
		t.Errorf("closeness = %d, want clamped %d", rels[0].Closeness, MaxCloseness)
	}
}

func TestConnectIgnoresStaleIDs(t *testing.T) {
	tr := New()
	a := tr.AddNode("A", GenderMale)

	tests := []struct {
		name string
		id1  int
		id2  int
	}{
		{"UnknownSecond", a, 99},
		{"UnknownFirst", 99, a},
		{"SelfLoop", a, a},
		{"Zero", 0, a},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tr.Connect(tt.id1, tt.id2, KindSpouse, 50); err != nil {
				t.Fatalf("Connect: %v", err)
			}
			if tr.RelationCount() != 0 {
				t.Errorf("relations = %d, want 0", tr.RelationCount())
			}
		})
	}
}

func TestConnectInvalidKind(t *testing.T) {
	tr := New()
	a := tr.AddNode("A", GenderMale)
	b := tr.AddNode("B", GenderMale)

	err := tr.Connect(a, b, Kind("cousin"), 50)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, errors.ErrCodeInvalidRelation) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidRelation)
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	tr := New()
	a := tr.AddNode("A", GenderMale)
	b := tr.AddNode("B", GenderFemale)
	c := tr.AddNode("C", GenderMale)
	d := tr.AddNode("D", GenderFemale)

	_ = tr.Connect(a, b, KindSpouse, 50)
	_ = tr.Connect(a, c, KindParent, 50)
	_ = tr.Connect(d, b, KindChild, 50)
	_ = tr.Connect(c, d, KindSibling, 50)

	tr.RemoveNode(b)

	for _, r := range tr.Relations() {
		if r.Touches(b) {
			t.Errorf("relation %+v still references removed node %d", r, b)
		}
	}
	if got := tr.RelationCount(); got != 2 {
		t.Errorf("relations = %d, want 2", got)
	}

	tr.RemoveNode(b)
	tr.RemoveNode(42)
	if got := tr.NodeCount(); got != 3 {
		t.Errorf("nodes = %d, want 3", got)
	}
}

func TestDisconnect(t *testing.T) {
	tr := New()
	a := tr.AddNode("A", GenderMale)
	b := tr.AddNode("B", GenderFemale)
	_ = tr.Connect(a, b, KindSpouse, 50)

	tr.Disconnect(b, a)
	if tr.RelationCount() != 0 {
		t.Errorf("relations = %d, want 0", tr.RelationCount())
	}
	tr.Disconnect(a, b)
}

func TestSetRelationKind(t *testing.T) {
	tr := New()
	a := tr.AddNode("A", GenderMale)
	b := tr.AddNode("B", GenderFemale)
	_ = tr.Connect(a, b, KindSpouse, 30)

	ok, err := tr.SetRelationKind(a, b, KindChild)
	if err != nil || !ok {
		t.Fatalf("SetRelationKind = %v, %v", ok, err)
	}
	r, _ := tr.Relation(a, b)
	want := Relation{A: a, B: b, Type: RelationParent, Closeness: 30, Parent: b, Child: a}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("relation mismatch (-want +got):\n%s", diff)
	}

	ok, _ = tr.SetRelationKind(a, b, KindSibling)
	r, _ = tr.Relation(a, b)
	if !ok || r.Type != RelationSibling || r.Parent != 0 || r.Child != 0 {
		t.Errorf("sibling switch = %+v", r)
	}

	if ok, _ := tr.SetRelationKind(a, 9, KindSpouse); ok {
		t.Error("SetRelationKind on missing pair reported true")
	}
	if _, err := tr.SetRelationKind(a, b, ""); err == nil {
		t.Error("empty kind accepted")
	}
}

func TestSetCloseness(t *testing.T) {
	tr := New()
	a := tr.AddNode("A", GenderMale)
	b := tr.AddNode("B", GenderFemale)
	_ = tr.Connect(a, b, KindSpouse, 30)

	if !tr.SetCloseness(b, a, -5) {
		t.Fatal("SetCloseness reported missing relation")
	}
	r, _ := tr.Relation(a, b)
	if r.Closeness != 0 {
		t.Errorf("closeness = %d, want 0", r.Closeness)
	}
}

func TestToggleGenderAndRename(t *testing.T) {
	tr := New()
	a := tr.AddNode("A", GenderMale)
	tr.ToggleGender(a)
	tr.Rename(a, "Ann")
	tr.ToggleGender(7)
	n, _ := tr.Node(a)
	if n.Gender != GenderFemale || n.Name != "Ann" {
		t.Errorf("node = %+v", n)
	}
}

func TestLoadAndPurgeDangling(t *testing.T) {
	tr := New()
	tr.Load(
		[]Node{{ID: 3, Name: "C", Gender: GenderMale}, {ID: 5, Name: "E", Gender: GenderFemale}},
		[]Relation{
			{A: 3, B: 5, Type: RelationSpouse, Closeness: 50},
			{A: 5, B: 8, Type: RelationParent, Parent: 5, Child: 8, Closeness: 50},
		},
	)
	if got := tr.RelationCount(); got != 2 {
		t.Fatalf("relations = %d, want 2", got)
	}
	if n := tr.PurgeDangling(); n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	if id := tr.AddNode("F", GenderMale); id != 6 {
		t.Errorf("next id = %d, want 6", id)
	}
}

func TestClear(t *testing.T) {
	tr := New()
	a := tr.AddNode("A", GenderMale)
	b := tr.AddNode("B", GenderMale)
	_ = tr.Connect(a, b, KindSibling, 50)
	tr.Clear()
	if tr.NodeCount() != 0 || tr.RelationCount() != 0 {
		t.Errorf("after Clear: %d nodes, %d relations", tr.NodeCount(), tr.RelationCount())
	}
	if id := tr.AddNode("C", GenderMale); id != 1 {
		t.Errorf("id after Clear = %d, want 1", id)
	}
}

func TestParseGender(t *testing.T) {
	tests := []struct {
		in      string
		want    Gender
		wantErr bool
	}{
		{"M", GenderMale, false},
		{"f", GenderFemale, false},
		{"", GenderMale, false},
		{"x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGender(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

package tree

import (
	"fmt"
	"strings"

	"github.com/matzehuels/kintree/pkg/errors"
)

// Gender is the binary gender marker shown on a person node.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// ParseGender accepts "M" or "F" in any case. An empty string defaults to
// [GenderMale], matching how new people are created.
func ParseGender(s string) (Gender, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "M":
		return GenderMale, nil
	case "F":
		return GenderFemale, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "invalid gender %q (want M or F)", s)
	}
}

// Toggle returns the opposite gender.
func (g Gender) Toggle() Gender {
	if g == GenderFemale {
		return GenderMale
	}
	return GenderFemale
}

// Symbol returns the display glyph for the gender.
func (g Gender) Symbol() string {
	if g == GenderFemale {
		return "♀"
	}
	return "♂"
}

// RelationType is the stored type of a relation. Child requests are
// normalized to [RelationParent] with the direction swapped.
type RelationType string

const (
	RelationParent  RelationType = "parent"
	RelationSpouse  RelationType = "spouse"
	RelationSibling RelationType = "sibling"
)

// Valid reports whether t is one of the three stored relation types.
func (t RelationType) Valid() bool {
	switch t {
	case RelationParent, RelationSpouse, RelationSibling:
		return true
	}
	return false
}

// Kind is a relation request as issued by a caller: the first argument of
// [Tree.Connect] is the parent of the second ([KindParent]), the child of
// the second ([KindChild]), or an undirected spouse or sibling.
type Kind string

const (
	KindParent  Kind = "parent"
	KindChild   Kind = "child"
	KindSpouse  Kind = "spouse"
	KindSibling Kind = "sibling"
)

// ErrInvalidKind is returned when a relation request names an unknown kind.
var ErrInvalidKind = errors.New(errors.ErrCodeInvalidRelation, "invalid relation kind")

// ParseKind parses a relation request kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindParent, KindChild, KindSpouse, KindSibling:
		return k, nil
	}
	return "", errors.Wrap(errors.ErrCodeInvalidRelation, ErrInvalidKind, "unknown relation kind %q", s)
}

// Closeness bounds and default.
const (
	MinCloseness     = 0
	MaxCloseness     = 100
	DefaultCloseness = 50
)

// ClampCloseness forces c into [MinCloseness, MaxCloseness].
func ClampCloseness(c int) int {
	return max(MinCloseness, min(MaxCloseness, c))
}

// Key identifies the unordered pair of node IDs a relation belongs to.
// The smaller ID always comes first, so KeyOf(a, b) == KeyOf(b, a).
type Key string

// KeyOf returns the canonical key for the pair (a, b).
func KeyOf(a, b int) Key {
	if a > b {
		a, b = b, a
	}
	return Key(fmt.Sprintf("%d_%d", a, b))
}

// Relation connects two people. A and B keep the argument order of the
// connect call that created the relation; Parent and Child are only set for
// [RelationParent].
type Relation struct {
	A, B      int
	Type      RelationType
	Closeness int
	Parent    int
	Child     int
}

// Key returns the canonical pair key of the relation.
func (r Relation) Key() Key { return KeyOf(r.A, r.B) }

// Touches reports whether the relation references id as any endpoint.
func (r Relation) Touches(id int) bool {
	if r.A == id || r.B == id {
		return true
	}
	return r.Type == RelationParent && (r.Parent == id || r.Child == id)
}

// Other returns the endpoint opposite to id, or 0 if id is not an endpoint.
func (r Relation) Other(id int) int {
	switch id {
	case r.A:
		return r.B
	case r.B:
		return r.A
	}
	return 0
}

// KindFor reports the request kind that reproduces this relation when
// id1 is passed first. Parent relations answer [KindParent] when id1 is the
// parent and [KindChild] otherwise.
func (r Relation) KindFor(id1 int) Kind {
	switch r.Type {
	case RelationParent:
		if r.Parent == id1 {
			return KindParent
		}
		return KindChild
	case RelationSpouse:
		return KindSpouse
	default:
		return KindSibling
	}
}

// newRelation builds the stored form of a relation request.
func newRelation(id1, id2 int, kind Kind, closeness int) Relation {
	r := Relation{A: id1, B: id2, Closeness: ClampCloseness(closeness)}
	applyKind(&r, id1, id2, kind)
	return r
}

func applyKind(r *Relation, id1, id2 int, kind Kind) {
	r.Parent, r.Child = 0, 0
	switch kind {
	case KindParent:
		r.Type, r.Parent, r.Child = RelationParent, id1, id2
	case KindChild:
		r.Type, r.Parent, r.Child = RelationParent, id2, id1
	case KindSpouse:
		r.Type = RelationSpouse
	case KindSibling:
		r.Type = RelationSibling
	}
}

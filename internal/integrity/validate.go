package integrity

import (
	"fmt"
	"strings"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
)

// Change describes the links a member is about to declare. MemberID is zero
// for a member that does not exist yet.
type Change struct {
	MemberID uint
	Gender   string
	Parents  []uint
	Children []uint
	Spouse   *uint
}

type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error carries every violation found for one change
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return strings.Join(msgs, "; ")
}

// Validate checks a change against the snapshot and returns an *Error when
// any rule is broken.
func (g *Graph) Validate(ch Change) error {
	var vs []Violation
	add := func(rule, format string, args ...interface{}) {
		vs = append(vs, Violation{Rule: rule, Message: fmt.Sprintf(format, args...)})
	}

	parents, children := setOf(ch.Parents), setOf(ch.Children)
	refs := append(append([]uint{}, ch.Parents...), ch.Children...)
	if ch.Spouse != nil {
		refs = append(refs, *ch.Spouse)
	}

	for _, id := range refs {
		if ch.MemberID != 0 && id == ch.MemberID {
			add("self_reference", "a member cannot be related to itself")
			break
		}
	}

	for _, id := range setOf(refs).sorted() {
		if _, ok := g.nodes[id]; !ok {
			add("unknown_member", "member %d is not part of this family tree", id)
		}
	}

	for _, id := range parents.sorted() {
		if children.has(id) {
			add("parent_child_overlap", "%s cannot be both a parent and a child", g.name(id))
		}
	}

	if ch.Spouse != nil && (parents.has(*ch.Spouse) || children.has(*ch.Spouse)) {
		add("spouse_is_relative", "%s cannot be both spouse and parent or child", g.name(*ch.Spouse))
	}

	if len(vs) > 0 {
		return &Error{Violations: vs}
	}

	next := g.with(ch.MemberID, ch.Gender, ch.Parents, ch.Children, ch.Spouse)

	for _, p := range parents.sorted() {
		for _, sib := range next.Siblings(p) {
			if sib != ch.MemberID && children.has(sib) {
				add("child_is_parents_sibling", "%s is a sibling of parent %s and cannot be a child", g.name(sib), g.name(p))
			}
		}
	}

	spouses := next.Spouses(ch.MemberID)
	for _, s := range spouses {
		if !genderCompatible(ch.Gender, g.nodes[s].Gender) {
			add("spouse_gender", "%s must have the opposite gender to be a spouse", g.name(s))
		}
	}
	if ch.Spouse != nil {
		for _, s := range next.Spouses(*ch.Spouse) {
			if s != ch.MemberID {
				add("spouse_taken", "%s is already the spouse of %s", g.name(*ch.Spouse), g.name(s))
			}
		}
	}
	if len(spouses) > 1 {
		add("multiple_spouses", "a member can only have one spouse")
	}

	for _, a := range next.Ancestors(ch.MemberID) {
		if a == ch.MemberID {
			add("cycle", "these links would make the member their own ancestor")
			break
		}
	}

	if len(vs) > 0 {
		return &Error{Violations: vs}
	}
	return nil
}

// Candidates are the members that may be offered for each link kind
type Candidates struct {
	Parents  []Node `json:"parents"`
	Children []Node `json:"children"`
	Spouses  []Node `json:"spouses"`
}

// Candidates computes the selectable members for a member with the given
// gender and currently selected parents and children.
func (g *Graph) Candidates(memberID uint, gender string, parents, children []uint) Candidates {
	selParents, selChildren := setOf(parents), setOf(children)

	siblingsOfParents := set{}
	for _, p := range parents {
		for _, s := range g.Siblings(p) {
			siblingsOfParents.add(s)
		}
	}
	ancestors, descendants := set{}, set{}
	if memberID != 0 {
		ancestors = setOf(g.Ancestors(memberID))
		descendants = setOf(g.Descendants(memberID))
	}

	out := Candidates{Parents: []Node{}, Children: []Node{}, Spouses: []Node{}}
	for _, id := range g.order {
		if id == memberID {
			continue
		}
		n := g.nodes[id]

		if !selChildren.has(id) && !descendants.has(id) {
			out.Parents = append(out.Parents, n)
		}
		if !selParents.has(id) && !siblingsOfParents.has(id) && !ancestors.has(id) {
			out.Children = append(out.Children, n)
		}
		if !selParents.has(id) && !selChildren.has(id) && genderCompatible(gender, n.Gender) && g.spouseFree(id, memberID) {
			out.Spouses = append(out.Spouses, n)
		}
	}
	return out
}

func (g *Graph) spouseFree(id, memberID uint) bool {
	for _, s := range g.Spouses(id) {
		if s != memberID {
			return false
		}
	}
	return true
}

// genderCompatible is false only for two members of the same binary gender
func genderCompatible(a, b string) bool {
	binary := func(g string) bool { return g == model.GenderMale || g == model.GenderFemale }
	if binary(a) && binary(b) {
		return a != b
	}
	return true
}

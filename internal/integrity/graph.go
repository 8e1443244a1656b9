// Package integrity checks parent, child and spouse links between the members
// of one family tree before they are written.
//
// A link is declared by one member (From) towards another (To). The effective
// relations combine both directions: X is a parent of Y when Y declares X as
// parent or X declares Y as child. Spouse links are symmetric.
package integrity

import (
	"sort"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
)

type Node struct {
	ID     uint   `json:"_id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

type Edge struct {
	From uint
	To   uint
	Kind model.LinkKind
}

// Graph is an immutable snapshot of one tree's members and links
type Graph struct {
	nodes map[uint]Node
	order []uint
	edges []Edge
}

// NewGraph builds a snapshot. Links whose endpoints are not in members are kept,
// so dependencies from other trees are still reported.
func NewGraph(members []model.Member, links []model.MemberLink) *Graph {
	g := &Graph{nodes: make(map[uint]Node, len(members))}
	for _, m := range members {
		g.nodes[m.ID] = Node{ID: m.ID, Name: m.FullName(), Gender: m.Gender}
		g.order = append(g.order, m.ID)
	}
	sort.Slice(g.order, func(i, j int) bool { return g.order[i] < g.order[j] })
	for _, l := range links {
		g.edges = append(g.edges, Edge{From: l.MemberID, To: l.RelatedID, Kind: l.Kind})
	}
	return g
}

func (g *Graph) Node(id uint) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) name(id uint) string {
	if n, ok := g.nodes[id]; ok && n.Name != "" {
		return n.Name
	}
	return "unknown member"
}

// Parents returns the effective parents of id
func (g *Graph) Parents(id uint) []uint {
	s := set{}
	for _, e := range g.edges {
		switch {
		case e.Kind == model.LinkParent && e.From == id:
			s.add(e.To)
		case e.Kind == model.LinkChild && e.To == id:
			s.add(e.From)
		}
	}
	return s.sorted()
}

// Children returns the effective children of id
func (g *Graph) Children(id uint) []uint {
	s := set{}
	for _, e := range g.edges {
		switch {
		case e.Kind == model.LinkChild && e.From == id:
			s.add(e.To)
		case e.Kind == model.LinkParent && e.To == id:
			s.add(e.From)
		}
	}
	return s.sorted()
}

// Spouses returns every member linked to id as spouse, in either direction
func (g *Graph) Spouses(id uint) []uint {
	s := set{}
	for _, e := range g.edges {
		if e.Kind != model.LinkSpouse {
			continue
		}
		if e.From == id {
			s.add(e.To)
		}
		if e.To == id {
			s.add(e.From)
		}
	}
	return s.sorted()
}

// Siblings returns the members sharing at least one effective parent with id
func (g *Graph) Siblings(id uint) []uint {
	s := set{}
	for _, p := range g.Parents(id) {
		for _, c := range g.Children(p) {
			if c != id {
				s.add(c)
			}
		}
	}
	return s.sorted()
}

// Ancestors returns every member reachable through effective parents
func (g *Graph) Ancestors(id uint) []uint {
	return g.walk(id, g.Parents)
}

// Descendants returns every member reachable through effective children
func (g *Graph) Descendants(id uint) []uint {
	return g.walk(id, g.Children)
}

func (g *Graph) walk(start uint, next func(uint) []uint) []uint {
	seen := set{}
	queue := next(start)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen.has(id) {
			continue
		}
		seen.add(id)
		queue = append(queue, next(id)...)
	}
	return seen.sorted()
}

// Declared returns the links id declares itself, grouped by kind
func (g *Graph) Declared(id uint) (parents, children []uint, spouse *uint) {
	for _, e := range g.edges {
		if e.From != id {
			continue
		}
		switch e.Kind {
		case model.LinkParent:
			parents = append(parents, e.To)
		case model.LinkChild:
			children = append(children, e.To)
		case model.LinkSpouse:
			to := e.To
			spouse = &to
		}
	}
	return parents, children, spouse
}

// Dependency is a link from another member pointing at a member
type Dependency struct {
	MemberID uint           `json:"memberId"`
	Name     string         `json:"name"`
	Kind     model.LinkKind `json:"kind"`
}

// Dependencies lists the links declared by other members that point at id.
// A member with dependencies cannot be deleted.
func (g *Graph) Dependencies(id uint) []Dependency {
	var deps []Dependency
	for _, e := range g.edges {
		if e.To == id && e.From != id {
			deps = append(deps, Dependency{MemberID: e.From, Name: g.name(e.From), Kind: e.Kind})
		}
	}
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].MemberID != deps[j].MemberID {
			return deps[i].MemberID < deps[j].MemberID
		}
		return deps[i].Kind < deps[j].Kind
	})
	return deps
}

// with returns a copy of g where id declares exactly the given links
func (g *Graph) with(id uint, gender string, parents, children []uint, spouse *uint) *Graph {
	out := &Graph{nodes: make(map[uint]Node, len(g.nodes)+1), order: g.order}
	for k, v := range g.nodes {
		out.nodes[k] = v
	}
	n := out.nodes[id]
	n.ID, n.Gender = id, gender
	out.nodes[id] = n

	for _, e := range g.edges {
		if e.From != id {
			out.edges = append(out.edges, e)
		}
	}
	for _, p := range parents {
		out.edges = append(out.edges, Edge{From: id, To: p, Kind: model.LinkParent})
	}
	for _, c := range children {
		out.edges = append(out.edges, Edge{From: id, To: c, Kind: model.LinkChild})
	}
	if spouse != nil {
		out.edges = append(out.edges, Edge{From: id, To: *spouse, Kind: model.LinkSpouse})
	}
	return out
}

type set map[uint]struct{}

func (s set) add(id uint)      { s[id] = struct{}{} }
func (s set) has(id uint) bool { _, ok := s[id]; return ok }

func (s set) sorted() []uint {
	out := make([]uint, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func setOf(ids []uint) set {
	s := set{}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

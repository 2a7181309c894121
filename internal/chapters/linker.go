package chapters

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"avsser/internal/media/container"
)

// Node is one input file as seen by the linker. Files that were not probed
// carry a zero Linkage and always form singleton groups.
type Node struct {
	Path    string
	Linkage container.Linkage
}

// Member is a file placed in a group. Ordinal counts from 1.
type Member struct {
	Path    string
	Ordinal int
}

// Group is one logical presentation in play order.
type Group struct {
	Members []Member
}

// Key identifies the group; it is the path of the first segment.
func (g Group) Key() string {
	if len(g.Members) == 0 {
		return ""
	}
	return g.Members[0].Path
}

// Len returns the number of segments.
func (g Group) Len() int {
	return len(g.Members)
}

// Result partitions a batch. Every input path appears exactly once across
// Groups and Structural members.
type Result struct {
	Groups     []Group
	Structural []*StructuralError
	Dangling   []DanglingReference
}

type edge struct{ from, to int }

type graph struct {
	nodes    []Node
	succ     map[int][]int
	pred     map[int][]int
	adjacent map[int][]int
	dupUID   map[int]bool
}

// Link builds groups for a batch. Input order does not matter; output is
// deterministic, ordered by the smallest member path of each component.
func Link(input []Node) Result {
	nodes := append([]Node(nil), input...)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })

	g := &graph{
		nodes:    nodes,
		succ:     make(map[int][]int),
		pred:     make(map[int][]int),
		adjacent: make(map[int][]int),
		dupUID:   make(map[int]bool),
	}

	byUID := make(map[uuid.UUID][]int)
	for i, node := range nodes {
		if node.Linkage.HasSegment() {
			byUID[node.Linkage.SegmentUID] = append(byUID[node.Linkage.SegmentUID], i)
		}
	}
	for _, holders := range byUID {
		if len(holders) > 1 {
			for _, i := range holders {
				g.dupUID[i] = true
			}
		}
	}

	var result Result
	seen := make(map[edge]bool)
	addEdge := func(from, to int) {
		e := edge{from, to}
		if seen[e] {
			return
		}
		seen[e] = true
		g.succ[from] = append(g.succ[from], to)
		g.pred[to] = append(g.pred[to], from)
		g.adjacent[from] = append(g.adjacent[from], to)
		g.adjacent[to] = append(g.adjacent[to], from)
	}

	for i, node := range nodes {
		if uid := node.Linkage.NextUID; uid != uuid.Nil {
			targets, ok := byUID[uid]
			if !ok {
				result.Dangling = append(result.Dangling, DanglingReference{From: node.Path, Direction: DirectionNext, UID: uid})
			}
			for _, j := range targets {
				addEdge(i, j)
			}
		}
		if uid := node.Linkage.PrevUID; uid != uuid.Nil {
			targets, ok := byUID[uid]
			if !ok {
				result.Dangling = append(result.Dangling, DanglingReference{From: node.Path, Direction: DirectionPrevious, UID: uid})
			}
			for _, j := range targets {
				addEdge(j, i)
			}
		}
	}

	visited := make([]bool, len(nodes))
	for i := range nodes {
		if visited[i] {
			continue
		}
		component := g.component(i, visited)
		group, structural := g.order(component)
		if structural != nil {
			result.Structural = append(result.Structural, structural)
			continue
		}
		result.Groups = append(result.Groups, group)
	}
	return result
}

// component collects the weakly connected component containing start,
// sorted by index (and therefore by path).
func (g *graph) component(start int, visited []bool) []int {
	queue := []int{start}
	visited[start] = true
	var members []int
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		members = append(members, current)
		for _, next := range g.adjacent[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	sort.Ints(members)
	return members
}

// order turns a component into a Group, or explains why it cannot be one.
func (g *graph) order(component []int) (Group, *StructuralError) {
	paths := func(indices []int) []string {
		out := make([]string, len(indices))
		for i, idx := range indices {
			out[i] = g.nodes[idx].Path
		}
		return out
	}

	for _, i := range component {
		if g.dupUID[i] {
			uid := g.nodes[i].Linkage.SegmentUID
			return Group{}, &StructuralError{
				Kind:    StructuralDuplicate,
				Members: paths(component),
				Detail:  fmt.Sprintf("segment uid %s is carried by more than one file", hexUID(uid)),
			}
		}
	}
	for _, i := range component {
		if len(g.succ[i]) > 1 || len(g.pred[i]) > 1 {
			return Group{}, &StructuralError{
				Kind:    StructuralBranch,
				Members: paths(component),
				Detail:  fmt.Sprintf("%s has %d successors and %d predecessors", g.nodes[i].Path, len(g.succ[i]), len(g.pred[i])),
			}
		}
	}

	head := -1
	for _, i := range component {
		if len(g.pred[i]) == 0 {
			head = i
			break
		}
	}
	if head < 0 {
		return Group{}, &StructuralError{Kind: StructuralCycle, Members: paths(g.walk(component[0], len(component)))}
	}

	chain := g.walk(head, len(component))
	if len(chain) != len(component) {
		// A component with a head and degrees of at most one is a simple
		// path; reaching this means the graph was built wrong.
		return Group{}, &StructuralError{Kind: StructuralBranch, Members: paths(component), Detail: "segments unreachable from head"}
	}
	group := Group{Members: make([]Member, len(chain))}
	for pos, idx := range chain {
		group.Members[pos] = Member{Path: g.nodes[idx].Path, Ordinal: pos + 1}
	}
	return group, nil
}

// walk follows successors from start with a visited set, stopping at the
// end of the chain or on return to a visited node.
func (g *graph) walk(start, limit int) []int {
	visited := make(map[int]bool, limit)
	var chain []int
	for current := start; !visited[current]; {
		visited[current] = true
		chain = append(chain, current)
		next := g.succ[current]
		if len(next) == 0 {
			break
		}
		current = next[0]
	}
	return chain
}

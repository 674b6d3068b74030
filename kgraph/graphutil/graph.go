// Package graphutil builds a graph from extracted triples and computes its
// weakly connected components, the signal the augmentation loop uses to
// decide whether the knowledge graph still needs bridging.
package graphutil

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// stringNode labels a gonum graph.Node with the original entity name.
// gonum's graph package only knows int64 node IDs, so every node in the
// corpus needs a small wrapper like this one to carry its label; this
// follows the pattern gonum's own labeled-graph examples use.
type stringNode struct {
	id    int64
	label string
}

func (n stringNode) ID() int64 { return n.id }

// Label returns the original entity string this node represents.
func (n stringNode) Label() string { return n.label }

// TripleLike is the minimal surface graphutil needs from a triple, so this
// package doesn't import kgraph and create an import cycle.
type TripleLike interface {
	Head() string
	Tail() string
}

// Graph wraps an undirected mirror of the directed triple graph built from
// a triple set, plus the label<->id bookkeeping needed to interpret gonum's
// results.
type Graph struct {
	g        *simple.UndirectedGraph
	byLabel  map[string]stringNode
	byID     map[int64]stringNode
	nextID   int64
}

// BuildFromTriples constructs a Graph whose nodes are the distinct entity
// labels appearing as a head or tail, and whose edges connect a triple's
// head and tail (direction is discarded deliberately: component analysis
// below is for weak connectivity per spec.md §4.5/§4.7).
func BuildFromTriples[T TripleLike](triples []T) *Graph {
	gr := &Graph{
		g:       simple.NewUndirectedGraph(),
		byLabel: make(map[string]stringNode),
		byID:    make(map[int64]stringNode),
	}
	for _, t := range triples {
		head := gr.nodeFor(t.Head())
		tail := gr.nodeFor(t.Tail())
		if head.ID() == tail.ID() {
			continue
		}
		if gr.g.HasEdgeBetween(head.ID(), tail.ID()) {
			continue
		}
		gr.g.SetEdge(simple.Edge{F: head, T: tail})
	}
	return gr
}

func (gr *Graph) nodeFor(label string) stringNode {
	if n, ok := gr.byLabel[label]; ok {
		return n
	}
	n := stringNode{id: gr.nextID, label: label}
	gr.nextID++
	gr.byLabel[label] = n
	gr.byID[n.ID()] = n
	gr.g.AddNode(n)
	return n
}

// NodeCount returns the number of distinct entities in the graph.
func (gr *Graph) NodeCount() int { return gr.g.Nodes().Len() }

// Component is one weakly connected component, as a sorted-by-discovery
// list of entity labels.
type Component []string

// ConnectedComponents returns every weakly connected component of the
// graph, using gonum's topo.ConnectedComponents over the undirected mirror
// (spec.md §4.5: component count drives the augmentation loop's
// termination condition).
func (gr *Graph) ConnectedComponents() []Component {
	raw := topo.ConnectedComponents(gr.g)
	components := make([]Component, 0, len(raw))
	for _, nodes := range raw {
		comp := make(Component, 0, len(nodes))
		for _, n := range nodes {
			sn, ok := n.(stringNode)
			if !ok {
				continue
			}
			comp = append(comp, sn.Label())
		}
		components = append(components, comp)
	}
	return components
}

// ComponentCount is a convenience for callers that only need the count, not
// the membership (the common case inside the augmentation loop's
// termination check).
func (gr *Graph) ComponentCount() int {
	return len(topo.ConnectedComponents(gr.g))
}

var _ graph.Undirected = (*simple.UndirectedGraph)(nil)

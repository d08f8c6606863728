package main

import (
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/jharvey/biome-substrate/graph"
)

// diagnostics summarizes how well-formed a network's wiring is: which
// output nodes no input signal can ever reach, and how many propagation
// hops separate the furthest output from the nearest source. It is grounded
// on the teacher's neat/network/network_graph.go (Network implementing
// gonum/graph.Directed so generic graph algorithms apply), adapted to use
// graph.AsGonumGraph's adapter plus gonum/graph/traverse.BreadthFirst rather
// than a shortest-path algorithm: connection weights are signed (spec.md §3
// allows [-5, +5]), so Dijkstra's non-negative-weight requirement does not
// hold here — an unweighted reachability/depth walk is the only topology
// query that is sound over this graph.
type diagnostics struct {
	Unreachable []int
	MaxDepth    int
}

// diagnose walks forward from every gene and sensor node (the only sources a
// tick's propagation can originate from) and reports which output nodes
// never got visited, plus the longest shortest-hop-count seen to any
// visited output node.
func diagnose(n *graph.Network) diagnostics {
	g := graph.AsGonumGraph(n)

	depth := make(map[int64]int)
	var sources []int64
	for _, id := range n.GeneIDs() {
		sources = append(sources, int64(id))
	}
	for _, id := range n.SensorIDs() {
		sources = append(sources, int64(id))
	}

	for _, src := range sources {
		node := g.Node(src)
		if node == nil {
			continue
		}
		// A fresh traverser per source: BreadthFirst keeps its visited set
		// between walks, which would stop later sources re-reaching nodes.
		bf := &traverse.BreadthFirst{}
		bf.Walk(g, node, func(v gonumgraph.Node, d int) bool {
			if cur, ok := depth[v.ID()]; !ok || d < cur {
				depth[v.ID()] = d
			}
			return false
		})
	}

	var unreachable []int
	maxDepth := 0
	for _, id := range n.OutputIDs() {
		if d, ok := depth[int64(id)]; ok {
			if d > maxDepth {
				maxDepth = d
			}
		} else {
			unreachable = append(unreachable, id)
		}
	}

	return diagnostics{Unreachable: unreachable, MaxDepth: maxDepth}
}

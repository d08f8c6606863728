// Adapter exposing a *Network as a gonum/graph.Directed + graph.Weighted
// graph, so a host harness can run gonum's path/centrality/topology
// algorithms over a bibite's network for diagnostics (e.g. detecting
// modularized clusters, finding the longest dependency chain before a
// sensor reaches an output). Grounded on the teacher's
// neat/network/network_graph.go, adapted from Network implementing the
// interfaces directly (impossible here: Network.Node(int) already has an
// incompatible signature for spec.md's own node lookup) into a thin
// NetworkGraph wrapper with its own method set.
package graph

import gonumgraph "gonum.org/v1/gonum/graph"

// NetworkGraph adapts a *Network to gonum's graph.Directed and
// graph.Weighted interfaces. It holds no state of its own beyond the
// wrapped network, so it is cheap to construct per call site.
type NetworkGraph struct {
	n *Network
}

// AsGonumGraph wraps n for consumption by gonum/graph algorithms.
func AsGonumGraph(n *Network) *NetworkGraph {
	return &NetworkGraph{n: n}
}

// Node returns the node with the given id, or nil if it does not exist.
func (g *NetworkGraph) Node(id int64) gonumgraph.Node {
	node, ok := g.n.nodes[int(id)]
	if !ok {
		return nil
	}
	return node
}

// Nodes returns every node in the network.
func (g *NetworkGraph) Nodes() gonumgraph.Nodes {
	nodes := make([]gonumgraph.Node, 0, len(g.n.nodes))
	for _, node := range g.n.nodes {
		nodes = append(nodes, node)
	}
	return newNodeIterator(nodes)
}

// From returns every node directly reachable from id via an enabled
// connection.
func (g *NetworkGraph) From(id int64) gonumgraph.Nodes {
	var nodes []gonumgraph.Node
	for _, c := range g.n.connections {
		if !c.Enabled || int64(c.FromID) != id {
			continue
		}
		if to, ok := g.n.nodes[c.ToID]; ok {
			nodes = append(nodes, to)
		}
	}
	if len(nodes) == 0 {
		return gonumgraph.Empty
	}
	return newNodeIterator(nodes)
}

// To returns every node with an enabled connection directly into id.
func (g *NetworkGraph) To(id int64) gonumgraph.Nodes {
	var nodes []gonumgraph.Node
	for _, c := range g.n.connections {
		if !c.Enabled || int64(c.ToID) != id {
			continue
		}
		if from, ok := g.n.nodes[c.FromID]; ok {
			nodes = append(nodes, from)
		}
	}
	if len(nodes) == 0 {
		return gonumgraph.Empty
	}
	return newNodeIterator(nodes)
}

// HasEdgeBetween reports whether an enabled connection exists between xid
// and yid in either direction.
func (g *NetworkGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.edgeBetween(xid, yid, false) != nil
}

// HasEdgeFromTo reports whether an enabled connection runs from uid to vid.
func (g *NetworkGraph) HasEdgeFromTo(uid, vid int64) bool {
	return g.edgeBetween(uid, vid, true) != nil
}

// Edge returns the connection from uid to vid, or nil if none exists.
func (g *NetworkGraph) Edge(uid, vid int64) gonumgraph.Edge {
	if e := g.edgeBetween(uid, vid, true); e != nil {
		return e
	}
	return nil
}

// WeightedEdge returns the connection from uid to vid, or nil if none exists.
func (g *NetworkGraph) WeightedEdge(uid, vid int64) gonumgraph.WeightedEdge {
	if e := g.edgeBetween(uid, vid, true); e != nil {
		return e
	}
	return nil
}

// Weight returns the weight of the connection from xid to yid, and whether
// one exists.
func (g *NetworkGraph) Weight(xid, yid int64) (float64, bool) {
	e := g.edgeBetween(xid, yid, true)
	if e == nil {
		return 0, false
	}
	return e.Weight(), true
}

func (g *NetworkGraph) edgeBetween(uid, vid int64, directed bool) *networkEdge {
	uNode, uOk := g.n.nodes[int(uid)]
	vNode, vOk := g.n.nodes[int(vid)]
	if !uOk || !vOk {
		return nil
	}
	for _, c := range g.n.connections {
		if !c.Enabled {
			continue
		}
		if int64(c.FromID) == uid && int64(c.ToID) == vid {
			return &networkEdge{from: uNode, to: vNode, conn: c}
		}
		if !directed && int64(c.FromID) == vid && int64(c.ToID) == uid {
			return &networkEdge{from: vNode, to: uNode, conn: c}
		}
	}
	return nil
}

// networkEdge adapts a *Connection to gonum's graph.WeightedEdge.
type networkEdge struct {
	from, to gonumgraph.Node
	conn     *Connection
}

func (e *networkEdge) From() gonumgraph.Node         { return e.from }
func (e *networkEdge) To() gonumgraph.Node           { return e.to }
func (e *networkEdge) Weight() float64               { return e.conn.Weight }
func (e *networkEdge) ReversedEdge() gonumgraph.Edge { return &networkEdge{from: e.to, to: e.from, conn: e.conn} }

// nodesIterator implements gonum/graph.Nodes over a plain slice, mirroring
// the teacher's nodesIterator in neat/network/network_graph.go.
type nodesIterator struct {
	nodes []gonumgraph.Node
	index int
	curr  gonumgraph.Node
}

func newNodeIterator(nodes []gonumgraph.Node) gonumgraph.Nodes {
	return &nodesIterator{nodes: nodes}
}

func (it *nodesIterator) Next() bool {
	if it.index < len(it.nodes) {
		it.curr = it.nodes[it.index]
		it.index++
		return true
	}
	it.curr = nil
	return false
}

func (it *nodesIterator) Len() int { return len(it.nodes) - it.index }

func (it *nodesIterator) Node() gonumgraph.Node { return it.curr }

func (it *nodesIterator) Reset() {
	it.index = 0
	it.curr = nil
}

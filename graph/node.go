package graph

import (
	"fmt"

	"github.com/jharvey/biome-substrate/activation"
	"github.com/jharvey/biome-substrate/catalogue"
)

// Node is the fundamental unit of a BIOME network: depending on its affinity
// and catalogue id it plays the role of an inherited gene, a sensor, an
// output/actuator, or an evolved hidden unit — there is no separate
// genome/phenotype split (spec.md §9).
type Node struct {
	// Id is dense, unique within one network, and stable for the node's lifetime.
	Id int

	// CatalogueID is catalogue.NONE for evolved hidden nodes.
	CatalogueID catalogue.ID

	Affinity   Affinity
	Activation activation.Kind

	// Bias is the scalar parameter. For Genetic nodes this IS the gene value.
	Bias float64

	Accumulator    float64
	Output         float64
	PreviousOutput float64

	LastUpdateTick int64
}

// NewGeneticNode creates a Genetic node whose output is pinned to bias.
func NewGeneticNode(id int, catalogueID catalogue.ID, bias float64) *Node {
	return &Node{
		Id:          id,
		CatalogueID: catalogueID,
		Affinity:    Genetic,
		Activation:  activation.Identity,
		Bias:        bias,
		Output:      bias,
	}
}

// NewCatalogueNode creates a node prepopulated from a catalogue entry, as
// required by the "factory" contract of spec.md §4.3/§4.4. Catalogue and
// graph cannot both import each other, so the factory lives here, one layer
// above catalogue.Entry.
func NewCatalogueNode(id int, e catalogue.Entry, overrideBias *float64) *Node {
	bias := e.DefaultBias
	if overrideBias != nil {
		bias = *overrideBias
	}
	n := &Node{
		Id:          id,
		CatalogueID: e.ID,
		Affinity:    e.Affinity,
		Activation:  e.Activation,
		Bias:        bias,
	}
	if e.Affinity == Genetic {
		n.Output = bias
	}
	return n
}

// NewHiddenNode creates a Behavioural-affinity evolved node with no catalogue backing.
func NewHiddenNode(id int, act activation.Kind, bias float64) *Node {
	return &Node{
		Id:          id,
		CatalogueID: catalogue.NONE,
		Affinity:    Behavioural,
		Activation:  act,
		Bias:        bias,
	}
}

// IsGenetic reports whether this node is a gene cell.
func (n *Node) IsGenetic() bool {
	return n.Affinity == Genetic
}

// IsHidden reports whether this node is an evolved node with no catalogue backing.
func (n *Node) IsHidden() bool {
	return n.CatalogueID == catalogue.NONE
}

func (n *Node) String() string {
	return fmt.Sprintf("Node#%d(cat=%d aff=%s act=%d bias=%.3f out=%.3f)",
		n.Id, n.CatalogueID, n.Affinity, n.Activation, n.Bias, n.Output)
}

// ID satisfies gonum/graph.Node.
func (n *Node) ID() int64 {
	return int64(n.Id)
}

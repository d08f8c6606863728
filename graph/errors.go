package graph

import "errors"

// The error kinds of spec.md §7. Construction-time and mutation-time errors
// are surfaced to the caller and never corrupt the network; evaluation-time
// errors are recovered locally (see Evaluator.Process).
var (
	// ErrDuplicateCatalogueInstance: add_from_catalogue for an id already instantiated.
	ErrDuplicateCatalogueInstance = errors.New("graph: catalogue id already instantiated in this network")
	// ErrNotHidden: remove_hidden on a gene, sensor, output, or module-owned node.
	ErrNotHidden = errors.New("graph: node is not a removable hidden node")
	// ErrSelfLoop: add_connection with from == to.
	ErrSelfLoop = errors.New("graph: self-loops are not permitted")
	// ErrDuplicateEdge: add_connection when an edge between the same ordered pair exists, enabled or not.
	ErrDuplicateEdge = errors.New("graph: connection already exists between this ordered pair")
	// ErrNotGenetic: set_gene_value on a non-Genetic node.
	ErrNotGenetic = errors.New("graph: node is not Genetic")
	// ErrUnknownNode: an operation referenced a node id not present in the network.
	ErrUnknownNode = errors.New("graph: unknown node id")
	// ErrUnknownCatalogueID: lookup or instantiate by an id not present in the catalogue.
	ErrUnknownCatalogueID = errors.New("graph: unknown catalogue id")
)

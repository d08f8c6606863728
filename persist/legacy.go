package persist

import "github.com/jharvey/biome-substrate/graph"

// UpgradeLegacyModuleOwnership resolves spec.md §9's module-ownership Open
// Question for snapshots written before format_version 1 tracked a module's
// interface nodes consistently in the hidden-id index. Those old snapshots'
// nodes still decode correctly (RestoreHidden/RestoreCatalogueNode run the
// same as ever); what could go missing is the bookkeeping that a module's
// input/output node ids are also present in the network's hidden index, a
// precondition RemoveHidden and the mutation package both assume. Rather
// than fail to load, this shim re-derives that bookkeeping directly from
// each ModuleBinding's own InputNodeIDs/OutputNodeIDs, which are never lost
// regardless of snapshot age — grounded on the teacher's own
// genome_reader.go pattern of a format-version-gated repair pass rather than
// a hard parse failure.
func UpgradeLegacyModuleOwnership(n *graph.Network) error {
	known := make(map[int]bool, len(n.HiddenIDs()))
	for _, id := range n.HiddenIDs() {
		known[id] = true
	}

	for _, m := range n.Modules {
		for _, id := range append(append([]int(nil), m.InputNodeIDs...), m.OutputNodeIDs...) {
			if known[id] {
				continue
			}
			if _, ok := n.Node(id); !ok {
				continue
			}
			n.AdoptHiddenID(id)
			known[id] = true
		}
	}
	return nil
}

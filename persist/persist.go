// Package persist serializes and deserializes a BIOME network, per spec.md
// §6. It is grounded on the teacher's neat/genetics/genome_reader.go and
// genome_writer.go: a Reader/Writer interface pair selected by an encoding
// constant, backed by gopkg.in/yaml.v3 for the structured format, with
// catalogue ids (rather than the teacher's trait ids) as the stable
// cross-version key for every catalogue-backed node.
package persist

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jharvey/biome-substrate/activation"
	"github.com/jharvey/biome-substrate/catalogue"
	"github.com/jharvey/biome-substrate/graph"
)

// Encoding selects the wire format a Reader/Writer pair speaks.
type Encoding int

const (
	// YAMLEncoding is the canonical structured format: human-readable,
	// diffable, and the one format_version upgrades are defined against.
	YAMLEncoding Encoding = iota
)

// ErrUnsupportedEncoding is returned by NewReader/NewWriter for an
// unrecognized Encoding value.
var ErrUnsupportedEncoding = errors.New("persist: unsupported encoding")

// formatVersion is bumped whenever the on-disk shape changes in a way a
// reader must branch on. Version 0 (absent or explicit) snapshots may carry a
// per-node legacy_owner_module/legacy_owner_role pair; decodeSnapshot reads
// those fields but builds no ModuleBinding from them. For such snapshots
// UpgradeLegacyModuleOwnership only re-indexes the nodes of the snapshot's own
// Modules list as hidden nodes.
const formatVersion = 1

// snapshot is the YAML-serializable shape of one Network, naming every field
// spec.md §6 lists explicitly.
type snapshot struct {
	FormatVersion  int              `yaml:"format_version"`
	CurrentTick    int64            `yaml:"current_tick"`
	NextNodeID     int              `yaml:"next_node_id"`
	NextInnovation int64            `yaml:"next_innovation"`
	Generation     int              `yaml:"generation"`
	Fitness        float64          `yaml:"fitness"`
	Nodes          []nodeRecord     `yaml:"nodes"`
	Connections    []connRecord     `yaml:"connections"`
	Modules        []moduleRecord   `yaml:"modules,omitempty"`
	MetaTemplates  []templateRecord `yaml:"meta_templates,omitempty"`
}

// nodeRecord mirrors one Node. CatalogueID is "NONE" for an evolved hidden
// node (spec.md §6) and the decimal catalogue.ID otherwise — ids, not
// names, are the stable cross-version key spec.md names explicitly.
type nodeRecord struct {
	ID             int     `yaml:"id"`
	CatalogueID    string  `yaml:"catalogue_id"`
	Affinity       string  `yaml:"affinity"`
	Activation     string  `yaml:"activation"`
	Bias           float64 `yaml:"bias"`
	PreviousOutput float64 `yaml:"previous_output"`

	// LegacyOwnerModule/LegacyOwnerRole are only ever populated on read, and
	// only for format_version 0 snapshots predating a proper Modules list
	// (spec.md §9's Open Question). They are decoded but not turned into
	// module bindings.
	LegacyOwnerModule string `yaml:"legacy_owner_module,omitempty"`
	LegacyOwnerRole   string `yaml:"legacy_owner_role,omitempty"`
}

type connRecord struct {
	Innovation int64   `yaml:"innovation"`
	FromID     int     `yaml:"from_id"`
	ToID       int     `yaml:"to_id"`
	Weight     float64 `yaml:"weight"`
	Enabled    bool    `yaml:"enabled"`
}

type moduleRecord struct {
	DefinitionID  string             `yaml:"definition_id"`
	Type          int                `yaml:"type"`
	InputNodeIDs  []int              `yaml:"input_node_ids"`
	OutputNodeIDs []int              `yaml:"output_node_ids"`
	State         map[string]float64 `yaml:"state,omitempty"`
	Tier          int                `yaml:"tier"`
}

type templateRecord struct {
	Name    string `yaml:"name"`
	NodeIDs []int  `yaml:"node_ids"`
}

// Writer serializes a *graph.Network.
type Writer interface {
	WriteNetwork(n *graph.Network) error
}

// Reader deserializes a *graph.Network.
type Reader interface {
	ReadNetwork() (*graph.Network, error)
}

// NewWriter returns a Writer for the given encoding.
func NewWriter(w io.Writer, enc Encoding) (Writer, error) {
	switch enc {
	case YAMLEncoding:
		return &yamlWriter{w: bufio.NewWriter(w)}, nil
	default:
		return nil, ErrUnsupportedEncoding
	}
}

// NewReader returns a Reader for the given encoding.
func NewReader(r io.Reader, enc Encoding) (Reader, error) {
	switch enc {
	case YAMLEncoding:
		return &yamlReader{r: bufio.NewReader(r)}, nil
	default:
		return nil, ErrUnsupportedEncoding
	}
}

type yamlWriter struct {
	w *bufio.Writer
}

func (wr *yamlWriter) WriteNetwork(n *graph.Network) error {
	snap, err := encodeSnapshot(n)
	if err != nil {
		return errors.Wrap(err, "persist: encode network")
	}
	enc := yaml.NewEncoder(wr.w)
	if err := enc.Encode(snap); err != nil {
		return errors.Wrap(err, "persist: write YAML")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "persist: close YAML encoder")
	}
	return wr.w.Flush()
}

type yamlReader struct {
	r *bufio.Reader
}

func (rd *yamlReader) ReadNetwork() (*graph.Network, error) {
	var snap snapshot
	dec := yaml.NewDecoder(rd.r)
	if err := dec.Decode(&snap); err != nil {
		return nil, errors.Wrap(err, "persist: decode YAML")
	}
	return decodeSnapshot(&snap)
}

func encodeSnapshot(n *graph.Network) (*snapshot, error) {
	snap := &snapshot{
		FormatVersion:  formatVersion,
		CurrentTick:    n.CurrentTick,
		NextNodeID:     n.NextNodeIDPeek(),
		NextInnovation: n.NextInnovationPeek(),
		Generation:     n.Generation,
		Fitness:        n.Fitness,
	}

	allIDs := append(append(append(append([]int(nil),
		n.GeneIDs()...), n.SensorIDs()...), n.OutputIDs()...), n.HiddenIDs()...)
	for _, id := range allIDs {
		node, ok := n.Node(id)
		if !ok {
			continue
		}
		catID := "NONE"
		if node.CatalogueID != catalogue.NONE {
			if _, err := catalogue.Lookup(node.CatalogueID); err != nil {
				return nil, errors.Wrapf(err, "persist: node %d has unknown catalogue id %d", id, node.CatalogueID)
			}
			catID = strconv.Itoa(int(node.CatalogueID))
		}
		affName, err := graph.AffinityName(node.Affinity)
		if err != nil {
			return nil, errors.Wrapf(err, "persist: node %d", id)
		}
		actName, err := activation.Registry.NameOf(node.Activation)
		if err != nil {
			return nil, errors.Wrapf(err, "persist: node %d", id)
		}
		snap.Nodes = append(snap.Nodes, nodeRecord{
			ID:             id,
			CatalogueID:    catID,
			Affinity:       affName,
			Activation:     actName,
			Bias:           node.Bias,
			PreviousOutput: node.PreviousOutput,
		})
	}

	for _, c := range n.Connections() {
		snap.Connections = append(snap.Connections, connRecord{
			Innovation: c.Innovation,
			FromID:     c.FromID,
			ToID:       c.ToID,
			Weight:     c.Weight,
			Enabled:    c.Enabled,
		})
	}

	for _, m := range n.Modules {
		snap.Modules = append(snap.Modules, moduleRecord{
			DefinitionID:  m.DefinitionID,
			Type:          int(m.Type),
			InputNodeIDs:  append([]int(nil), m.InputNodeIDs...),
			OutputNodeIDs: append([]int(nil), m.OutputNodeIDs...),
			State:         m.State,
			Tier:          m.Tier,
		})
	}
	for _, t := range n.MetaTemplates {
		snap.MetaTemplates = append(snap.MetaTemplates, templateRecord{
			Name:    t.Name,
			NodeIDs: append([]int(nil), t.NodeIDs...),
		})
	}

	return snap, nil
}

// legacyNodeOwnership is one node's legacy_owner_module/legacy_owner_role
// pair as read from a format_version 0 snapshot.
type legacyNodeOwnership struct {
	NodeID       int
	DefinitionID string
	Role         string
}

func decodeSnapshot(snap *snapshot) (*graph.Network, error) {
	if snap.FormatVersion > formatVersion {
		return nil, errors.Errorf("persist: snapshot format_version %d newer than this build supports (%d)", snap.FormatVersion, formatVersion)
	}

	n := graph.NewNetwork()
	n.CurrentTick = snap.CurrentTick
	n.Generation = snap.Generation
	n.Fitness = snap.Fitness

	var legacyOwnership []legacyNodeOwnership

	for _, nr := range snap.Nodes {
		if nr.LegacyOwnerModule != "" {
			legacyOwnership = append(legacyOwnership, legacyNodeOwnership{
				NodeID:     nr.ID,
				DefinitionID: nr.LegacyOwnerModule,
				Role:       nr.LegacyOwnerRole,
			})
		}
		actKind, err := activation.Registry.KindByName(nr.Activation)
		if err != nil {
			return nil, errors.Wrapf(err, "persist: node %d", nr.ID)
		}
		affinity, err := graph.AffinityByName(nr.Affinity)
		if err != nil {
			return nil, errors.Wrapf(err, "persist: node %d", nr.ID)
		}

		if nr.CatalogueID == "NONE" {
			if err := n.RestoreHidden(nr.ID, actKind, nr.Bias, nr.PreviousOutput); err != nil {
				return nil, errors.Wrapf(err, "persist: restore hidden node %d", nr.ID)
			}
			continue
		}
		rawID, err := strconv.Atoi(nr.CatalogueID)
		if err != nil {
			return nil, errors.Wrapf(err, "persist: node %d has non-numeric catalogue_id %q", nr.ID, nr.CatalogueID)
		}
		catID := catalogue.ID(rawID)
		if _, err := catalogue.Lookup(catID); err != nil {
			return nil, errors.Wrapf(err, "persist: node %d references unknown catalogue id %d", nr.ID, catID)
		}
		if err := n.RestoreCatalogueNode(nr.ID, catID, affinity, actKind, nr.Bias, nr.PreviousOutput); err != nil {
			return nil, errors.Wrapf(err, "persist: restore catalogue node %d", nr.ID)
		}
	}

	for _, cr := range snap.Connections {
		if err := n.RestoreConnection(cr.FromID, cr.ToID, cr.Weight, cr.Innovation, cr.Enabled); err != nil {
			return nil, errors.Wrapf(err, "persist: restore connection innovation %d", cr.Innovation)
		}
	}

	for _, mr := range snap.Modules {
		state := mr.State
		if state == nil {
			state = make(map[string]float64)
		}
		n.Modules = append(n.Modules, &graph.ModuleBinding{
			DefinitionID:  mr.DefinitionID,
			Type:          graph.ModuleType(mr.Type),
			InputNodeIDs:  append([]int(nil), mr.InputNodeIDs...),
			OutputNodeIDs: append([]int(nil), mr.OutputNodeIDs...),
			State:         state,
			Tier:          mr.Tier,
		})
	}
	for _, tr := range snap.MetaTemplates {
		n.MetaTemplates = append(n.MetaTemplates, &graph.MetaTemplate{
			Name:    tr.Name,
			NodeIDs: append([]int(nil), tr.NodeIDs...),
		})
	}

	n.AdoptNextInnovation(snap.NextInnovation)
	n.AdoptNextNodeID(snap.NextNodeID)
	n.RebuildCaches()

	if snap.FormatVersion < formatVersion {
		if err := UpgradeLegacyModuleOwnership(n); err != nil {
			return nil, errors.Wrap(err, "persist: legacy module-ownership migration")
		}
	}

	return n, nil
}

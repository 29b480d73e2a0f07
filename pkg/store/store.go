// Package store owns the canonical node/edge entities of a loaded citation
// graph and the flat attribute buffers the renderer consumes.
//
// A Store is created exactly once per dataset load and lives for the
// session: entity identity (buffer indices, positions, edge ranges) is
// immutable after Load, only the visibility and emphasis buffers mutate.
//
// Sampling is asymmetric on purpose: nodes are taken as a fixed-order
// prefix of the raw input so repeated loads of the same dataset produce
// identical buffer indices, while edges are drawn from a Fisher-Yates
// shuffled subset so a thinned edge set stays representative of the whole
// graph rather than of whatever order the file happened to be written in.
package store

import (
	"math"
	"math/rand"

	"github.com/vanderheijden86/citescope/pkg/debug"
	"github.com/vanderheijden86/citescope/pkg/metrics"
	"github.com/vanderheijden86/citescope/pkg/model"
)

// verticesPerEdge is the number of edge-vertex-buffer entries one logical
// edge occupies. Straight segments need two; the range machinery supports
// longer polylines without changes elsewhere.
const verticesPerEdge = 2

// defaultEdgeColor is used when an edge's source cluster has no entry in
// the dataset color map.
var defaultEdgeColor = model.RGB{0.5, 0.5, 0.5}

// Options configures a Load.
type Options struct {
	// NodeFraction and EdgeFraction in [0,1] select how much of the raw
	// dataset is materialized. Out-of-range values are clamped.
	NodeFraction float64
	EdgeFraction float64

	// SizeMin, SizeMax and SizePower map normalized centrality to node size:
	// size = SizeMin + (SizeMax-SizeMin) * normalized^SizePower.
	SizeMin   float64
	SizeMax   float64
	SizePower float64

	// ClusterFilter restricts loading to the given clusters. Nil or empty
	// loads every cluster.
	ClusterFilter map[int]bool

	// Seed drives the edge shuffle. Fixed seeds give reproducible edge
	// subsets; tests rely on this.
	Seed int64
}

// LoadSummary aggregates per-element recoveries from a Load.
type LoadSummary struct {
	NodesLoaded      int
	EdgesLoaded      int
	MissingEndpoints int // edges skipped because an endpoint was absent
}

// Store is the canonical home of loaded entities and their buffers.
type Store struct {
	nodes []model.Node
	edges []model.Edge

	byID map[string]int // external node id -> bufferIndex

	nodeBuffers *NodeBuffers
	edgeBuffers *EdgeBuffers

	clusterColors map[int]model.RGB
	clusterLabels map[int]string

	summary LoadSummary
}

// Load turns a decoded dataset into dense buffers and identity-stable
// entities. It returns a *DataLoadError when nothing can be rendered;
// per-edge problems (missing endpoints) are recovered, counted and logged,
// never fatal.
func Load(ds *model.Dataset, opts Options) (*Store, error) {
	defer metrics.Timer(metrics.StoreLoad)()

	if ds == nil || len(ds.Nodes) == 0 {
		return nil, &DataLoadError{Reason: "empty dataset", Err: ErrEmptyDataset}
	}

	nodeFraction := clamp01(opts.NodeFraction)
	edgeFraction := clamp01(opts.EdgeFraction)

	nodesToLoad := int(math.Floor(float64(len(ds.Nodes)) * nodeFraction))
	if nodesToLoad == 0 {
		if nodeFraction == 0 {
			// Explicitly asking for nothing is not an error: an empty store
			// loads fine, there is just nothing to draw.
			return emptyStore(ds), nil
		}
		return nil, &DataLoadError{Reason: "node fraction too small", Err: ErrNoNodesSampled}
	}

	s := &Store{
		byID:          make(map[string]int, nodesToLoad),
		clusterColors: ds.ClusterColors,
		clusterLabels: ds.ClusterLabels,
	}

	s.loadNodes(ds, nodesToLoad, opts)
	if len(s.nodes) == 0 {
		// The cluster filter rejected the whole prefix.
		return nil, &DataLoadError{Reason: "no nodes matched the cluster filter", Err: ErrNoNodesSampled}
	}
	s.loadEdges(ds, edgeFraction, opts.Seed)

	debug.Log("store: loaded %d/%d nodes, %d/%d edges, %d missing endpoints",
		len(s.nodes), len(ds.Nodes), len(s.edges), len(ds.Edges), s.summary.MissingEndpoints)

	return s, nil
}

func emptyStore(ds *model.Dataset) *Store {
	return &Store{
		byID:          map[string]int{},
		nodeBuffers:   newNodeBuffers(0),
		edgeBuffers:   newEdgeBuffers(0),
		clusterColors: ds.ClusterColors,
		clusterLabels: ds.ClusterLabels,
	}
}

// loadNodes materializes the fixed-order node prefix and fills the node
// buffers. Centrality is normalized over the loaded prefix only, so the
// size curve always spans the full configured range no matter how thin
// the sample is.
func (s *Store) loadNodes(ds *model.Dataset, nodesToLoad int, opts Options) {
	buffers := newNodeBuffers(nodesToLoad)
	s.nodes = make([]model.Node, 0, nodesToLoad)

	for i := range ds.Nodes {
		if len(s.nodes) == nodesToLoad {
			break
		}
		raw := &ds.Nodes[i]
		if len(opts.ClusterFilter) > 0 && !opts.ClusterFilter[raw.Cluster] {
			continue
		}
		idx := len(s.nodes)
		color, ok := ds.ClusterColors[raw.Cluster]
		if !ok {
			color = defaultEdgeColor
		}
		s.nodes = append(s.nodes, model.Node{
			ID:          raw.ID,
			BufferIndex: idx,
			ClusterID:   raw.Cluster,
			Year:        raw.Year,
			Title:       raw.Title,
			DOI:         raw.DOI,
			Centrality:  float32(raw.Centrality), // normalized below
			Position:    model.Vec3{float32(raw.X), float32(raw.Y), float32(raw.Z)},
			Color:       color,
		})
		s.byID[raw.ID] = idx
	}

	// Fewer nodes than reserved: the cluster filter skipped part of the
	// prefix. Shrink, never pad.
	buffers.truncate(len(s.nodes))

	minC, maxC := centralityExtent(s.nodes)
	span := maxC - minC
	for i := range s.nodes {
		n := &s.nodes[i]

		normalized := float32(1)
		if span > 0 {
			normalized = (n.Centrality - minC) / span
		}
		n.Centrality = normalized

		size := opts.SizeMin + (opts.SizeMax-opts.SizeMin)*math.Pow(float64(normalized), opts.SizePower)

		copy(buffers.Position[3*i:], n.Position[:])
		copy(buffers.Color[3*i:], n.Color[:])
		buffers.Size[i] = float32(size)
		buffers.Visibility[i] = 1
	}

	s.nodeBuffers = buffers
	s.summary.NodesLoaded = len(s.nodes)
}

// loadEdges materializes a shuffled edge subset. Edges whose endpoints did
// not survive node sampling are dropped and counted; the vertex ranges of
// the survivors are contiguous and cover exactly the populated prefix of
// the edge vertex buffer.
func (s *Store) loadEdges(ds *model.Dataset, edgeFraction float64, seed int64) {
	edgesToLoad := int(math.Floor(float64(len(ds.Edges)) * edgeFraction))
	buffers := newEdgeBuffers(edgesToLoad * verticesPerEdge)
	s.edges = make([]model.Edge, 0, edgesToLoad)

	order := make([]int, len(ds.Edges))
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	for _, rawIdx := range order[:edgesToLoad] {
		raw := &ds.Edges[rawIdx]
		src, srcOK := s.byID[raw.Source]
		tgt, tgtOK := s.byID[raw.Target]
		if !srcOK || !tgtOK {
			s.summary.MissingEndpoints++
			debug.LogIf(s.summary.MissingEndpoints <= 10,
				"store: edge %s->%s references a node outside the store", raw.Source, raw.Target)
			continue
		}

		minYear, maxYear := raw.Span()
		id := len(s.edges)
		start := id * verticesPerEdge
		edge := model.Edge{
			ID:            id,
			Source:        src,
			Target:        tgt,
			MinYear:       minYear,
			MaxYear:       maxYear,
			SourceCluster: s.nodes[src].ClusterID,
			TargetCluster: s.nodes[tgt].ClusterID,
			StartIndex:    start,
			EndIndex:      start + verticesPerEdge,
		}
		s.edges = append(s.edges, edge)

		color, ok := s.clusterColors[edge.SourceCluster]
		if !ok {
			color = defaultEdgeColor
		}
		copy(buffers.Position[3*start:], s.nodes[src].Position[:])
		copy(buffers.Position[3*(start+1):], s.nodes[tgt].Position[:])
		for v := start; v < start+verticesPerEdge; v++ {
			copy(buffers.Color[3*v:], color[:])
			buffers.Visibility[v] = 1
		}
	}

	buffers.truncate(len(s.edges) * verticesPerEdge)
	s.edgeBuffers = buffers
	s.summary.EdgesLoaded = len(s.edges)
}

func centralityExtent(nodes []model.Node) (minC, maxC float32) {
	if len(nodes) == 0 {
		return 0, 0
	}
	minC, maxC = nodes[0].Centrality, nodes[0].Centrality
	for i := 1; i < len(nodes); i++ {
		c := nodes[i].Centrality
		if c < minC {
			minC = c
		}
		if c > maxC {
			maxC = c
		}
	}
	return minC, maxC
}

// NodeCount returns the number of loaded nodes.
func (s *Store) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of loaded edges.
func (s *Store) EdgeCount() int { return len(s.edges) }

// Node returns the node at the given buffer index.
func (s *Store) Node(bufferIndex int) *model.Node { return &s.nodes[bufferIndex] }

// Edge returns the edge with the given id (its position in load order).
func (s *Store) Edge(id int) *model.Edge { return &s.edges[id] }

// NodeByID resolves an external node id to its buffer index.
func (s *Store) NodeByID(id string) (int, bool) {
	idx, ok := s.byID[id]
	return idx, ok
}

// Nodes returns the dense node slice. Callers must not mutate it.
func (s *Store) Nodes() []model.Node { return s.nodes }

// Edges returns the dense edge slice. Callers must not mutate it.
func (s *Store) Edges() []model.Edge { return s.edges }

// NodeBuffers returns the node attribute buffers.
func (s *Store) NodeBuffers() *NodeBuffers { return s.nodeBuffers }

// EdgeBuffers returns the edge vertex attribute buffers.
func (s *Store) EdgeBuffers() *EdgeBuffers { return s.edgeBuffers }

// Summary returns the per-element recovery counts from the load.
func (s *Store) Summary() LoadSummary { return s.summary }

// ClusterColor returns the configured color for a cluster.
func (s *Store) ClusterColor(cluster int) (model.RGB, bool) {
	c, ok := s.clusterColors[cluster]
	return c, ok
}

// ClusterLabel returns the configured label for a cluster.
func (s *Store) ClusterLabel(cluster int) (string, bool) {
	l, ok := s.clusterLabels[cluster]
	return l, ok
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

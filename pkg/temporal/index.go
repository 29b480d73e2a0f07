// Package temporal provides the year-bucketed index that makes
// "reveal everything up to year Y" cheap.
//
// The index is built once, immediately after a store load, from a single
// pass over the loaded entities, and is read-only afterwards. Buckets are
// kept in an ordered B-tree keyed by year so range accumulation walks
// only the buckets inside the requested span, never the whole dataset.
//
// Sequential consumers (playback) should use a Cursor, which accumulates
// the monotone prefix incrementally instead of re-unioning buckets on
// every frame.
package temporal

import (
	"github.com/tidwall/btree"

	"github.com/vanderheijden86/citescope/pkg/metrics"
	"github.com/vanderheijden86/citescope/pkg/store"
)

// EdgeRef describes one indexed edge: its vertex range, the endpoint
// cluster snapshot, its year span and its endpoint buffer indices.
type EdgeRef struct {
	ID            int
	StartIndex    int
	EndIndex      int
	Source        int
	Target        int
	SourceCluster int
	TargetCluster int
	MinYear       int
	MaxYear       int
}

type nodeBucket struct {
	year    int
	indices []int // node buffer indices, in load order
}

type edgeBucket struct {
	year  int // bucket key: the edge's MinYear
	edges []EdgeRef
}

// Index maps years to the nodes and edges that first become eligible in
// that year, over a fixed configured span. Entities outside the span are
// not indexed and are therefore unreachable by temporal playback.
type Index struct {
	startYear int
	endYear   int

	nodes *btree.BTreeG[nodeBucket]
	edges *btree.BTreeG[edgeBucket]

	indexedNodes int
	indexedEdges int
}

// Build creates the index from a loaded store in one pass over its nodes
// and edges. Nodes bucket by their year; edges bucket by MinYear, the
// first year they may appear.
func Build(s *store.Store, startYear, endYear int) *Index {
	defer metrics.Timer(metrics.IndexBuild)()

	if startYear > endYear {
		startYear, endYear = endYear, startYear
	}
	idx := &Index{
		startYear: startYear,
		endYear:   endYear,
		nodes: btree.NewBTreeG[nodeBucket](func(a, b nodeBucket) bool {
			return a.year < b.year
		}),
		edges: btree.NewBTreeG[edgeBucket](func(a, b edgeBucket) bool {
			return a.year < b.year
		}),
	}

	for _, n := range s.Nodes() {
		if n.Year < startYear || n.Year > endYear {
			continue
		}
		bucket, ok := idx.nodes.Get(nodeBucket{year: n.Year})
		if !ok {
			bucket = nodeBucket{year: n.Year}
		}
		bucket.indices = append(bucket.indices, n.BufferIndex)
		idx.nodes.Set(bucket)
		idx.indexedNodes++
	}

	for _, e := range s.Edges() {
		// An edge is revealed only once its later endpoint year is in
		// range, so an edge whose MaxYear exceeds the span can never show.
		if e.MinYear < startYear || e.MaxYear > endYear {
			continue
		}
		bucket, ok := idx.edges.Get(edgeBucket{year: e.MinYear})
		if !ok {
			bucket = edgeBucket{year: e.MinYear}
		}
		bucket.edges = append(bucket.edges, EdgeRef{
			ID:            e.ID,
			StartIndex:    e.StartIndex,
			EndIndex:      e.EndIndex,
			Source:        e.Source,
			Target:        e.Target,
			SourceCluster: e.SourceCluster,
			TargetCluster: e.TargetCluster,
			MinYear:       e.MinYear,
			MaxYear:       e.MaxYear,
		})
		idx.edges.Set(bucket)
		idx.indexedEdges++
	}

	return idx
}

// Span returns the configured [startYear, endYear] range.
func (idx *Index) Span() (startYear, endYear int) {
	return idx.startYear, idx.endYear
}

// IndexedNodes returns how many nodes fell inside the span.
func (idx *Index) IndexedNodes() int { return idx.indexedNodes }

// IndexedEdges returns how many edges fell inside the span.
func (idx *Index) IndexedEdges() int { return idx.indexedEdges }

// NodesUpTo calls fn for every node whose year lies in [startYear, year],
// in year order then load order. One-shot form; sequential callers should
// prefer a Cursor.
func (idx *Index) NodesUpTo(year int, fn func(bufferIndex int) bool) {
	if year > idx.endYear {
		year = idx.endYear
	}
	idx.nodes.Ascend(nodeBucket{year: idx.startYear}, func(b nodeBucket) bool {
		if b.year > year {
			return false
		}
		for _, i := range b.indices {
			if !fn(i) {
				return false
			}
		}
		return true
	})
}

// EdgesUpTo calls fn for every edge revealed at the target year: its
// MinYear has been passed by the scan and its MaxYear does not exceed the
// target. An edge never appears before its later endpoint exists.
func (idx *Index) EdgesUpTo(year int, fn func(e EdgeRef) bool) {
	if year > idx.endYear {
		year = idx.endYear
	}
	idx.edges.Ascend(edgeBucket{year: idx.startYear}, func(b edgeBucket) bool {
		if b.year > year {
			return false
		}
		for _, e := range b.edges {
			if e.MaxYear > year {
				continue
			}
			if !fn(e) {
				return false
			}
		}
		return true
	})
}

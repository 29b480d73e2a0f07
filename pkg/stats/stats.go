// Package stats computes load-time summary insights over the loaded
// graph: cluster sizes, year extent, degree distribution and component
// structure. The CLI prints these after load and the oversized-selection
// warning compares against them.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/citescope/pkg/store"
)

// Summary holds the computed insights.
type Summary struct {
	NodeCount int
	EdgeCount int
	Density   float64

	MinYear int
	MaxYear int

	AvgDegree float64
	MaxDegree int

	// Components is the number of connected components, treating edges
	// as undirected (co-citation links have no meaningful direction here).
	Components int

	// ClusterSizes maps cluster id to node count, and Clusters lists the
	// ids largest-first for stable display.
	ClusterSizes map[int]int
	Clusters     []int
}

// Compute builds the summary in one pass over nodes plus one over edges.
func Compute(s *store.Store) Summary {
	sum := Summary{
		NodeCount:    s.NodeCount(),
		EdgeCount:    s.EdgeCount(),
		ClusterSizes: make(map[int]int),
	}
	if sum.NodeCount == 0 {
		return sum
	}

	g := simple.NewUndirectedGraph()
	sum.MinYear = s.Node(0).Year
	sum.MaxYear = sum.MinYear
	for _, n := range s.Nodes() {
		sum.ClusterSizes[n.ClusterID]++
		if n.Year < sum.MinYear {
			sum.MinYear = n.Year
		}
		if n.Year > sum.MaxYear {
			sum.MaxYear = n.Year
		}
		g.AddNode(simple.Node(n.BufferIndex))
	}

	degree := make([]int, sum.NodeCount)
	for _, e := range s.Edges() {
		if e.Source == e.Target {
			continue
		}
		degree[e.Source]++
		degree[e.Target]++
		g.SetEdge(simple.Edge{F: simple.Node(e.Source), T: simple.Node(e.Target)})
	}

	total := 0
	for _, d := range degree {
		total += d
		if d > sum.MaxDegree {
			sum.MaxDegree = d
		}
	}
	sum.AvgDegree = float64(total) / float64(sum.NodeCount)
	if sum.NodeCount > 1 {
		maxEdges := float64(sum.NodeCount) * float64(sum.NodeCount-1) / 2
		sum.Density = float64(sum.EdgeCount) / maxEdges
	}

	sum.Components = len(topo.ConnectedComponents(g))

	sum.Clusters = make([]int, 0, len(sum.ClusterSizes))
	for id := range sum.ClusterSizes {
		sum.Clusters = append(sum.Clusters, id)
	}
	sort.Slice(sum.Clusters, func(i, j int) bool {
		a, b := sum.Clusters[i], sum.Clusters[j]
		if sum.ClusterSizes[a] != sum.ClusterSizes[b] {
			return sum.ClusterSizes[a] > sum.ClusterSizes[b]
		}
		return a < b
	})
	return sum
}

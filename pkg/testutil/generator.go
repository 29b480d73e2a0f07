// Package testutil provides shared fixtures and assertions for citescope
// tests: a seeded synthetic dataset generator and t.Helper-based checks
// over buffers and visibility.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/citescope/pkg/model"
)

// GeneratorConfig controls synthetic dataset generation.
type GeneratorConfig struct {
	Seed      int64 // 0 means 42; fixtures stay deterministic
	Clusters  int
	StartYear int
	EndYear   int
}

// DefaultConfig returns deterministic defaults.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42,
		Clusters:  4,
		StartYear: 1990,
		EndYear:   2020,
	}
}

// Generator creates synthetic datasets with known shape.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.Clusters <= 0 {
		cfg.Clusters = 4
	}
	if cfg.EndYear <= cfg.StartYear {
		cfg.StartYear, cfg.EndYear = 1990, 2020
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Dataset produces nodes spread uniformly over clusters and years, and
// edges between random node pairs with year spans derived from the
// endpoints, the way real citation links carry their endpoint years.
func (g *Generator) Dataset(nodeCount, edgeCount int) *model.Dataset {
	ds := &model.Dataset{
		ClusterColors: make(map[int]model.RGB),
		ClusterLabels: make(map[int]string),
	}
	for c := 0; c < g.cfg.Clusters; c++ {
		shade := float32(c+1) / float32(g.cfg.Clusters)
		ds.ClusterColors[c] = model.RGB{shade, 1 - shade, 0.5}
		ds.ClusterLabels[c] = fmt.Sprintf("cluster-%d", c)
	}

	yearSpan := g.cfg.EndYear - g.cfg.StartYear + 1
	for i := 0; i < nodeCount; i++ {
		ds.Nodes = append(ds.Nodes, model.RawNode{
			ID:         fmt.Sprintf("p%d", i),
			Cluster:    i % g.cfg.Clusters,
			Year:       g.cfg.StartYear + g.rng.Intn(yearSpan),
			X:          g.rng.Float64()*200 - 100,
			Y:          g.rng.Float64()*200 - 100,
			Z:          g.rng.Float64()*20 - 10,
			Centrality: g.rng.Float64(),
			Title:      fmt.Sprintf("Paper %d on topic %d", i, i%g.cfg.Clusters),
			DOI:        fmt.Sprintf("10.1000/p%d", i),
		})
	}

	for i := 0; i < edgeCount && nodeCount > 1; i++ {
		src := g.rng.Intn(nodeCount)
		tgt := g.rng.Intn(nodeCount)
		if tgt == src {
			tgt = (tgt + 1) % nodeCount
		}
		a, b := ds.Nodes[src].Year, ds.Nodes[tgt].Year
		if a > b {
			a, b = b, a
		}
		ds.Edges = append(ds.Edges, model.RawEdge{
			Source:  ds.Nodes[src].ID,
			Target:  ds.Nodes[tgt].ID,
			MinYear: a,
			MaxYear: b,
		})
	}
	return ds
}

// ScenarioDataset builds the fixed five-node fixture used across the
// filter tests: years 2000..2020 in steps of five, cluster A (0) holding
// nodes 0 and 2, cluster B (1) holding nodes 1, 3 and 4.
func ScenarioDataset() *model.Dataset {
	ds := &model.Dataset{
		ClusterColors: map[int]model.RGB{
			0: {0.9, 0.2, 0.2},
			1: {0.2, 0.4, 0.9},
		},
		ClusterLabels: map[int]string{0: "A", 1: "B"},
	}
	years := []int{2000, 2005, 2010, 2015, 2020}
	clusters := []int{0, 1, 0, 1, 1}
	for i, year := range years {
		ds.Nodes = append(ds.Nodes, model.RawNode{
			ID:         fmt.Sprintf("n%d", i),
			Cluster:    clusters[i],
			Year:       year,
			X:          float64(i),
			Y:          float64(-i),
			Centrality: float64(i) / 4,
			Title:      fmt.Sprintf("Node %d", i),
		})
	}
	return ds
}

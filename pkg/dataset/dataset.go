// Package dataset decodes raw citation datasets into model structures.
//
// Two layouts are accepted: a single JSON file holding the whole dataset,
// or a directory with nodes.json, edges.json and clusters.json, which are
// decoded concurrently. Decoding uses goccy/go-json; the files for the
// reference dataset run to hundreds of thousands of records, and the
// drop-in faster decoder cuts load time roughly in half.
//
// Per-record problems are reported through an optional warning callback
// and the record is skipped; only an unreadable or empty dataset is an
// error.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/citescope/pkg/debug"
	"github.com/vanderheijden86/citescope/pkg/metrics"
	"github.com/vanderheijden86/citescope/pkg/model"
)

// Split-layout file names.
const (
	NodesFile    = "nodes.json"
	EdgesFile    = "edges.json"
	ClustersFile = "clusters.json"
)

// clustersDoc is the decoded shape of clusters.json.
type clustersDoc struct {
	Colors map[int]model.RGB `json:"clusterColors"`
	Labels map[int]string    `json:"clusterLabels"`
}

// Load reads a dataset from path, which may be a combined JSON file or a
// directory in split layout. warnFunc, when non-nil, receives one message
// per skipped record.
func Load(path string, warnFunc func(msg string)) (*model.Dataset, error) {
	defer metrics.Timer(metrics.DatasetDecode)()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	var ds *model.Dataset
	if info.IsDir() {
		ds, err = loadSplit(path)
	} else {
		ds, err = loadCombined(path)
	}
	if err != nil {
		return nil, err
	}

	validate(ds, warnFunc)
	debug.Log("dataset: decoded %d nodes, %d edges, %d clusters",
		len(ds.Nodes), len(ds.Edges), len(ds.ClusterColors))
	return ds, nil
}

func loadCombined(path string) (*model.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds model.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	return &ds, nil
}

// loadSplit decodes the three files of a directory-layout dataset
// concurrently; they are independent until validation.
func loadSplit(dir string) (*model.Dataset, error) {
	var (
		nodes    []model.RawNode
		edges    []model.RawEdge
		clusters clustersDoc
	)

	var g errgroup.Group
	g.Go(func() error {
		return decodeFile(filepath.Join(dir, NodesFile), &nodes)
	})
	g.Go(func() error {
		return decodeFile(filepath.Join(dir, EdgesFile), &edges)
	})
	g.Go(func() error {
		// clusters.json is optional; colors default downstream.
		path := filepath.Join(dir, ClustersFile)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
		return decodeFile(path, &clusters)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.Dataset{
		Nodes:         nodes,
		Edges:         edges,
		ClusterColors: clusters.Colors,
		ClusterLabels: clusters.Labels,
	}, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// validate drops structurally invalid records in place, reporting each
// through warnFunc.
func validate(ds *model.Dataset, warnFunc func(msg string)) {
	warn := func(msg string) {
		if warnFunc != nil {
			warnFunc(msg)
		}
	}

	kept := ds.Nodes[:0]
	for i := range ds.Nodes {
		if err := ds.Nodes[i].Validate(); err != nil {
			warn(fmt.Sprintf("skipping node %d: %v", i, err))
			continue
		}
		kept = append(kept, ds.Nodes[i])
	}
	ds.Nodes = kept

	keptEdges := ds.Edges[:0]
	for i := range ds.Edges {
		if err := ds.Edges[i].Validate(); err != nil {
			warn(fmt.Sprintf("skipping edge %d: %v", i, err))
			continue
		}
		keptEdges = append(keptEdges, ds.Edges[i])
	}
	ds.Edges = keptEdges
}

package datasource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/citescope/pkg/dataset"
	"github.com/vanderheijden86/citescope/pkg/model"
)

func TestResolveByShape(t *testing.T) {
	dir := t.TempDir()

	splitDir := filepath.Join(dir, "graph")
	if err := os.Mkdir(splitDir, 0o755); err != nil {
		t.Fatal(err)
	}
	jsonPath := filepath.Join(dir, "graph.json")
	dbPath := filepath.Join(dir, "graph.db")
	sqlitePath := filepath.Join(dir, "graph.SQLITE")
	for _, p := range []string{jsonPath, dbPath, sqlitePath} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		path string
		want SourceType
	}{
		{splitDir, SourceTypeSplit},
		{jsonPath, SourceTypeJSON},
		{dbPath, SourceTypeSQLite},
		{sqlitePath, SourceTypeSQLite}, // extension match is case-insensitive
	}
	for _, tt := range tests {
		src, err := Resolve(tt.path)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", tt.path, err)
		}
		if src.Type != tt.want {
			t.Errorf("Resolve(%s).Type = %s, want %s", tt.path, src.Type, tt.want)
		}
	}
}

func TestResolveMissingPath(t *testing.T) {
	if _, err := Resolve(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("Resolve succeeded on a missing path")
	}
}

func TestOpenJSONSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	content := `{
	  "nodes": [{"id": "a", "cluster": 0, "year": 2000, "title": "Alpha"}],
	  "edges": [],
	  "clusterColors": {"0": [1, 0, 0]},
	  "clusterLabels": {"0": "zero"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := Resolve(path)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := Open(src, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(ds.Nodes) != 1 || ds.Nodes[0].ID != "a" {
		t.Errorf("nodes = %+v, want one node a", ds.Nodes)
	}
}

// Saving a decoded dataset into the cache and opening the cache back must
// reproduce the records, with single-year edges widened to spans.
func TestSQLiteCacheRoundTrip(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "graph.json")
	content := `{
	  "nodes": [
	    {"id": "a", "cluster": 0, "year": 2000, "x": 1.5, "y": -2, "z": 0.25, "centrality": 0.7, "title": "Alpha", "doi": "10.1/a"},
	    {"id": "b", "cluster": 1, "year": 2004, "title": "Beta"}
	  ],
	  "edges": [
	    {"source": "a", "target": "b", "minYear": 2000, "maxYear": 2004},
	    {"source": "b", "target": "a", "year": 2004}
	  ],
	  "clusterColors": {"0": [1, 0, 0], "1": [0, 0.5, 1]},
	  "clusterLabels": {"0": "zero", "1": "one"}
	}`
	if err := os.WriteFile(jsonPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	ds, err := dataset.Load(jsonPath, nil)
	if err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(t.TempDir(), "cache.db")
	if err := SaveDataset(dbPath, ds); err != nil {
		t.Fatalf("SaveDataset: %v", err)
	}

	src, err := Resolve(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if src.Type != SourceTypeSQLite {
		t.Fatalf("resolved type = %s, want sqlite", src.Type)
	}
	got, err := Open(src, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if len(got.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(got.Nodes))
	}
	byID := map[string]int{}
	for i, n := range got.Nodes {
		byID[n.ID] = i
	}
	a := got.Nodes[byID["a"]]
	if a.Cluster != 0 || a.Year != 2000 || a.X != 1.5 || a.DOI != "10.1/a" {
		t.Errorf("node a = %+v", a)
	}
	b := got.Nodes[byID["b"]]
	if b.DOI != "" {
		t.Errorf("node b DOI = %q, want empty", b.DOI)
	}

	if len(got.Edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(got.Edges))
	}
	for _, e := range got.Edges {
		minYear, maxYear := e.Span()
		if e.Source == "b" && (minYear != 2004 || maxYear != 2004) {
			t.Errorf("single-year edge span = [%d, %d], want [2004, 2004]", minYear, maxYear)
		}
		if e.Source == "a" && (minYear != 2000 || maxYear != 2004) {
			t.Errorf("edge a->b span = [%d, %d], want [2000, 2004]", minYear, maxYear)
		}
	}

	if got.ClusterLabels[1] != "one" {
		t.Errorf("cluster label = %q, want %q", got.ClusterLabels[1], "one")
	}
	if c := got.ClusterColors[1]; c[1] != 0.5 {
		t.Errorf("cluster 1 color = %v", c)
	}
}

func TestSaveDatasetReplacesContents(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	first := datasetWithNodes("a", "b", "c")
	if err := SaveDataset(dbPath, first); err != nil {
		t.Fatal(err)
	}
	second := datasetWithNodes("x")
	if err := SaveDataset(dbPath, second); err != nil {
		t.Fatal(err)
	}

	reader, err := NewSQLiteReader(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	got, err := reader.LoadDataset()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != 1 || got.Nodes[0].ID != "x" {
		t.Errorf("nodes after resave = %+v, want only x", got.Nodes)
	}
}

// datasetWithNodes builds a minimal dataset for cache tests.
func datasetWithNodes(ids ...string) *model.Dataset {
	ds := &model.Dataset{}
	for i, id := range ids {
		ds.Nodes = append(ds.Nodes, model.RawNode{ID: id, Cluster: 0, Year: 2000 + i, Title: id})
	}
	return ds
}

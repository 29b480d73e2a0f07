package datasource

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/citescope/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id         TEXT PRIMARY KEY,
	cluster    INTEGER NOT NULL,
	year       INTEGER NOT NULL,
	x          REAL NOT NULL,
	y          REAL NOT NULL,
	z          REAL NOT NULL,
	centrality REAL NOT NULL,
	title      TEXT NOT NULL,
	doi        TEXT
);
CREATE TABLE IF NOT EXISTS edges (
	source   TEXT NOT NULL,
	target   TEXT NOT NULL,
	min_year INTEGER NOT NULL,
	max_year INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS clusters (
	id    INTEGER PRIMARY KEY,
	label TEXT,
	r     REAL NOT NULL,
	g     REAL NOT NULL,
	b     REAL NOT NULL
);
`

// SQLiteReader provides read access to a cached dataset database.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a dataset cache for reading.
func NewSQLiteReader(path string) (*SQLiteReader, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	return &SQLiteReader{db: db, path: path}, nil
}

// Close closes the database connection.
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadDataset reads the full dataset from the cache.
func (r *SQLiteReader) LoadDataset() (*model.Dataset, error) {
	ds := &model.Dataset{
		ClusterColors: make(map[int]model.RGB),
		ClusterLabels: make(map[int]string),
	}

	rows, err := r.db.Query(`SELECT id, cluster, year, x, y, z, centrality, title, COALESCE(doi, '') FROM nodes`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n model.RawNode
		if err := rows.Scan(&n.ID, &n.Cluster, &n.Year, &n.X, &n.Y, &n.Z, &n.Centrality, &n.Title, &n.DOI); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		ds.Nodes = append(ds.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read nodes: %w", err)
	}

	edgeRows, err := r.db.Query(`SELECT source, target, min_year, max_year FROM edges`)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e model.RawEdge
		if err := edgeRows.Scan(&e.Source, &e.Target, &e.MinYear, &e.MaxYear); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		ds.Edges = append(ds.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("read edges: %w", err)
	}

	clusterRows, err := r.db.Query(`SELECT id, COALESCE(label, ''), r, g, b FROM clusters`)
	if err != nil {
		return nil, fmt.Errorf("query clusters: %w", err)
	}
	defer clusterRows.Close()
	for clusterRows.Next() {
		var (
			id         int
			label      string
			rc, gc, bc float64
		)
		if err := clusterRows.Scan(&id, &label, &rc, &gc, &bc); err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		ds.ClusterColors[id] = model.RGB{float32(rc), float32(gc), float32(bc)}
		if label != "" {
			ds.ClusterLabels[id] = label
		}
	}
	if err := clusterRows.Err(); err != nil {
		return nil, fmt.Errorf("read clusters: %w", err)
	}

	return ds, nil
}

// SaveDataset writes a decoded dataset into a cache database, replacing
// any previous contents. Used by the --cache flow after a JSON decode.
func SaveDataset(path string, ds *model.Dataset) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("cannot create database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"nodes", "edges", "clusters"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	nodeStmt, err := tx.Prepare(`INSERT INTO nodes (id, cluster, year, x, y, z, centrality, title, doi) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare nodes: %w", err)
	}
	defer nodeStmt.Close()
	for i := range ds.Nodes {
		n := &ds.Nodes[i]
		if _, err := nodeStmt.Exec(n.ID, n.Cluster, n.Year, n.X, n.Y, n.Z, n.Centrality, n.Title, n.DOI); err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.Prepare(`INSERT INTO edges (source, target, min_year, max_year) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare edges: %w", err)
	}
	defer edgeStmt.Close()
	for i := range ds.Edges {
		e := &ds.Edges[i]
		minYear, maxYear := e.Span()
		if _, err := edgeStmt.Exec(e.Source, e.Target, minYear, maxYear); err != nil {
			return fmt.Errorf("insert edge %s->%s: %w", e.Source, e.Target, err)
		}
	}

	clusterStmt, err := tx.Prepare(`INSERT INTO clusters (id, label, r, g, b) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare clusters: %w", err)
	}
	defer clusterStmt.Close()
	for id, color := range ds.ClusterColors {
		if _, err := clusterStmt.Exec(id, ds.ClusterLabels[id], color[0], color[1], color[2]); err != nil {
			return fmt.Errorf("insert cluster %d: %w", id, err)
		}
	}

	return tx.Commit()
}

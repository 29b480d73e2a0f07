// Package model defines the data structures shared across citescope:
// the raw decoded dataset records, the loaded node/edge entities, and
// the cluster metadata maps supplied alongside a dataset.
//
// Raw types mirror the decoded JSON structures one-to-one; loaded types
// carry the dense buffer indices assigned at load time. Edges reference
// their endpoints by buffer index, never by pointer, so entities can live
// in flat arrays without lifetime concerns.
package model

import (
	"errors"
	"fmt"
)

// RGB is a color triple with components in [0,1].
type RGB [3]float32

// Vec3 is a 3D position.
type Vec3 [3]float32

// RawNode is one node record as decoded from a dataset file.
type RawNode struct {
	ID         string  `json:"id"`
	Cluster    int     `json:"cluster"`
	Year       int     `json:"year"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Centrality float64 `json:"centrality"`
	Title      string  `json:"title"`
	DOI        string  `json:"doi,omitempty"`
}

// RawEdge is one edge record as decoded from a dataset file.
// Either Year alone or the MinYear/MaxYear pair may be present;
// when only Year is given it stands for both endpoint years.
type RawEdge struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Year    int    `json:"year,omitempty"`
	MinYear int    `json:"minYear,omitempty"`
	MaxYear int    `json:"maxYear,omitempty"`
}

// Dataset bundles the decoded records with the cluster metadata maps.
type Dataset struct {
	Nodes         []RawNode      `json:"nodes"`
	Edges         []RawEdge      `json:"edges"`
	ClusterColors map[int]RGB    `json:"clusterColors"`
	ClusterLabels map[int]string `json:"clusterLabels"`
}

// Validate performs structural checks on a raw node record.
func (n *RawNode) Validate() error {
	if n.ID == "" {
		return errors.New("node id is empty")
	}
	if n.Year < 0 {
		return fmt.Errorf("node %s: negative year %d", n.ID, n.Year)
	}
	return nil
}

// Validate performs structural checks on a raw edge record.
func (e *RawEdge) Validate() error {
	if e.Source == "" || e.Target == "" {
		return errors.New("edge endpoint id is empty")
	}
	if e.MinYear != 0 && e.MaxYear != 0 && e.MinYear > e.MaxYear {
		return fmt.Errorf("edge %s->%s: minYear %d after maxYear %d",
			e.Source, e.Target, e.MinYear, e.MaxYear)
	}
	return nil
}

// Span returns the edge's effective year span, falling back to the
// single Year field when the pair is absent.
func (e *RawEdge) Span() (minYear, maxYear int) {
	if e.MinYear != 0 || e.MaxYear != 0 {
		minYear, maxYear = e.MinYear, e.MaxYear
		if minYear == 0 {
			minYear = maxYear
		}
		if maxYear == 0 {
			maxYear = minYear
		}
		return minYear, maxYear
	}
	return e.Year, e.Year
}

// Node is a loaded node with its dense buffer position assigned.
// BufferIndex is immutable after load.
type Node struct {
	ID          string
	BufferIndex int
	ClusterID   int
	Year        int
	Title       string
	DOI         string
	Centrality  float32 // normalized to [0,1] over the loaded prefix
	Position    Vec3
	Color       RGB
}

// Edge is a loaded edge. Source and Target are node buffer indices.
// [StartIndex,EndIndex) is the half-open range this edge occupies in
// the edge vertex buffer; ranges of distinct edges never overlap.
type Edge struct {
	ID            int
	Source        int
	Target        int
	MinYear       int
	MaxYear       int
	SourceCluster int
	TargetCluster int
	StartIndex    int
	EndIndex      int
}

// VertexCount returns the number of vertices the edge occupies.
func (e *Edge) VertexCount() int { return e.EndIndex - e.StartIndex }

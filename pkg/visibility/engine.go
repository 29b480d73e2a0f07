// Package visibility owns the independent filter masks over a loaded
// graph and publishes the one authoritative visibility buffer the
// renderer consumes.
//
// Three mask sources exist per node: cluster membership, year range and
// search restriction. Each is a bitset aligned with bufferIndex; the
// combined value is their AND, materialized as 0/1 floats into the node
// visibility buffer on Recompute. Edge vertex visibility derives from the
// combined endpoint values plus the edge's own year span; an edge is never
// shown while either endpoint is hidden.
//
// The search *highlight* is deliberately not a mask: it writes the
// separate emphasis buffer and hides nothing.
package visibility

import (
	"errors"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/vanderheijden86/citescope/pkg/debug"
	"github.com/vanderheijden86/citescope/pkg/metrics"
	"github.com/vanderheijden86/citescope/pkg/store"
	"github.com/vanderheijden86/citescope/pkg/temporal"
)

// ErrNotInitialized is returned when a mask mutation arrives before a
// store has been bound. The operation is a no-op; callers may retry after
// load completes.
var ErrNotInitialized = errors.New("visibility engine has no bound store")

// Engine composes the filter masks into the combined visibility buffer.
// All mutations serialize on an internal mutex, so a recompute or a
// playback reveal always completes its node pass before the dependent
// edge pass with no interleaved writes.
type Engine struct {
	mu sync.Mutex

	store *store.Store

	clusterMask *bitset.BitSet
	yearMask    *bitset.BitSet
	searchMask  *bitset.BitSet
	combined    *bitset.BitSet // scratch, rebuilt by Recompute

	// Year range state for the edge pass: an edge's own span must fall
	// inside the active range. hasYearRange is false until the first
	// SetYearRange, leaving edges unconstrained by year.
	yearFrom     int
	yearTo       int
	hasYearRange bool
}

// New creates an unbound engine. Mask setters reject with
// ErrNotInitialized until Bind is called with a loaded store.
func New() *Engine {
	return &Engine{}
}

// Bind attaches a freshly loaded store and resets every mask to
// all-visible. Binding replaces any previous store wholesale.
func (e *Engine) Bind(s *store.Store) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := uint(s.NodeCount())
	e.store = s
	e.clusterMask = bitset.New(n).SetAll()
	e.yearMask = bitset.New(n).SetAll()
	e.searchMask = bitset.New(n).SetAll()
	e.combined = bitset.New(n)
	e.hasYearRange = false
}

// Bound reports whether a store is attached.
func (e *Engine) Bound() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store != nil
}

// Store returns the bound store, or nil.
func (e *Engine) Store() *store.Store {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store
}

// SetClusterMask makes exactly the nodes of the selected clusters pass
// the cluster mask. An empty or nil selection selects every cluster.
// Always O(N).
func (e *Engine) SetClusterMask(selected map[int]bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return ErrNotInitialized
	}

	for _, n := range e.store.Nodes() {
		if len(selected) == 0 || selected[n.ClusterID] {
			e.clusterMask.Set(uint(n.BufferIndex))
		} else {
			e.clusterMask.Clear(uint(n.BufferIndex))
		}
	}
	return nil
}

// SetYearRange restricts the year mask to nodes whose year lies in
// [from, to]. A reversed pair is swapped, never rejected.
func (e *Engine) SetYearRange(from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return ErrNotInitialized
	}

	if from > to {
		from, to = to, from
	}
	e.yearFrom, e.yearTo = from, to
	e.hasYearRange = true

	for _, n := range e.store.Nodes() {
		if n.Year >= from && n.Year <= to {
			e.yearMask.Set(uint(n.BufferIndex))
		} else {
			e.yearMask.Clear(uint(n.BufferIndex))
		}
	}
	return nil
}

// SetSearchFilter restricts the search mask to the matched buffer
// indices. This is the hiding flavor of search; the non-hiding highlight
// is SetSearchHighlight.
func (e *Engine) SetSearchFilter(matched map[int]bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return ErrNotInitialized
	}

	e.searchMask.ClearAll()
	for idx := range matched {
		if idx >= 0 && idx < e.store.NodeCount() {
			e.searchMask.Set(uint(idx))
		}
	}
	return nil
}

// ClearSearchFilter lifts the search restriction.
func (e *Engine) ClearSearchFilter() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return ErrNotInitialized
	}
	e.searchMask.SetAll()
	return nil
}

// SetSearchHighlight writes the emphasis buffer: 1 for matched indices,
// 0 elsewhere. Emphasis marks nodes without hiding them and takes no part
// in the visibility composition.
func (e *Engine) SetSearchHighlight(matched map[int]bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return ErrNotInitialized
	}

	buffers := e.store.NodeBuffers()
	for i := range buffers.Emphasis {
		if matched[i] {
			buffers.Emphasis[i] = 1
		} else {
			buffers.Emphasis[i] = 0
		}
	}
	buffers.MarkDirty(store.BufferEmphasis)
	return nil
}

// Recompute rebuilds the combined visibility from the current masks and
// publishes it: an O(N) node pass, then an O(E) edge pass that reads the
// node results. Idempotent: unchanged masks produce byte-identical
// buffers. Marks the visibility buffers dirty for the renderer.
func (e *Engine) Recompute() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return ErrNotInitialized
	}
	defer metrics.Timer(metrics.Recompute)()

	e.clusterMask.CopyFull(e.combined)
	e.combined.InPlaceIntersection(e.yearMask)
	e.combined.InPlaceIntersection(e.searchMask)

	nodeBuffers := e.store.NodeBuffers()
	for i := range nodeBuffers.Visibility {
		if e.combined.Test(uint(i)) {
			nodeBuffers.Visibility[i] = 1
		} else {
			nodeBuffers.Visibility[i] = 0
		}
	}
	nodeBuffers.MarkDirty(store.BufferVisibility)

	e.edgePassLocked()
	return nil
}

// edgePassLocked derives edge vertex visibility from the combined node
// values already written this pass. Must run with the mutex held, after
// the node pass.
func (e *Engine) edgePassLocked() {
	defer metrics.Timer(metrics.EdgePass)()

	edgeBuffers := e.store.EdgeBuffers()
	for i := range e.store.Edges() {
		edge := e.store.Edge(i)

		visible := e.combined.Test(uint(edge.Source)) && e.combined.Test(uint(edge.Target))
		if visible && e.hasYearRange {
			visible = edge.MinYear >= e.yearFrom && edge.MaxYear <= e.yearTo
		}

		value := float32(0)
		if visible {
			value = 1
		}
		for v := edge.StartIndex; v < edge.EndIndex; v++ {
			edgeBuffers.Visibility[v] = value
		}
	}
	edgeBuffers.MarkDirty(store.BufferVisibility)
}

// VisibleNodeCount returns how many nodes the current visibility buffer
// shows. Used for the oversized-selection warning.
func (e *Engine) VisibleNodeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return 0
	}
	count := 0
	for _, v := range e.store.NodeBuffers().Visibility {
		if v != 0 {
			count++
		}
	}
	return count
}

// --- direct reveal path (time travel) --------------------------------------
//
// Playback shows a cumulative history, not a static snapshot, so it writes
// visibility directly instead of going through the mask composition. The
// masks themselves are untouched: the next Recompute after playback stops
// restores static filtering.

// HideAll zeroes node and edge visibility. Playback calls this once at
// session start before the reveal accumulates.
func (e *Engine) HideAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return ErrNotInitialized
	}

	nodeBuffers := e.store.NodeBuffers()
	for i := range nodeBuffers.Visibility {
		nodeBuffers.Visibility[i] = 0
	}
	nodeBuffers.MarkDirty(store.BufferVisibility)

	edgeBuffers := e.store.EdgeBuffers()
	for i := range edgeBuffers.Visibility {
		edgeBuffers.Visibility[i] = 0
	}
	edgeBuffers.MarkDirty(store.BufferVisibility)
	return nil
}

// Reveal makes the given nodes visible and then shows the given edges
// whose endpoints are both visible after the node write. The two passes
// run back to back under the lock, so a tick in flight always completes
// its buffer mutation atomically with respect to other mutators. It
// returns how many of the submitted edges were actually shown; edges
// withheld over a hidden endpoint are not counted.
func (e *Engine) Reveal(nodes []int, edges []temporal.EdgeRef) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return 0, ErrNotInitialized
	}

	nodeBuffers := e.store.NodeBuffers()
	for _, idx := range nodes {
		nodeBuffers.Visibility[idx] = 1
	}
	if len(nodes) > 0 {
		nodeBuffers.MarkDirty(store.BufferVisibility)
	}

	if len(edges) == 0 {
		return 0, nil
	}
	edgeBuffers := e.store.EdgeBuffers()
	shown := 0
	for _, ref := range edges {
		if nodeBuffers.Visibility[ref.Source] == 0 || nodeBuffers.Visibility[ref.Target] == 0 {
			continue
		}
		for v := ref.StartIndex; v < ref.EndIndex; v++ {
			edgeBuffers.Visibility[v] = 1
		}
		shown++
	}
	if shown > 0 {
		edgeBuffers.MarkDirty(store.BufferVisibility)
	}
	debug.LogIf(shown < len(edges), "visibility: %d of %d revealed edges withheld (hidden endpoint)",
		len(edges)-shown, len(edges))
	return shown, nil
}
